package wav

import (
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// chunkHandler decodes one kind of header chunk into a Header.
// Decode reports done when the header scan must stop after this chunk.
type chunkHandler interface {
	CanHandle(chunkID [4]byte) bool
	Decode(h *Header, ch *riff.Chunk) (done bool, err error)
}

// chunkRegistry resolves chunks to handlers.
type chunkRegistry struct {
	handlers []chunkHandler
}

func newDefaultChunkRegistry() *chunkRegistry {
	return &chunkRegistry{
		handlers: []chunkHandler{
			&fmtChunkHandler{},
			&factChunkHandler{},
			&dataChunkHandler{},
		},
	}
}

// decode dispatches a chunk to the first matching handler.
func (r *chunkRegistry) decode(h *Header, ch *riff.Chunk) (handled, done bool, err error) {
	for _, handler := range r.handlers {
		if !handler.CanHandle(ch.ID) {
			continue
		}

		stop, err := handler.Decode(h, ch)
		if err != nil {
			return true, false, fmt.Errorf("decoding %q chunk: %w", ch.ID, err)
		}

		return true, stop, nil
	}

	return false, false, nil
}

// readRecord reads min(ch.Size, len(rec)) bytes into rec and drains the
// rest of the chunk. Fields the chunk is too short for stay zero.
func readRecord(ch *riff.Chunk, rec []byte) error {
	n := min(ch.Size, len(rec))

	if _, err := io.ReadFull(ch, rec[:n]); err != nil {
		return err
	}

	if !ch.IsFullyRead() {
		ch.Drain()
	}

	return nil
}

type fmtChunkHandler struct{}

func (h *fmtChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == riff.FmtID
}

func (h *fmtChunkHandler) Decode(hdr *Header, ch *riff.Chunk) (bool, error) {
	var rec [fmtRecordSize]byte

	if err := readRecord(ch, rec[:]); err != nil {
		return false, err
	}

	hdr.Format = FormatHeader{
		ID:            ch.ID,
		Length:        uint32(ch.Size),
		AudioFormat:   le16(rec[0:]),
		NumChannels:   le16(rec[2:]),
		SampleRate:    le32(rec[4:]),
		ByteRate:      le32(rec[8:]),
		BlockAlign:    le16(rec[12:]),
		BitsPerSample: le16(rec[14:]),
	}

	return false, nil
}

type factChunkHandler struct{}

func (h *factChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == CIDFact
}

func (h *factChunkHandler) Decode(hdr *Header, ch *riff.Chunk) (bool, error) {
	var rec [factRecordSize]byte

	if err := readRecord(ch, rec[:]); err != nil {
		return false, err
	}

	hdr.Fact = FactHeader{
		ID:           ch.ID,
		Length:       uint32(ch.Size),
		SampleLength: le32(rec[:]),
	}

	return false, nil
}

// dataChunkHandler records the data region and ends the header scan. The
// payload is left unread for the decoder.
type dataChunkHandler struct{}

func (h *dataChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == riff.DataFormatID
}

func (h *dataChunkHandler) Decode(hdr *Header, ch *riff.Chunk) (bool, error) {
	hdr.Data = DataHeader{ID: ch.ID, Length: uint32(ch.Size)}

	return true, nil
}
