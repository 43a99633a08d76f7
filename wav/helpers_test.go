package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

type testChunk struct {
	id   string
	size uint32
	data []byte
}

var (
	errFileTooSmall         = errors.New("file too small")
	errInvalidRiffWaveHdr   = errors.New("invalid riff/wave header")
	errChunkExceedsFileSize = errors.New("chunk exceeds file size")
)

// parseWavChunks splits a WAV image into its top level chunks.
func parseWavChunks(data []byte) ([]testChunk, error) {
	if len(data) < 12 {
		return nil, errFileTooSmall
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errInvalidRiffWaveHdr
	}

	chunks := make([]testChunk, 0)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8

		end := offset + int(size)
		if end > len(data) {
			return nil, fmt.Errorf("%w: %q", errChunkExceedsFileSize, id)
		}

		payload := append([]byte(nil), data[offset:end]...)
		chunks = append(chunks, testChunk{id: id, size: size, data: payload})

		offset = end
	}

	return chunks, nil
}

func findChunk(chunks []testChunk, id string) (*testChunk, int) {
	for i := range chunks {
		if chunks[i].id == id {
			return &chunks[i], i
		}
	}

	return nil, -1
}

func fmtPayload(channels, sampleRate, bitDepth int) []byte {
	blockAlign := channels * bitDepth / 8

	p := make([]byte, 16)
	binary.LittleEndian.PutUint16(p[0:2], wavFormatPCM)
	binary.LittleEndian.PutUint16(p[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(p[4:8], uint32(sampleRate))
	binary.LittleEndian.PutUint32(p[8:12], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(p[12:14], uint16(blockAlign))
	binary.LittleEndian.PutUint16(p[14:16], uint16(bitDepth))

	return p
}

func writeRiffHeader(b *bytes.Buffer) {
	b.WriteString("RIFF")
	b.Write([]byte{0, 0, 0, 0})
	b.WriteString("WAVE")
}

func writeTestChunk(t *testing.T, b *bytes.Buffer, id string, payload []byte) {
	t.Helper()

	if len(id) != 4 {
		t.Fatalf("chunk id must be 4 bytes, got %q", id)
	}

	b.WriteString(id)

	err := binary.Write(b, binary.LittleEndian, uint32(len(payload)))
	if err != nil {
		t.Fatalf("write chunk size for %q: %v", id, err)
	}

	if _, err := b.Write(payload); err != nil {
		t.Fatalf("write chunk payload for %q: %v", id, err)
	}
}

// makeTestWav builds a WAV image with a fmt chunk, the passed extra chunks
// before it, and a data chunk holding data.
func makeTestWav(t *testing.T, channels, sampleRate, bitDepth int, data []byte, extra ...testChunk) []byte {
	t.Helper()

	var b bytes.Buffer
	writeRiffHeader(&b)

	for _, ch := range extra {
		writeTestChunk(t, &b, ch.id, ch.data)
	}

	writeTestChunk(t, &b, "fmt ", fmtPayload(channels, sampleRate, bitDepth))
	writeTestChunk(t, &b, "data", data)

	out := b.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	return out
}

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	data []byte
	pos  int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.data) {
		s.data = append(s.data, make([]byte, end-len(s.data))...)
	}

	n := copy(s.data[s.pos:], p)
	s.pos += n

	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int

	switch whence {
	case 0:
		base = 0
	case 1:
		base = s.pos
	case 2:
		base = len(s.data)
	}

	pos := base + int(offset)
	if pos < 0 {
		return 0, errors.New("negative position")
	}

	s.pos = pos

	return int64(pos), nil
}

// writeOnly hides every method but Write.
type writeOnly struct {
	w *bytes.Buffer
}

func (w writeOnly) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// readOnly hides every method but Read.
type readOnly struct {
	r *bytes.Reader
}

func (r readOnly) Read(p []byte) (int, error) {
	return r.r.Read(p)
}
