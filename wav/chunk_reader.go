package wav

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/riff"
)

// readHeader parses the RIFF descriptor and walks the header chunks until
// the data chunk. On success r is positioned at the first sample byte.
func readHeader(r io.Reader, reg *chunkRegistry) (Header, error) {
	var h Header

	var desc [12]byte
	if _, err := io.ReadFull(r, desc[:]); err != nil {
		return h, headerReadErr("reading RIFF descriptor", err)
	}

	copy(h.Riff.ID[:], desc[0:4])
	h.Riff.PackageLength = le32(desc[4:])
	copy(h.Riff.Format[:], desc[8:12])

	if h.Riff.ID != riff.RiffID || h.Riff.Format != riff.WavFormatID {
		return h, ErrNotWAV
	}

	for {
		var label [8]byte
		if _, err := io.ReadFull(r, label[:]); err != nil {
			return h, headerReadErr("reading chunk header", err)
		}

		var id [4]byte
		copy(id[:], label[:4])

		if !isChunkLabel(id) {
			return h, fmt.Errorf("%w: invalid chunk label %q", ErrNotWAV, id)
		}

		// fmt and fact lengths are signed; data and skipped chunks are not.
		size := le32(label[4:])
		if size > math.MaxInt32 && (id == riff.FmtID || id == CIDFact) {
			return h, fmt.Errorf("%w: %q chunk length %d", ErrNotWAV, id, size)
		}

		ch := &riff.Chunk{
			ID:   id,
			Size: int(size),
			R:    io.LimitReader(r, int64(size)),
		}

		handled, done, err := reg.decode(&h, ch)
		if err != nil {
			return h, headerReadErr("reading header", err)
		}

		if done {
			break
		}

		if handled {
			continue
		}

		if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
			return h, headerReadErr(fmt.Sprintf("skipping %q chunk", id), err)
		}
	}

	if err := h.Validate(); err != nil {
		return h, err
	}

	return h, nil
}

// isChunkLabel reports whether every byte of a chunk ID is in [' ', 'z'].
func isChunkLabel(id [4]byte) bool {
	for _, c := range id {
		if c < ' ' || c > 'z' {
			return false
		}
	}

	return true
}

// headerReadErr classifies a failure while reading the header. Running out
// of input means the file is truncated; anything else is an I/O failure.
func headerReadErr(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", ErrNotWAV, op, err)
	}

	return ioErr(op, err)
}
