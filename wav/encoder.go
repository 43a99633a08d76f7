package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
)

var errNilBuffer = errors.New("can't add a nil buffer")

// Encoder writes normalized samples into a PCM WAV container.
//
// A header with zero lengths is written when the encoder is created and
// rewritten with the final lengths by Close. If the sink can't seek, the
// provisional header is left as is.
type Encoder struct {
	w      io.Writer
	closer io.Closer
	header Header

	bytesPerSample int
	scratch        scratch
	written        int64
	closed         bool

	seekable bool
	start    int64
}

// NewEncoder validates the format, writes the provisional header to w and
// returns an encoder positioned at the start of the data region. The
// caller keeps ownership of w.
func NewEncoder(w io.Writer, sampleRate, bitDepth, numChans int) (*Encoder, error) {
	h, err := newPCMHeader(sampleRate, bitDepth, numChans)
	if err != nil {
		return nil, err
	}

	e := &Encoder{
		w:              w,
		header:         h,
		bytesPerSample: bitDepth / 8,
	}

	if s, ok := w.(io.Seeker); ok {
		pos, err := s.Seek(0, io.SeekCurrent)
		if err == nil {
			e.seekable = true
			e.start = pos
		}
	}

	if err := e.writeHeader(); err != nil {
		return nil, err
	}

	return e, nil
}

// Create creates the named file and returns an encoder writing to it. The
// file is closed by Close.
func Create(path string, sampleRate, bitDepth, numChans int) (*Encoder, error) {
	if _, err := newPCMHeader(sampleRate, bitDepth, numChans); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, ioErr("create", err)
	}

	e, err := NewEncoder(f, sampleRate, bitDepth, numChans)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	e.closer = f

	return e, nil
}

func (e *Encoder) writeHeader() error {
	buf := e.scratch.bytes(HeaderSize)
	e.header.put(buf)

	if _, err := e.w.Write(buf); err != nil {
		return ioErr("writing header", err)
	}

	return nil
}

// Header returns a copy of the header as last written.
func (e *Encoder) Header() Header {
	return e.header
}

// BytesWritten returns the number of sample data bytes written so far.
func (e *Encoder) BytesWritten() int64 {
	return e.written
}

// WriteSamples encodes interleaved samples and appends them to the data
// region.
func (e *Encoder) WriteSamples(samples []float32) error {
	if e.closed {
		return ErrClosed
	}

	if len(samples) == 0 {
		return nil
	}

	buf := e.scratch.bytes(len(samples) * e.bytesPerSample)

	n, err := EncodeSamples(buf, samples, int(e.header.Format.BitsPerSample))
	if err != nil {
		return err
	}

	written, err := e.w.Write(buf[:n])
	e.written += int64(written)

	if err != nil {
		return ioErr("writing samples", err)
	}

	return nil
}

// Write encodes and writes the passed buffer.
// Don't forget to Close() the encoder or the lengths won't be valid.
func (e *Encoder) Write(buf *audio.Float32Buffer) error {
	if buf == nil {
		return errNilBuffer
	}

	return e.WriteSamples(buf.Data)
}

// Close finalizes the header and closes the sink if the encoder created
// it. Calling Close more than once is a no-op.
func (e *Encoder) Close() error {
	if e == nil || e.closed {
		return nil
	}

	e.closed = true

	err := e.finalize()
	e.scratch.release()

	if e.closer != nil {
		if cerr := e.closer.Close(); cerr != nil && err == nil {
			err = ioErr("close", cerr)
		}

		e.closer = nil
	}

	return err
}

func (e *Encoder) finalize() error {
	dataLen := uint32(min(e.written, math.MaxUint32-(HeaderSize-8)))

	e.header.Data.Length = dataLen
	e.header.Riff.PackageLength = dataLen + HeaderSize - 8

	e.header.Fact.SampleLength = 0
	if blockAlign := uint32(e.header.Format.BlockAlign); blockAlign > 0 {
		e.header.Fact.SampleLength = dataLen / blockAlign
	}

	if !e.seekable {
		return nil
	}

	s := e.w.(io.Seeker)

	if _, err := s.Seek(e.start, io.SeekStart); err != nil {
		return ioErr("seeking to header", err)
	}

	if err := e.writeHeader(); err != nil {
		return err
	}

	// jump back to the end of the data.
	if _, err := s.Seek(0, io.SeekEnd); err != nil {
		return ioErr("seeking to end of data", err)
	}

	if f, ok := e.w.(*os.File); ok {
		if err := f.Sync(); err != nil {
			return ioErr("sync", err)
		}
	}

	return nil
}
