package wav

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
)

// Decoder streams normalized samples out of a WAV container.
// The header is parsed when the decoder is created.
type Decoder struct {
	r      io.Reader
	closer io.Closer
	chunks *chunkRegistry
	header Header

	bytesPerSample int
	scratch        scratch
	consumed       uint32
	srcEOF         bool

	seekable bool
	start    int64
}

// NewDecoder parses the WAV header from r and returns a decoder positioned
// at the first sample. The caller keeps ownership of r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{
		r:      r,
		chunks: newDefaultChunkRegistry(),
	}

	if s, ok := r.(io.Seeker); ok {
		pos, err := s.Seek(0, io.SeekCurrent)
		if err == nil {
			d.seekable = true
			d.start = pos
		}
	}

	if err := d.readHeader(); err != nil {
		return nil, err
	}

	return d, nil
}

// Open opens the named file for decoding. The file is closed by Close, or
// right away if the header can't be parsed.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErr("open", err)
	}

	d, err := NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	d.closer = f

	return d, nil
}

func (d *Decoder) readHeader() error {
	h, err := readHeader(d.r, d.chunks)
	if err != nil {
		return err
	}

	size, err := BytesPerSample(int(h.Format.BitsPerSample))
	if err != nil {
		return err
	}

	d.header = h
	d.bytesPerSample = size
	d.consumed = 0
	d.srcEOF = false

	return nil
}

// Header returns a copy of the parsed header.
func (d *Decoder) Header() Header {
	return d.header
}

// NumChannels returns the number of interleaved channels.
func (d *Decoder) NumChannels() int {
	return int(d.header.Format.NumChannels)
}

// SampleRate returns the sample rate in hertz.
func (d *Decoder) SampleRate() int {
	return int(d.header.Format.SampleRate)
}

// BitDepth returns the bits per sample of the source.
func (d *Decoder) BitDepth() int {
	return int(d.header.Format.BitsPerSample)
}

// Format returns the audio format of the decoded content.
func (d *Decoder) Format() *audio.Format {
	return &audio.Format{
		NumChannels: d.NumChannels(),
		SampleRate:  d.SampleRate(),
	}
}

// Duration returns the playback time declared by the header.
func (d *Decoder) Duration() time.Duration {
	return d.header.Duration()
}

// EOF reports whether the data region has been consumed or the source ran
// out of bytes. A truncated file ends the stream early.
func (d *Decoder) EOF() bool {
	return d.consumed >= d.header.Data.Length || d.srcEOF
}

// ReadSamples decodes up to len(dst) interleaved samples into dst and
// returns how many were decoded. It never reads past the declared data
// region, so trailing bytes after it are ignored. Zero with a nil error
// means the stream is exhausted.
func (d *Decoder) ReadSamples(dst []float32) (int, error) {
	if d.r == nil {
		return 0, ErrClosed
	}

	want := uint64(len(dst)) * uint64(d.bytesPerSample)
	if remaining := uint64(d.header.Data.Length - min(d.consumed, d.header.Data.Length)); want > remaining {
		want = remaining
	}

	if want == 0 || d.srcEOF {
		return 0, nil
	}

	buf := d.scratch.bytes(int(want))

	n, err := io.ReadFull(d.r, buf)
	d.consumed += uint32(n)

	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ioErr("reading samples", err)
		}

		d.srcEOF = true
	}

	return DecodeSamples(dst, buf[:n], int(d.header.Format.BitsPerSample))
}

// PCMBuffer populates the passed buffer and returns the number of samples
// decoded.
func (d *Decoder) PCMBuffer(buf *audio.Float32Buffer) (int, error) {
	if buf == nil {
		return 0, nil
	}

	buf.Format = d.Format()
	buf.SourceBitDepth = d.BitDepth()

	return d.ReadSamples(buf.Data)
}

// Rewind seeks back to the start of the container and parses the header
// again. The source must be seekable.
func (d *Decoder) Rewind() error {
	s, ok := d.r.(io.Seeker)
	if !ok || !d.seekable {
		return ErrNotSeekable
	}

	if _, err := s.Seek(d.start, io.SeekStart); err != nil {
		return ioErr("rewind", err)
	}

	return d.readHeader()
}

// Close releases the scratch buffer and closes the source if the decoder
// opened it.
func (d *Decoder) Close() error {
	if d == nil {
		return nil
	}

	d.scratch.release()
	d.r = nil

	if d.closer == nil {
		return nil
	}

	err := d.closer.Close()
	d.closer = nil

	if err != nil {
		return ioErr("close", err)
	}

	return nil
}
