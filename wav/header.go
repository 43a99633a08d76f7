package wav

import (
	"fmt"
	"math"
	"time"

	"github.com/go-audio/riff"
)

// HeaderSize is the size of the canonical header written by Encoder.
const HeaderSize = 56

const (
	fmtRecordSize  = 16
	factRecordSize = 4
)

// CIDFact is the chunk ID for the fact chunk.
var CIDFact = [4]byte{'f', 'a', 'c', 't'}

// RiffHeader is the RIFF descriptor at the start of the file.
type RiffHeader struct {
	ID            [4]byte
	PackageLength uint32
	Format        [4]byte
}

// FormatHeader mirrors the 16 byte PCM fmt chunk.
type FormatHeader struct {
	ID            [4]byte
	Length        uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// FactHeader holds the fact chunk sample count.
type FactHeader struct {
	ID           [4]byte
	Length       uint32
	SampleLength uint32
}

// DataHeader describes the sample data region.
type DataHeader struct {
	ID     [4]byte
	Length uint32
}

// Header is a parsed or generated WAV header.
type Header struct {
	Riff   RiffHeader
	Format FormatHeader
	Fact   FactHeader
	Data   DataHeader
}

// newPCMHeader builds a header for linear PCM with every length set to zero.
func newPCMHeader(sampleRate, bitDepth, numChans int) (Header, error) {
	size, err := BytesPerSample(bitDepth)
	if err != nil {
		return Header{}, err
	}

	blockAlign := size * numChans

	h := Header{
		Riff: RiffHeader{ID: riff.RiffID, Format: riff.WavFormatID},
		Format: FormatHeader{
			ID:            riff.FmtID,
			Length:        fmtRecordSize,
			AudioFormat:   wavFormatPCM,
			NumChannels:   uint16(numChans),
			SampleRate:    uint32(sampleRate),
			ByteRate:      uint32(sampleRate * blockAlign),
			BlockAlign:    uint16(blockAlign),
			BitsPerSample: uint16(bitDepth),
		},
		Fact: FactHeader{ID: CIDFact, Length: factRecordSize},
		Data: DataHeader{ID: riff.DataFormatID},
	}

	if numChans < 1 || numChans > maxNumChannels || blockAlign > maxBlockAlign {
		return Header{}, fmt.Errorf("%w: %d channels", ErrIllegalHeader, numChans)
	}

	if err := h.Validate(); err != nil {
		return Header{}, err
	}

	return h, nil
}

// Validate checks the tags and the legal ranges of the format fields.
func (h Header) Validate() error {
	if h.Format.ID != riff.FmtID || h.Data.ID != riff.DataFormatID {
		return ErrNotWAV
	}

	f := h.Format

	switch {
	case f.NumChannels < 1 || f.NumChannels > maxNumChannels:
		return fmt.Errorf("%w: %d channels", ErrIllegalHeader, f.NumChannels)
	case f.SampleRate < 4000 || f.SampleRate > 192000:
		return fmt.Errorf("%w: sample rate %d", ErrIllegalHeader, f.SampleRate)
	case f.BitsPerSample < 8 || f.BitsPerSample > 32:
		return fmt.Errorf("%w: %d bits per sample", ErrIllegalHeader, f.BitsPerSample)
	case f.BlockAlign < 1 || f.BlockAlign > maxBlockAlign:
		return fmt.Errorf("%w: block align %d", ErrIllegalHeader, f.BlockAlign)
	}

	return nil
}

// BytesPerSample returns bits per sample / 8.
func (h Header) BytesPerSample() int {
	return int(h.Format.BitsPerSample) / 8
}

// NumFrames returns the number of sample frames in the data region. For
// non-PCM formats the fact chunk count is used.
func (h Header) NumFrames() int {
	if h.Format.BlockAlign == 0 {
		return 0
	}

	if h.Format.AudioFormat > wavFormatPCM {
		return int(h.Fact.SampleLength)
	}

	return int(h.Data.Length) / int(h.Format.BlockAlign)
}

// Duration returns the playback time of the data region.
func (h Header) Duration() time.Duration {
	return framesDuration(h.NumFrames(), int(h.Format.SampleRate))
}

// LengthMS returns the playback time in milliseconds, rounded to nearest.
func (h Header) LengthMS() int64 {
	if h.Format.SampleRate == 0 {
		return 0
	}

	return int64(math.Round(float64(h.NumFrames()) * 1000 / float64(h.Format.SampleRate)))
}

// MarshalBinary encodes the header in the canonical 56 byte layout.
func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	h.put(b)

	return b, nil
}

func (h Header) put(b []byte) {
	copy(b[0:4], h.Riff.ID[:])
	putLE32(b[4:], h.Riff.PackageLength)
	copy(b[8:12], h.Riff.Format[:])

	copy(b[12:16], h.Format.ID[:])
	putLE32(b[16:], h.Format.Length)
	putLE16(b[20:], h.Format.AudioFormat)
	putLE16(b[22:], h.Format.NumChannels)
	putLE32(b[24:], h.Format.SampleRate)
	putLE32(b[28:], h.Format.ByteRate)
	putLE16(b[32:], h.Format.BlockAlign)
	putLE16(b[34:], h.Format.BitsPerSample)

	copy(b[36:40], h.Fact.ID[:])
	putLE32(b[40:], h.Fact.Length)
	putLE32(b[44:], h.Fact.SampleLength)

	copy(b[48:52], h.Data.ID[:])
	putLE32(b[52:], h.Data.Length)
}

// String implements the Stringer interface.
func (h Header) String() string {
	return fmt.Sprintf("%s/%s: %d Hz, %d bit, %d ch, %d frames (%s)",
		nullTermStr(h.Riff.ID[:]), nullTermStr(h.Riff.Format[:]),
		h.Format.SampleRate, h.Format.BitsPerSample, h.Format.NumChannels,
		h.NumFrames(), h.Duration())
}
