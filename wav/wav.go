package wav

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrFormat is the base error for every malformed or unsupported header.
	ErrFormat = errors.New("wav format error")
	// ErrNotWAV indicates a bad magic, a missing tag or a corrupt chunk sequence.
	ErrNotWAV = fmt.Errorf("%w: input file is corrupt or not a WAV file", ErrFormat)
	// ErrIllegalHeader indicates a header field outside its legal range.
	ErrIllegalHeader = fmt.Errorf("%w: illegal wav file header format parameters", ErrFormat)
	// ErrUnsupportedBitDepth is returned for depths other than 8, 16, 24 and 32 bits.
	ErrUnsupportedBitDepth = fmt.Errorf("%w: unsupported bit depth", ErrFormat)
	// ErrIO wraps failures of the underlying byte source or sink.
	ErrIO = errors.New("wav i/o error")
	// ErrNotSeekable is returned by Rewind when the source can't seek.
	ErrNotSeekable = errors.New("underlying stream is not seekable")
	// ErrClosed is returned when writing to a finalized encoder.
	ErrClosed = errors.New("stream already closed")
)

func ioErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

func nullTermStr(b []byte) string {
	return string(b[:clen(b)])
}

func clen(num []byte) int {
	for i := range num {
		if num[i] == 0 {
			return i
		}
	}

	return len(num)
}

func framesDuration(frames int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}

	return time.Duration(math.Round(float64(frames) * float64(time.Second) / float64(sampleRate)))
}
