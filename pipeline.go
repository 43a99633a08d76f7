// Package soundstretch pumps WAV audio through a sample processor that
// changes tempo, pitch or playback rate.
package soundstretch

import (
	"errors"
	"fmt"

	"github.com/cwbudde/soundstretch/wav"
)

// DefaultChunkSize is the number of interleaved samples moved per
// iteration. Run rounds it down to whole frames.
const DefaultChunkSize = 2048

// ErrChunkTooSmall is returned when a chunk can't hold one frame.
var ErrChunkTooSmall = errors.New("chunk size smaller than one frame")

// Processor consumes and produces interleaved sample frames. Drain may
// return zero frames even though more input was fed, and a single Feed may
// make more output available than one Drain call can return. A processor
// that can fail mid-stream reports it through an Err() error method, which
// Run checks once the output is drained.
type Processor interface {
	Feed(samples []float32, frames int)
	Drain(dst []float32, maxFrames int) int
	SignalEnd()
}

// Configurable is implemented by processors that need the stream format
// before the first Feed.
type Configurable interface {
	SetSampleRate(rate int)
	SetChannels(channels int)
	SetPitchSemitones(semitones float64)
}

// Setup configures proc for the format of dec.
func Setup(proc Configurable, dec *wav.Decoder, pitch float64) {
	proc.SetSampleRate(dec.SampleRate())
	proc.SetChannels(dec.NumChannels())
	proc.SetPitchSemitones(pitch)
}

// Run reads dec to the end, feeds every chunk to proc, and writes whatever
// proc emits to enc. Once the input is exhausted it signals the end of the
// stream and drains the remaining output. Run does nothing if either
// stream is nil.
func Run(dec *wav.Decoder, enc *wav.Encoder, proc Processor, chunkSize int) error {
	if dec == nil || enc == nil {
		return nil
	}

	channels := dec.NumChannels()
	if chunkSize < channels {
		return fmt.Errorf("%w: %d samples for %d channels", ErrChunkTooSmall, chunkSize, channels)
	}

	drainFrames := chunkSize / channels
	buf := make([]float32, drainFrames*channels)

	for !dec.EOF() {
		n, err := dec.ReadSamples(buf)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		proc.Feed(buf, n/channels)

		if err := drain(proc, enc, buf, drainFrames, channels); err != nil {
			return err
		}
	}

	proc.SignalEnd()

	if err := drain(proc, enc, buf, drainFrames, channels); err != nil {
		return err
	}

	if p, ok := proc.(interface{ Err() error }); ok && p.Err() != nil {
		return fmt.Errorf("processing: %w", p.Err())
	}

	return nil
}

// drain moves output from proc to enc until proc has nothing ready.
func drain(proc Processor, enc *wav.Encoder, buf []float32, maxFrames, channels int) error {
	for {
		frames := proc.Drain(buf, maxFrames)
		if frames == 0 {
			return nil
		}

		if err := enc.WriteSamples(buf[:frames*channels]); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
}
