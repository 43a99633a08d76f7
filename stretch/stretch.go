// Package stretch changes the tempo, pitch and playback rate of
// interleaved float32 audio.
//
// Tempo is changed by overlap-add time scaling. Playback rate is changed
// by a band-limited polyphase resampler, or by plain cubic interpolation
// when anti-aliasing is off. A pitch shift is the two combined: the tempo
// is divided by the pitch factor and the rate multiplied by it, so the
// duration stays the same. When neither stage is needed the input is
// passed through untouched.
package stretch

import (
	"math"

	resampler "github.com/tphakala/go-audio-resampler"
)

const (
	defaultSampleRate = 44100
	defaultChannels   = 1

	// unity is the tolerance below which a factor counts as 1.
	unity = 1e-9
)

// rateStage resamples interleaved frames. ratio is input frames per
// output frame.
type rateStage interface {
	setRatio(ratio float64)
	process(samples []float32, out *fifo)
	flush(out *fifo)
}

// Stretcher is a streaming tempo/pitch/rate processor. Configure it before
// the first Feed; the processing stages are built from the settings at
// that point. Later tempo, rate or pitch changes retune the active stages.
type Stretcher struct {
	sampleRate int
	channels   int

	tempo float64
	rate  float64
	pitch float64

	quick     bool
	antiAlias bool
	speech    bool

	tsm    *timeStretch
	tr     rateStage
	built  bool
	mid    fifo
	out    fifo
	fed    int64
	issued int64
	ended  bool
}

// New returns a Stretcher for mono 44.1 kHz audio with every change
// disabled and the anti-alias filter on.
func New() *Stretcher {
	s := &Stretcher{
		sampleRate: defaultSampleRate,
		tempo:      1,
		rate:       1,
		pitch:      1,
		antiAlias:  true,
	}
	s.setChannels(defaultChannels)

	return s
}

// SetSampleRate sets the input sample rate in Hz. Buffered audio is
// discarded. Non-positive rates are ignored.
func (s *Stretcher) SetSampleRate(rate int) {
	if rate <= 0 {
		return
	}

	s.sampleRate = rate
	s.Clear()
}

// SetChannels sets the number of interleaved channels. Buffered audio is
// discarded. Non-positive counts are ignored.
func (s *Stretcher) SetChannels(channels int) {
	if channels <= 0 {
		return
	}

	s.setChannels(channels)
}

func (s *Stretcher) setChannels(channels int) {
	s.channels = channels
	s.mid = newFIFO(channels)
	s.out = newFIFO(channels)
	s.Clear()
}

// SetPitchSemitones shifts the pitch by the given number of semitones
// without changing the duration.
func (s *Stretcher) SetPitchSemitones(semitones float64) {
	s.pitch = math.Exp2(semitones / 12)
	s.retune()
}

// SetTempoChange changes the tempo by pct percent; 100 doubles it.
func (s *Stretcher) SetTempoChange(pct float64) {
	s.tempo = 1 + pct/100
	s.retune()
}

// SetRateChange changes the playback rate by pct percent, affecting both
// tempo and pitch.
func (s *Stretcher) SetRateChange(pct float64) {
	s.rate = 1 + pct/100
	s.retune()
}

// SetQuick trades quality for speed: a coarser correlation search in the
// tempo stage and a shorter filter in the rate stage.
func (s *Stretcher) SetQuick(on bool) { s.quick = on }

// SetAntiAlias selects the band-limited rate stage. With it off the rate
// is changed by cubic interpolation alone. A running polyphase stage is
// kept until the next stream.
func (s *Stretcher) SetAntiAlias(on bool) {
	s.antiAlias = on
	if tr, ok := s.tr.(*transposer); ok {
		tr.antiAlias = on
	}
}

// SetSpeech selects shorter processing windows tuned for speech.
func (s *Stretcher) SetSpeech(on bool) { s.speech = on }

// Tempo returns the time-scaling factor applied by the tempo stage.
func (s *Stretcher) Tempo() float64 { return s.tempo / s.pitch }

// Rate returns the resampling factor applied by the rate stage.
func (s *Stretcher) Rate() float64 { return s.rate * s.pitch }

// Ratio returns the expected number of output frames per input frame.
func (s *Stretcher) Ratio() float64 { return 1 / (s.tempo * s.rate) }

// Bypassed reports whether input is passed through unchanged.
func (s *Stretcher) Bypassed() bool {
	return isUnity(s.Tempo()) && isUnity(s.Rate())
}

func isUnity(f float64) bool {
	return math.Abs(f-1) < unity
}

// Clear drops all buffered audio and starts a new stream.
func (s *Stretcher) Clear() {
	s.tsm = nil
	s.tr = nil
	s.built = false
	s.mid.clear()
	s.out.clear()
	s.fed = 0
	s.issued = 0
	s.ended = false
}

func (s *Stretcher) build() {
	if !isUnity(s.Tempo()) {
		w := musicWindow
		if s.speech {
			w = speechWindow
		}

		s.tsm = newTimeStretch(s.sampleRate, s.channels, w, s.quick)
		s.tsm.setTempo(s.Tempo())
	}

	if !isUnity(s.Rate()) {
		s.tr = s.newRateStage(s.Rate())
	}

	s.built = true
}

func (s *Stretcher) newRateStage(ratio float64) rateStage {
	if !s.antiAlias || ratio < minPolyphaseRatio || ratio > maxPolyphaseRatio {
		return newTransposer(s.channels, ratio, s.antiAlias)
	}

	quality := resampler.QualityMedium
	if s.quick {
		quality = resampler.QualityLow
	}

	return newPolyphase(s.sampleRate, s.channels, ratio, quality)
}

// Err returns the error that stopped the rate stage, if any. Audio fed
// after such an error is dropped.
func (s *Stretcher) Err() error {
	if p, ok := s.tr.(*polyphase); ok {
		return p.err
	}

	return nil
}

func (s *Stretcher) retune() {
	if s.tsm != nil {
		s.tsm.setTempo(s.Tempo())
	}

	if s.tr != nil {
		s.tr.setRatio(s.Rate())
	}
}

// Feed queues frames interleaved frames from samples. Feeding after
// SignalEnd starts a new stream.
func (s *Stretcher) Feed(samples []float32, frames int) {
	if s.ended {
		s.Clear()
	}

	if !s.built {
		s.build()
	}

	frames = min(frames, len(samples)/s.channels)
	if frames <= 0 {
		return
	}

	s.fed += int64(frames)
	s.push(samples[:frames*s.channels])
}

func (s *Stretcher) push(samples []float32) {
	switch {
	case s.tsm == nil && s.tr == nil:
		s.out.put(samples)
	case s.tr == nil:
		s.tsm.process(samples, &s.out)
	case s.tsm == nil:
		s.tr.process(samples, &s.out)
	default:
		s.tsm.process(samples, &s.mid)
		s.tr.process(s.mid.samples(), &s.out)
		s.mid.clear()
	}
}

// SignalEnd flushes the stages. The total output is then trimmed or padded
// with silence to the input length scaled by Ratio.
func (s *Stretcher) SignalEnd() {
	if s.ended || !s.built {
		s.ended = true
		return
	}

	s.ended = true

	switch {
	case s.tsm != nil && s.tr != nil:
		s.tsm.flush(&s.mid)
		s.tr.process(s.mid.samples(), &s.out)
		s.mid.clear()
		s.tr.flush(&s.out)
	case s.tsm != nil:
		s.tsm.flush(&s.out)
	case s.tr != nil:
		s.tr.flush(&s.out)
	}

	target := int64(math.Round(float64(s.fed)*s.Ratio())) - s.issued
	if target < 0 {
		target = 0
	}

	if pending := int64(s.out.frames()); pending > target {
		s.out.truncate(int(target))
	} else {
		s.out.putSilence(int(target - pending))
	}
}

// Drain moves up to maxFrames processed frames into dst and returns the
// number of frames written. Before SignalEnd the output never runs ahead
// of the input scaled by Ratio.
func (s *Stretcher) Drain(dst []float32, maxFrames int) int {
	n := maxFrames
	if !s.ended {
		limit := int64(float64(s.fed)*s.Ratio()) - s.issued
		n = int(min(int64(n), max(limit, 0)))
	}

	n = s.out.take(dst, n)
	s.issued += int64(n)

	return n
}
