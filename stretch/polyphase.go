package stretch

import (
	"fmt"
	"math"

	resampler "github.com/tphakala/go-audio-resampler"
)

// Rate ratios the band-limited stage is built for. Outside this range the
// cubic transposer is used.
const (
	minPolyphaseRatio = 1.0 / 16
	maxPolyphaseRatio = 16.0

	// impulse position used to measure the filter delay
	impulseOffset = 4096
)

// polyphase is the band-limited rate stage. Each channel runs through its
// own streaming resampler; the filter delay is measured once per engine
// and removed from the output so it lines up with the cubic stage.
type polyphase struct {
	sampleRate int
	channels   int
	quality    resampler.QualityPreset

	ratio   float64 // wanted input frames per output frame
	current float64 // ratio the engines run at, 0 before the first build
	engines []*resampler.SimpleResamplerFloat32

	pending [][]float32
	planar  []float32
	inter   []float32

	skip    int // output frames still to drop
	lead    int // silent frames still to insert
	fed     int64
	emitted int64

	err error
}

func newPolyphase(sampleRate, channels int, ratio float64, quality resampler.QualityPreset) *polyphase {
	return &polyphase{
		sampleRate: sampleRate,
		channels:   channels,
		quality:    quality,
		ratio:      ratio,
		pending:    make([][]float32, channels),
	}
}

func (p *polyphase) setRatio(ratio float64) {
	p.ratio = ratio
}

func (p *polyphase) process(samples []float32, out *fifo) {
	if p.err != nil {
		return
	}

	if p.ratio != p.current {
		p.finish(out)
		if p.err != nil {
			return
		}

		if err := p.build(); err != nil {
			p.err = err
			return
		}
	}

	frames := len(samples) / p.channels
	if frames == 0 {
		return
	}

	if cap(p.planar) < frames {
		p.planar = make([]float32, frames)
	}

	planar := p.planar[:frames]

	for c, e := range p.engines {
		for f := range planar {
			planar[f] = samples[f*p.channels+c]
		}

		res, err := e.Process(planar)
		if err != nil {
			p.err = fmt.Errorf("resampling channel %d: %w", c, err)
			return
		}

		p.pending[c] = append(p.pending[c], res...)
	}

	p.fed += int64(frames)
	p.emit(out, int64(float64(p.fed)/p.current))
}

func (p *polyphase) flush(out *fifo) {
	if p.err != nil {
		return
	}

	p.finish(out)
	p.engines = nil
	p.current = 0
}

// finish drains the engines and emits exactly the input length scaled by
// the ratio, padding with silence when the filter tail falls short.
func (p *polyphase) finish(out *fifo) {
	if p.engines == nil {
		return
	}

	for c, e := range p.engines {
		res, err := e.Flush()
		if err != nil {
			p.err = fmt.Errorf("flushing channel %d: %w", c, err)
			return
		}

		p.pending[c] = append(p.pending[c], res...)
	}

	total := int64(math.Round(float64(p.fed) / p.current))
	p.emit(out, total)

	if short := total - p.emitted; short > 0 {
		out.putSilence(int(short))
	}

	for c := range p.pending {
		p.pending[c] = p.pending[c][:0]
	}
}

func (p *polyphase) build() error {
	p.engines = make([]*resampler.SimpleResamplerFloat32, p.channels)

	in := float64(p.sampleRate)
	for c := range p.engines {
		e, err := resampler.NewEngineFloat32(in, in/p.ratio, p.quality)
		if err != nil {
			return fmt.Errorf("rate stage at ratio %g: %w", p.ratio, err)
		}

		p.engines[c] = e
	}

	delay, err := measureDelay(p.engines[0], p.ratio)
	if err != nil {
		return err
	}

	p.skip, p.lead = max(delay, 0), max(-delay, 0)
	p.current = p.ratio
	p.fed, p.emitted = 0, 0

	return nil
}

// emit interleaves ready frames into out until limit frames have been
// emitted since the last build.
func (p *polyphase) emit(out *fifo, limit int64) {
	if p.lead > 0 {
		d := int(min(int64(p.lead), limit-p.emitted))
		if d > 0 {
			out.putSilence(d)
			p.emitted += int64(d)
			p.lead -= d
		}

		if p.lead > 0 {
			return
		}
	}

	n := len(p.pending[0])
	for _, ch := range p.pending[1:] {
		n = min(n, len(ch))
	}

	if p.skip > 0 {
		d := min(p.skip, n)
		for c := range p.pending {
			p.pending[c] = p.pending[c][d:]
		}

		p.skip -= d
		n -= d
	}

	n = int(min(int64(n), limit-p.emitted))

	if n <= 0 {
		return
	}

	if cap(p.inter) < n*p.channels {
		p.inter = make([]float32, n*p.channels)
	}

	inter := p.inter[:n*p.channels]
	for c, ch := range p.pending {
		for f := range n {
			inter[f*p.channels+c] = ch[f]
		}

		p.pending[c] = ch[n:]
	}

	out.put(inter)
	p.emitted += int64(n)
}

// measureDelay pushes an impulse through e and returns how many output
// frames its peak lands after the ideal position. e is reset afterwards.
func measureDelay(e *resampler.SimpleResamplerFloat32, ratio float64) (int, error) {
	in := make([]float32, 2*impulseOffset)
	in[impulseOffset] = 1

	res, err := e.Process(in)
	if err != nil {
		return 0, fmt.Errorf("measuring filter delay: %w", err)
	}

	tail, err := e.Flush()
	if err != nil {
		return 0, fmt.Errorf("measuring filter delay: %w", err)
	}

	e.Reset()

	res = append(res, tail...)
	if len(res) == 0 {
		return 0, nil
	}

	peak := 0
	for i, v := range res {
		if math.Abs(float64(v)) > math.Abs(float64(res[peak])) {
			peak = i
		}
	}

	return peak - int(math.Round(impulseOffset/ratio)), nil
}
