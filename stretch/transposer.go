package stretch

// antiAliasAlpha is the coefficient of the one-pole low-pass applied ahead
// of the interpolator when the transposer drops samples.
const antiAliasAlpha = 0.5

// transposer changes the playback rate of interleaved audio by cubic
// interpolation. A ratio above 1 consumes more input frames than it emits.
type transposer struct {
	channels  int
	ratio     float64
	antiAlias bool

	in     fifo
	pos    float64
	primed bool

	lp       []float32
	filtered []float32
	frame    []float32
}

func newTransposer(channels int, ratio float64, antiAlias bool) *transposer {
	return &transposer{
		channels:  channels,
		ratio:     ratio,
		antiAlias: antiAlias,
		in:        newFIFO(channels),
		lp:        make([]float32, channels),
		frame:     make([]float32, channels),
	}
}

func (tr *transposer) setRatio(ratio float64) {
	tr.ratio = ratio
}

func (tr *transposer) filtering() bool {
	return tr.antiAlias && tr.ratio > 1
}

func (tr *transposer) process(samples []float32, out *fifo) {
	if len(samples) < tr.channels {
		return
	}

	if !tr.primed {
		// The first frame stands in for the one before it, and seeds the
		// filter so it starts without a transient.
		copy(tr.lp, samples[:tr.channels])
		tr.in.put(samples[:tr.channels])
		tr.primed = true
	}

	if tr.filtering() {
		tr.filtered = append(tr.filtered[:0], samples...)
		for i, v := range tr.filtered {
			c := i % tr.channels
			tr.lp[c] += antiAliasAlpha * (v - tr.lp[c])
			tr.filtered[i] = tr.lp[c]
		}

		samples = tr.filtered
	}

	tr.in.put(samples)
	tr.interpolate(out)
}

// flush repeats the last frame so the interpolator can reach the end of
// the input.
func (tr *transposer) flush(out *fifo) {
	if !tr.primed {
		return
	}

	src := tr.in.samples()
	if len(src) >= tr.channels {
		copy(tr.frame, src[len(src)-tr.channels:])
		for range 3 {
			tr.in.put(tr.frame)
		}
	}

	tr.interpolate(out)
	tr.in.clear()
	tr.pos = 0
	tr.primed = false
}

func (tr *transposer) interpolate(out *fifo) {
	src := tr.in.samples()
	n := tr.in.frames()
	ch := tr.channels

	for {
		i := int(tr.pos)
		if i+3 >= n {
			break
		}

		x := float32(tr.pos - float64(i))
		base := i * ch

		for c := range ch {
			tr.frame[c] = cubic(src[base+c], src[base+ch+c], src[base+2*ch+c], src[base+3*ch+c], x)
		}

		out.put(tr.frame)
		tr.pos += tr.ratio
	}

	drop := min(int(tr.pos), n)
	tr.in.skip(drop)
	tr.pos -= float64(drop)
}

// cubic is the Catmull-Rom spline through y1 and y2 evaluated at x in [0,1).
func cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}
