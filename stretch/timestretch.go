package stretch

import "math"

// quickSeekStep is the stride of the coarse correlation scan used when
// quick seeking is enabled.
const quickSeekStep = 8

// window holds the processing windows of the time stretcher in
// milliseconds.
type window struct {
	sequenceMS float64
	seekMS     float64
	overlapMS  float64
}

var (
	musicWindow  = window{sequenceMS: 82, seekMS: 28, overlapMS: 12}
	speechWindow = window{sequenceMS: 40, seekMS: 15, overlapMS: 8}
)

func msToFrames(sampleRate int, ms float64) int {
	return int(float64(sampleRate) * ms / 1000)
}

// timeStretch changes tempo without touching pitch. It cuts the input into
// sequences, searches the seek window for the offset that best matches the
// tail of the previous sequence, and cross-fades the two over the overlap
// length.
type timeStretch struct {
	channels   int
	seqLen     int
	seekLen    int
	overlapLen int
	quick      bool

	tempo       float64
	nominalSkip float64
	skipFract   float64
	sampleReq   int

	in     fifo
	tail   []float32
	blend  []float32
	primed bool
}

func newTimeStretch(sampleRate, channels int, w window, quick bool) *timeStretch {
	ts := &timeStretch{
		channels: channels,
		quick:    quick,
		in:       newFIFO(channels),
	}

	ts.overlapLen = max(msToFrames(sampleRate, w.overlapMS), 8)
	ts.seqLen = max(msToFrames(sampleRate, w.sequenceMS), 2*ts.overlapLen)
	ts.seekLen = max(msToFrames(sampleRate, w.seekMS), 1)
	ts.tail = make([]float32, ts.overlapLen*channels)
	ts.blend = make([]float32, ts.overlapLen*channels)
	ts.setTempo(1)

	return ts
}

func (ts *timeStretch) setTempo(tempo float64) {
	ts.tempo = tempo
	ts.nominalSkip = tempo * float64(ts.seqLen-ts.overlapLen)
	ts.sampleReq = max(int(ts.nominalSkip)+1, ts.seqLen+ts.seekLen)
}

func (ts *timeStretch) process(samples []float32, out *fifo) {
	ts.in.put(samples)

	ch := ts.channels
	for ts.in.frames() >= ts.sampleReq {
		src := ts.in.samples()

		pos := 0
		if ts.primed {
			pos = ts.bestOffset(src)
			ts.crossfade(src[pos*ch : (pos+ts.overlapLen)*ch])
			out.put(ts.blend)
		} else {
			out.put(src[:ts.overlapLen*ch])
			ts.primed = true
		}

		out.put(src[(pos+ts.overlapLen)*ch : (pos+ts.seqLen-ts.overlapLen)*ch])
		copy(ts.tail, src[(pos+ts.seqLen-ts.overlapLen)*ch:(pos+ts.seqLen)*ch])

		ts.skipFract += ts.nominalSkip
		skip := int(ts.skipFract)
		ts.skipFract -= float64(skip)
		ts.in.skip(skip)
	}
}

// flush pushes the buffered input through with trailing silence and emits
// the pending overlap tail.
func (ts *timeStretch) flush(out *fifo) {
	if ts.in.frames() > 0 || ts.primed {
		ts.in.putSilence(ts.sampleReq)
		ts.process(nil, out)
		out.put(ts.tail)
	}

	ts.in.clear()
	ts.skipFract = 0
	ts.primed = false
}

func (ts *timeStretch) crossfade(next []float32) {
	ch := ts.channels
	step := 1 / float32(ts.overlapLen)

	for f := range ts.overlapLen {
		fade := float32(f) * step
		for c := range ch {
			i := f*ch + c
			ts.blend[i] = ts.tail[i]*(1-fade) + next[i]*fade
		}
	}
}

// bestOffset returns the frame offset within the seek window whose overlap
// correlates best with the previous tail.
func (ts *timeStretch) bestOffset(src []float32) int {
	if !ts.quick {
		return ts.scan(src, 0, ts.seekLen, 1)
	}

	coarse := ts.scan(src, 0, ts.seekLen, quickSeekStep)
	lo := max(coarse-quickSeekStep+1, 0)
	hi := min(coarse+quickSeekStep, ts.seekLen)

	return ts.scan(src, lo, hi, 1)
}

func (ts *timeStretch) scan(src []float32, lo, hi, step int) int {
	best, bestCorr := lo, math.Inf(-1)

	for pos := lo; pos < hi; pos += step {
		if c := ts.correlation(src, pos); c > bestCorr {
			best, bestCorr = pos, c
		}
	}

	return best
}

func (ts *timeStretch) correlation(src []float32, pos int) float64 {
	seg := src[pos*ts.channels : (pos+ts.overlapLen)*ts.channels]

	var corr, norm float64
	for i, v := range seg {
		corr += float64(ts.tail[i]) * float64(v)
		norm += float64(v) * float64(v)
	}

	return corr / math.Sqrt(norm+1e-12)
}
