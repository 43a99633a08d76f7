package stretch

// fifo is a growable queue of interleaved frames. Consumed frames are
// reclaimed lazily once they make up half of the backing slice.
type fifo struct {
	channels int
	buf      []float32
	start    int
}

func newFIFO(channels int) fifo {
	return fifo{channels: channels}
}

func (f *fifo) frames() int {
	return (len(f.buf) - f.start) / f.channels
}

// samples returns the queued samples without consuming them. The slice is
// only valid until the next put.
func (f *fifo) samples() []float32 {
	return f.buf[f.start:]
}

func (f *fifo) put(samples []float32) {
	if len(samples) == 0 {
		return
	}

	f.compact()
	f.buf = append(f.buf, samples...)
}

func (f *fifo) putSilence(frames int) {
	if frames <= 0 {
		return
	}

	f.compact()

	n := frames * f.channels
	f.buf = append(f.buf, make([]float32, n)...)
}

func (f *fifo) skip(frames int) {
	f.start += min(frames*f.channels, len(f.buf)-f.start)
	if f.start == len(f.buf) {
		f.clear()
	}
}

// take moves up to maxFrames frames into dst and returns the frame count.
func (f *fifo) take(dst []float32, maxFrames int) int {
	n := min(maxFrames, f.frames(), len(dst)/f.channels)
	if n <= 0 {
		return 0
	}

	copy(dst, f.buf[f.start:f.start+n*f.channels])
	f.skip(n)

	return n
}

// truncate drops queued frames past the first n.
func (f *fifo) truncate(n int) {
	if n < f.frames() {
		f.buf = f.buf[:f.start+max(n, 0)*f.channels]
	}
}

func (f *fifo) clear() {
	f.buf = f.buf[:0]
	f.start = 0
}

func (f *fifo) compact() {
	if f.start == 0 || f.start < len(f.buf)/2 {
		return
	}

	n := copy(f.buf, f.buf[f.start:])
	f.buf = f.buf[:n]
	f.start = 0
}
