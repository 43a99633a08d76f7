package wav

const scratchAlign = 8

// scratch is a byte buffer private to one stream. It only ever grows.
type scratch struct {
	buf []byte
}

// bytes returns a slice of n bytes backed by the buffer, growing it to the
// next multiple of scratchAlign when needed.
func (s *scratch) bytes(n int) []byte {
	if n > len(s.buf) {
		s.buf = make([]byte, (n+scratchAlign-1)&^(scratchAlign-1))
	}

	return s.buf[:n]
}

func (s *scratch) release() {
	s.buf = nil
}
