package wav

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func float32ApproxEqual(a, b float32, epsilon float64) bool {
	return math.Abs(float64(a)-float64(b)) <= epsilon
}

func TestClampFloat64(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min, max float64
		want     float64
	}{
		{"below min", -2, -1, 1, -1},
		{"at min", -1, -1, 1, -1},
		{"in range", 0.5, -1, 1, 0.5},
		{"at max", 1, -1, 1, 1},
		{"above max", 2, -1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampFloat64(tt.value, tt.min, tt.max)
			if got != tt.want {
				t.Fatalf("clampFloat64(%f, %f, %f)=%f, want %f", tt.value, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestBytesPerSample(t *testing.T) {
	tests := []struct {
		bitDepth int
		want     int
		wantErr  bool
	}{
		{8, 1, false},
		{16, 2, false},
		{24, 3, false},
		{32, 4, false},
		{12, 0, true},
		{64, 0, true},
		{0, 0, true},
	}

	for _, tt := range tests {
		got, err := BytesPerSample(tt.bitDepth)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedBitDepth) || !errors.Is(err, ErrFormat) {
				t.Fatalf("BytesPerSample(%d) err=%v, want ErrUnsupportedBitDepth", tt.bitDepth, err)
			}

			continue
		}

		if err != nil || got != tt.want {
			t.Fatalf("BytesPerSample(%d)=%d, %v, want %d", tt.bitDepth, got, err, tt.want)
		}
	}
}

func TestDecodeSamples(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		src      []byte
		want     []float32
	}{
		{"8bit", 8, []byte{0, 128, 255, 64}, []float32{-1, 0, 127.0 / 128, -0.5}},
		{"16bit", 16, []byte{0x00, 0x80, 0xff, 0x7f, 0x00, 0x40, 0xff, 0xff}, []float32{-1, 32767.0 / 32768, 0.5, -1.0 / 32768}},
		{"24bit", 24, []byte{0x00, 0x00, 0x80, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff}, []float32{-1, 8388607.0 / 8388608, -1.0 / 8388608}},
		{"32bit", 32, []byte{0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x40}, []float32{-1, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, len(tt.want))

			n, err := DecodeSamples(dst, tt.src, tt.bitDepth)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			if n != len(tt.want) {
				t.Fatalf("decoded %d samples, want %d", n, len(tt.want))
			}

			for i := range tt.want {
				if dst[i] != tt.want[i] {
					t.Fatalf("sample[%d]=%v, want %v", i, dst[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeSamplesIgnoresPartialSample(t *testing.T) {
	dst := make([]float32, 4)

	n, err := DecodeSamples(dst, []byte{0x00, 0x40, 0x00, 0xc0, 0x12}, 16)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if n != 2 {
		t.Fatalf("decoded %d samples, want 2", n)
	}

	if dst[0] != 0.5 || dst[1] != -0.5 || dst[2] != 0 {
		t.Fatalf("unexpected samples %v", dst)
	}
}

func TestDecodeSamplesLimitedByDst(t *testing.T) {
	dst := make([]float32, 1)

	n, err := DecodeSamples(dst, []byte{0x00, 0x40, 0x00, 0xc0}, 16)
	if err != nil || n != 1 {
		t.Fatalf("DecodeSamples=%d, %v, want 1, nil", n, err)
	}
}

func TestDecodeSamplesUnsupportedDepth(t *testing.T) {
	_, err := DecodeSamples(make([]float32, 2), []byte{1, 2, 3, 4}, 12)
	if !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Fatalf("err=%v, want ErrUnsupportedBitDepth", err)
	}
}

func TestEncodeSamplesSaturates(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		value    float32
		want     []byte
	}{
		{"8bit above", 8, 2, []byte{255}},
		{"8bit one", 8, 1, []byte{255}},
		{"8bit zero", 8, 0, []byte{128}},
		{"8bit minus one", 8, -1, []byte{0}},
		{"8bit below", 8, -2, []byte{0}},
		{"16bit above", 16, 1.5, []byte{0xff, 0x7f}},
		{"16bit one", 16, 1, []byte{0xff, 0x7f}},
		{"16bit minus one", 16, -1, []byte{0x00, 0x80}},
		{"16bit below", 16, -3, []byte{0x00, 0x80}},
		{"24bit above", 24, 4, []byte{0xff, 0xff, 0x7f}},
		{"24bit below", 24, -4, []byte{0x00, 0x00, 0x80}},
		{"32bit above", 32, 1.01, []byte{0xff, 0xff, 0xff, 0x7f}},
		{"32bit below", 32, -1.01, []byte{0x00, 0x00, 0x00, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.bitDepth/8)

			n, err := EncodeSamples(dst, []float32{tt.value}, tt.bitDepth)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			if n != len(tt.want) || !bytes.Equal(dst, tt.want) {
				t.Fatalf("EncodeSamples(%v)=% x, want % x", tt.value, dst[:n], tt.want)
			}
		})
	}
}

func TestEncodeSamplesTruncatesTowardZero(t *testing.T) {
	dst := make([]byte, 4)

	_, err := EncodeSamples(dst, []float32{1.9 / 32768, -1.9 / 32768}, 16)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := []byte{0x01, 0x00, 0xff, 0xff}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got % x, want % x", dst, want)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	for _, bitDepth := range []int{8, 16, 24, 32} {
		size := bitDepth / 8

		src := make([]byte, 256*size)
		for i := range src {
			src[i] = byte(i*37 + i/size)
		}

		samples := make([]float32, 256)

		n, err := DecodeSamples(samples, src, bitDepth)
		if err != nil || n != 256 {
			t.Fatalf("%d bit decode=%d, %v", bitDepth, n, err)
		}

		out := make([]byte, len(src))

		m, err := EncodeSamples(out, samples, bitDepth)
		if err != nil || m != len(src) {
			t.Fatalf("%d bit encode=%d, %v", bitDepth, m, err)
		}

		if bitDepth < 32 {
			if !bytes.Equal(out, src) {
				t.Fatalf("%d bit round trip mismatch", bitDepth)
			}

			continue
		}

		// float32 keeps 24 bits of mantissa, so 32 bit values lose their low bits.
		for i := 0; i < len(src); i += 4 {
			want := int64(int32(le32(src[i:])))
			got := int64(int32(le32(out[i:])))

			if d := want - got; d > 256 || d < -256 {
				t.Fatalf("32 bit sample %d: got %d, want %d", i/4, got, want)
			}
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float32{-1, -0.75, -0.3, 0, 0.001, 0.5, 0.99, 1}
	scales := map[int]float64{8: scalePCMInt8, 16: scalePCMInt16, 24: scalePCMInt24, 32: scalePCMInt32}

	for bitDepth, scale := range scales {
		buf := make([]byte, len(values)*bitDepth/8)

		if _, err := EncodeSamples(buf, values, bitDepth); err != nil {
			t.Fatalf("%d bit encode: %v", bitDepth, err)
		}

		got := make([]float32, len(values))

		if _, err := DecodeSamples(got, buf, bitDepth); err != nil {
			t.Fatalf("%d bit decode: %v", bitDepth, err)
		}

		for i, v := range values {
			if !float32ApproxEqual(got[i], v, 1/scale+1e-7) {
				t.Fatalf("%d bit: decode(encode(%v))=%v", bitDepth, v, got[i])
			}
		}
	}
}

func TestCodecWithSwappedOrder(t *testing.T) {
	saved := diskOrder
	diskOrder = reverseSwapper{}

	defer func() { diskOrder = saved }()

	values := []float32{0.5, -0.25, 0.125}
	buf := make([]byte, len(values)*2)

	if _, err := EncodeSamples(buf, values, 16); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := make([]float32, len(values))

	if _, err := DecodeSamples(got, buf, 16); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("sample[%d]=%v, want %v", i, got[i], values[i])
		}
	}
}
