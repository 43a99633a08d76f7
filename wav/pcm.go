package wav

import (
	"fmt"

	"github.com/go-audio/audio"
)

const (
	wavFormatPCM   = 1
	pcm8Bias       = 128.0
	scalePCMInt8   = 128.0
	scalePCMInt16  = 32768.0
	scalePCMInt24  = 8388608.0
	scalePCMInt32  = 2147483648.0
	maxPCMUint8    = 255
	maxPCMInt16    = 32767
	minPCMInt16    = -32768
	maxPCMInt24    = 8388607
	minPCMInt24    = -8388608
	maxPCMInt32    = 2147483647
	minPCMInt32    = -2147483648
	maxBlockAlign  = 320
	maxNumChannels = 9
)

// BytesPerSample returns the storage size of one sample at the given depth.
func BytesPerSample(bitDepth int) (int, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return bitDepth / 8, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

func clampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// DecodeSamples converts little-endian PCM bytes into normalized samples.
// It decodes min(len(dst), len(src)/bytesPerSample) samples; a trailing
// partial sample in src is ignored.
func DecodeSamples(dst []float32, src []byte, bitDepth int) (int, error) {
	size, err := BytesPerSample(bitDepth)
	if err != nil {
		return 0, err
	}

	n := min(len(dst), len(src)/size)

	switch bitDepth {
	case 8:
		for i := range n {
			dst[i] = float32((float64(src[i]) - pcm8Bias) / scalePCMInt8)
		}
	case 16:
		for i := range n {
			dst[i] = float32(float64(int16(le16(src[i*2:]))) / scalePCMInt16)
		}
	case 24:
		for i := range n {
			dst[i] = float32(float64(audio.Int24LETo32(src[i*3:i*3+3])) / scalePCMInt24)
		}
	case 32:
		for i := range n {
			dst[i] = float32(float64(int32(le32(src[i*4:]))) / scalePCMInt32)
		}
	}

	return n, nil
}

// EncodeSamples converts normalized samples into little-endian PCM bytes.
// Values are scaled, saturated to the integer range and truncated toward
// zero. It returns the number of bytes written to dst.
func EncodeSamples(dst []byte, src []float32, bitDepth int) (int, error) {
	size, err := BytesPerSample(bitDepth)
	if err != nil {
		return 0, err
	}

	n := min(len(src), len(dst)/size)

	switch bitDepth {
	case 8:
		for i := range n {
			dst[i] = uint8(clampFloat64(float64(src[i])*scalePCMInt8+pcm8Bias, 0, maxPCMUint8))
		}
	case 16:
		for i := range n {
			v := int16(clampFloat64(float64(src[i])*scalePCMInt16, minPCMInt16, maxPCMInt16))
			putLE16(dst[i*2:], uint16(v))
		}
	case 24:
		for i := range n {
			v := int32(clampFloat64(float64(src[i])*scalePCMInt24, minPCMInt24, maxPCMInt24))
			copy(dst[i*3:i*3+3], audio.Int32toInt24LEBytes(v))
		}
	case 32:
		for i := range n {
			v := int32(clampFloat64(float64(src[i])*scalePCMInt32, minPCMInt32, maxPCMInt32))
			putLE32(dst[i*4:], uint32(v))
		}
	}

	return n * size, nil
}
