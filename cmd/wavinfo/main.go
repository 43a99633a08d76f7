// This tool prints the header of the passed wav files and, on request, the
// peak and RMS levels and the dominant frequency of their samples.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/cmplx"
	"os"

	"github.com/argusdusty/gofft"
	"github.com/cwbudde/soundstretch/wav"
)

const missingPathMessage = "You must pass the path of the file to inspect"

// FFT window bounds in frames.
const (
	minFFTSize = 256
	maxFFTSize = 1 << 15
)

var errMissingPath = errors.New("missing path argument")

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

func run(args []string, out io.Writer) error {
	flagSet := flag.NewFlagSet("wavinfo", flag.ContinueOnError)
	levels := flagSet.Bool("levels", false, "decode the samples and print peak and RMS levels")
	spectrum := flagSet.Bool("spectrum", false, "print the dominant frequency of the first channel")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if flagSet.NArg() < 1 {
		return errMissingPath
	}

	for _, path := range flagSet.Args() {
		if err := describe(path, out, *levels, *spectrum); err != nil {
			return err
		}
	}

	return nil
}

func describe(path string, out io.Writer, levels, spectrum bool) error {
	dec, err := wav.Open(path)
	if err != nil {
		return err
	}
	defer dec.Close()

	h := dec.Header()

	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Channels: %d\n", h.Format.NumChannels)
	fmt.Fprintf(out, "SampleRate: %d\n", h.Format.SampleRate)
	fmt.Fprintf(out, "BitDepth: %d\n", h.Format.BitsPerSample)
	fmt.Fprintf(out, "ByteRate: %d\n", h.Format.ByteRate)
	fmt.Fprintf(out, "Frames: %d\n", h.NumFrames())
	fmt.Fprintf(out, "Length: %d ms\n", h.LengthMS())
	fmt.Fprintf(out, "Duration: %s\n", h.Duration())

	if levels {
		peak, rms, err := measure(dec)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		fmt.Fprintf(out, "Peak: %.4f (%.2f dBFS)\n", peak, dBFS(peak))
		fmt.Fprintf(out, "RMS: %.4f (%.2f dBFS)\n", rms, dBFS(rms))
	}

	if !spectrum {
		return nil
	}

	if levels {
		if err := dec.Rewind(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	freq, ok, err := dominantFrequency(dec)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if !ok {
		fmt.Fprintln(out, "DominantFrequency: n/a")
		return nil
	}

	fmt.Fprintf(out, "DominantFrequency: %.1f Hz\n", freq)

	return nil
}

func measure(dec *wav.Decoder) (peak, rms float64, err error) {
	buf := make([]float32, 4096)

	var (
		sum   float64
		count int
	)

	for !dec.EOF() {
		var n int

		n, err = dec.ReadSamples(buf)
		if err != nil {
			return 0, 0, err
		}

		for _, v := range buf[:n] {
			f := float64(v)
			peak = max(peak, math.Abs(f))
			sum += f * f
		}

		count += n
	}

	if count == 0 {
		return 0, 0, nil
	}

	return peak, math.Sqrt(sum / float64(count)), nil
}

func dBFS(level float64) float64 {
	if level == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(level)
}

// dominantFrequency returns the centre frequency of the strongest FFT bin
// over the first frames of channel 0. ok is false when the stream is too
// short for a meaningful window.
func dominantFrequency(dec *wav.Decoder) (freq float64, ok bool, err error) {
	frames := min(dec.Header().NumFrames(), maxFFTSize)

	n := 1
	for n*2 <= frames {
		n *= 2
	}

	if n < minFFTSize {
		return 0, false, nil
	}

	ch := dec.NumChannels()
	buf := make([]float32, n*ch)

	for read := 0; read < len(buf) && !dec.EOF(); {
		var k int

		k, err = dec.ReadSamples(buf[read:])
		if err != nil {
			return 0, false, err
		}

		read += k
	}

	// Hann window
	windowed := make([]float64, n)
	for i := range windowed {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = float64(buf[i*ch]) * w
	}

	coeffs := gofft.Float64ToComplex128Array(windowed)
	if err := gofft.FFT(coeffs); err != nil {
		return 0, false, err
	}

	best := 1
	for k := 2; k < n/2; k++ {
		if cmplx.Abs(coeffs[k]) > cmplx.Abs(coeffs[best]) {
			best = k
		}
	}

	return float64(best) * float64(dec.SampleRate()) / float64(n), true, nil
}
