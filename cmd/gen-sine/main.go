package main

import (
	"flag"
	"log"
	"math"
	"os"

	"github.com/cwbudde/soundstretch/wav"
)

const chunkFrames = 4096

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("gen-sine", flag.ContinueOnError)

	output := flagSet.String("output", "output.wav", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 5, "length in seconds of output file")
	sampleRate := flagSet.Int("rate", 48000, "sample rate in hertz")
	bitDepth := flagSet.Int("bits", 16, "bits per sample (8, 16, 24 or 32)")
	channels := flagSet.Int("channels", 1, "number of channels, all carrying the same tone")
	amplitude := flagSet.Float64("amplitude", 1, "peak amplitude between 0 and 1")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	log.Printf("generating a %f sec sine wav at %f hz", *length, *frequency)

	wavOut, err := wav.Create(*output, *sampleRate, *bitDepth, *channels)
	if err != nil {
		return err
	}

	numFrames := int(float64(*sampleRate) * *length)
	buf := make([]float32, 0, chunkFrames**channels)

	for i := range numFrames {
		v := float32(*amplitude * math.Sin(float64(i)/float64(*sampleRate)**frequency*2*math.Pi))
		for range *channels {
			buf = append(buf, v)
		}

		if len(buf) == cap(buf) || i == numFrames-1 {
			if err := wavOut.WriteSamples(buf); err != nil {
				wavOut.Close()
				return err
			}

			buf = buf[:0]
		}
	}

	return wavOut.Close()
}
