// This tool converts a wav file into an aiff file with the same format and
// stores it next to the source unless -output is given.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/cwbudde/soundstretch/wav"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

const bufferSize = 8192

var errMissingPath = errors.New("you must set the -path flag")

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("wavtoaiff", flag.ContinueOnError)

	path := flagSet.String("path", "", "the path to the wav file to convert to aiff")
	output := flagSet.String("output", "", "the aiff file to write, defaults to the source path with an .aif extension")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return errMissingPath
	}

	sourcePath, err := expandHome(*path)
	if err != nil {
		return err
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".aif"
	}

	if err := convert(sourcePath, outPath); err != nil {
		return err
	}

	log.Printf("wav file converted to %s", outPath)

	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home directory: %w", err)
	}

	return filepath.Join(usr.HomeDir, path[2:]), nil
}

func convert(sourcePath, outPath string) error {
	decoder, err := wav.Open(sourcePath)
	if err != nil {
		return err
	}
	defer decoder.Close()

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", outPath, err)
	}
	defer outFile.Close()

	bitDepth := decoder.BitDepth()
	encoder := aiff.NewEncoder(outFile, decoder.SampleRate(), bitDepth, decoder.NumChannels())

	buf := &audio.Float32Buffer{Data: make([]float32, bufferSize)}
	intBuf := &audio.IntBuffer{SourceBitDepth: bitDepth}

	for !decoder.EOF() {
		num, err := decoder.PCMBuffer(buf)
		if err != nil {
			return err
		}

		if num == 0 {
			break
		}

		intBuf.Format = buf.Format
		float32ToIntBuffer(buf.Data[:num], intBuf, bitDepth)

		if err := encoder.Write(intBuf); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outPath, err)
	}

	return nil
}

// float32ToIntBuffer fills dst with signed PCM integers at bitDepth. AIFF
// stores 8 bit samples signed, unlike wav.
func float32ToIntBuffer(data []float32, dst *audio.IntBuffer, bitDepth int) {
	dst.Data = dst.Data[:0]
	for _, v := range data {
		dst.Data = append(dst.Data, float32ToPCMInt(v, bitDepth))
	}
}

func float32ToPCMInt(value float32, bitDepth int) int {
	if bitDepth < 8 || bitDepth > 32 {
		return 0
	}

	scale := float64(int64(1) << (bitDepth - 1))
	sample := int64(float64(clampFloat32(value, -1, 1)) * scale)

	return int(min(max(sample, -int64(scale)), int64(scale)-1))
}

func clampFloat32(value, lo, hi float32) float32 {
	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}
