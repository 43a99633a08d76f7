// soundstretch changes the tempo, pitch and playback rate of a WAV file
// independently of each other.
//
//	soundstretch in.wav out.wav -tempo=25 -pitch=-3
//	cat in.wav | soundstretch stdin stdout -rate=10 > out.wav
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cwbudde/soundstretch"
	"github.com/cwbudde/soundstretch/stretch"
	"github.com/cwbudde/soundstretch/wav"
)

func main() {
	log.SetFlags(0)

	err := run(os.Args[1:], os.Stdin, os.Stdout)

	switch {
	case errors.Is(err, errUsage):
		log.Fatal(whatText + usageText)
	case errors.Is(err, errIllegalParameter):
		log.Fatalf("ERROR : %v.\n\n%s", err, usageText)
	case err != nil:
		log.Fatalf("ERROR : %v", err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	p, err := parseParams(args)
	if err != nil {
		return err
	}

	dec, err := openInput(p.in, stdin)
	if err != nil {
		return err
	}
	defer dec.Close()

	var enc *wav.Encoder
	if p.out != "" {
		enc, err = openOutput(p.out, stdout, dec)
		if err != nil {
			return err
		}
	}

	st := stretch.New()
	soundstretch.Setup(st, dec, p.pitch)
	st.SetTempoChange(p.tempo)
	st.SetRateChange(p.rate)
	st.SetQuick(p.quick)
	st.SetAntiAlias(!p.noAntiAlias)
	st.SetSpeech(p.speech)

	if enc != nil {
		log.Print("Uses 32bit floating point sample type.")
		log.Printf("Tempo change = %+g %%", p.tempo)
		log.Printf("Pitch change = %+g semitones", p.pitch)
		log.Printf("Rate change  = %+g %%", p.rate)
	} else {
		log.Print("Warning: output file name missing, won't output anything.")
	}

	if err := soundstretch.Run(dec, enc, st, soundstretch.DefaultChunkSize); err != nil {
		if enc != nil {
			enc.Close()
		}

		return err
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", p.out, err)
		}
	}

	log.Print("Done!")

	return nil
}

func openInput(name string, stdin io.Reader) (*wav.Decoder, error) {
	if name != stdinName {
		return wav.Open(name)
	}

	dec, err := wav.NewDecoder(bufio.NewReader(stdin))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stdinName, err)
	}

	return dec, nil
}

// openOutput creates the output with the same format as the input.
func openOutput(name string, stdout io.Writer, dec *wav.Decoder) (*wav.Encoder, error) {
	if name != stdoutName {
		return wav.Create(name, dec.SampleRate(), dec.BitDepth(), dec.NumChannels())
	}

	enc, err := wav.NewEncoder(stdout, dec.SampleRate(), dec.BitDepth(), dec.NumChannels())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stdoutName, err)
	}

	return enc, nil
}
