package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	stdinName  = "stdin"
	stdoutName = "stdout"

	minTempo = -95.0
	maxTempo = 5000.0
	minPitch = -60.0
	maxPitch = 60.0
)

const whatText = `This application processes WAV audio files by modifying the sound tempo,
pitch and playback rate properties independently from each other.

`

const usageText = `Usage :
    soundstretch infilename outfilename [switches]

To use standard input/output pipes, give 'stdin' and 'stdout' as filenames.

Available switches are:
  -tempo=n : Change sound tempo by n percents  (n=-95..+5000 %)
  -pitch=n : Change sound pitch by n semitones (n=-60..+60 semitones)
  -rate=n  : Change sound rate by n percents   (n=-95..+5000 %)
  -quick   : Use quicker tempo change algorithm (gain speed, lose quality)
  -naa     : Don't use anti-alias filtering (gain speed, lose quality)
  -speech  : Tune algorithm for speech processing (default is for music)
`

var (
	errUsage            = errors.New("too few parameters")
	errIllegalParameter = errors.New("illegal parameter")
)

type params struct {
	in  string
	out string // empty when no output is wanted

	tempo float64
	pitch float64
	rate  float64

	quick       bool
	noAntiAlias bool
	speech      bool
}

// switchNames maps the first letter of a switch to its flag name. Value
// switches require an '=' in the argument.
var switchNames = map[byte]struct {
	name     string
	hasValue bool
}{
	't': {"tempo", true},
	'p': {"pitch", true},
	'r': {"rate", true},
	'q': {"quick", false},
	'n': {"naa", false},
	's': {"speech", false},
}

// parseParams reads "infile outfile [switches]". A second positional that
// starts with '-' is taken as the first switch and leaves the output unset.
// Switches are matched on their first letter, case-insensitively.
func parseParams(args []string) (params, error) {
	var p params

	if len(args) < 2 {
		return p, errUsage
	}

	p.in = args[0]

	switches := args[2:]
	if strings.HasPrefix(args[1], "-") {
		switches = args[1:]
	} else {
		p.out = args[1]
	}

	normalized, err := normalizeSwitches(switches)
	if err != nil {
		return p, err
	}

	fs := flag.NewFlagSet("soundstretch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Float64Var(&p.tempo, "tempo", 0, "tempo change in percent")
	fs.Float64Var(&p.pitch, "pitch", 0, "pitch change in semitones")
	fs.Float64Var(&p.rate, "rate", 0, "rate change in percent")
	fs.BoolVar(&p.quick, "quick", false, "use the quicker tempo change algorithm")
	fs.BoolVar(&p.noAntiAlias, "naa", false, "disable anti-alias filtering")
	fs.BoolVar(&p.speech, "speech", false, "tune for speech")

	if err := fs.Parse(normalized); err != nil {
		return p, fmt.Errorf("%w: %w", errIllegalParameter, err)
	}

	p.tempo = clamp(p.tempo, minTempo, maxTempo)
	p.pitch = clamp(p.pitch, minPitch, maxPitch)
	p.rate = clamp(p.rate, minTempo, maxTempo)

	return p, nil
}

func normalizeSwitches(args []string) ([]string, error) {
	out := make([]string, 0, len(args))

	for _, arg := range args {
		if len(arg) < 2 || arg[0] != '-' {
			return nil, fmt.Errorf("%w %q", errIllegalParameter, arg)
		}

		sw, ok := switchNames[toLower(arg[1])]
		if !ok {
			return nil, fmt.Errorf("%w %q", errIllegalParameter, arg)
		}

		if !sw.hasValue {
			out = append(out, "-"+sw.name)
			continue
		}

		_, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("%w %q", errIllegalParameter, arg)
		}

		out = append(out, "-"+sw.name+"="+value)
	}

	return out, nil
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}

	return c
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
