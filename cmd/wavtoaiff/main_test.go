package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/soundstretch/wav"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

func TestClampFloat32(t *testing.T) {
	tests := []struct {
		name  string
		value float32
		want  float32
	}{
		{name: "below", value: -2, want: -1},
		{name: "inside", value: 0.25, want: 0.25},
		{name: "above", value: 2, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampFloat32(tt.value, -1, 1)
			if got != tt.want {
				t.Fatalf("clampFloat32(%f)=%f, want %f", tt.value, got, tt.want)
			}
		})
	}
}

func TestFloat32ToPCMInt(t *testing.T) {
	tests := []struct {
		name     string
		value    float32
		bitDepth int
		want     int
	}{
		{name: "8bit min", value: -1, bitDepth: 8, want: -128},
		{name: "8bit max", value: 1, bitDepth: 8, want: 127},
		{name: "16bit half", value: 0.5, bitDepth: 16, want: 16384},
		{name: "16bit truncates", value: -0.00005, bitDepth: 16, want: -1},
		{name: "24bit half", value: 0.5, bitDepth: 24, want: 4194304},
		{name: "32bit quarter", value: 0.25, bitDepth: 32, want: 536870912},
		{name: "32bit max", value: 1, bitDepth: 32, want: 2147483647},
		{name: "unsupported", value: 0.5, bitDepth: 40, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float32ToPCMInt(tt.value, tt.bitDepth)
			if got != tt.want {
				t.Fatalf("float32ToPCMInt(%f,%d)=%d, want %d", tt.value, tt.bitDepth, got, tt.want)
			}
		})
	}
}

func TestFloat32ToIntBuffer(t *testing.T) {
	dst := &audio.IntBuffer{Data: []int{9, 9, 9, 9, 9, 9}}

	float32ToIntBuffer([]float32{-1.5, 0, 0.5, 1.5}, dst, 16)

	want := []int{-32768, 0, 16384, 32767}
	if len(dst.Data) != len(want) {
		t.Fatalf("unexpected data length %d", len(dst.Data))
	}

	for i := range want {
		if dst.Data[i] != want[i] {
			t.Fatalf("sample[%d]=%d, want %d", i, dst.Data[i], want[i])
		}
	}
}

func TestRunConvertsFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tone.wav")

	enc, err := wav.Create(src, 22050, 16, 2)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}

	samples := []float32{0.5, -0.5, 0.25, -0.25, 0, 0}
	if err := enc.WriteSamples(samples); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("close source: %v", err)
	}

	if err := run([]string{"-path", src}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "tone.aif"))
	if err != nil {
		t.Fatalf("open converted file: %v", err)
	}
	defer f.Close()

	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("converted file is not a valid aiff")
	}

	dec.ReadInfo()

	if dec.BitDepth != 16 {
		t.Fatalf("bit depth=%d, want 16", dec.BitDepth)
	}

	format := dec.Format()
	if format.NumChannels != 2 || format.SampleRate != 22050 {
		t.Fatalf("format %+v", format)
	}

	buf := &audio.IntBuffer{Data: make([]int, 16), Format: format}

	n, err := dec.PCMBuffer(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("read converted samples: %v", err)
	}

	want := []int{16384, -16384, 8192, -8192, 0, 0}
	if n != len(want) {
		t.Fatalf("read %d samples, want %d", n, len(want))
	}

	for i := range want {
		if buf.Data[i] != want[i] {
			t.Fatalf("sample[%d]=%d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestRunExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	dst := filepath.Join(dir, "elsewhere.aiff")

	enc, err := wav.Create(src, 8000, 8, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{"-path", src, "-output", dst}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(nil); !errors.Is(err, errMissingPath) {
		t.Fatalf("err=%v, want errMissingPath", err)
	}

	if err := run([]string{"-path", filepath.Join(t.TempDir(), "missing.wav")}); !errors.Is(err, wav.ErrIO) {
		t.Fatalf("err=%v, want wav.ErrIO", err)
	}

	if err := run([]string{"-bogus"}); err == nil {
		t.Fatal("expected a flag error")
	}
}

func TestExpandHome(t *testing.T) {
	got, err := expandHome("relative/file.wav")
	if err != nil || got != "relative/file.wav" {
		t.Fatalf("expandHome=%q, %v", got, err)
	}

	got, err = expandHome("~/file.wav")
	if err != nil {
		t.Skipf("no current user: %v", err)
	}

	if filepath.Base(got) != "file.wav" || got == "~/file.wav" {
		t.Fatalf("expandHome=%q", got)
	}
}
