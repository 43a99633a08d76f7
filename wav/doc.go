// Package wav reads and writes linear PCM WAV files as streams of
// normalized float32 samples.
//
// The reader accepts 8, 16, 24 and 32-bit PCM with 1 to 9 channels. Header
// chunks may come in any order before the data chunk; fmt and fact chunks
// longer than their PCM layout are truncated and any other chunk is
// skipped.
//
// The writer emits a fixed 56 byte header (RIFF, fmt, fact, data) with
// zero lengths when it is created and patches the lengths in Close, so the
// total sample count doesn't need to be known up front:
//
//	enc, err := wav.Create("out.wav", 44100, 16, 2)
//	if err != nil {
//		return err
//	}
//	defer enc.Close()
//
//	err = enc.WriteSamples(samples)
package wav
