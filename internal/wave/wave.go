package wave

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ---------------------------------------------------------------------------
// WAV utilities — header-level duration probing and raw PCM wrapping. Probing
// never errors: synthesis already succeeded by the time we measure, so a
// malformed header downgrades the response (no timeline) instead of failing it.
// ---------------------------------------------------------------------------

// Duration returns the audio duration in seconds read from the WAV header,
// or 0.0 if the file is missing, truncated, or not a RIFF/WAVE file at all.
// Callers treat 0.0 as "duration unknown".
func Duration(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	d.ReadInfo()
	if !d.IsValidFile() {
		return 0
	}

	dur, err := d.Duration()
	if err != nil {
		return 0
	}
	return dur.Seconds()
}

// DurationBytes probes in-memory WAV data by spilling it to a temp file
// first; the decoder needs a seekable reader.
func DurationBytes(data []byte) float64 {
	tmp, err := os.CreateTemp("", "probe-*.wav")
	if err != nil {
		return 0
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0
	}
	tmp.Close()

	return Duration(tmp.Name())
}

// WrapPCM encloses raw little-endian 16-bit PCM in a WAV container and
// returns the encoded bytes. Used for providers that stream bare PCM frames.
func WrapPCM(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("pcm payload has odd length %d", len(pcm))
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}

	tmp, err := os.CreateTemp("", "wrap-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp wav: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	enc := wav.NewEncoder(tmp, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}

	out, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded wav: %w", err)
	}
	return out, nil
}
