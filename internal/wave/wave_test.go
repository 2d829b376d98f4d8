package wave

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// sinePCM renders n samples of a 440Hz tone as 16-bit little-endian PCM.
func sinePCM(n, sampleRate int) []byte {
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		pcm[2*i] = byte(uint16(v))
		pcm[2*i+1] = byte(uint16(v) >> 8)
	}
	return pcm
}

func TestWrapPCMRoundTrip(t *testing.T) {
	const sampleRate = 24000
	pcm := sinePCM(sampleRate/2, sampleRate) // half a second

	data, err := WrapPCM(pcm, sampleRate, 1)
	if err != nil {
		t.Fatalf("WrapPCM: %v", err)
	}
	if len(data) <= len(pcm) {
		t.Fatalf("wrapped data should carry a header, got %d bytes for %d of pcm", len(data), len(pcm))
	}

	dur := DurationBytes(data)
	if math.Abs(dur-0.5) > 0.01 {
		t.Errorf("expected ~0.5s, got %v", dur)
	}
}

func TestWrapPCMOddLength(t *testing.T) {
	if _, err := WrapPCM([]byte{0x01, 0x02, 0x03}, 24000, 1); err == nil {
		t.Error("odd-length pcm should error")
	}
}

func TestDurationMalformed(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.wav")
	if d := Duration(missing); d != 0 {
		t.Errorf("missing file should probe as 0, got %v", d)
	}

	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("not a riff file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if d := Duration(garbage); d != 0 {
		t.Errorf("non-wav file should probe as 0, got %v", d)
	}

	empty := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if d := Duration(empty); d != 0 {
		t.Errorf("empty file should probe as 0, got %v", d)
	}
}

func TestDurationValidFile(t *testing.T) {
	const sampleRate = 16000
	pcm := sinePCM(sampleRate*2, sampleRate) // two seconds

	data, err := WrapPCM(pcm, sampleRate, 1)
	if err != nil {
		t.Fatalf("WrapPCM: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if d := Duration(path); math.Abs(d-2.0) > 0.01 {
		t.Errorf("expected ~2.0s, got %v", d)
	}
}
