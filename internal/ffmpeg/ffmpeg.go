package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// FFmpegService — thin wrapper around the ffmpeg/ffprobe binaries for the two
// audio jobs synthesis needs: resampling provider output to the mono 16kHz
// WAV the aligner expects, and probing compressed formats (mp3) whose
// duration the WAV header probe cannot read.
// ---------------------------------------------------------------------------

type FFmpegService struct {
	tempDir string
}

func NewFFmpegService(tempDir string) *FFmpegService {
	// Create temp directory if it doesn't exist
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}

	return &FFmpegService{
		tempDir: tempDir,
	}
}

// ConvertForAlignment transcodes any audio file to mono 16kHz 16-bit WAV,
// the input format the forced aligner runs fastest on.
func (s *FFmpegService) ConvertForAlignment(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg resample for alignment failed: %w", err)
	}

	return nil
}

// GetAudioDuration returns the duration of an audio file in seconds using
// ffprobe. Works for any container ffprobe understands, mp3 included.
func (s *FFmpegService) GetAudioDuration(ctx context.Context, audioPath string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return durationSec, nil
}

// CreateTempFile returns a unique path in the service's temp directory with
// the given extension (no dot).
func (s *FFmpegService) CreateTempFile(ext string) string {
	return filepath.Join(s.tempDir, fmt.Sprintf("%s.%s", uuid.New().String(), ext))
}

// Cleanup removes temporary files
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}
