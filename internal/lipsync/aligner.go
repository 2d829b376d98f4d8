package lipsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vevocube/mona-voice/internal/ffmpeg"
	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/viseme"
)

// ---------------------------------------------------------------------------
// Forced alignment via the Rhubarb Lip Sync CLI. Rhubarb analyzes the audio
// waveform (optionally guided by a transcript) and emits mouth cues that are
// far more accurate than text-based estimation, at the cost of a subprocess
// run per clip. Callers fall back to the estimator when alignment fails.
// ---------------------------------------------------------------------------

// alignTimeout bounds a single rhubarb run. Clips are short; anything past
// this means rhubarb is stuck on pathological audio.
const alignTimeout = 30 * time.Second

// lastCueTail extends the final cue when rhubarb gives no closing timestamp.
const lastCueTail = 0.1

type Aligner struct {
	rhubarbPath string
	ffmpeg      *ffmpeg.FFmpegService
}

// NewAligner wraps the rhubarb binary at rhubarbPath. The ffmpeg service is
// used to resample non-WAV input; rhubarb only reads WAV and OGG.
func NewAligner(rhubarbPath string, ff *ffmpeg.FFmpegService) *Aligner {
	return &Aligner{
		rhubarbPath: rhubarbPath,
		ffmpeg:      ff,
	}
}

// Available reports whether the rhubarb binary can actually be invoked.
func (a *Aligner) Available() bool {
	if a.rhubarbPath == "" {
		return false
	}
	if _, err := exec.LookPath(a.rhubarbPath); err != nil {
		return false
	}
	return true
}

// Align runs rhubarb on the audio file and returns a viseme timeline. The
// transcript, when non-empty, is passed as dialog guidance, which noticeably
// improves cue accuracy on fast speech.
func (a *Aligner) Align(ctx context.Context, audioPath, transcript string) ([]models.VisemeCue, error) {
	if !a.Available() {
		return nil, fmt.Errorf("rhubarb binary not available at %q", a.rhubarbPath)
	}

	ctx, cancel := context.WithTimeout(ctx, alignTimeout)
	defer cancel()

	var tempFiles []string
	defer func() {
		a.ffmpeg.Cleanup(tempFiles...)
	}()

	// Rhubarb only accepts WAV/OGG; resample anything else first.
	if ext := strings.ToLower(filepath.Ext(audioPath)); ext != ".wav" && ext != ".ogg" {
		converted := a.ffmpeg.CreateTempFile("wav")
		tempFiles = append(tempFiles, converted)
		if err := a.ffmpeg.ConvertForAlignment(ctx, audioPath, converted); err != nil {
			return nil, fmt.Errorf("alignment preprocessing failed: %w", err)
		}
		audioPath = converted
	}

	args := []string{"-f", "json", "-r", "phonetic"}

	if transcript = strings.TrimSpace(transcript); transcript != "" {
		dialogPath := a.ffmpeg.CreateTempFile("txt")
		tempFiles = append(tempFiles, dialogPath)
		if err := os.WriteFile(dialogPath, []byte(transcript), 0644); err != nil {
			return nil, fmt.Errorf("failed to write dialog file: %w", err)
		}
		args = append(args, "-d", dialogPath)
	}

	args = append(args, audioPath)

	start := time.Now()
	cmd := exec.CommandContext(ctx, a.rhubarbPath, args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("rhubarb timed out after %s", alignTimeout)
		}
		return nil, fmt.Errorf("rhubarb failed: %w", err)
	}
	log.Printf("[Aligner] Rhubarb finished in %.2fs for %s", time.Since(start).Seconds(), filepath.Base(audioPath))

	cues, err := parseRhubarbOutput(output)
	if err != nil {
		return nil, err
	}
	return cues, nil
}

// rhubarbDocument mirrors rhubarb's -f json output.
type rhubarbDocument struct {
	MouthCues []rhubarbCue `json:"mouthCues"`
}

type rhubarbCue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Value string  `json:"value"`
}

// parseRhubarbOutput converts rhubarb mouth cues into the viseme timeline
// format. Each cue's end defaults to the next cue's start; the final cue gets
// a short tail when rhubarb omits its end timestamp.
func parseRhubarbOutput(data []byte) ([]models.VisemeCue, error) {
	var doc rhubarbDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rhubarb output: %w", err)
	}
	if len(doc.MouthCues) == 0 {
		return nil, fmt.Errorf("rhubarb produced no mouth cues")
	}

	cues := make([]models.VisemeCue, 0, len(doc.MouthCues))
	for i, rc := range doc.MouthCues {
		end := rc.End
		if end <= rc.Start {
			if i+1 < len(doc.MouthCues) {
				end = doc.MouthCues[i+1].Start
			} else {
				end = rc.Start + lastCueTail
			}
		}

		shape := rc.Value
		if !viseme.KnownShape(shape) {
			shape = viseme.ShapeSilence
		}

		cues = append(cues, models.VisemeCue{
			Start:   rc.Start,
			End:     end,
			Shape:   shape,
			Weights: viseme.WeightsFor(shape),
		})
	}

	return cues, nil
}
