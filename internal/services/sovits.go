package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/wave"
)

// ---------------------------------------------------------------------------
// SoVITSService — self-hosted GPT-SoVITS voice clone, first choice in the
// cascade. Talks to the inference server's /tts endpoint and gets a full WAV
// back. When the URL is set to "mock" the adapter fabricates silent audio so
// the rest of the pipeline can be exercised without a GPU box.
// ---------------------------------------------------------------------------

type SoVITSService struct {
	baseURL     string
	refAudio    string
	promptText  string
	speedFactor float64
	httpClient  *http.Client
}

var _ Synthesizer = (*SoVITSService)(nil)

func NewSoVITSService(baseURL, refAudio, promptText string, speedFactor float64) *SoVITSService {
	if baseURL == "" {
		log.Printf("[SoVITS] No server URL configured, voice clone disabled")
	} else if baseURL == "mock" {
		log.Printf("[SoVITS] Running in mock mode, will fabricate silent audio")
	}
	if speedFactor <= 0 {
		speedFactor = 1.0
	}

	return &SoVITSService{
		baseURL:     baseURL,
		refAudio:    refAudio,
		promptText:  promptText,
		speedFactor: speedFactor,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *SoVITSService) Name() models.Backend {
	return models.BackendSoVITS
}

func (s *SoVITSService) Available() bool {
	return s.baseURL != ""
}

func (s *SoVITSService) VoiceParams() models.VoiceParams {
	return models.VoiceParams{
		ReferenceVoice: s.refAudio,
		ModelID:        "gpt-sovits",
		Speed:          s.speedFactor,
	}
}

type sovitsRequest struct {
	Text            string  `json:"text"`
	TextLang        string  `json:"text_lang"`
	RefAudioPath    string  `json:"ref_audio_path"`
	PromptText      string  `json:"prompt_text"`
	PromptLang      string  `json:"prompt_lang"`
	SpeedFactor     float64 `json:"speed_factor"`
	TextSplitMethod string  `json:"text_split_method"`
	StreamingMode   int     `json:"streaming_mode"`
}

func (s *SoVITSService) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	if !s.Available() {
		return nil, fmt.Errorf("sovits server not configured")
	}
	if s.baseURL == "mock" {
		return s.mockArtifact(text)
	}

	payload := sovitsRequest{
		Text:            text,
		TextLang:        "en",
		RefAudioPath:    s.refAudio,
		PromptText:      s.promptText,
		PromptLang:      "en",
		SpeedFactor:     s.speedFactor,
		TextSplitMethod: "cut0",
		StreamingMode:   0,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sovits request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sovits request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sovits request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sovits returned status %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sovits audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("sovits returned empty audio")
	}

	log.Printf("[SoVITS] Synthesized %d chars in %.2fs (%d bytes)",
		len(text), time.Since(start).Seconds(), len(audio))

	return &models.AudioArtifact{
		Data:            audio,
		Format:          "wav",
		SampleRate:      32000,
		DurationSeconds: wave.DurationBytes(audio),
	}, nil
}

// Warmup sends a short synthesis request so the server loads its model before
// the first real request arrives. Errors are logged, not returned; a cold
// server just means a slow first request.
func (s *SoVITSService) Warmup(ctx context.Context) {
	if !s.Available() || s.baseURL == "mock" {
		return
	}

	log.Printf("[SoVITS] Warming up inference server")
	if _, err := s.Synthesize(ctx, "Hello."); err != nil {
		log.Printf("[SoVITS] Warmup failed (server may still be loading): %v", err)
	}
}

// mockArtifact fabricates half a second of silence per 10 characters of text,
// capped at 3 seconds.
func (s *SoVITSService) mockArtifact(text string) (*models.AudioArtifact, error) {
	const sampleRate = 16000

	seconds := 0.5 * float64(len(text)) / 10
	if seconds < 0.5 {
		seconds = 0.5
	}
	if seconds > 3.0 {
		seconds = 3.0
	}

	pcm := make([]byte, 2*int(seconds*sampleRate))
	data, err := wave.WrapPCM(pcm, sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to build mock audio: %w", err)
	}

	return &models.AudioArtifact{
		Data:            data,
		Format:          "wav",
		SampleRate:      sampleRate,
		DurationSeconds: seconds,
	}, nil
}

func (s *SoVITSService) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
