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
)

// ---------------------------------------------------------------------------
// FishSpeechService — Fish Audio hosted voice clone API, second choice in
// the cascade. Returns mp3, so duration comes from ffprobe (or a character
// estimate) downstream rather than the WAV header probe.
// ---------------------------------------------------------------------------

const fishAudioURL = "https://api.fish.audio/v1/tts"

type FishSpeechService struct {
	apiKey     string
	modelID    string
	httpClient *http.Client
}

var _ Synthesizer = (*FishSpeechService)(nil)

func NewFishSpeechService(apiKey, modelID string) *FishSpeechService {
	if apiKey == "" {
		log.Printf("[FishSpeech] No API key configured, backend disabled")
	}

	return &FishSpeechService{
		apiKey:  apiKey,
		modelID: modelID,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
}

func (s *FishSpeechService) Name() models.Backend {
	return models.BackendFishSpeech
}

func (s *FishSpeechService) Available() bool {
	return s.apiKey != "" && s.modelID != ""
}

func (s *FishSpeechService) VoiceParams() models.VoiceParams {
	return models.VoiceParams{
		ReferenceVoice: s.modelID,
		ModelID:        "fish-audio",
		Speed:          1.0,
	}
}

type fishRequest struct {
	Text        string `json:"text"`
	ReferenceID string `json:"reference_id"`
	Format      string `json:"format"`
	Latency     string `json:"latency"`
}

func (s *FishSpeechService) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	if !s.Available() {
		return nil, fmt.Errorf("fish audio not configured")
	}

	payload := fishRequest{
		Text:        text,
		ReferenceID: s.modelID,
		Format:      "mp3",
		Latency:     "normal",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fishAudioURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create fish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fish audio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fish audio returned status %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read fish audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("fish audio returned empty audio")
	}

	log.Printf("[FishSpeech] Synthesized %d chars in %.2fs (%d bytes)",
		len(text), time.Since(start).Seconds(), len(audio))

	return &models.AudioArtifact{
		Data:   audio,
		Format: "mp3",
	}, nil
}

func (s *FishSpeechService) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
