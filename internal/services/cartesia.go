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
// CartesiaService — Cartesia Sonic TTS, third choice in the cascade. Fast
// and cheap but a stock voice, not a clone.
// ---------------------------------------------------------------------------

const (
	cartesiaURL        = "https://api.cartesia.ai/tts/bytes"
	cartesiaVersion    = "2024-06-10"
	cartesiaModelID    = "sonic-2"
	cartesiaSampleRate = 44100
)

type CartesiaService struct {
	apiKey     string
	voiceID    string
	httpClient *http.Client
}

var _ Synthesizer = (*CartesiaService)(nil)

func NewCartesiaService(apiKey, voiceID string) *CartesiaService {
	if apiKey == "" {
		log.Printf("[Cartesia] No API key configured, backend disabled")
	}

	return &CartesiaService{
		apiKey:  apiKey,
		voiceID: voiceID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *CartesiaService) Name() models.Backend {
	return models.BackendCartesia
}

func (s *CartesiaService) Available() bool {
	return s.apiKey != "" && s.voiceID != ""
}

func (s *CartesiaService) VoiceParams() models.VoiceParams {
	return models.VoiceParams{
		ReferenceVoice: s.voiceID,
		ModelID:        cartesiaModelID,
		Speed:          1.0,
	}
}

type cartesiaRequest struct {
	ModelID      string              `json:"model_id"`
	Transcript   string              `json:"transcript"`
	Voice        cartesiaVoice       `json:"voice"`
	OutputFormat cartesiaAudioFormat `json:"output_format"`
	Language     string              `json:"language"`
}

type cartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaAudioFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

func (s *CartesiaService) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	if !s.Available() {
		return nil, fmt.Errorf("cartesia not configured")
	}

	payload := cartesiaRequest{
		ModelID:    cartesiaModelID,
		Transcript: text,
		Voice:      cartesiaVoice{Mode: "id", ID: s.voiceID},
		OutputFormat: cartesiaAudioFormat{
			Container:  "wav",
			Encoding:   "pcm_s16le",
			SampleRate: cartesiaSampleRate,
		},
		Language: "en",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cartesia request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cartesiaURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create cartesia request: %w", err)
	}
	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cartesia returned status %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cartesia audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("cartesia returned empty audio")
	}

	log.Printf("[Cartesia] Synthesized %d chars in %.2fs (%d bytes)",
		len(text), time.Since(start).Seconds(), len(audio))

	return &models.AudioArtifact{
		Data:            audio,
		Format:          "wav",
		SampleRate:      cartesiaSampleRate,
		DurationSeconds: wave.DurationBytes(audio),
	}, nil
}

func (s *CartesiaService) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
