package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/wave"
)

// ---------------------------------------------------------------------------
// OpenAIService — OpenAI speech API, last resort in the cascade. Always
// reachable when the key is set, so the cascade can end here instead of
// returning nothing.
// ---------------------------------------------------------------------------

const openAIVoice = openai.VoiceNova

type OpenAIService struct {
	client *openai.Client
	apiKey string
}

var _ Synthesizer = (*OpenAIService)(nil)

func NewOpenAIService(apiKey string) *OpenAIService {
	if apiKey == "" {
		log.Printf("[OpenAI] No API key configured, backend disabled")
	}
	return &OpenAIService{
		client: openai.NewClient(apiKey),
		apiKey: apiKey,
	}
}

func (s *OpenAIService) Name() models.Backend {
	return models.BackendOpenAI
}

func (s *OpenAIService) Available() bool {
	return s.apiKey != ""
}

func (s *OpenAIService) VoiceParams() models.VoiceParams {
	return models.VoiceParams{
		ReferenceVoice: string(openAIVoice),
		ModelID:        string(openai.TTSModel1),
		Speed:          1.0,
	}
}

func (s *OpenAIService) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	if !s.Available() {
		return nil, fmt.Errorf("openai not configured")
	}

	start := time.Now()
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openAIVoice,
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read openai audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("openai returned empty audio")
	}

	log.Printf("[OpenAI] Synthesized %d chars in %.2fs (%d bytes)",
		len(text), time.Since(start).Seconds(), len(audio))

	return &models.AudioArtifact{
		Data:            audio,
		Format:          "wav",
		SampleRate:      24000,
		DurationSeconds: wave.DurationBytes(audio),
	}, nil
}

func (s *OpenAIService) Close() error {
	return nil
}
