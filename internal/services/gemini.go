package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"

	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/wave"
)

// ---------------------------------------------------------------------------
// GeminiService — Gemini native TTS via the Google Gen AI SDK, fourth choice
// in the cascade. The model streams back raw 24kHz 16-bit PCM, which gets
// wrapped into a WAV container before it leaves this adapter.
// ---------------------------------------------------------------------------

const (
	geminiTTSModel      = "gemini-2.5-flash-preview-tts"
	geminiVoiceName     = "Kore"
	geminiPCMSampleRate = 24000
)

type GeminiService struct {
	apiKey string
}

var _ Synthesizer = (*GeminiService)(nil)

func NewGeminiService(apiKey string) *GeminiService {
	if apiKey == "" {
		log.Printf("[Gemini] No API key configured, backend disabled")
	}
	return &GeminiService{apiKey: apiKey}
}

func (s *GeminiService) Name() models.Backend {
	return models.BackendGemini
}

func (s *GeminiService) Available() bool {
	return s.apiKey != ""
}

func (s *GeminiService) VoiceParams() models.VoiceParams {
	return models.VoiceParams{
		ReferenceVoice: geminiVoiceName,
		ModelID:        geminiTTSModel,
		Speed:          1.0,
	}
}

func (s *GeminiService) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	if !s.Available() {
		return nil, fmt.Errorf("gemini not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: geminiVoiceName,
				},
			},
		},
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, geminiTTSModel, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("gemini tts request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no audio candidates")
	}

	part := resp.Candidates[0].Content.Parts[0]
	if part.InlineData == nil || len(part.InlineData.Data) == 0 {
		return nil, fmt.Errorf("gemini returned empty audio data")
	}

	audio, err := wave.WrapPCM(part.InlineData.Data, geminiPCMSampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap gemini pcm: %w", err)
	}

	log.Printf("[Gemini] Synthesized %d chars in %.2fs (%d bytes)",
		len(text), time.Since(start).Seconds(), len(audio))

	return &models.AudioArtifact{
		Data:            audio,
		Format:          "wav",
		SampleRate:      geminiPCMSampleRate,
		DurationSeconds: wave.DurationBytes(audio),
	}, nil
}

func (s *GeminiService) Close() error {
	return nil
}
