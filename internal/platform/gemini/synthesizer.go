package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/daystart-app/daystart-api/internal/config"
	"github.com/daystart-app/daystart-api/internal/generation"
)

// Synthesizer implements the generation.Synthesizer interface using the
// Gemini TTS models.
type Synthesizer struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewSynthesizer creates a new Synthesizer with the provided dependencies.
func NewSynthesizer(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.GenerationConfig,
) (*Synthesizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.AudioModel == "" {
		return nil, fmt.Errorf("%w: audio model cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Synthesizer{
		logger: logger.With(slog.String("component", "synthesizer")),
		client: client,
		model:  cfg.AudioModel,
	}, nil
}

// Ensure Synthesizer implements generation.Synthesizer
var _ generation.Synthesizer = (*Synthesizer)(nil)

// Synthesize implements generation.Synthesizer.Synthesize.
func (s *Synthesizer) Synthesize(ctx context.Context, script, voice string) ([]byte, error) {
	if script == "" {
		return nil, fmt.Errorf("%w: script cannot be empty", generation.ErrSynthesisFailed)
	}
	if voice == "" {
		return nil, fmt.Errorf("%w: voice cannot be empty", generation.ErrSynthesisFailed)
	}

	s.logger.DebugContext(ctx, "synthesizing briefing audio",
		slog.String("model", s.model),
		slog.String("voice", voice),
		slog.Int("script_length", len(script)))

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: voice,
				},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(script), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no audio generated", generation.ErrInvalidResponse)
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			s.logger.DebugContext(ctx, "briefing audio synthesized",
				slog.Int("audio_bytes", len(part.InlineData.Data)))
			return part.InlineData.Data, nil
		}
	}

	return nil, fmt.Errorf("%w: response carried no audio data", generation.ErrInvalidResponse)
}
