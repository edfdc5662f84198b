package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/daystart-app/daystart-api/internal/config"
	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/generation"
)

// ScriptGenerator implements the generation.ScriptGenerator interface using
// Google's Gemini API to write the spoken-word briefing script.
type ScriptGenerator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewScriptGenerator creates a new ScriptGenerator with the provided
// dependencies.
func NewScriptGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.GenerationConfig,
) (*ScriptGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ScriptModel == "" {
		return nil, fmt.Errorf("%w: script model cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &ScriptGenerator{
		logger: logger.With(slog.String("component", "script_generator")),
		client: client,
		model:  cfg.ScriptModel,
	}, nil
}

// Ensure ScriptGenerator implements generation.ScriptGenerator
var _ generation.ScriptGenerator = (*ScriptGenerator)(nil)

// GenerateScript implements generation.ScriptGenerator.GenerateScript.
func (g *ScriptGenerator) GenerateScript(
	ctx context.Context,
	snapshot domain.PreferencesSnapshot,
	blocks []*domain.ContentBlock,
) (string, error) {
	prompt := buildPrompt(snapshot, blocks)

	g.logger.DebugContext(ctx, "requesting briefing script",
		slog.String("model", g.model),
		slog.Int("prompt_length", len(prompt)),
		slog.Int("content_blocks", len(blocks)))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: briefing prompt rejected", generation.ErrContentBlocked)
	}

	script := strings.TrimSpace(resp.Text())
	if script == "" {
		return "", fmt.Errorf("%w: empty script", generation.ErrInvalidResponse)
	}

	g.logger.DebugContext(ctx, "briefing script generated",
		slog.Int("script_length", len(script)))
	return script, nil
}

// buildPrompt renders the generation prompt from the snapshot and the cached
// content blocks. The snapshot is the only per-user input; live preferences
// never reach the model.
func buildPrompt(snapshot domain.PreferencesSnapshot, blocks []*domain.ContentBlock) string {
	var b strings.Builder

	b.WriteString("Write a spoken-word morning briefing script.\n")
	fmt.Fprintf(&b, "Target length when read aloud: about %d seconds.\n", snapshot.LengthSeconds)

	if snapshot.PreferredName != "" {
		fmt.Fprintf(&b, "Address the listener as %s.\n", snapshot.PreferredName)
	}
	if snapshot.Location != "" {
		fmt.Fprintf(&b, "The listener is in %s.\n", snapshot.Location)
	}
	if snapshot.Weather != "" {
		fmt.Fprintf(&b, "Today's weather: %s.\n", snapshot.Weather)
	}
	if snapshot.CalendarContext != "" {
		fmt.Fprintf(&b, "Today's calendar: %s.\n", snapshot.CalendarContext)
	}
	if snapshot.IncludeStocks && len(snapshot.StockSymbols) > 0 {
		fmt.Fprintf(&b, "Cover these stock symbols: %s.\n", strings.Join(snapshot.StockSymbols, ", "))
	}

	for _, block := range blocks {
		fmt.Fprintf(&b, "\n[%s / %s source material]\n%s\n",
			block.ContentType, block.Region, string(block.Payload))
	}

	b.WriteString("\nReturn only the script text, no stage directions or markup.\n")
	return b.String()
}
