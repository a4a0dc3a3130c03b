// Package narrative turns a retention summary into analyst-style prose
// using the Gemini API.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 30 * time.Second

// ErrEmptyResponse is returned when the model answers without text.
var ErrEmptyResponse = errors.New("narrative model returned no text")

const instruction = "Aja como um Analista de Dados Sênior. Analise os dados de retenção SaaS " +
	"e forneça 3 insights estratégicos em Português."

// generator is the part of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures a Gemini narrator.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini implements core.Narrator.
type Gemini struct {
	models  generator
	model   string
	timeout time.Duration
}

// NewGemini creates a client for the Gemini API.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGemini(client.Models, cfg), nil
}

func newGemini(models generator, cfg Config) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Gemini{models: models, model: cfg.Model, timeout: cfg.Timeout}
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// Narrate sends the summary with the analyst instruction and returns the
// model's text.
func (g *Gemini) Narrate(ctx context.Context, summary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(Prompt(summary)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Prompt embeds the per-cohort summary lines in the user message.
func Prompt(summary string) string {
	var b strings.Builder
	b.WriteString("Dados formatados:\n")
	b.WriteString(strings.TrimRight(summary, "\n"))
	return b.String()
}
