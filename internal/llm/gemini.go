// Package llm wraps the Gemini API behind the single-turn invocation
// interface the workflows consume.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/maan2529/tomatoz-project/internal/metrics"
)

const defaultModel = "gemini-2.0-flash"

// Config holds Gemini client settings.
type Config struct {
	APIKey string
	Model  string
}

// Gemini owns one API client shared by all invokers.
type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGemini dials the Gemini API.
func NewGemini(ctx context.Context, cfg Config, logger *zap.Logger) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, logger: logger}, nil
}

// Invoker binds a stage label and sampling temperature to the shared
// client. Each workflow stage gets its own.
func (g *Gemini) Invoker(stage string, temperature float32) *Invoker {
	return &Invoker{gemini: g, stage: stage, temperature: temperature}
}

// Invoker is a single-turn model caller. Implements pipeline.LLM.
type Invoker struct {
	gemini      *Gemini
	stage       string
	temperature float32
}

// Invoke sends one prompt and returns the response text.
func (inv *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	resp, err := inv.gemini.client.Models.GenerateContent(ctx,
		inv.gemini.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(inv.temperature)},
	)
	metrics.ObserveLLMCall(inv.stage, time.Since(started))
	if err != nil {
		return "", fmt.Errorf("gemini %s call: %w", inv.stage, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini %s call: empty response", inv.stage)
	}
	inv.gemini.logger.Debug("model call completed",
		zap.String("stage", inv.stage),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(text)),
		zap.Duration("duration", time.Since(started)),
	)
	return text, nil
}
