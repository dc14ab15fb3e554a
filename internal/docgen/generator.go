// Package docgen produces the markdown documentation of a project, either
// through an OpenAI-compatible completion API or, when that is unavailable,
// through a deterministic offline template.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// FallbackModel tags documents produced without the completion API.
const FallbackModel = "ai-simulation"

const (
	maxOutputTokens = 4000
	temperature     = 0.3
	topP            = 1.0
	fixedSeed       = 42
)

var ErrEmptyCompletion = errors.New("completion API returned no content")

type File struct {
	Name    string
	Size    int64
	Content string
}

type Input struct {
	Title       string
	Description string
	Files       []File
}

type Result struct {
	Content          string
	Model            string
	TokensUsed       int
	ProcessingTimeMs int64
	GeneratedAt      time.Time
}

// Completer is satisfied by *Client.
type Completer interface {
	Complete(ctx context.Context, request CompletionRequest) (*CompletionResponse, error)
}

type Generator struct {
	completer     Completer
	model         string
	logger        *slog.Logger
	fallbackDelay func(fileCount int) time.Duration
	now           func() time.Time
}

type Option func(*Generator)

// WithFallbackDelay replaces the simulated delay of the offline generator.
func WithFallbackDelay(delay func(fileCount int) time.Duration) Option {
	return func(g *Generator) {
		g.fallbackDelay = delay
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator returns a generator. A nil completer means no credential is
// configured and every call uses the offline fallback.
func NewGenerator(completer Completer, model string, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		completer:     completer,
		model:         model,
		logger:        logger.With("system", "docgen"),
		fallbackDelay: FallbackDelay,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	start := g.now()

	if g.completer == nil {
		g.logger.Info("no completion credential configured, using offline generator", "title", in.Title)
		return g.fallback(ctx, in, start)
	}

	seed := fixedSeed
	resp, err := g.completer.Complete(ctx, CompletionRequest{
		Model: g.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: BuildPrompt(in)},
		},
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
		TopP:        topP,
		Seed:        &seed,
	})
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			g.logger.Warn("completion API rate limited, using offline generator", "title", in.Title, "error", err)
			return g.fallback(ctx, in, start)
		}
		return nil, fmt.Errorf("documentation generation failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("documentation generation failed: %w", ErrEmptyCompletion)
	}

	model := resp.Model
	if model == "" {
		model = g.model
	}

	finished := g.now()
	g.logger.Info("documentation generated",
		"title", in.Title, "model", model, "tokens", resp.Usage.TotalTokens)

	return &Result{
		Content:          resp.Choices[0].Message.Content,
		Model:            model,
		TokensUsed:       resp.Usage.TotalTokens,
		ProcessingTimeMs: finished.Sub(start).Milliseconds(),
		GeneratedAt:      finished,
	}, nil
}

func (g *Generator) fallback(ctx context.Context, in Input, start time.Time) (*Result, error) {
	if delay := g.fallbackDelay(len(in.Files)); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	content, err := RenderFallback(in)
	if err != nil {
		return nil, err
	}

	finished := g.now()
	return &Result{
		Content:          content,
		Model:            FallbackModel,
		TokensUsed:       len(strings.Fields(content)),
		ProcessingTimeMs: finished.Sub(start).Milliseconds(),
		GeneratedAt:      finished,
	}, nil
}
