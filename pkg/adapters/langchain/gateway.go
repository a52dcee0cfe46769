// Package langchain implements the model gateway on top of langchaingo.
package langchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/debrief/internal/logging"
	"github.com/aretw0/debrief/internal/parser"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// Gateway is a ports.ModelGateway issuing one prompt per call to a langchaingo model.
type Gateway struct {
	model       llms.Model
	timeout     time.Duration
	temperature float64
	exampleFlow string
	logger      *slog.Logger

	followUp   prompts.PromptTemplate
	transition prompts.PromptTemplate
	summary    prompts.PromptTemplate
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature (default 0).
func WithTemperature(t float64) Option {
	return func(g *Gateway) {
		g.temperature = t
	}
}

// WithExampleFlow sets the sample conversation shown to the transition check.
// raw must be valid JSON.
func WithExampleFlow(raw json.RawMessage) Option {
	return func(g *Gateway) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			g.exampleFlow = buf.String()
		}
	}
}

// WithLogger sets the logger. Raw model outputs are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a gateway for the given model.
func New(model llms.Model, opts ...Option) *Gateway {
	g := &Gateway{
		model:       model,
		timeout:     DefaultTimeout,
		exampleFlow: "null",
		logger:      logging.NewNop(),
		followUp:    followUpPrompt(),
		transition:  transitionPrompt(),
		summary:     summaryPrompt(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoadExampleFlow reads an example conversation file and checks that it holds JSON.
func LoadExampleFlow(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read example flow: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("example flow %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

func (g *Gateway) FollowUp(ctx context.Context, transcript []domain.Message) (domain.Reply[string], error) {
	raw, err := g.generate(ctx, domain.OpFollowUp, g.followUp, map[string]any{
		varChatHistory: serialize(transcript),
	})
	if err != nil {
		return domain.Reply[string]{}, err
	}
	return parser.FollowUp(raw), nil
}

func (g *Gateway) ShouldTransition(ctx context.Context, flag []domain.Message) (domain.Reply[bool], error) {
	raw, err := g.generate(ctx, domain.OpShouldTransition, g.transition, map[string]any{
		varChatHistory: serialize(flag),
		varExampleFlow: g.exampleFlow,
	})
	if err != nil {
		return domain.Reply[bool]{}, err
	}
	return parser.Transition(raw), nil
}

func (g *Gateway) Summarize(ctx context.Context, transcript []domain.Message) (domain.Reply[domain.Summary], error) {
	raw, err := g.generate(ctx, domain.OpSummarize, g.summary, map[string]any{
		varChatHistory: serialize(transcript),
	})
	if err != nil {
		return domain.Reply[domain.Summary]{}, err
	}
	return parser.Summary(raw), nil
}

func (g *Gateway) generate(ctx context.Context, op domain.ModelOp, tmpl prompts.PromptTemplate, values map[string]any) (string, error) {
	prompt, err := tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", op, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := llms.GenerateFromSinglePrompt(callCtx, g.model, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrModelUnavailable, op, err)
	}
	g.logger.DebugContext(ctx, "model output", "op", op, "raw", parser.Compact(raw))
	return raw, nil
}

// serialize renders a transcript the way the prompts expect it: an indented JSON list of role/content objects.
func serialize(transcript []domain.Message) string {
	if transcript == nil {
		transcript = []domain.Message{}
	}
	// Message holds only strings, so encoding cannot fail.
	data, _ := json.MarshalIndent(transcript, "", "  ")
	return string(data)
}
