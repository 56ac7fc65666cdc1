package session

import (
	"context"
	"errors"
	"sync/atomic"

	agent "github.com/Protocol-Lattice/go-agent"
	adk "github.com/Protocol-Lattice/go-agent/src/adk"
	adkmodules "github.com/Protocol-Lattice/go-agent/src/adk/modules"
	"github.com/Protocol-Lattice/go-agent/src/memory"
	"github.com/Protocol-Lattice/go-agent/src/models"
	"github.com/Protocol-Lattice/go-agent/src/tools"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultGeminiModel = "gemini-2.5-pro"

// GeminiOptions configures the go-agent backend.
type GeminiOptions struct {
	Model        string
	SystemPrompt string
	MemorySize   int
	Log          logrus.FieldLogger
}

// generator is the part of *agent.Agent the session uses.
type generator interface {
	Generate(ctx context.Context, sessionID, prompt string) (string, error)
}

// Gemini answers prompts through a go-agent agent backed by Gemini.
// go-agent keeps every exchange in session memory and replays it into later
// prompts of the same session, so each Ask runs under a new session id.
type Gemini struct {
	gen generator
	log logrus.FieldLogger

	closed atomic.Bool
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	if opts.MemorySize <= 0 {
		opts.MemorySize = 10000
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	memOpts := memory.DefaultOptions()
	builder, err := adk.New(
		ctx,
		adk.WithDefaultSystemPrompt(opts.SystemPrompt),
		adk.WithModules(
			adkmodules.InMemoryMemoryModule(opts.MemorySize, memory.AutoEmbedder(), &memOpts),
			adkmodules.NewModelModule("gemini", func(_ context.Context) (models.Agent, error) {
				return models.NewGeminiLLM(ctx, opts.Model, "Single file code editor")
			}),
			adkmodules.NewToolModule("essentials",
				adkmodules.StaticToolProvider([]agent.Tool{&tools.EchoTool{}}, nil),
			),
		),
	)
	if err != nil {
		return nil, &SetupError{Backend: "gemini", Err: err}
	}
	ag, err := builder.BuildAgent(ctx)
	if err != nil {
		return nil, &SetupError{Backend: "gemini", Err: err}
	}
	return newGemini(ag, opts.Log.WithField("model", opts.Model)), nil
}

func newGemini(gen generator, log logrus.FieldLogger) *Gemini {
	return &Gemini{gen: gen, log: log.WithField("backend", "gemini")}
}

var errClosed = errors.New("session closed")

func (g *Gemini) Ask(ctx context.Context, prompt string) (string, error) {
	if g.closed.Load() {
		return "", &RemoteError{Backend: "gemini", Err: errClosed}
	}

	turn := uuid.NewString()
	g.log.WithField("turn", turn).Debug("generating")
	out, err := g.gen.Generate(ctx, turn, prompt)
	if err != nil {
		return "", &RemoteError{Backend: "gemini", Err: err}
	}
	return out, nil
}

// Close marks the session closed. It never waits for a call in flight.
func (g *Gemini) Close() error {
	g.closed.Store(true)
	return nil
}
