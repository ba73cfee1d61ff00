package generator

import (
	"context"
	"errors"
	"time"

	"proposal_assistant/logging"
)

// Recorder receives one observation per finished model call.
type Recorder interface {
	ObserveGeneration(stage, mode, outcome string, elapsed time.Duration)
}

// Agent generates or refines one stage at a time. Its Mode is fixed at
// construction.
type Agent struct {
	llm      LLMClient
	mode     Mode
	log      *logging.Logger
	recorder Recorder
}

type Option func(*Agent)

func WithLogger(l *logging.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(a *Agent) { a.recorder = r }
}

// NewAgent returns a live agent backed by llm.
func NewAgent(llm LLMClient, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return newAgent(llm, ModeLive, opts), nil
}

// NewOfflineAgent returns an agent that serves fixed example content after delay.
func NewOfflineAgent(delay time.Duration, opts ...Option) *Agent {
	return newAgent(OfflineLLM{Delay: delay}, ModeOffline, opts)
}

// NewUnconfiguredAgent returns an agent for a live setup without credential;
// every call fails with ErrConfiguration.
func NewUnconfiguredAgent(opts ...Option) *Agent {
	return newAgent(nil, ModeUnconfigured, opts)
}

func newAgent(llm LLMClient, mode Mode, opts []Option) *Agent {
	a := &Agent{llm: llm, mode: mode, log: logging.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("component", "agent", "mode", mode.String())
	return a
}

func (a *Agent) Mode() Mode { return a.mode }

// CheckConfigured lets callers short-circuit before dispatching any work.
func (a *Agent) CheckConfigured() error {
	if a.mode == ModeUnconfigured {
		return newError(ErrConfiguration, nil)
	}
	return nil
}

// Generate builds the prompt for req, calls the model and validates the result
// against the stage's shape. Returned errors carry a failure kind.
func (a *Agent) Generate(ctx context.Context, req Request) (Section, error) {
	if err := a.CheckConfigured(); err != nil {
		return Section{}, err
	}
	prompt, err := BuildPrompt(req)
	if err != nil {
		return Section{}, err
	}

	kind := "generate"
	if req.Refining() {
		kind = "refine"
	}
	start := time.Now()
	raw, err := a.llm.Complete(ctx, prompt)
	if err == nil {
		var sec Section
		sec, err = ParseSection(req.Stage, raw)
		if err == nil {
			a.observe(req.Stage, "ok", start)
			a.log.Debug("stage generated", "stage", req.Stage.String(), "kind", kind, "elapsed", time.Since(start))
			return sec, nil
		}
	}

	err = Classify(err)
	a.observe(req.Stage, outcomeLabel(err), start)
	a.log.Warn("stage generation failed", "stage", req.Stage.String(), "kind", kind, "error", err)
	return Section{}, err
}

func (a *Agent) observe(stage Stage, outcome string, start time.Time) {
	if a.recorder == nil {
		return
	}
	a.recorder.ObserveGeneration(stage.String(), a.mode.String(), outcome, time.Since(start))
}

func outcomeLabel(err error) string {
	switch Kind(err) {
	case ErrConfiguration:
		return "configuration"
	case ErrSafetyRejection:
		return "safety"
	case ErrEmptyResponse:
		return "empty"
	case ErrMalformedResult:
		return "malformed"
	default:
		return "transient"
	}
}
