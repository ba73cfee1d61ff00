package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"proposal_assistant/generator"
	"proposal_assistant/logging"
)

// Rejections. A rejected call leaves the session untouched.
var (
	ErrBusy             = errors.New("another generation is in progress")
	ErrStageLocked      = errors.New("stage not available")
	ErrNotSubmitted     = errors.New("intake not submitted")
	ErrAlreadySubmitted = errors.New("intake already submitted")
	ErrEmptyInstruction = errors.New("refinement instruction is empty")
	ErrComplete         = errors.New("all stages already generated")
)

// ErrStale is reported by Pending.Wait when the session was reset while the
// request was in flight; the result was discarded.
var ErrStale = errors.New("session was reset before the request completed")

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 60 * time.Second

// Generator is the part of generator.Agent the session depends on.
type Generator interface {
	CheckConfigured() error
	Generate(ctx context.Context, req generator.Request) (generator.Section, error)
}

// Phase is the coarse screen state of a session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseBuilding Phase = "building"
	PhaseDone     Phase = "done"
	PhaseFailed   Phase = "failed"
)

// Turn records one successful generation or refinement.
type Turn struct {
	Stage       generator.Stage `json:"stage"`
	Kind        string          `json:"kind"`
	Instruction string          `json:"instruction,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Session is the five-stage state machine for one consultant's proposal.
// Generation runs asynchronously; every method returns without waiting for
// the model.
type Session struct {
	ID string

	gen     Generator
	log     *logging.Logger
	timeout time.Duration
	// onChange is called with a snapshot after every state transition, outside the lock.
	onChange func(Snapshot)

	mu         sync.Mutex
	phase      Phase
	intake     *generator.Intake
	framework  Framework
	cursor     int
	errMsg     string
	generating bool
	refining   bool
	epoch      uint64
	history    []Turn
	version    uint64
	updatedAt  time.Time

	notifyMu     sync.Mutex
	lastNotified uint64
}

type Option func(*Session)

func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithObserver registers fn to receive a snapshot after every transition.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

// New creates an idle session.
func New(id string, gen Generator, opts ...Option) *Session {
	s := &Session{
		ID:        id,
		gen:       gen,
		log:       logging.Nop(),
		timeout:   DefaultTimeout,
		phase:     PhaseIdle,
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session_id", id)
	return s
}

// Pending is the handle for a dispatched request.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending { return &Pending{done: make(chan struct{})} }

func resolved(err error) *Pending {
	p := newPending()
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the request has completed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the request completes or ctx ends. It returns the
// generation error, ErrStale for a discarded result, or nil.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitIntake moves an idle session to loading and generates stage 1.
// Without a configured credential the session goes straight to failed.
func (s *Session) SubmitIntake(ctx context.Context, in generator.Intake) (*Pending, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	if s.generating || s.refining {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	intake := in
	s.intake = &intake
	s.framework.Clear()
	s.errMsg = ""

	if err := s.gen.CheckConfigured(); err != nil {
		s.phase = PhaseFailed
		s.errMsg = generator.UserMessage(err)
		s.touch()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.log.Warn("intake rejected before dispatch", "error", err)
		s.notify(snap)
		return resolved(err), nil
	}

	s.phase = PhaseLoading
	s.generating = true
	req := generator.Request{Stage: generator.StageAnalysis, Intake: intake}
	p := s.dispatchLocked(ctx, req, s.completeSubmit)
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return p, nil
}

// Advance generates the stage after the cursor using every section so far.
// On failure the cursor stays put and the error is attached for display.
func (s *Session) Advance(ctx context.Context) (*Pending, error) {
	s.mu.Lock()
	if s.generating || s.refining {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	switch {
	case s.intake == nil || s.cursor == 0:
		s.mu.Unlock()
		return nil, ErrNotSubmitted
	case s.cursor >= generator.StageCount:
		s.mu.Unlock()
		return nil, ErrComplete
	case s.phase != PhaseBuilding || !s.framework.HasPrefix(s.cursor):
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: stage %d", ErrStageLocked, s.cursor+1)
	}

	s.generating = true
	s.errMsg = ""
	req := generator.Request{
		Stage:  generator.Stage(s.cursor + 1),
		Intake: *s.intake,
		Prior:  s.framework.Sections(),
	}
	p := s.dispatchLocked(ctx, req, s.completeAdvance)
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return p, nil
}

// Refine regenerates an already produced stage following instruction. The
// cursor never moves; on failure the previous content is kept.
func (s *Session) Refine(ctx context.Context, stage generator.Stage, instruction string) (*Pending, error) {
	instruction = strings.TrimSpace(instruction)

	s.mu.Lock()
	if s.generating || s.refining {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.intake == nil || s.cursor == 0 {
		s.mu.Unlock()
		return nil, ErrNotSubmitted
	}
	if !stage.Valid() || int(stage) > s.cursor || !s.framework.Has(stage) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: stage %d", ErrStageLocked, int(stage))
	}
	if instruction == "" {
		s.mu.Unlock()
		return nil, ErrEmptyInstruction
	}

	prev, _ := s.framework.Section(stage)
	s.refining = true
	s.errMsg = ""
	req := generator.Request{
		Stage:      stage,
		Intake:     *s.intake,
		Prior:      s.framework.Sections(),
		Refinement: &generator.Refinement{Instruction: instruction, Previous: prev},
	}
	p := s.dispatchLocked(ctx, req, s.completeRefine)
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return p, nil
}

// Reset returns the session to idle from any state. Requests still in flight
// complete into the void: their epoch no longer matches.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch++
	s.phase = PhaseIdle
	s.intake = nil
	s.framework.Clear()
	s.cursor = 0
	s.errMsg = ""
	s.generating = false
	s.refining = false
	s.history = nil
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.log.Info("session reset", "epoch", snap.Epoch)
	s.notify(snap)
}

type completion func(req generator.Request, sec generator.Section, err error) error

// dispatchLocked starts the model call on its own goroutine. The caller's
// context only contributes values; the call is bounded by s.timeout and
// cannot be cancelled.
func (s *Session) dispatchLocked(ctx context.Context, req generator.Request, done completion) *Pending {
	p := newPending()
	epoch := s.epoch
	callCtx := context.WithoutCancel(ctx)
	s.log.Debug("dispatching", "stage", req.Stage.String(), "refine", req.Refining(), "epoch", epoch)

	go func() {
		sec, err := s.generate(callCtx, req)

		s.mu.Lock()
		if epoch != s.epoch {
			s.mu.Unlock()
			s.log.Info("discarding stale result", "stage", req.Stage.String(), "epoch", epoch)
			p.resolve(ErrStale)
			return
		}
		result := done(req, sec, err)
		s.touch()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		p.resolve(result)
	}()
	return p
}

// generate runs one bounded model call. A panicking generator is reported as
// a transient failure.
func (s *Session) generate(ctx context.Context, req generator.Request) (sec generator.Section, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("generator panicked", "stage", req.Stage.String(), "panic", fmt.Sprint(r))
			sec = generator.Section{}
			err = &generator.Error{Kind: generator.ErrTransient, Err: fmt.Errorf("generator panicked: %v", r)}
		}
	}()
	return s.gen.Generate(ctx, req)
}

// mergeLocked stores a successful result for req. A section produced for a
// different stage than requested is rejected as malformed.
func (s *Session) mergeLocked(req generator.Request, sec generator.Section, err error) error {
	if err != nil {
		return err
	}
	if sec.Stage != req.Stage {
		return &generator.Error{
			Kind: generator.ErrMalformedResult,
			Err:  fmt.Errorf("%w: requested %s, got %s", ErrShapeMismatch, req.Stage, sec.Stage),
		}
	}
	return s.framework.Merge(sec)
}

func (s *Session) completeSubmit(req generator.Request, sec generator.Section, err error) error {
	defer func() { s.generating = false }()
	if err = s.mergeLocked(req, sec, err); err != nil {
		s.phase = PhaseFailed
		s.errMsg = generator.UserMessage(err)
		s.log.Warn("initial generation failed", "error", err)
		return err
	}
	s.cursor = 1
	s.phase = PhaseBuilding
	s.appendTurn(req)
	return nil
}

func (s *Session) completeAdvance(req generator.Request, sec generator.Section, err error) error {
	defer func() { s.generating = false }()
	if err = s.mergeLocked(req, sec, err); err != nil {
		s.errMsg = generator.UserMessage(err)
		s.log.Warn("advance failed", "stage", req.Stage.String(), "error", err)
		return err
	}
	s.cursor = int(req.Stage)
	if s.cursor == generator.StageCount {
		s.phase = PhaseDone
	}
	s.appendTurn(req)
	return nil
}

func (s *Session) completeRefine(req generator.Request, sec generator.Section, err error) error {
	defer func() { s.refining = false }()
	if err = s.mergeLocked(req, sec, err); err != nil {
		s.errMsg = generator.UserMessage(err)
		s.log.Warn("refine failed", "stage", req.Stage.String(), "error", err)
		return err
	}
	s.appendTurn(req)
	return nil
}

func (s *Session) appendTurn(req generator.Request) {
	t := Turn{Stage: req.Stage, Kind: "generate", CreatedAt: time.Now()}
	if req.Refining() {
		t.Kind = "refine"
		t.Instruction = req.Refinement.Instruction
	}
	s.history = append(s.history, t)
}

func (s *Session) touch() {
	s.version++
	s.updatedAt = time.Now()
}

// notify delivers snapshots in version order; one overtaken by a newer
// snapshot is dropped.
func (s *Session) notify(snap Snapshot) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.lastNotified {
		return
	}
	s.lastNotified = snap.Version
	s.onChange(snap)
}
