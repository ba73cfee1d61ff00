package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"proposal_assistant/logging"
)

var ErrNotFound = errors.New("session not found")

// SnapshotStore persists snapshots outside the process.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// PhaseGauge receives the number of live sessions per phase.
type PhaseGauge interface {
	SetSessions(byPhase map[string]int)
}

// Registry owns the live sessions of a process. With a SnapshotStore it
// writes every transition through and rehydrates sessions it does not hold.
type Registry struct {
	gen     Generator
	store   SnapshotStore
	gauge   PhaseGauge
	log     *logging.Logger
	timeout time.Duration
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	phases   map[string]Phase
}

type RegistryOption func(*Registry)

func WithStore(st SnapshotStore) RegistryOption {
	return func(r *Registry) { r.store = st }
}

func WithGauge(g PhaseGauge) RegistryOption {
	return func(r *Registry) { r.gauge = g }
}

func WithRegistryLogger(l *logging.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithGenerationTimeout bounds each model call of sessions created here.
func WithGenerationTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.timeout = d }
}

// WithIdleTTL evicts live sessions untouched for longer than d. A persisted
// session is still restored from the store on its next request.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = d }
}

func NewRegistry(gen Generator, opts ...RegistryOption) *Registry {
	r := &Registry{
		gen:      gen,
		log:      logging.Nop(),
		timeout:  DefaultTimeout,
		sessions: make(map[string]*Session),
		phases:   make(map[string]Phase),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new idle session.
func (r *Registry) Create() *Session {
	id := uuid.NewString()
	s := New(id, r.gen, r.sessionOptions()...)
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	r.observe(s.Snapshot())
	return s
}

// Get returns a live session, restoring it from the store when needed.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return s, nil
	}
	if r.store == nil {
		return nil, ErrNotFound
	}

	snap, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	restored := Restore(snap, r.gen, r.sessionOptions()...)

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.sessions[id] = restored
	r.phases[id] = restored.Snapshot().Phase
	counts := r.countsLocked()
	r.mu.Unlock()
	r.publish(counts)
	r.log.Info("session restored from store", "session_id", id)
	return restored, nil
}

// Delete forgets a session here and in the store.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	delete(r.phases, id)
	counts := r.countsLocked()
	r.mu.Unlock()
	r.publish(counts)

	if r.store != nil {
		return r.store.Delete(ctx, id)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Counts returns the number of live sessions per phase.
func (r *Registry) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countsLocked()
}

// Sweep evicts idle sessions as of now and returns how many were dropped.
// Sessions with a generation in flight are kept. Without an idle TTL Sweep
// does nothing and sessions live for the lifetime of the process.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	evicted := 0
	for _, s := range live {
		if !r.idle(s, now) {
			continue
		}
		r.mu.Lock()
		// Re-checked under the registry lock: a request may have arrived.
		if r.sessions[s.ID] == s && r.idle(s, now) {
			delete(r.sessions, s.ID)
			delete(r.phases, s.ID)
			evicted++
		}
		r.mu.Unlock()
	}
	if evicted == 0 {
		return 0
	}
	r.publish(r.Counts())
	r.log.Info("evicted idle sessions", "count", evicted)
	return evicted
}

func (r *Registry) idle(s *Session, now time.Time) bool {
	snap := s.Snapshot()
	return !snap.Generating && !snap.Refining && now.Sub(snap.UpdatedAt) > r.idleTTL
}

// RunSweeper calls Sweep every interval until ctx ends.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) error {
	if r.idleTTL <= 0 || interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

func (r *Registry) sessionOptions() []Option {
	return []Option{
		WithLogger(r.log),
		WithTimeout(r.timeout),
		WithObserver(r.observe),
	}
}

func (r *Registry) observe(snap Snapshot) {
	r.mu.Lock()
	if _, live := r.sessions[snap.ID]; !live {
		r.mu.Unlock()
		return
	}
	r.phases[snap.ID] = snap.Phase
	counts := r.countsLocked()
	r.mu.Unlock()
	r.publish(counts)

	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, snap); err != nil {
		r.log.Warn("persisting snapshot failed", "session_id", snap.ID, "error", err)
	}
}

func (r *Registry) countsLocked() map[string]int {
	counts := make(map[string]int, 5)
	for _, p := range r.phases {
		counts[string(p)]++
	}
	return counts
}

func (r *Registry) publish(counts map[string]int) {
	if r.gauge != nil {
		r.gauge.SetSessions(counts)
	}
}
