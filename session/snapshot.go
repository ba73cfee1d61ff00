package session

import (
	"time"

	"proposal_assistant/generator"
)

// Snapshot is an immutable copy of a session's state, used for rendering and
// persistence.
type Snapshot struct {
	ID         string            `json:"session_id"`
	Phase      Phase             `json:"phase"`
	Cursor     int               `json:"cursor"`
	NextStage  string            `json:"next_stage,omitempty"`
	Intake     *generator.Intake `json:"intake,omitempty"`
	Framework  Framework         `json:"framework"`
	Error      string            `json:"error,omitempty"`
	Generating bool              `json:"generating"`
	Refining   bool              `json:"refining"`
	Epoch      uint64            `json:"epoch"`
	Version    uint64            `json:"version"`
	History    []Turn            `json:"history,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.ID,
		Phase:      s.phase,
		Cursor:     s.cursor,
		Framework:  s.framework.Clone(),
		Error:      s.errMsg,
		Generating: s.generating,
		Refining:   s.refining,
		Epoch:      s.epoch,
		Version:    s.version,
		History:    append([]Turn(nil), s.history...),
		UpdatedAt:  s.updatedAt,
	}
	if s.intake != nil {
		in := *s.intake
		snap.Intake = &in
	}
	if s.cursor > 0 && s.cursor < generator.StageCount {
		snap.NextStage = generator.Stage(s.cursor + 1).String()
	}
	return snap
}

// Restore rebuilds a session from a persisted snapshot. Work that was in
// flight when the snapshot was taken is not resumed: a loading session comes
// back failed and busy flags come back cleared.
func Restore(snap Snapshot, gen Generator, opts ...Option) *Session {
	s := New(snap.ID, gen, opts...)
	s.phase = snap.Phase
	s.cursor = snap.Cursor
	s.framework = snap.Framework.Clone()
	s.errMsg = snap.Error
	s.epoch = snap.Epoch
	s.version = snap.Version
	s.lastNotified = snap.Version
	s.history = append([]Turn(nil), snap.History...)
	if !snap.UpdatedAt.IsZero() {
		s.updatedAt = snap.UpdatedAt
	}
	if snap.Intake != nil {
		in := *snap.Intake
		s.intake = &in
	}

	if s.phase == PhaseLoading {
		s.phase = PhaseFailed
		s.errMsg = generator.MsgTryAgain
	}
	// Keep the cursor consistent with what actually survived.
	for s.cursor > 0 && !s.framework.HasPrefix(s.cursor) {
		s.cursor--
	}
	if s.phase == PhaseDone && s.cursor < generator.StageCount {
		s.phase = PhaseBuilding
	}
	if s.phase == PhaseBuilding && s.cursor == 0 {
		s.phase = PhaseIdle
		s.intake = nil
	}
	s.log.Debug("session restored", "phase", string(s.phase), "cursor", s.cursor)
	return s
}
