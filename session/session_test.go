package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_assistant/generator"
)

func TestOfflineSubmitProducesExampleAnalysis(t *testing.T) {
	s := New("s1", generator.NewOfflineAgent(0))

	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	require.NoError(t, wait(t, p))

	snap := s.Snapshot()
	assert.Equal(t, PhaseBuilding, snap.Phase)
	assert.Equal(t, 1, snap.Cursor)
	assert.Equal(t, "modules", snap.NextStage)
	assert.Empty(t, snap.Error)
	sec, ok := snap.Framework.Section(generator.StageAnalysis)
	require.True(t, ok)
	assert.Equal(t, generator.DummySituationalAnalysis, sec.Text)
}

func TestOfflineFrameworkIndependentOfIntake(t *testing.T) {
	other := generator.Intake{
		BusinessName: "PT Baja Nusantara",
		Industry:     "Manufaktur",
		CompanySize:  generator.SizeLarge,
		FocusArea:    generator.FocusCounseling,
		Challenge:    "Konflik antar divisi",
	}
	var frameworks []Framework
	for _, in := range []generator.Intake{bankingIntake(), other} {
		s := New("s1", generator.NewOfflineAgent(0))
		p, err := s.SubmitIntake(context.Background(), in)
		require.NoError(t, err)
		require.NoError(t, wait(t, p))
		for s.Snapshot().Cursor < generator.StageCount {
			p, err := s.Advance(context.Background())
			require.NoError(t, err)
			require.NoError(t, wait(t, p))
		}
		frameworks = append(frameworks, s.Snapshot().Framework)
	}

	for stage := generator.StageAnalysis; stage <= generator.StageProposal; stage++ {
		want, _ := generator.Fallback(stage)
		for _, f := range frameworks {
			got, ok := f.Section(stage)
			require.True(t, ok)
			assert.Equal(t, want, got, stage.String())
		}
	}
}

func TestSubmitShowsLoadingWhileInFlight(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)

	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, PhaseLoading, snap.Phase)
	assert.True(t, snap.Generating)
	assert.Equal(t, 0, snap.Cursor)

	c := gen.next(t)
	assert.Equal(t, generator.StageAnalysis, c.req.Stage)
	c.answerFallback()
	require.NoError(t, wait(t, p))
	assert.False(t, s.Snapshot().Generating)
}

func TestSubmitRejectsInvalidIntake(t *testing.T) {
	s := New("s1", newScriptGen())
	in := bankingIntake()
	in.Challenge = ""
	_, err := s.SubmitIntake(context.Background(), in)
	require.ErrorIs(t, err, generator.ErrInvalidIntake)

	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Intake)
	assert.Equal(t, uint64(0), snap.Version)
}

func TestSubmitWithoutCredentialFails(t *testing.T) {
	s := New("s1", generator.NewUnconfiguredAgent())

	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	assert.ErrorIs(t, wait(t, p), generator.ErrConfiguration)

	snap := s.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, generator.MsgConfiguration, snap.Error)
	assert.Equal(t, 0, snap.Cursor)
	assert.False(t, snap.Generating)

	s.Reset()
	assert.Equal(t, PhaseIdle, s.Snapshot().Phase)
}

func TestSubmitFailureMovesToFailed(t *testing.T) {
	gen := newScriptGen()
	gen.failStage(generator.StageAnalysis, generator.Classify(errors.New("blocked for SAFETY")))
	s := New("s1", gen)

	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	assert.ErrorIs(t, wait(t, p), generator.ErrSafetyRejection)

	snap := s.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, generator.MsgSafety, snap.Error)
	assert.Equal(t, 0, snap.Framework.Len())

	_, err = s.SubmitIntake(context.Background(), bankingIntake())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	_, err = s.Advance(context.Background())
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

func TestSubmitTwiceRejected(t *testing.T) {
	s := New("s1", newScriptGen())
	submitAndAdvance(t, s, 1)
	before := s.Snapshot()

	_, err := s.SubmitIntake(context.Background(), bankingIntake())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, before, s.Snapshot())
}

func TestAdvanceBeforeSubmit(t *testing.T) {
	s := New("s1", newScriptGen())
	_, err := s.Advance(context.Background())
	assert.ErrorIs(t, err, ErrNotSubmitted)
	_, err = s.Refine(context.Background(), generator.StageAnalysis, "x")
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

func TestAdvanceThroughAllStages(t *testing.T) {
	gen := newScriptGen()
	s := New("s1", gen)
	submitAndAdvance(t, s, generator.StageCount)

	snap := s.Snapshot()
	assert.Equal(t, PhaseDone, snap.Phase)
	assert.Equal(t, generator.StageCount, snap.Cursor)
	assert.Empty(t, snap.NextStage)
	assert.Equal(t, generator.StageCount, snap.Framework.Len())
	proposal, ok := snap.Framework.Proposal()
	require.True(t, ok)
	assert.Equal(t, generator.DummyProposal, proposal)
	assert.Len(t, snap.History, generator.StageCount)

	// Each stage saw every earlier section.
	for i, req := range gen.requests() {
		assert.Equal(t, generator.Stage(i+1), req.Stage)
		assert.Len(t, req.Prior, i)
	}

	_, err := s.Advance(context.Background())
	assert.ErrorIs(t, err, ErrComplete)
}

func TestAdvanceFailureKeepsCursorAndSections(t *testing.T) {
	gen := newScriptGen()
	s := New("s1", gen)
	submitAndAdvance(t, s, 2)
	before := s.Snapshot().Framework

	gen.failStage(generator.StageSteps, errNetwork)
	p, err := s.Advance(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, wait(t, p), generator.ErrTransient)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Cursor)
	assert.Equal(t, PhaseBuilding, snap.Phase)
	assert.Equal(t, generator.MsgTryAgain, snap.Error)
	assert.Equal(t, before, snap.Framework)
	assert.False(t, snap.Generating)

	gen.failStage(generator.StageSteps, nil)
	p, err = s.Advance(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot().Error)
	require.NoError(t, wait(t, p))
	assert.Equal(t, 3, s.Snapshot().Cursor)
}

func TestAdvanceRejectsWrongShape(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	gen.next(t).answerFallback()
	require.NoError(t, wait(t, p))

	p, err = s.Advance(context.Background())
	require.NoError(t, err)
	c := gen.next(t)
	c.reply <- result{sec: generator.TextSection(generator.StageModules, "bukan daftar modul")}
	assert.ErrorIs(t, wait(t, p), ErrShapeMismatch)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Cursor)
	assert.False(t, snap.Framework.Has(generator.StageModules))
	assert.Equal(t, generator.MsgTryAgain, snap.Error)
}

func TestAdvanceRejectsSectionForOtherStage(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	gen.next(t).answerFallback()
	require.NoError(t, wait(t, p))
	p, err = s.Advance(context.Background())
	require.NoError(t, err)
	gen.next(t).answerFallback()
	require.NoError(t, wait(t, p))

	p, err = s.Advance(context.Background())
	require.NoError(t, err)
	c := gen.next(t)
	require.Equal(t, generator.StageSteps, c.req.Stage)
	c.reply <- result{sec: generator.ListSection(generator.StageRisks, []string{"Resistensi karyawan"})}
	err = wait(t, p)
	assert.ErrorIs(t, err, generator.ErrMalformedResult)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Cursor)
	assert.True(t, snap.Framework.HasPrefix(snap.Cursor))
	assert.False(t, snap.Framework.Has(generator.StageSteps))
	assert.False(t, snap.Framework.Has(generator.StageRisks))
	assert.False(t, snap.Generating)
	assert.Equal(t, generator.MsgTryAgain, snap.Error)

	// The stage can be retried.
	p, err = s.Advance(context.Background())
	require.NoError(t, err)
	gen.next(t).answerFallback()
	require.NoError(t, wait(t, p))
	assert.Equal(t, 3, s.Snapshot().Cursor)
}

func TestSubmitRejectsSectionForOtherStage(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	gen.next(t).reply <- result{sec: generator.TextSection(generator.StageProposal, "Proposal terlalu dini")}
	assert.ErrorIs(t, wait(t, p), generator.ErrMalformedResult)

	snap := s.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, 0, snap.Cursor)
	assert.Zero(t, snap.Framework.Len())
}

func TestRefineRejectsSectionForOtherStage(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	gen.next(t).answerFallback()
	require.NoError(t, wait(t, p))

	p, err = s.Refine(context.Background(), generator.StageAnalysis, "Lebih ringkas")
	require.NoError(t, err)
	gen.next(t).reply <- result{sec: generator.TextSection(generator.StageProposal, "salah tempat")}
	assert.ErrorIs(t, wait(t, p), generator.ErrMalformedResult)

	snap := s.Snapshot()
	assert.False(t, snap.Refining)
	assert.False(t, snap.Framework.Has(generator.StageProposal))
	sec, ok := snap.Framework.Section(generator.StageAnalysis)
	require.True(t, ok)
	assert.Equal(t, generator.DummySituationalAnalysis, sec.Text)
}

type panicGen struct{}

func (panicGen) CheckConfigured() error { return nil }

func (panicGen) Generate(context.Context, generator.Request) (generator.Section, error) {
	panic("provider exploded")
}

func TestPanickingGeneratorFailsRequest(t *testing.T) {
	s := New("s1", panicGen{})
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)

	err = wait(t, p)
	assert.ErrorIs(t, err, generator.ErrTransient)
	assert.Contains(t, err.Error(), "provider exploded")

	snap := s.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.False(t, snap.Generating)
	assert.Equal(t, generator.MsgTryAgain, snap.Error)
}

func TestBusyRejections(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	gen.next(t).answerFallback()
	require.NoError(t, wait(t, p))

	p, err = s.Advance(context.Background())
	require.NoError(t, err)
	c := gen.next(t)
	busy := s.Snapshot()

	_, err = s.Advance(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.Refine(context.Background(), generator.StageAnalysis, "lebih singkat")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, busy, s.Snapshot())

	c.answerFallback()
	require.NoError(t, wait(t, p))
	assert.Equal(t, 2, s.Snapshot().Cursor)
}

func TestRefineReplacesSectionWithoutMovingCursor(t *testing.T) {
	gen := newScriptGen()
	s := New("s1", gen)
	submitAndAdvance(t, s, 3)

	p, err := s.Refine(context.Background(), generator.StageAnalysis, "  Fokus pada budaya kerja  ")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Cursor)
	assert.False(t, snap.Refining)
	sec, _ := snap.Framework.Section(generator.StageAnalysis)
	assert.Equal(t, "refined: Fokus pada budaya kerja", sec.Text)
	steps, _ := snap.Framework.Section(generator.StageSteps)
	assert.Equal(t, generator.DummyImplementationSteps, steps.Items)

	last := snap.History[len(snap.History)-1]
	assert.Equal(t, "refine", last.Kind)
	assert.Equal(t, "Fokus pada budaya kerja", last.Instruction)

	reqs := gen.requests()
	refineReq := reqs[len(reqs)-1]
	require.NotNil(t, refineReq.Refinement)
	assert.Equal(t, generator.DummySituationalAnalysis, refineReq.Refinement.Previous.Text)
}

func TestRefineStructuredStage(t *testing.T) {
	s := New("s1", newScriptGen())
	submitAndAdvance(t, s, 2)

	p, err := s.Refine(context.Background(), generator.StageModules, "Satu modul saja")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))

	sec, _ := s.Snapshot().Framework.Section(generator.StageModules)
	assert.Equal(t, []generator.ProjectModule{{Title: "Satu modul saja", Description: "Satu modul saja"}}, sec.Modules)
}

func TestRefineRejections(t *testing.T) {
	s := New("s1", newScriptGen())
	submitAndAdvance(t, s, 2)
	before := s.Snapshot()

	_, err := s.Refine(context.Background(), 0, "x")
	assert.ErrorIs(t, err, ErrStageLocked)
	_, err = s.Refine(context.Background(), generator.StageSteps, "x")
	assert.ErrorIs(t, err, ErrStageLocked)
	_, err = s.Refine(context.Background(), generator.StageCount+1, "x")
	assert.ErrorIs(t, err, ErrStageLocked)
	_, err = s.Refine(context.Background(), generator.StageAnalysis, "   ")
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	assert.Equal(t, before, s.Snapshot())
}

func TestRefineFailureKeepsPreviousContent(t *testing.T) {
	gen := newScriptGen()
	s := New("s1", gen)
	submitAndAdvance(t, s, 2)

	gen.failStage(generator.StageModules, errNetwork)
	p, err := s.Refine(context.Background(), generator.StageModules, "Tambah modul")
	require.NoError(t, err)
	assert.ErrorIs(t, wait(t, p), generator.ErrTransient)

	snap := s.Snapshot()
	sec, _ := snap.Framework.Section(generator.StageModules)
	assert.Equal(t, generator.DummyProjectModules, sec.Modules)
	assert.Equal(t, 2, snap.Cursor)
	assert.Equal(t, generator.MsgTryAgain, snap.Error)
	assert.False(t, snap.Refining)
}

func TestRefineAfterDone(t *testing.T) {
	s := New("s1", newScriptGen())
	submitAndAdvance(t, s, generator.StageCount)

	p, err := s.Refine(context.Background(), generator.StageProposal, "Lebih formal")
	require.NoError(t, err)
	require.NoError(t, wait(t, p))

	snap := s.Snapshot()
	assert.Equal(t, PhaseDone, snap.Phase)
	proposal, _ := snap.Framework.Proposal()
	assert.Equal(t, "refined: Lebih formal", proposal)
}

func TestResetClearsEverything(t *testing.T) {
	s := New("s1", newScriptGen())
	submitAndAdvance(t, s, 3)
	epoch := s.Snapshot().Epoch

	s.Reset()
	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 0, snap.Cursor)
	assert.Nil(t, snap.Intake)
	assert.Equal(t, 0, snap.Framework.Len())
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.Error)
	assert.Equal(t, epoch+1, snap.Epoch)

	submitAndAdvance(t, s, 1)
	assert.Equal(t, 1, s.Snapshot().Cursor)
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	c := gen.next(t)

	s.Reset()
	c.answerFallback()
	assert.ErrorIs(t, wait(t, p), ErrStale)

	snap := s.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 0, snap.Cursor)
	assert.Equal(t, 0, snap.Framework.Len())
	assert.False(t, snap.Generating)
}

func TestStaleResultDoesNotClearNewRequest(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	old, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	oldCall := gen.next(t)

	s.Reset()
	fresh, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)
	freshCall := gen.next(t)

	oldCall.reply <- result{err: errNetwork}
	assert.ErrorIs(t, wait(t, old), ErrStale)
	snap := s.Snapshot()
	assert.Equal(t, PhaseLoading, snap.Phase)
	assert.True(t, snap.Generating)

	freshCall.answerFallback()
	require.NoError(t, wait(t, fresh))
	assert.Equal(t, 1, s.Snapshot().Cursor)
}

func TestGenerationTimeout(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen, WithTimeout(20*time.Millisecond))
	p, err := s.SubmitIntake(context.Background(), bankingIntake())
	require.NoError(t, err)

	assert.ErrorIs(t, wait(t, p), context.DeadlineExceeded)
	assert.Equal(t, PhaseFailed, s.Snapshot().Phase)
}

func TestCallerCancellationDoesNotAbortGeneration(t *testing.T) {
	gen := newBlockingGen()
	s := New("s1", gen)
	ctx, cancel := context.WithCancel(context.Background())
	p, err := s.SubmitIntake(ctx, bankingIntake())
	require.NoError(t, err)
	c := gen.next(t)
	cancel()

	c.answerFallback()
	require.NoError(t, wait(t, p))
	assert.Equal(t, 1, s.Snapshot().Cursor)
}

func TestObserverSeesOrderedSnapshots(t *testing.T) {
	var (
		mu       sync.Mutex
		versions []uint64
		last     Snapshot
	)
	s := New("s1", newScriptGen(), WithObserver(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, snap.Version)
		last = snap
	}))
	submitAndAdvance(t, s, 2)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Equal(t, PhaseBuilding, last.Phase)
	assert.Equal(t, 2, last.Cursor)
	assert.Equal(t, s.Snapshot().Version, last.Version)
}
