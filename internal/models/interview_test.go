package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindPhases(t *testing.T) {
	assert.Equal(t, []InterviewPhase{PhaseOpening, PhaseTechnical, PhasePersonality, PhaseClosing}, KindFull.Phases())
	assert.Equal(t, []InterviewPhase{PhaseOpening, PhaseTechnical, PhaseClosing}, KindTechnical.Phases())
	assert.Equal(t, []InterviewPhase{PhaseOpening, PhasePersonality, PhaseClosing}, KindPersonality.Phases())
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindFull.Valid())
	assert.True(t, KindTechnical.Valid())
	assert.True(t, KindPersonality.Valid())
	assert.False(t, InterviewKind("BEHAVIORAL").Valid())
	assert.False(t, InterviewKind("").Valid())
}

func TestPhaseIsTemplate(t *testing.T) {
	assert.True(t, PhaseOpening.IsTemplate())
	assert.True(t, PhaseClosing.IsTemplate())
	assert.False(t, PhaseTechnical.IsTemplate())
	assert.False(t, PhasePersonality.IsTemplate())
}

func TestInterviewStart(t *testing.T) {
	interview := &Interview{ID: uuid.New(), Kind: KindFull, Status: StatusReady}

	require.NoError(t, interview.Start())
	assert.Equal(t, StatusInProgress, interview.Status)
	require.NotNil(t, interview.CurrentPhase)
	assert.Equal(t, PhaseOpening, *interview.CurrentPhase)
}

func TestInterviewStartRejectsNonReady(t *testing.T) {
	interview := &Interview{ID: uuid.New(), Kind: KindFull, Status: StatusReady}
	require.NoError(t, interview.Start())

	assert.ErrorIs(t, interview.Start(), ErrInvalidState)

	interview.Complete()
	assert.ErrorIs(t, interview.Start(), ErrInvalidState)
}

func TestInterviewNextPhaseWalksKindSequence(t *testing.T) {
	interview := &Interview{ID: uuid.New(), Kind: KindFull, Status: StatusReady}
	require.NoError(t, interview.Start())

	require.NoError(t, interview.NextPhase())
	assert.Equal(t, PhaseTechnical, *interview.CurrentPhase)

	require.NoError(t, interview.NextPhase())
	assert.Equal(t, PhasePersonality, *interview.CurrentPhase)

	require.NoError(t, interview.NextPhase())
	assert.Equal(t, PhaseClosing, *interview.CurrentPhase)
	assert.True(t, interview.IsLastPhase())

	// Advancing past the last phase is a no-op.
	require.NoError(t, interview.NextPhase())
	assert.Equal(t, PhaseClosing, *interview.CurrentPhase)
}

func TestInterviewNextPhaseBeforeStart(t *testing.T) {
	interview := &Interview{ID: uuid.New(), Kind: KindFull, Status: StatusReady}
	assert.ErrorIs(t, interview.NextPhase(), ErrInvalidState)
}

func TestInterviewIsLastPhaseBeforeStart(t *testing.T) {
	interview := &Interview{ID: uuid.New(), Kind: KindTechnical, Status: StatusReady}
	assert.False(t, interview.IsLastPhase())
}

func TestInterviewMarkDeleted(t *testing.T) {
	interview := &Interview{ID: uuid.New(), Kind: KindFull, Status: StatusReady}
	interview.MarkDeleted()

	assert.True(t, interview.Deleted)
	require.NotNil(t, interview.DeletedAt)
}
