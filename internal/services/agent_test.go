package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRetryingAgent(inner AgentClient, attempts int) *retryingAgent {
	return &retryingAgent{
		inner:       inner,
		maxAttempts: attempts,
		delay:       time.Millisecond,
	}
}

func TestRetryingAgentRecoversAfterTransientFailure(t *testing.T) {
	stub := &stubAgent{}
	failures := 2
	stub.feedbackFn = func(_ context.Context, req FeedbackRequest) (*FeedbackResult, error) {
		if stub.feedbackCalls <= failures {
			return nil, errors.New("transient")
		}
		score := 70
		return &FeedbackResult{Feedback: "Recovered.", Score: &score}, nil
	}

	agent := newRetryingAgent(stub, 3)
	result, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Recovered.", result.Feedback)
	assert.Equal(t, 3, stub.feedbackCalls)
}

func TestRetryingAgentFeedbackFallsBackAfterExhaustion(t *testing.T) {
	stub := &stubAgent{}
	stub.feedbackFn = func(_ context.Context, req FeedbackRequest) (*FeedbackResult, error) {
		return nil, errors.New("broken")
	}

	agent := newRetryingAgent(stub, 3)
	result, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, stub.feedbackCalls)
	assert.Nil(t, result.Score)
	assert.NotEmpty(t, result.Feedback)
}

func TestRetryingAgentStepReturnsNoDecisionAfterExhaustion(t *testing.T) {
	stub := &stubAgent{}
	stub.stepFn = func(_ context.Context, req StepRequest) (*AgentDecision, error) {
		return nil, errors.New("broken")
	}

	agent := newRetryingAgent(stub, 2)
	decision, err := agent.ProcessInterviewStep(context.Background(), StepRequest{})
	require.NoError(t, err)
	assert.Nil(t, decision)
	assert.Equal(t, 2, stub.stepCalls)
}

func TestRetryingAgentReportFallsBackWithTranscript(t *testing.T) {
	stub := &stubAgent{}
	stub.reportFn = func(_ context.Context, req ReportRequest) (*ReportResult, error) {
		return nil, errors.New("broken")
	}

	score80, score60 := 80, 60
	req := ReportRequest{
		Context: "Backend Engineer Junior",
		Entries: []ReportEntry{
			{Phase: "OPENING", Question: "Q1", Answer: "A1", Score: &score80, Feedback: "good"},
			{Phase: "TECHNICAL", Question: "Q2", Answer: "A2", Score: &score60, Feedback: "ok"},
			{Phase: "CLOSING", Question: "Q3", Answer: "A3", Feedback: "unscored"},
		},
	}

	agent := newRetryingAgent(stub, 2)
	result, err := agent.GenerateReport(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	require.Len(t, result.Report.Details, 3)
	assert.Equal(t, "Q2", result.Report.Details[1].Question)

	// Overall score averages only the scored answers.
	assert.Equal(t, 70, result.Report.OverallScore)
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, ActionGenerateQuestion, normalizeAction("GENERATE_QUESTION"))
	assert.Equal(t, ActionNextPhase, normalizeAction("NEXT_PHASE"))
	assert.Equal(t, ActionNextPhase, normalizeAction("SOMETHING_ELSE"))
	assert.Equal(t, ActionNextPhase, normalizeAction(""))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 100, clampScore(140))
	assert.Equal(t, 85, clampScore(85))
	assert.Nil(t, clampScorePtr(nil))
}
