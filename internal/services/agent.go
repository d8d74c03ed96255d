package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/twodc/pre-view-sub000/internal/config"
	"github.com/twodc/pre-view-sub000/internal/metrics"
	"github.com/twodc/pre-view-sub000/internal/models"
)

// AgentAction is the agent's decision after a candidate answer.
type AgentAction string

const (
	ActionGenerateQuestion AgentAction = "GENERATE_QUESTION"
	ActionNextPhase        AgentAction = "NEXT_PHASE"
)

// FeedbackRequest asks for an evaluation of a single answer.
type FeedbackRequest struct {
	Phase    models.InterviewPhase
	Question string
	Answer   string
}

// FeedbackResult carries the evaluation. Score is nil when feedback was
// produced by the degraded fallback rather than the model.
type FeedbackResult struct {
	Feedback string
	Score    *int
}

// StepRequest carries the conversational state of one AI phase turn.
type StepRequest struct {
	Phase             models.InterviewPhase
	Context           string
	BridgeAnswer      string
	ResumeText        string
	PortfolioText     string
	PreviousQuestions []string
	PreviousAnswers   []string
	FollowUpDepth     int
}

// AgentDecision is the agent's next step within an AI phase.
type AgentDecision struct {
	Thought    string
	Action     AgentAction
	Message    string
	Evaluation string
}

// ReportEntry is one answered question handed to the report prompt.
type ReportEntry struct {
	Phase    models.InterviewPhase
	Question string
	Answer   string
	Score    *int
	Feedback string
}

// ReportRequest asks for a final interview report.
type ReportRequest struct {
	Context string
	Entries []ReportEntry
}

// ReportResult wraps the generated report. Degraded reports must not be
// cached so a later fetch can try the model again.
type ReportResult struct {
	Report   models.Report
	Degraded bool
}

// AgentClient is the AI backend behind feedback, interview steps, and
// reports. ProcessInterviewStep may return (nil, nil) when the backend
// produced no usable decision.
type AgentClient interface {
	GenerateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error)
	ProcessInterviewStep(ctx context.Context, req StepRequest) (*AgentDecision, error)
	GenerateReport(ctx context.Context, req ReportRequest) (*ReportResult, error)
}

// NewAgentClient builds the configured backend and wraps it with retries,
// metrics, and degraded fallbacks.
func NewAgentClient(cfg config.AgentConfig, recorder *metrics.Recorder) AgentClient {
	var inner AgentClient
	switch cfg.Mode {
	case config.AgentModeDelegated:
		inner = NewRemoteAgentClient(cfg)
	default:
		inner = NewChatAgentClient(cfg, recorder)
	}
	return &retryingAgent{
		inner:       inner,
		maxAttempts: cfg.RetryMaxAttempts,
		delay:       cfg.RetryDelay,
		recorder:    recorder,
	}
}

// retryingAgent retries transient backend failures and degrades gracefully
// when every attempt fails: feedback and reports get deterministic fallback
// content, interview steps report "no decision" to the caller.
type retryingAgent struct {
	inner       AgentClient
	maxAttempts int
	delay       time.Duration
	recorder    *metrics.Recorder
}

func (a *retryingAgent) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	start := time.Now()
	var result *FeedbackResult
	err := a.do(ctx, func(ctx context.Context) error {
		res, err := a.inner.GenerateFeedback(ctx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	a.recorder.ObserveCall("feedback", err, time.Since(start))
	if err != nil {
		log.Printf("⚠️ Feedback generation failed after %d attempts, using fallback: %v", a.maxAttempts, err)
		return fallbackFeedback(), nil
	}
	return result, nil
}

func (a *retryingAgent) ProcessInterviewStep(ctx context.Context, req StepRequest) (*AgentDecision, error) {
	start := time.Now()
	var result *AgentDecision
	err := a.do(ctx, func(ctx context.Context) error {
		res, err := a.inner.ProcessInterviewStep(ctx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	a.recorder.ObserveCall("interview_step", err, time.Since(start))
	if err != nil {
		log.Printf("⚠️ Interview step failed after %d attempts: %v", a.maxAttempts, err)
		return nil, nil
	}
	return result, nil
}

func (a *retryingAgent) GenerateReport(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	start := time.Now()
	var result *ReportResult
	err := a.do(ctx, func(ctx context.Context) error {
		res, err := a.inner.GenerateReport(ctx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	a.recorder.ObserveCall("report", err, time.Since(start))
	if err != nil {
		log.Printf("⚠️ Report generation failed after %d attempts, using fallback: %v", a.maxAttempts, err)
		return fallbackReport(req), nil
	}
	return result, nil
}

func (a *retryingAgent) do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := a.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(a.delay))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			log.Printf("⚠️ Agent call attempt %d/%d failed: %v", attempt, attempts, err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func fallbackFeedback() *FeedbackResult {
	return &FeedbackResult{
		Feedback: "Automated feedback is temporarily unavailable. Your answer has been recorded and will count toward the final report.",
		Score:    nil,
	}
}

func fallbackReport(req ReportRequest) *ReportResult {
	details := make([]models.ReportDetail, 0, len(req.Entries))
	total, scored := 0, 0
	for _, e := range req.Entries {
		details = append(details, models.ReportDetail{
			Phase:    e.Phase,
			Question: e.Question,
			Answer:   e.Answer,
			Score:    e.Score,
			Feedback: e.Feedback,
		})
		if e.Score != nil {
			total += *e.Score
			scored++
		}
	}
	overall := 0
	if scored > 0 {
		overall = total / scored
	}
	return &ReportResult{
		Report: models.Report{
			Summary:           fmt.Sprintf("The automated report service is temporarily unavailable. The interview covered %d answered questions; per-answer feedback is included below.", len(req.Entries)),
			Strengths:         []string{},
			Improvements:      []string{},
			RecommendedTopics: []string{},
			OverallScore:      overall,
			Details:           details,
		},
		Degraded: true,
	}
}

// normalizeAction maps anything the backend emits onto a known action.
// Unknown actions advance the phase rather than looping on a bad topic.
func normalizeAction(raw string) AgentAction {
	if AgentAction(raw) == ActionGenerateQuestion {
		return ActionGenerateQuestion
	}
	return ActionNextPhase
}

// reportFromPayload fills in transcript details that the model does not
// echo back.
func reportFromPayload(p reportPayload, req ReportRequest) *ReportResult {
	details := make([]models.ReportDetail, 0, len(req.Entries))
	for _, e := range req.Entries {
		details = append(details, models.ReportDetail{
			Phase:    e.Phase,
			Question: e.Question,
			Answer:   e.Answer,
			Score:    e.Score,
			Feedback: e.Feedback,
		})
	}
	if p.Strengths == nil {
		p.Strengths = []string{}
	}
	if p.Improvements == nil {
		p.Improvements = []string{}
	}
	if p.RecommendedTopics == nil {
		p.RecommendedTopics = []string{}
	}
	return &ReportResult{
		Report: models.Report{
			Summary:           p.Summary,
			Strengths:         p.Strengths,
			Improvements:      p.Improvements,
			RecommendedTopics: p.RecommendedTopics,
			OverallScore:      clampScore(p.OverallScore),
			Details:           details,
		},
	}
}

type feedbackPayload struct {
	Feedback string `json:"feedback"`
	Score    *int   `json:"score"`
}

type stepPayload struct {
	Thought    string `json:"thought"`
	Action     string `json:"action"`
	Message    string `json:"message"`
	Evaluation string `json:"evaluation"`
}

type reportPayload struct {
	Summary           string   `json:"summary"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	RecommendedTopics []string `json:"recommended_topics"`
	OverallScore      int      `json:"overall_score"`
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clampScorePtr(score *int) *int {
	if score == nil {
		return nil
	}
	s := clampScore(*score)
	return &s
}
