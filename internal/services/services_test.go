package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/twodc/pre-view-sub000/internal/models"
	"github.com/twodc/pre-view-sub000/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Interview{},
		&models.Question{},
		&models.Answer{},
	))
	return db
}

// stubAgent implements AgentClient with overridable behavior and call
// counters. Defaults: positive feedback, advance the phase, minimal report.
type stubAgent struct {
	feedbackFn func(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error)
	stepFn     func(ctx context.Context, req StepRequest) (*AgentDecision, error)
	reportFn   func(ctx context.Context, req ReportRequest) (*ReportResult, error)

	feedbackCalls int
	stepCalls     int
	reportCalls   int
}

func (s *stubAgent) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	s.feedbackCalls++
	if s.feedbackFn != nil {
		return s.feedbackFn(ctx, req)
	}
	score := 80
	return &FeedbackResult{Feedback: "Solid answer with concrete detail.", Score: &score}, nil
}

func (s *stubAgent) ProcessInterviewStep(ctx context.Context, req StepRequest) (*AgentDecision, error) {
	s.stepCalls++
	if s.stepFn != nil {
		return s.stepFn(ctx, req)
	}
	return &AgentDecision{Action: ActionNextPhase}, nil
}

func (s *stubAgent) GenerateReport(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	s.reportCalls++
	if s.reportFn != nil {
		return s.reportFn(ctx, req)
	}
	return &ReportResult{Report: models.Report{Summary: "A capable candidate overall.", OverallScore: 80}}, nil
}

type testEnv struct {
	db            *gorm.DB
	interviewRepo repositories.InterviewRepository
	questionRepo  repositories.QuestionRepository
	answerRepo    repositories.AnswerRepository
	agent         *stubAgent
	orchestrator  QuestionOrchestrator
	status        *InterviewStatusService
	interviews    InterviewService
	answers       AnswerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:            db,
		interviewRepo: repositories.NewInterviewRepository(db),
		questionRepo:  repositories.NewQuestionRepository(db),
		answerRepo:    repositories.NewAnswerRepository(db),
		agent:         &stubAgent{},
	}
	env.orchestrator = NewQuestionOrchestrator(db, env.interviewRepo, env.questionRepo, env.answerRepo, env.agent)
	env.status = NewInterviewStatusService(env.interviewRepo)
	env.interviews = NewInterviewService(db, env.interviewRepo, env.questionRepo, env.answerRepo, env.agent, env.orchestrator, env.status)
	env.answers = NewAnswerService(db, env.interviewRepo, env.questionRepo, env.answerRepo, env.agent, env.orchestrator)
	return env
}

func (env *testEnv) createInterview(t *testing.T, member uuid.UUID, kind models.InterviewKind) *models.Interview {
	t.Helper()
	interview, err := env.interviews.CreateInterview(context.Background(), member, models.InterviewCreateRequest{
		Title:      "Backend Engineer Mock",
		Kind:       string(kind),
		Position:   "Backend Engineer",
		Level:      "Junior",
		TechStacks: []string{"Go", "PostgreSQL"},
	})
	require.NoError(t, err)
	return interview
}

func (env *testEnv) startInterview(t *testing.T, member uuid.UUID, kind models.InterviewKind) *models.Interview {
	t.Helper()
	interview := env.createInterview(t, member, kind)
	started, err := env.interviews.StartInterview(context.Background(), interview.ID, member)
	require.NoError(t, err)
	return started
}

// answerPhaseQuestions submits an answer to every unanswered non-follow-up
// question of the phase, in sequence order, and returns the last response.
func (env *testEnv) answerPhaseQuestions(t *testing.T, interview *models.Interview, member uuid.UUID, phase models.InterviewPhase) *models.AnswerResponse {
	t.Helper()
	questions, err := env.questionRepo.FindByInterviewOrderBySequence(interview.ID)
	require.NoError(t, err)

	var last *models.AnswerResponse
	for i := range questions {
		q := &questions[i]
		if q.Phase != phase || q.IsFollowUp || q.IsAnswered {
			continue
		}
		last, err = env.answers.SubmitAnswer(context.Background(), interview.ID, q.ID, member, models.AnswerCreateRequest{
			Content: "I have three years of experience building Go services.",
		})
		require.NoError(t, err)
	}
	require.NotNil(t, last)
	return last
}

func (env *testEnv) reload(t *testing.T, id uuid.UUID) *models.Interview {
	t.Helper()
	interview, err := env.interviewRepo.FindByID(id)
	require.NoError(t, err)
	return interview
}
