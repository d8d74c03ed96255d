package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/twodc/pre-view-sub000/internal/models"
	"github.com/twodc/pre-view-sub000/internal/repositories"
	"gorm.io/gorm"
)

// InterviewService owns the interview lifecycle from creation through the
// final result.
type InterviewService interface {
	CreateInterview(ctx context.Context, memberID uuid.UUID, req models.InterviewCreateRequest) (*models.Interview, error)
	StartInterview(ctx context.Context, id, memberID uuid.UUID) (*models.Interview, error)
	GetInterview(ctx context.Context, id, memberID uuid.UUID) (*models.Interview, error)
	ListInterviews(ctx context.Context, memberID uuid.UUID) ([]models.Interview, error)
	DeleteInterview(ctx context.Context, id, memberID uuid.UUID) error
	UpdateResumeText(ctx context.Context, id, memberID uuid.UUID, text string) error
	UpdatePortfolioText(ctx context.Context, id, memberID uuid.UUID, text string) error
	GetResult(ctx context.Context, id, memberID uuid.UUID) (*models.InterviewResultResponse, error)
}

type interviewService struct {
	db            *gorm.DB
	interviewRepo repositories.InterviewRepository
	questionRepo  repositories.QuestionRepository
	answerRepo    repositories.AnswerRepository
	agent         AgentClient
	orchestrator  QuestionOrchestrator
	status        *InterviewStatusService
}

func NewInterviewService(
	db *gorm.DB,
	interviewRepo repositories.InterviewRepository,
	questionRepo repositories.QuestionRepository,
	answerRepo repositories.AnswerRepository,
	agent AgentClient,
	orchestrator QuestionOrchestrator,
	status *InterviewStatusService,
) InterviewService {
	return &interviewService{
		db:            db,
		interviewRepo: interviewRepo,
		questionRepo:  questionRepo,
		answerRepo:    answerRepo,
		agent:         agent,
		orchestrator:  orchestrator,
		status:        status,
	}
}

func (s *interviewService) CreateInterview(ctx context.Context, memberID uuid.UUID, req models.InterviewCreateRequest) (*models.Interview, error) {
	stacks, err := json.Marshal(req.TechStacks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tech stacks: %w", err)
	}
	interview := &models.Interview{
		ID:         uuid.New(),
		MemberID:   memberID,
		Title:      req.Title,
		Kind:       models.InterviewKind(req.Kind),
		Position:   req.Position,
		Level:      req.Level,
		TechStacks: stacks,
		Status:     models.StatusReady,
	}
	if err := s.interviewRepo.Create(interview); err != nil {
		return nil, err
	}
	log.Printf("✅ Created interview %s (%s) for member %s", interview.ID, interview.Kind, memberID)
	return interview, nil
}

// StartInterview moves a READY interview into its first phase and creates
// every template question in one transaction. When two requests race, the
// loser's question set rolls back with its conflicting save.
func (s *interviewService) StartInterview(ctx context.Context, id, memberID uuid.UUID) (*models.Interview, error) {
	interview, err := s.interviewRepo.FindByIDAndMember(id, memberID)
	if err != nil {
		return nil, err
	}
	if interview.Status != models.StatusReady {
		return nil, fmt.Errorf("interview %s cannot be started from status %s: %w", id, interview.Status, models.ErrInvalidState)
	}

	questions := s.orchestrator.BuildTemplateQuestions(interview)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := interview.Start(); err != nil {
			return err
		}
		// Save before inserting questions so a concurrent starter fails the
		// version guard instead of tripping the sequence unique index.
		interview.TotalQuestions = len(questions)
		if err := s.interviewRepo.WithTx(tx).Save(interview); err != nil {
			return err
		}
		return s.questionRepo.WithTx(tx).CreateBatch(questions)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Started interview %s with %d template questions", id, len(questions))
	return interview, nil
}

func (s *interviewService) GetInterview(ctx context.Context, id, memberID uuid.UUID) (*models.Interview, error) {
	return s.interviewRepo.FindByIDAndMember(id, memberID)
}

func (s *interviewService) ListInterviews(ctx context.Context, memberID uuid.UUID) ([]models.Interview, error) {
	return s.interviewRepo.FindAllByMember(memberID)
}

// DeleteInterview is a soft delete; the purge job removes the rows later.
func (s *interviewService) DeleteInterview(ctx context.Context, id, memberID uuid.UUID) error {
	interview, err := s.interviewRepo.FindByIDAndMember(id, memberID)
	if err != nil {
		return err
	}
	interview.MarkDeleted()
	return s.interviewRepo.Save(interview)
}

func (s *interviewService) UpdateResumeText(ctx context.Context, id, memberID uuid.UUID, text string) error {
	interview, err := s.interviewRepo.FindByIDAndMember(id, memberID)
	if err != nil {
		return err
	}
	interview.ResumeText = &text
	return s.interviewRepo.Save(interview)
}

func (s *interviewService) UpdatePortfolioText(ctx context.Context, id, memberID uuid.UUID, text string) error {
	interview, err := s.interviewRepo.FindByIDAndMember(id, memberID)
	if err != nil {
		return err
	}
	interview.PortfolioText = &text
	return s.interviewRepo.Save(interview)
}

// GetResult returns the full transcript, and, once the interview is
// eligible for completion, the AI report. The first eligible fetch
// generates and caches the report and lazily completes the interview; both
// side effects run in their own unit of work so this fetch never fails on a
// concurrent writer.
func (s *interviewService) GetResult(ctx context.Context, id, memberID uuid.UUID) (*models.InterviewResultResponse, error) {
	interview, err := s.interviewRepo.FindByIDAndMember(id, memberID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.FindByInterviewOrderBySequence(id)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.FindByInterview(id)
	if err != nil {
		return nil, err
	}
	answerByQuestion := make(map[uuid.UUID]*models.Answer, len(answers))
	for i := range answers {
		answerByQuestion[answers[i].QuestionID] = &answers[i]
	}

	resp := &models.InterviewResultResponse{
		InterviewID: interview.ID.String(),
		Title:       interview.Title,
		Kind:        interview.Kind,
		Status:      interview.Status,
		Transcript:  make([]models.TranscriptEntry, 0, len(questions)),
	}
	for i := range questions {
		q := &questions[i]
		entry := models.TranscriptEntry{Question: models.QuestionResponseFrom(q)}
		if a := answerByQuestion[q.ID]; a != nil {
			ar := models.AnswerResponseFrom(a, nil)
			entry.Answer = &ar
		}
		resp.Transcript = append(resp.Transcript, entry)
	}

	if !eligibleForReport(interview, questions) {
		return resp, nil
	}

	report, err := s.resolveReport(ctx, interview, questions, answerByQuestion)
	if err != nil {
		return nil, err
	}
	resp.Report = report

	if interview.Status != models.StatusDone {
		s.status.CompleteIfNeeded(interview.ID)
		resp.Status = models.StatusDone
	}
	return resp, nil
}

// resolveReport serves the cached report when present, otherwise generates
// one. Only non-degraded reports are cached so a later fetch can retry the
// model.
func (s *interviewService) resolveReport(ctx context.Context, interview *models.Interview, questions []models.Question, answerByQuestion map[uuid.UUID]*models.Answer) (*models.Report, error) {
	if len(interview.CachedReport) > 0 {
		var report models.Report
		if err := json.Unmarshal(interview.CachedReport, &report); err != nil {
			return nil, fmt.Errorf("failed to decode cached report for interview %s: %w", interview.ID, err)
		}
		return &report, nil
	}

	entries := make([]ReportEntry, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		a := answerByQuestion[q.ID]
		if a == nil {
			continue
		}
		entries = append(entries, ReportEntry{
			Phase:    q.Phase,
			Question: q.Content,
			Answer:   a.Content,
			Score:    a.Score,
			Feedback: a.Feedback,
		})
	}

	result, err := s.agent.GenerateReport(ctx, ReportRequest{
		Context: interviewContext(interview),
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	if !result.Degraded {
		if err := s.status.CacheReport(interview.ID, &result.Report); err != nil {
			log.Printf("⚠️ %v", err)
		}
	}
	return &result.Report, nil
}

// eligibleForReport requires the last phase to be reached and all of its
// non-follow-up questions answered. Completed interviews stay eligible.
func eligibleForReport(interview *models.Interview, questions []models.Question) bool {
	if interview.Status == models.StatusDone {
		return true
	}
	if !interview.IsLastPhase() {
		return false
	}
	phases := interview.Kind.Phases()
	last := phases[len(phases)-1]
	seen := false
	for i := range questions {
		q := &questions[i]
		if q.Phase != last || q.IsFollowUp {
			continue
		}
		seen = true
		if !q.IsAnswered {
			return false
		}
	}
	return seen
}
