package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/twodc/pre-view-sub000/internal/models"
	"github.com/twodc/pre-view-sub000/internal/repositories"
	"gorm.io/gorm"
)

// AnswerService runs the answer submission pipeline: AI calls first with no
// transaction open, then all writes in one transaction.
type AnswerService interface {
	SubmitAnswer(ctx context.Context, interviewID, questionID, memberID uuid.UUID, req models.AnswerCreateRequest) (*models.AnswerResponse, error)
}

type answerService struct {
	db            *gorm.DB
	interviewRepo repositories.InterviewRepository
	questionRepo  repositories.QuestionRepository
	answerRepo    repositories.AnswerRepository
	agent         AgentClient
	orchestrator  QuestionOrchestrator
}

func NewAnswerService(
	db *gorm.DB,
	interviewRepo repositories.InterviewRepository,
	questionRepo repositories.QuestionRepository,
	answerRepo repositories.AnswerRepository,
	agent AgentClient,
	orchestrator QuestionOrchestrator,
) AnswerService {
	return &answerService{
		db:            db,
		interviewRepo: interviewRepo,
		questionRepo:  questionRepo,
		answerRepo:    answerRepo,
		agent:         agent,
		orchestrator:  orchestrator,
	}
}

// answerPlan is everything stage one decided, handed to the write stage.
type answerPlan struct {
	feedback *FeedbackResult

	// followUpContent is set when the agent wants one more question on the
	// current topic.
	followUpContent string

	// advance is set when the phase should move forward once the answer
	// lands; seedContent carries the pre-generated first question of the
	// next phase when that phase is AI-driven.
	advance     bool
	seedContent string
}

func (s *answerService) SubmitAnswer(ctx context.Context, interviewID, questionID, memberID uuid.UUID, req models.AnswerCreateRequest) (*models.AnswerResponse, error) {
	interview, err := s.interviewRepo.FindByIDAndMember(interviewID, memberID)
	if err != nil {
		return nil, err
	}
	if interview.Status != models.StatusInProgress {
		return nil, fmt.Errorf("interview %s is not in progress: %w", interviewID, models.ErrInvalidState)
	}

	question, err := s.questionRepo.FindByIDWithInterview(questionID)
	if err != nil {
		return nil, err
	}
	// A question from another interview is indistinguishable from a missing
	// one.
	if question.InterviewID != interview.ID {
		return nil, repositories.ErrNotFound
	}
	if question.IsAnswered {
		return nil, fmt.Errorf("question %s is already answered: %w", questionID, models.ErrInvalidState)
	}

	plan, err := s.planAnswer(ctx, interview, question, req.Content)
	if err != nil {
		return nil, err
	}
	return s.persistAnswer(interview, question, req.Content, plan)
}

// planAnswer is stage one: every agent call happens here, before any
// transaction is opened.
func (s *answerService) planAnswer(ctx context.Context, interview *models.Interview, question *models.Question, content string) (*answerPlan, error) {
	feedback, err := s.agent.GenerateFeedback(ctx, FeedbackRequest{
		Phase:    question.Phase,
		Question: question.Content,
		Answer:   content,
	})
	if err != nil {
		feedback = fallbackFeedback()
	}
	plan := &answerPlan{feedback: feedback}

	if question.Phase.IsTemplate() {
		if err := s.planTemplateStep(ctx, interview, question, plan); err != nil {
			return nil, err
		}
		return plan, nil
	}
	if err := s.planAgentStep(ctx, interview, question, content, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// planTemplateStep predicts whether this answer finishes the template phase
// and, when the following phase is AI-driven, pre-generates its first
// question. The prediction is re-checked inside the write transaction.
func (s *answerService) planTemplateStep(ctx context.Context, interview *models.Interview, question *models.Question, plan *answerPlan) error {
	if interview.CurrentPhase == nil || *interview.CurrentPhase != question.Phase || interview.IsLastPhase() {
		return nil
	}
	questions, err := s.questionRepo.FindByInterviewOrderBySequence(interview.ID)
	if err != nil {
		return err
	}
	if !phaseAnsweredExcept(questions, question.Phase, question.ID) {
		return nil
	}
	plan.advance = true
	next := nextPhaseOf(interview, question.Phase)
	if !next.IsTemplate() {
		plan.seedContent = s.orchestrator.GenerateFirstQuestionContent(ctx, interview, question.Phase, next)
	}
	return nil
}

// planAgentStep asks the agent for the next step of an AI phase. The depth
// cap and any agent failure both force a phase advance.
func (s *answerService) planAgentStep(ctx context.Context, interview *models.Interview, question *models.Question, content string, plan *answerPlan) error {
	depth, err := s.orchestrator.CalculateFollowUpDepth(question)
	if err != nil {
		return err
	}

	var decision *AgentDecision
	if depth >= maxFollowUpDepth {
		log.Printf("Follow-up depth %d reached on question %s, forcing phase advance", depth, question.ID)
	} else {
		prevQuestions, prevAnswers, err := s.orchestrator.PhaseHistory(interview.ID, question.Phase)
		if err != nil {
			return err
		}
		stepReq := StepRequest{
			Phase:             question.Phase,
			Context:           interviewContext(interview),
			PreviousQuestions: append(prevQuestions, question.Content),
			PreviousAnswers:   append(prevAnswers, content),
			FollowUpDepth:     depth,
		}
		if interview.ResumeText != nil {
			stepReq.ResumeText = *interview.ResumeText
		}
		if interview.PortfolioText != nil {
			stepReq.PortfolioText = *interview.PortfolioText
		}
		decision, err = s.agent.ProcessInterviewStep(ctx, stepReq)
		if err != nil {
			decision = nil
		}
	}

	if decision != nil && decision.Action == ActionGenerateQuestion && strings.TrimSpace(decision.Message) != "" {
		plan.followUpContent = decision.Message
		return nil
	}

	if interview.CurrentPhase != nil && *interview.CurrentPhase == question.Phase && !interview.IsLastPhase() {
		plan.advance = true
		next := nextPhaseOf(interview, question.Phase)
		if !next.IsTemplate() {
			plan.seedContent = s.orchestrator.GenerateFirstQuestionContent(ctx, interview, question.Phase, next)
		}
	}
	return nil
}

// persistAnswer is stage two: one transaction covering the answer, the
// question flag, and whatever the plan decided. A version conflict rolls
// everything back and surfaces to the caller.
func (s *answerService) persistAnswer(interview *models.Interview, question *models.Question, content string, plan *answerPlan) (*models.AnswerResponse, error) {
	var resp models.AnswerResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		interviewRepo := s.interviewRepo.WithTx(tx)
		questionRepo := s.questionRepo.WithTx(tx)
		answerRepo := s.answerRepo.WithTx(tx)

		answer := &models.Answer{
			ID:         uuid.New(),
			QuestionID: question.ID,
			Content:    content,
			Feedback:   plan.feedback.Feedback,
			Score:      plan.feedback.Score,
		}
		if err := answerRepo.Create(answer); err != nil {
			return err
		}
		question.MarkAnswered()
		if err := questionRepo.Save(question); err != nil {
			return err
		}

		if question.Phase.IsTemplate() {
			next, err := s.persistTemplateAdvance(interviewRepo, questionRepo, interview, question, plan)
			if err != nil {
				return err
			}
			resp = models.AnswerResponseFrom(answer, next)
			return nil
		}

		// The version-guarded save runs before any question insert so a
		// concurrent writer loses on the version check, not on the
		// sequence unique index.
		var next *models.Question
		switch {
		case plan.followUpContent != "":
			interview.TotalQuestions++
			if err := interviewRepo.Save(interview); err != nil {
				return err
			}
			next = &models.Question{
				ID:               uuid.New(),
				InterviewID:      interview.ID,
				Phase:            question.Phase,
				Content:          plan.followUpContent,
				Sequence:         interview.TotalQuestions,
				IsFollowUp:       true,
				ParentQuestionID: &question.ID,
			}
			if err := questionRepo.Create(next); err != nil {
				return err
			}

		case plan.advance:
			if err := interview.NextPhase(); err != nil {
				return err
			}
			if plan.seedContent != "" {
				interview.TotalQuestions++
			}
			if err := interviewRepo.Save(interview); err != nil {
				return err
			}
			if plan.seedContent != "" {
				next = &models.Question{
					ID:          uuid.New(),
					InterviewID: interview.ID,
					Phase:       *interview.CurrentPhase,
					Content:     plan.seedContent,
					Sequence:    interview.TotalQuestions,
				}
				if err := questionRepo.Create(next); err != nil {
					return err
				}
			}
		}

		resp = models.AnswerResponseFrom(answer, next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// persistTemplateAdvance re-checks the advance condition against
// transaction state rather than trusting the stage-one prediction. When the
// prediction missed and no seed content was pre-generated, the fallback bank
// fills in so the phase never starts empty.
func (s *answerService) persistTemplateAdvance(
	interviewRepo repositories.InterviewRepository,
	questionRepo repositories.QuestionRepository,
	interview *models.Interview,
	question *models.Question,
	plan *answerPlan,
) (*models.Question, error) {
	if interview.CurrentPhase == nil || *interview.CurrentPhase != question.Phase || interview.IsLastPhase() {
		return nil, nil
	}
	questions, err := questionRepo.FindByInterviewOrderBySequence(interview.ID)
	if err != nil {
		return nil, err
	}
	if !phaseAnsweredExcept(questions, question.Phase, question.ID) {
		return nil, nil
	}

	if err := interview.NextPhase(); err != nil {
		return nil, err
	}
	seedAI := !interview.CurrentPhase.IsTemplate()
	if seedAI {
		interview.TotalQuestions++
	}
	if err := interviewRepo.Save(interview); err != nil {
		return nil, err
	}
	var next *models.Question
	if seedAI {
		content := plan.seedContent
		if content == "" {
			content = fallbackQuestion(*interview.CurrentPhase)
		}
		next = &models.Question{
			ID:          uuid.New(),
			InterviewID: interview.ID,
			Phase:       *interview.CurrentPhase,
			Content:     content,
			Sequence:    interview.TotalQuestions,
		}
		if err := questionRepo.Create(next); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// phaseAnsweredExcept reports whether every non-follow-up question of the
// phase other than the excluded one is already answered.
func phaseAnsweredExcept(questions []models.Question, phase models.InterviewPhase, exclude uuid.UUID) bool {
	for i := range questions {
		q := &questions[i]
		if q.Phase != phase || q.IsFollowUp || q.ID == exclude {
			continue
		}
		if !q.IsAnswered {
			return false
		}
	}
	return true
}

func nextPhaseOf(interview *models.Interview, phase models.InterviewPhase) models.InterviewPhase {
	phases := interview.Kind.Phases()
	for idx, p := range phases {
		if p == phase && idx < len(phases)-1 {
			return phases[idx+1]
		}
	}
	return phase
}
