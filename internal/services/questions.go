package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/twodc/pre-view-sub000/internal/models"
	"github.com/twodc/pre-view-sub000/internal/repositories"
	"gorm.io/gorm"
)

// maxFollowUpDepth caps how far the agent can chain follow-ups on one
// topic. At the cap the next decision is forced to advance the phase.
const maxFollowUpDepth = 2

// QuestionOrchestrator owns question creation: template banks for the
// scripted phases, agent-driven generation for the AI phases.
type QuestionOrchestrator interface {
	BuildTemplateQuestions(interview *models.Interview) []models.Question
	GenerateFirstQuestionContent(ctx context.Context, interview *models.Interview, previousPhase, nextPhase models.InterviewPhase) string
	CalculateFollowUpDepth(question *models.Question) (int, error)
	PhaseHistory(interviewID uuid.UUID, phase models.InterviewPhase) (questions, answers []string, err error)
	ListQuestions(ctx context.Context, interviewID, memberID uuid.UUID) (*models.QuestionListResponse, error)
}

type questionOrchestrator struct {
	db            *gorm.DB
	interviewRepo repositories.InterviewRepository
	questionRepo  repositories.QuestionRepository
	answerRepo    repositories.AnswerRepository
	agent         AgentClient
}

func NewQuestionOrchestrator(
	db *gorm.DB,
	interviewRepo repositories.InterviewRepository,
	questionRepo repositories.QuestionRepository,
	answerRepo repositories.AnswerRepository,
	agent AgentClient,
) QuestionOrchestrator {
	return &questionOrchestrator{
		db:            db,
		interviewRepo: interviewRepo,
		questionRepo:  questionRepo,
		answerRepo:    answerRepo,
		agent:         agent,
	}
}

// BuildTemplateQuestions materializes every template phase of the
// interview's kind with contiguous sequences starting at 1. AI phases get
// nothing here; their first question is seeded when the phase is entered.
func (o *questionOrchestrator) BuildTemplateQuestions(interview *models.Interview) []models.Question {
	var questions []models.Question
	seq := 0
	for _, phase := range interview.Kind.Phases() {
		if !phase.IsTemplate() {
			continue
		}
		for _, text := range templateQuestionTexts(phase) {
			seq++
			questions = append(questions, models.Question{
				ID:          uuid.New(),
				InterviewID: interview.ID,
				Phase:       phase,
				Content:     text,
				Sequence:    seq,
			})
		}
	}
	return questions
}

// GenerateFirstQuestionContent asks the agent for the opening question of an
// AI phase. When the previous phase was OPENING, the candidate's bridge
// answer personalizes the question. Any agent failure falls back to the
// canned bank so entering a phase never fails.
func (o *questionOrchestrator) GenerateFirstQuestionContent(ctx context.Context, interview *models.Interview, previousPhase, nextPhase models.InterviewPhase) string {
	req := StepRequest{
		Phase:   nextPhase,
		Context: interviewContext(interview),
	}
	if interview.ResumeText != nil {
		req.ResumeText = *interview.ResumeText
	}
	if interview.PortfolioText != nil {
		req.PortfolioText = *interview.PortfolioText
	}
	if previousPhase == models.PhaseOpening {
		bridge, err := o.bridgeAnswer(interview.ID)
		if err != nil {
			log.Printf("⚠️ Failed to load bridge answer for interview %s: %v", interview.ID, err)
		}
		req.BridgeAnswer = bridge
	}

	decision, err := o.agent.ProcessInterviewStep(ctx, req)
	if err != nil || decision == nil || decision.Action != ActionGenerateQuestion || strings.TrimSpace(decision.Message) == "" {
		log.Printf("⚠️ Agent produced no first question for phase %s, using fallback bank", nextPhase)
		return fallbackQuestion(nextPhase)
	}
	return decision.Message
}

// bridgeAnswer is the answer to the highest-sequence answered non-follow-up
// question of the opening phase, or "" when none exists.
func (o *questionOrchestrator) bridgeAnswer(interviewID uuid.UUID) (string, error) {
	questions, err := o.questionRepo.FindByInterviewOrderBySequence(interviewID)
	if err != nil {
		return "", err
	}
	var bridge *models.Question
	for i := range questions {
		q := &questions[i]
		if q.Phase == models.PhaseOpening && q.IsAnswered && !q.IsFollowUp {
			bridge = q
		}
	}
	if bridge == nil {
		return "", nil
	}
	answer, err := o.answerRepo.FindByQuestionID(bridge.ID)
	if err != nil {
		return "", err
	}
	return answer.Content, nil
}

// CalculateFollowUpDepth counts parent hops from the question to its
// non-follow-up root.
func (o *questionOrchestrator) CalculateFollowUpDepth(question *models.Question) (int, error) {
	depth := 0
	current := question
	for current.IsFollowUp && current.ParentQuestionID != nil {
		if depth > 32 {
			return depth, fmt.Errorf("follow-up chain too deep for question %s", question.ID)
		}
		parent, err := o.questionRepo.FindByIDWithInterview(*current.ParentQuestionID)
		if err != nil {
			return depth, err
		}
		depth++
		current = parent
	}
	return depth, nil
}

// PhaseHistory returns the answered conversation of one phase in sequence
// order as parallel question and answer slices.
func (o *questionOrchestrator) PhaseHistory(interviewID uuid.UUID, phase models.InterviewPhase) ([]string, []string, error) {
	questions, err := o.questionRepo.FindByInterviewOrderBySequence(interviewID)
	if err != nil {
		return nil, nil, err
	}
	answers, err := o.answerRepo.FindByInterview(interviewID)
	if err != nil {
		return nil, nil, err
	}
	answerByQuestion := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a.Content
	}

	var qTexts, aTexts []string
	for i := range questions {
		q := &questions[i]
		if q.Phase != phase || !q.IsAnswered {
			continue
		}
		qTexts = append(qTexts, q.Content)
		aTexts = append(aTexts, answerByQuestion[q.ID])
	}
	return qTexts, aTexts, nil
}

// ListQuestions returns the full question list. When the current phase is an
// AI phase that has no root question yet, one is seeded first so clients
// always see something to answer. Losing the seeding race to a concurrent
// request is fine; the winner's question is returned after a reload.
func (o *questionOrchestrator) ListQuestions(ctx context.Context, interviewID, memberID uuid.UUID) (*models.QuestionListResponse, error) {
	interview, err := o.interviewRepo.FindByIDAndMember(interviewID, memberID)
	if err != nil {
		return nil, err
	}

	questions, err := o.questionRepo.FindByInterviewOrderBySequence(interviewID)
	if err != nil {
		return nil, err
	}

	if interview.Status == models.StatusInProgress && interview.CurrentPhase != nil && !interview.CurrentPhase.IsTemplate() && !phaseHasQuestion(questions, *interview.CurrentPhase) {
		if err := o.seedPhaseQuestion(ctx, interview); err != nil {
			return nil, err
		}
		questions, err = o.questionRepo.FindByInterviewOrderBySequence(interviewID)
		if err != nil {
			return nil, err
		}
	}

	resp := &models.QuestionListResponse{
		InterviewID: interviewID.String(),
		Questions:   make([]models.QuestionResponse, 0, len(questions)),
	}
	for i := range questions {
		resp.Questions = append(resp.Questions, models.QuestionResponseFrom(&questions[i]))
	}
	return resp, nil
}

func (o *questionOrchestrator) seedPhaseQuestion(ctx context.Context, interview *models.Interview) error {
	phase := *interview.CurrentPhase
	content := o.GenerateFirstQuestionContent(ctx, interview, previousPhaseOf(interview, phase), phase)

	err := o.db.Transaction(func(tx *gorm.DB) error {
		questionRepo := o.questionRepo.WithTx(tx)
		interviewRepo := o.interviewRepo.WithTx(tx)

		// Reserve the sequence through the version-guarded save first so a
		// concurrent seeder surfaces as ErrConflict rather than a unique
		// index violation on the question insert.
		interview.TotalQuestions++
		if err := interviewRepo.Save(interview); err != nil {
			return err
		}
		question := &models.Question{
			ID:          uuid.New(),
			InterviewID: interview.ID,
			Phase:       phase,
			Content:     content,
			Sequence:    interview.TotalQuestions,
		}
		return questionRepo.Create(question)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			log.Printf("Lost seeding race for interview %s phase %s, reloading", interview.ID, phase)
			return nil
		}
		return err
	}
	return nil
}

func phaseHasQuestion(questions []models.Question, phase models.InterviewPhase) bool {
	for i := range questions {
		if questions[i].Phase == phase {
			return true
		}
	}
	return false
}

func previousPhaseOf(interview *models.Interview, phase models.InterviewPhase) models.InterviewPhase {
	phases := interview.Kind.Phases()
	for idx, p := range phases {
		if p == phase && idx > 0 {
			return phases[idx-1]
		}
	}
	return phase
}

// interviewContext renders the position line used by every agent prompt.
func interviewContext(interview *models.Interview) string {
	stacks := ""
	if len(interview.TechStacks) > 0 {
		var tags []string
		if err := json.Unmarshal(interview.TechStacks, &tags); err == nil && len(tags) > 0 {
			stacks = " (" + strings.Join(tags, ", ") + ")"
		}
	}
	return fmt.Sprintf("%s %s%s", interview.Position, interview.Level, stacks)
}
