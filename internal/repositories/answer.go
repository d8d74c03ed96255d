package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/twodc/pre-view-sub000/internal/models"
)

type AnswerRepository interface {
	WithTx(tx *gorm.DB) AnswerRepository
	Create(answer *models.Answer) error
	FindByQuestionID(questionID uuid.UUID) (*models.Answer, error)
	FindByInterview(interviewID uuid.UUID) ([]models.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// WithTx implements AnswerRepository.
func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

// Create implements AnswerRepository.
func (r *answerRepository) Create(answer *models.Answer) error {
	if err := r.db.Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

// FindByQuestionID implements AnswerRepository.
func (r *answerRepository) FindByQuestionID(questionID uuid.UUID) (*models.Answer, error) {
	var answer models.Answer
	err := r.db.Where("question_id = ?", questionID).First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find answer: %w", err)
	}
	return &answer, nil
}

// FindByInterview implements AnswerRepository. Answers come back in the
// owning questions' sequence order.
func (r *answerRepository) FindByInterview(interviewID uuid.UUID) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.interview_id = ?", interviewID).
		Order("questions.sequence ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find answers: %w", err)
	}
	return answers, nil
}
