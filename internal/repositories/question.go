package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/twodc/pre-view-sub000/internal/models"
)

type QuestionRepository interface {
	WithTx(tx *gorm.DB) QuestionRepository
	Create(question *models.Question) error
	CreateBatch(questions []models.Question) error
	FindByIDWithInterview(id uuid.UUID) (*models.Question, error)
	FindByInterviewOrderBySequence(interviewID uuid.UUID) ([]models.Question, error)
	Save(question *models.Question) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

// WithTx implements QuestionRepository.
func (r *questionRepository) WithTx(tx *gorm.DB) QuestionRepository {
	return &questionRepository{db: tx}
}

// Create implements QuestionRepository.
func (r *questionRepository) Create(question *models.Question) error {
	if err := r.db.Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// CreateBatch implements QuestionRepository.
func (r *questionRepository) CreateBatch(questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := r.db.Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

// FindByIDWithInterview implements QuestionRepository. The owning interview
// is loaded alongside so callers can verify interview identity in one read.
func (r *questionRepository) FindByIDWithInterview(id uuid.UUID) (*models.Question, error) {
	var question models.Question
	err := r.db.Preload("Interview").Where("id = ?", id).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	return &question, nil
}

// FindByInterviewOrderBySequence implements QuestionRepository.
func (r *questionRepository) FindByInterviewOrderBySequence(interviewID uuid.UUID) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.
		Where("interview_id = ?", interviewID).
		Order("sequence ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find questions: %w", err)
	}
	return questions, nil
}

// Save implements QuestionRepository.
func (r *questionRepository) Save(question *models.Question) error {
	result := r.db.Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"is_answered": question.IsAnswered,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
