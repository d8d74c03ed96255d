package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/twodc/pre-view-sub000/internal/models"
)

type InterviewRepository interface {
	WithTx(tx *gorm.DB) InterviewRepository
	Create(interview *models.Interview) error
	FindByID(id uuid.UUID) (*models.Interview, error)
	FindByIDAndMember(id, memberID uuid.UUID) (*models.Interview, error)
	FindAllByMember(memberID uuid.UUID) ([]models.Interview, error)
	Save(interview *models.Interview) error
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
}

type interviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

// WithTx implements InterviewRepository.
func (r *interviewRepository) WithTx(tx *gorm.DB) InterviewRepository {
	return &interviewRepository{db: tx}
}

// Create implements InterviewRepository.
func (r *interviewRepository) Create(interview *models.Interview) error {
	if err := r.db.Create(interview).Error; err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// FindByID implements InterviewRepository. Soft-deleted rows are invisible.
func (r *interviewRepository) FindByID(id uuid.UUID) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.Where("id = ? AND deleted = ?", id, false).First(&interview).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find interview: %w", err)
	}
	return &interview, nil
}

// FindByIDAndMember implements InterviewRepository. A cross-owner hit is
// reported as ErrNotFound, identical to an absent row.
func (r *interviewRepository) FindByIDAndMember(id, memberID uuid.UUID) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.
		Where("id = ? AND member_id = ? AND deleted = ?", id, memberID, false).
		First(&interview).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find interview: %w", err)
	}
	return &interview, nil
}

// FindAllByMember implements InterviewRepository.
func (r *interviewRepository) FindAllByMember(memberID uuid.UUID) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.db.
		Where("member_id = ? AND deleted = ?", memberID, false).
		Order("created_at DESC").
		Find(&interviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	return interviews, nil
}

// Save implements InterviewRepository. The write only lands when the stored
// version still equals interview.Version; on success the in-memory version
// is bumped to match the row.
func (r *interviewRepository) Save(interview *models.Interview) error {
	expected := interview.Version
	result := r.db.Model(&models.Interview{}).
		Where("id = ? AND version = ?", interview.ID, expected).
		Updates(map[string]interface{}{
			"title":           interview.Title,
			"status":          interview.Status,
			"current_phase":   interview.CurrentPhase,
			"total_questions": interview.TotalQuestions,
			"resume_text":     interview.ResumeText,
			"portfolio_text":  interview.PortfolioText,
			"cached_report":   interview.CachedReport,
			"deleted":         interview.Deleted,
			"deleted_at":      interview.DeletedAt,
			"version":         expected + 1,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to save interview: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Distinguish a lost race from a vanished row.
		var count int64
		if err := r.db.Model(&models.Interview{}).
			Where("id = ?", interview.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to save interview: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}

	interview.Version = expected + 1
	return nil
}

// PurgeDeletedBefore physically removes interviews soft-deleted before the
// cutoff, together with their questions and answers.
func (r *interviewRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.Interview{}).
		Where("deleted = ? AND deleted_at < ?", true, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to collect purgeable interviews: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("question_id IN (?)", tx.Model(&models.Question{}).Select("id").Where("interview_id IN ?", ids)).
			Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("interview_id IN ?", ids).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Interview{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge interviews: %w", err)
	}
	return int64(len(ids)), nil
}
