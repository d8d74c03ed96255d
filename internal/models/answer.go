package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer is created exactly once per question and never mutated afterwards.
// Score is nil when feedback generation was degraded.
type Answer struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"question_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Feedback   string    `gorm:"type:text" json:"feedback"`
	Score      *int      `json:"score,omitempty"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relations
	Question *Question `gorm:"foreignKey:QuestionID" json:"-"`
}

func (Answer) TableName() string {
	return "answers"
}
