package models

import (
	"time"

	"github.com/google/uuid"
)

type Question struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	InterviewID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_questions_interview_seq" json:"interview_id"`
	Phase       InterviewPhase `gorm:"type:text;not null" json:"phase"`
	Content     string         `gorm:"type:text;not null" json:"content"`

	// Sequence is unique and strictly increasing within one interview.
	Sequence int `gorm:"not null;uniqueIndex:idx_questions_interview_seq" json:"sequence"`

	IsFollowUp       bool       `gorm:"not null;default:false" json:"is_follow_up"`
	ParentQuestionID *uuid.UUID `gorm:"type:uuid" json:"parent_question_id,omitempty"`
	IsAnswered       bool       `gorm:"not null;default:false" json:"is_answered"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Interview *Interview `gorm:"foreignKey:InterviewID" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) MarkAnswered() {
	q.IsAnswered = true
}
