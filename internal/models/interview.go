package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrInvalidState is returned when an operation is illegal for the
// interview's current status or phase.
var ErrInvalidState = errors.New("invalid interview state")

type InterviewStatus string

const (
	StatusReady      InterviewStatus = "READY"
	StatusInProgress InterviewStatus = "IN_PROGRESS"
	StatusDone       InterviewStatus = "DONE"
)

type InterviewKind string

const (
	KindFull        InterviewKind = "FULL"
	KindTechnical   InterviewKind = "TECHNICAL"
	KindPersonality InterviewKind = "PERSONALITY"
)

// Phases returns the fixed ordered phase sequence for the kind.
func (k InterviewKind) Phases() []InterviewPhase {
	switch k {
	case KindTechnical:
		return []InterviewPhase{PhaseOpening, PhaseTechnical, PhaseClosing}
	case KindPersonality:
		return []InterviewPhase{PhaseOpening, PhasePersonality, PhaseClosing}
	default:
		return []InterviewPhase{PhaseOpening, PhaseTechnical, PhasePersonality, PhaseClosing}
	}
}

func (k InterviewKind) Valid() bool {
	switch k {
	case KindFull, KindTechnical, KindPersonality:
		return true
	}
	return false
}

type InterviewPhase string

const (
	PhaseOpening     InterviewPhase = "OPENING"
	PhaseTechnical   InterviewPhase = "TECHNICAL"
	PhasePersonality InterviewPhase = "PERSONALITY"
	PhaseClosing     InterviewPhase = "CLOSING"
)

// IsTemplate reports whether the phase uses pre-written prompts instead of
// AI-authored questions.
func (p InterviewPhase) IsTemplate() bool {
	return p == PhaseOpening || p == PhaseClosing
}

type Interview struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	MemberID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"member_id"`
	Title         string          `gorm:"type:text" json:"title"`
	Kind          InterviewKind   `gorm:"type:text;not null" json:"kind"`
	Position      string          `gorm:"type:text" json:"position"`
	Level         string          `gorm:"type:text" json:"level"`
	TechStacks    datatypes.JSON  `gorm:"type:jsonb" json:"tech_stacks,omitempty"`
	ResumeText    *string         `gorm:"type:text" json:"-"`
	PortfolioText *string         `gorm:"type:text" json:"-"`
	Status        InterviewStatus `gorm:"type:text;not null;default:'READY'" json:"status"`
	CurrentPhase  *InterviewPhase `gorm:"type:text" json:"current_phase,omitempty"`

	// TotalQuestions doubles as the sequence allocator: the next question
	// always gets TotalQuestions+1 and the counter is persisted under the
	// same version-guarded write as the triggering change.
	TotalQuestions int `gorm:"not null;default:0" json:"total_questions"`

	// CachedReport holds the serialized AI report after the first result
	// fetch; later fetches deserialize it instead of calling the agent.
	CachedReport datatypes.JSON `gorm:"type:jsonb" json:"-"`

	// Version guards every interview write. A save whose expected version
	// does not match the stored row is rejected with a conflict.
	Version int64 `gorm:"not null;default:0" json:"version"`

	Deleted   bool       `gorm:"not null;default:false" json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Interview) TableName() string {
	return "interviews"
}

// Start moves a READY interview into IN_PROGRESS at the first phase of its
// kind's sequence.
func (i *Interview) Start() error {
	if i.Status != StatusReady {
		return ErrInvalidState
	}
	i.Status = StatusInProgress
	first := i.Kind.Phases()[0]
	i.CurrentPhase = &first
	return nil
}

// NextPhase advances one step in the kind's phase sequence. It is a no-op at
// the last phase and fails if the interview has not been started.
func (i *Interview) NextPhase() error {
	if i.CurrentPhase == nil {
		return ErrInvalidState
	}
	phases := i.Kind.Phases()
	for idx, p := range phases {
		if p == *i.CurrentPhase {
			if idx < len(phases)-1 {
				next := phases[idx+1]
				i.CurrentPhase = &next
			}
			return nil
		}
	}
	return ErrInvalidState
}

// IsLastPhase returns false when the interview has not been started.
func (i *Interview) IsLastPhase() bool {
	if i.CurrentPhase == nil {
		return false
	}
	phases := i.Kind.Phases()
	return *i.CurrentPhase == phases[len(phases)-1]
}

func (i *Interview) Complete() {
	i.Status = StatusDone
}

// MarkDeleted sets the soft-delete marker; the row stays readable for
// historical result fetches until the purge job removes it.
func (i *Interview) MarkDeleted() {
	now := time.Now()
	i.Deleted = true
	i.DeletedAt = &now
}
