package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twodc/pre-view-sub000/internal/models"
)

func seedInterview(t *testing.T, repo InterviewRepository, memberID uuid.UUID) *models.Interview {
	t.Helper()
	interview := &models.Interview{
		ID:       uuid.New(),
		MemberID: memberID,
		Title:    "Backend Engineer Mock",
		Kind:     models.KindFull,
		Position: "Backend Engineer",
		Level:    "Junior",
		Status:   models.StatusReady,
	}
	require.NoError(t, repo.Create(interview))
	return interview
}

func TestInterviewSaveBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)
	interview := seedInterview(t, repo, uuid.New())

	interview.Title = "Renamed"
	require.NoError(t, repo.Save(interview))
	assert.Equal(t, int64(1), interview.Version)

	stored, err := repo.FindByID(interview.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, int64(1), stored.Version)
}

func TestInterviewSaveStaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)
	interview := seedInterview(t, repo, uuid.New())

	// Two callers load the same version; the second write must lose.
	first, err := repo.FindByID(interview.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(interview.ID)
	require.NoError(t, err)

	first.Title = "Winner"
	require.NoError(t, repo.Save(first))

	second.Title = "Loser"
	err = repo.Save(second)
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := repo.FindByID(interview.ID)
	require.NoError(t, err)
	assert.Equal(t, "Winner", stored.Title)
	assert.Equal(t, int64(1), stored.Version)
}

func TestInterviewSaveMissingRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)

	ghost := &models.Interview{ID: uuid.New(), Kind: models.KindFull, Status: models.StatusReady}
	assert.ErrorIs(t, repo.Save(ghost), ErrNotFound)
}

func TestInterviewFindByIDAndMemberHidesOtherOwners(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)
	owner := uuid.New()
	interview := seedInterview(t, repo, owner)

	found, err := repo.FindByIDAndMember(interview.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, interview.ID, found.ID)

	_, err = repo.FindByIDAndMember(interview.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInterviewSoftDeleteHidesRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)
	owner := uuid.New()
	interview := seedInterview(t, repo, owner)

	interview.MarkDeleted()
	require.NoError(t, repo.Save(interview))

	_, err := repo.FindByID(interview.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.FindAllByMember(owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInterviewFindAllByMemberOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)
	owner := uuid.New()

	older := seedInterview(t, repo, owner)
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)
	newer := seedInterview(t, repo, owner)
	seedInterview(t, repo, uuid.New())

	list, err := repo.FindAllByMember(owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestPurgeDeletedBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)
	questionRepo := NewQuestionRepository(db)
	answerRepo := NewAnswerRepository(db)

	owner := uuid.New()
	purgeable := seedInterview(t, repo, owner)
	question := &models.Question{
		ID:          uuid.New(),
		InterviewID: purgeable.ID,
		Phase:       models.PhaseOpening,
		Content:     "Please introduce yourself briefly.",
		Sequence:    1,
	}
	require.NoError(t, questionRepo.Create(question))
	require.NoError(t, answerRepo.Create(&models.Answer{
		ID:         uuid.New(),
		QuestionID: question.ID,
		Content:    "Hello, I am a backend engineer.",
	}))

	purgeable.MarkDeleted()
	require.NoError(t, repo.Save(purgeable))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(purgeable).Update("deleted_at", past).Error)

	recentlyDeleted := seedInterview(t, repo, owner)
	recentlyDeleted.MarkDeleted()
	require.NoError(t, repo.Save(recentlyDeleted))

	kept := seedInterview(t, repo, owner)

	purged, err := repo.PurgeDeletedBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var interviewCount, questionCount, answerCount int64
	require.NoError(t, db.Model(&models.Interview{}).Count(&interviewCount).Error)
	require.NoError(t, db.Model(&models.Question{}).Count(&questionCount).Error)
	require.NoError(t, db.Model(&models.Answer{}).Count(&answerCount).Error)
	assert.Equal(t, int64(2), interviewCount)
	assert.Equal(t, int64(0), questionCount)
	assert.Equal(t, int64(0), answerCount)

	_, err = repo.FindByID(kept.ID)
	assert.NoError(t, err)
}

func TestQuestionSequenceUniquePerInterview(t *testing.T) {
	db := newTestDB(t)
	repo := NewInterviewRepository(db)
	questionRepo := NewQuestionRepository(db)
	interview := seedInterview(t, repo, uuid.New())

	first := &models.Question{
		ID:          uuid.New(),
		InterviewID: interview.ID,
		Phase:       models.PhaseOpening,
		Content:     "Please introduce yourself briefly.",
		Sequence:    1,
	}
	require.NoError(t, questionRepo.Create(first))

	duplicate := &models.Question{
		ID:          uuid.New(),
		InterviewID: interview.ID,
		Phase:       models.PhaseOpening,
		Content:     "Why did you apply for this position?",
		Sequence:    1,
	}
	assert.Error(t, questionRepo.Create(duplicate))

	// The same sequence is fine on another interview.
	other := seedInterview(t, repo, uuid.New())
	sibling := &models.Question{
		ID:          uuid.New(),
		InterviewID: other.ID,
		Phase:       models.PhaseOpening,
		Content:     "Please introduce yourself briefly.",
		Sequence:    1,
	}
	assert.NoError(t, questionRepo.Create(sibling))
}
