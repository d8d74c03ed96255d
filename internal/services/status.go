package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/twodc/pre-view-sub000/internal/models"
	"github.com/twodc/pre-view-sub000/internal/repositories"
)

// InterviewStatusService applies side effects of a result fetch in their own
// unit of work, on a fresh copy of the row, so a conflict there never fails
// the fetch itself.
type InterviewStatusService struct {
	interviewRepo repositories.InterviewRepository
}

func NewInterviewStatusService(interviewRepo repositories.InterviewRepository) *InterviewStatusService {
	return &InterviewStatusService{interviewRepo: interviewRepo}
}

// CompleteIfNeeded moves the interview to DONE. Conflicts are swallowed:
// a concurrent writer either completed it already or will trigger another
// fetch that completes it.
func (s *InterviewStatusService) CompleteIfNeeded(id uuid.UUID) {
	interview, err := s.interviewRepo.FindByID(id)
	if err != nil {
		log.Printf("⚠️ Failed to reload interview %s for completion: %v", id, err)
		return
	}
	if interview.Status == models.StatusDone {
		return
	}
	interview.Complete()
	if err := s.interviewRepo.Save(interview); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			log.Printf("Skipped completing interview %s, concurrent update won", id)
			return
		}
		log.Printf("⚠️ Failed to complete interview %s: %v", id, err)
	}
}

// CacheReport stores the serialized report on the interview row. Conflicts
// are swallowed; the next fetch regenerates and tries again.
func (s *InterviewStatusService) CacheReport(id uuid.UUID, report *models.Report) error {
	interview, err := s.interviewRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("failed to reload interview %s for report caching: %w", id, err)
	}
	if len(interview.CachedReport) > 0 {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report for interview %s: %w", id, err)
	}
	interview.CachedReport = data
	if err := s.interviewRepo.Save(interview); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			log.Printf("Skipped caching report for interview %s, concurrent update won", id)
			return nil
		}
		return fmt.Errorf("failed to cache report for interview %s: %w", id, err)
	}
	return nil
}
