package service

import (
	"errors"
	"fmt"

	"classcoins/internal/models"
	"classcoins/internal/validation"
)

var ErrQuotaExhausted = errors.New("daily play limit reached")

// QuotaService enforces per-feature daily play limits. Resets are lazy:
// nothing runs at midnight, a record from a previous day simply counts
// as zero the next time it is read.
type QuotaService struct {
	quotas QuotaStore
	clock  Clock
}

// NewQuotaService creates a quota service.
func NewQuotaService(quotas QuotaStore, clock Clock) *QuotaService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &QuotaService{quotas: quotas, clock: clock}
}

// Remaining returns how many plays of a feature the student has left
// today.
func (s *QuotaService) Remaining(studentID string, feature models.Feature) (int, error) {
	if err := validation.ValidateFeature(feature); err != nil {
		return 0, err
	}

	record, err := s.quotas.Get(studentID, feature)
	if err != nil {
		return 0, fmt.Errorf("failed to load quota: %w", err)
	}

	today := models.DayKey(s.clock.Now())
	used := record.CountFor(today)
	remaining := feature.DailyLimit() - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CanPlay reports whether the student may play the feature right now.
func (s *QuotaService) CanPlay(studentID string, feature models.Feature) (bool, error) {
	remaining, err := s.Remaining(studentID, feature)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// RecordPlay consumes one play of a feature and returns the new play
// count for today. It returns ErrQuotaExhausted when today's limit is
// already spent; a stale record from an earlier day is overwritten with
// a fresh count of one.
func (s *QuotaService) RecordPlay(studentID string, feature models.Feature) (int, error) {
	if err := validation.ValidateFeature(feature); err != nil {
		return 0, err
	}

	record, err := s.quotas.Get(studentID, feature)
	if err != nil {
		return 0, fmt.Errorf("failed to load quota: %w", err)
	}

	today := models.DayKey(s.clock.Now())
	used := record.CountFor(today)
	if used >= feature.DailyLimit() {
		return used, ErrQuotaExhausted
	}

	updated := &models.QuotaRecord{
		StudentID: studentID,
		Feature:   feature,
		Date:      today,
		Plays:     used + 1,
	}
	if err := s.quotas.Upsert(updated); err != nil {
		return 0, fmt.Errorf("failed to save quota: %w", err)
	}
	return updated.Plays, nil
}

// Usage returns today's play counts for every feature the student has
// touched. Stale records report zero.
func (s *QuotaService) Usage(studentID string) (map[models.Feature]int, error) {
	records, err := s.quotas.ListByStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quotas: %w", err)
	}

	today := models.DayKey(s.clock.Now())
	usage := make(map[models.Feature]int, len(records))
	for i := range records {
		usage[records[i].Feature] = records[i].CountFor(today)
	}
	return usage, nil
}
