package service

import (
	"context"
	"fmt"
	"log"

	"classcoins/internal/events"
	"classcoins/internal/models"
)

// RewardService manages the pending reward a student has not yet seen.
// A student holds at most one pending reward; staging another before
// the first is acknowledged merges amounts and reasons rather than
// dropping either.
type RewardService struct {
	rewards  RewardStore
	students StudentStore
	remote   RemoteLedger
	bus      *events.Bus
	clock    Clock
}

// NewRewardService creates a reward service. remote may be nil when no
// system of record is configured; acknowledgements are then local only.
func NewRewardService(rewards RewardStore, students StudentStore, remote RemoteLedger, bus *events.Bus, clock Clock) *RewardService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RewardService{
		rewards:  rewards,
		students: students,
		remote:   remote,
		bus:      bus,
		clock:    clock,
	}
}

// Stage queues a reward for the student, merging with any reward that
// is already pending.
func (s *RewardService) Stage(studentID string, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("reward amount must be positive")
	}

	existing, err := s.rewards.Get(studentID)
	if err != nil {
		return fmt.Errorf("failed to load pending reward: %w", err)
	}

	pending := &models.PendingReward{
		StudentID: studentID,
		Amount:    amount,
		Reasons:   []string{reason},
		Timestamp: s.clock.Now().UTC(),
	}
	if existing != nil {
		pending.Amount += existing.Amount
		pending.Reasons = append(existing.Reasons, reason)
	}

	if err := s.rewards.Upsert(pending); err != nil {
		return fmt.Errorf("failed to save pending reward: %w", err)
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindRewards, StudentID: studentID, At: pending.Timestamp})
	return nil
}

// StageRemote merges a reward descriptor pulled from the system of
// record into the local queue. The amount is added once; every remote
// reason is carried over.
func (s *RewardService) StageRemote(studentID string, amount int, reasons []string) error {
	if amount <= 0 {
		return fmt.Errorf("reward amount must be positive")
	}

	existing, err := s.rewards.Get(studentID)
	if err != nil {
		return fmt.Errorf("failed to load pending reward: %w", err)
	}

	pending := &models.PendingReward{
		StudentID: studentID,
		Amount:    amount,
		Reasons:   reasons,
		Timestamp: s.clock.Now().UTC(),
	}
	if existing != nil {
		pending.Amount += existing.Amount
		pending.Reasons = append(existing.Reasons, reasons...)
	}

	if err := s.rewards.Upsert(pending); err != nil {
		return fmt.Errorf("failed to save pending reward: %w", err)
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindRewards, StudentID: studentID, At: pending.Timestamp})
	return nil
}

// Pending returns the student's unacknowledged reward, or nil.
func (s *RewardService) Pending(studentID string) (*models.PendingReward, error) {
	return s.rewards.Get(studentID)
}

// Acknowledge marks the pending reward as seen and deletes it. A second
// acknowledge for the same reward is a no-op, so clients may retry
// freely. When a remote reward ID is recorded on the student, the
// remote side is told to clear its copy; that call is fire and forget.
func (s *RewardService) Acknowledge(ctx context.Context, studentID string) error {
	pending, err := s.rewards.Get(studentID)
	if err != nil {
		return fmt.Errorf("failed to load pending reward: %w", err)
	}
	if pending == nil {
		return nil
	}

	if err := s.rewards.Delete(studentID); err != nil {
		return fmt.Errorf("failed to delete pending reward: %w", err)
	}

	if s.remote != nil {
		student, err := s.students.GetByID(studentID)
		if err == nil && student != nil && student.LastRewardID != "" {
			if err := s.remote.ClearReward(ctx, studentID, student.LastRewardID); err != nil {
				log.Printf("Failed to clear remote reward for %s: %v", studentID, err)
			}
		}
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindRewards, StudentID: studentID, At: s.clock.Now().UTC()})
	return nil
}
