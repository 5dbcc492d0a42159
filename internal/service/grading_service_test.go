package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"classcoins/internal/events"
	"classcoins/internal/models"
)

type gradingFixture struct {
	grading  *GradingService
	ledger   *LedgerService
	rewards  *RewardService
	students *fakeStudentStore
	txns     *fakeTransactionStore
	accounts *fakeAccountStore
	notifier *fakeNotifier
}

func newGradingFixture(t *testing.T) *gradingFixture {
	t.Helper()
	students := newFakeStudentStore()
	txns := newFakeTransactionStore()
	accounts := newFakeAccountStore()
	notifier := &fakeNotifier{}
	bus := events.NewBus()
	clock := newFakeClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))

	ledger := NewLedgerService(students, txns, bus, clock)
	rewards := NewRewardService(newFakeRewardStore(), students, nil, bus, clock)
	grading := NewGradingService(ledger, txns, rewards, accounts, students, notifier, 60)

	students.Upsert(&models.Student{ID: "s1", Name: "Ada"})
	accounts.Create(&models.Account{Username: "ada", Role: models.RoleStudent, StudentID: "s1", GuardianEmail: "guardian@example.com"})

	return &gradingFixture{
		grading:  grading,
		ledger:   ledger,
		rewards:  rewards,
		students: students,
		txns:     txns,
		accounts: accounts,
		notifier: notifier,
	}
}

func TestGradeAwardsCoinsAndStagesReward(t *testing.T) {
	f := newGradingFixture(t)
	ctx := context.Background()

	submitted, err := f.grading.Submit("s1", "unit 4 essay")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	balance, _ := f.ledger.Balance("s1")
	if balance != 0 {
		t.Errorf("balance before grading = %d, want 0", balance)
	}

	graded, err := f.grading.Grade(ctx, submitted.ID, 95, 50)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if graded.Status != models.StatusChecked {
		t.Errorf("status = %q, want checked", graded.Status)
	}

	balance, _ = f.ledger.Balance("s1")
	if balance != 50 {
		t.Errorf("balance after grading = %d, want 50", balance)
	}

	pending, _ := f.rewards.Pending("s1")
	if pending == nil || pending.Amount != 50 {
		t.Fatalf("pending reward = %+v, want amount 50", pending)
	}

	// Score 95 is above the threshold; the guardian is left alone.
	if len(f.notifier.sent) != 0 {
		t.Errorf("guardian notified for a high score: %v", f.notifier.sent)
	}
}

func TestGradeLowScoreNotifiesGuardian(t *testing.T) {
	f := newGradingFixture(t)
	ctx := context.Background()

	submitted, _ := f.grading.Submit("s1", "quiz")
	if _, err := f.grading.Grade(ctx, submitted.ID, 40, 5); err != nil {
		t.Fatalf("Grade: %v", err)
	}

	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != "guardian@example.com" {
		t.Errorf("notifications = %v, want one to guardian@example.com", f.notifier.sent)
	}
}

func TestGradeSideEffectsIndependent(t *testing.T) {
	f := newGradingFixture(t)
	ctx := context.Background()

	// The notifier fails but the reward must still be staged; they are
	// two independent side effects of the same grading event.
	f.notifier.sendErr = errors.New("ses outage")

	submitted, _ := f.grading.Submit("s1", "quiz")
	if _, err := f.grading.Grade(ctx, submitted.ID, 40, 5); err != nil {
		t.Fatalf("Grade: %v", err)
	}

	pending, _ := f.rewards.Pending("s1")
	if pending == nil || pending.Amount != 5 {
		t.Fatalf("pending reward = %+v, want amount 5 despite notify failure", pending)
	}

	txn, _ := f.txns.GetByID(submitted.ID)
	if !txn.RewardStaged {
		t.Error("reward staged flag not set")
	}
	if txn.Notified {
		t.Error("notified flag set despite failure")
	}

	// Retry after the outage: the notification goes out, the reward is
	// not staged a second time.
	f.notifier.sendErr = nil
	if err := f.grading.RetrySideEffects(ctx, submitted.ID); err != nil {
		t.Fatalf("RetrySideEffects: %v", err)
	}

	if len(f.notifier.sent) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.notifier.sent))
	}
	pending, _ = f.rewards.Pending("s1")
	if pending.Amount != 5 {
		t.Errorf("pending amount = %d, want 5 (no duplicate staging)", pending.Amount)
	}

	txn, _ = f.txns.GetByID(submitted.ID)
	if !txn.Notified || !txn.RewardStaged {
		t.Errorf("flags after retry: staged=%v notified=%v, want both true", txn.RewardStaged, txn.Notified)
	}
}

func TestGradeValidatesScore(t *testing.T) {
	f := newGradingFixture(t)
	ctx := context.Background()

	submitted, _ := f.grading.Submit("s1", "quiz")
	if _, err := f.grading.Grade(ctx, submitted.ID, 101, 5); err == nil {
		t.Error("Grade accepted an out-of-range score")
	}
	if _, err := f.grading.Grade(ctx, submitted.ID, 50, -5); err == nil {
		t.Error("Grade accepted a negative coin award")
	}

	// The failed grade attempts must not have settled the entry.
	txn, _ := f.txns.GetByID(submitted.ID)
	if txn.Status != models.StatusSubmitted {
		t.Errorf("status = %q, want still submitted", txn.Status)
	}
}

func TestRejectAwardsNothing(t *testing.T) {
	f := newGradingFixture(t)

	submitted, _ := f.grading.Submit("s1", "quiz")
	if _, err := f.grading.Reject(submitted.ID, 20); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	balance, _ := f.ledger.Balance("s1")
	if balance != 0 {
		t.Errorf("balance = %d, want 0 after rejection", balance)
	}
	pending, _ := f.rewards.Pending("s1")
	if pending != nil {
		t.Errorf("pending reward staged for a rejected homework: %+v", pending)
	}
}
