package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"classcoins/internal/events"
	"classcoins/internal/models"
	"classcoins/internal/validation"
)

var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// LedgerService owns the local transaction log. Balances are never
// stored for the log's own sake; they are recomputed as a fold over
// settled entries whenever someone asks.
type LedgerService struct {
	students StudentStore
	txns     TransactionStore
	bus      *events.Bus
	clock    Clock
}

// NewLedgerService creates a ledger service.
func NewLedgerService(students StudentStore, txns TransactionStore, bus *events.Bus, clock Clock) *LedgerService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &LedgerService{
		students: students,
		txns:     txns,
		bus:      bus,
		clock:    clock,
	}
}

// Append records a new transaction for a student. The transaction gets
// a fresh ID and is marked unsynced so the reconciliation loop pushes
// it to the system of record.
func (s *LedgerService) Append(studentID string, kind models.SourceKind, amount int, status models.Status, score int, note string) (*models.Transaction, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	student, err := s.students.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	txn := &models.Transaction{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		SourceKind: kind,
		Amount:     amount,
		Status:     status,
		Score:      score,
		Note:       note,
		Synced:     false,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.txns.Append(txn); err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindLedger, StudentID: studentID, At: txn.CreatedAt})
	return txn, nil
}

// AdminAdjust records a manual correction as an ordinary log entry.
// Positive amounts grant coins, negative amounts revoke them. There is
// no way to set a balance directly; the log stays the single source of
// local truth.
func (s *LedgerService) AdminAdjust(studentID string, amount int, note string) (*models.Transaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("adjustment amount must be non-zero")
	}
	return s.Append(studentID, models.SourceAdminAdjustment, amount, models.StatusChecked, 0, note)
}

// AwardGameWin records a settled coin grant for a won mini-game.
func (s *LedgerService) AwardGameWin(studentID string, amount int, note string) (*models.Transaction, error) {
	if err := validation.ValidateRewardAmount(amount); err != nil {
		return nil, err
	}
	return s.Append(studentID, models.SourceGameResult, amount, models.StatusGameWin, 0, note)
}

// AwardLesson records a settled coin grant for a completed lesson.
func (s *LedgerService) AwardLesson(studentID string, amount int, note string) (*models.Transaction, error) {
	if err := validation.ValidateRewardAmount(amount); err != nil {
		return nil, err
	}
	return s.Append(studentID, models.SourceLesson, amount, models.StatusChecked, 0, note)
}

// Balance computes a student's coin balance by folding the settled
// entries of their log. Identical logs always produce identical
// balances.
func (s *LedgerService) Balance(studentID string) (int, error) {
	log, err := s.txns.ListByStudent(studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	return models.BalanceFromLog(log, studentID), nil
}

// DisplayBalance is Balance clamped to zero for presentation. The raw
// balance can dip negative after remote corrections; students never see
// a negative coin count.
func (s *LedgerService) DisplayBalance(studentID string) (int, error) {
	balance, err := s.Balance(studentID)
	if err != nil {
		return 0, err
	}
	return models.ClampBalance(balance), nil
}

// History returns a student's full transaction log, oldest first.
func (s *LedgerService) History(studentID string) ([]models.Transaction, error) {
	student, err := s.students.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return s.txns.ListByStudent(studentID)
}

// Settle moves a submitted transaction to a settled or rejected status.
// Grading sets score and amount in the same transition; afterwards the
// entry is immutable again. Settling changes what the balance fold
// sees, so a ledger event goes out either way.
func (s *LedgerService) Settle(txnID string, status models.Status, score, amount int) (*models.Transaction, error) {
	if status != models.StatusChecked && status != models.StatusRejected {
		return nil, fmt.Errorf("settle status must be checked or rejected, got %q", status)
	}
	if err := validation.ValidateScore(score); err != nil {
		return nil, err
	}

	txn, err := s.txns.GetByID(txnID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	if txn.Status != models.StatusSubmitted {
		return nil, fmt.Errorf("transaction %s is already %s", txnID, txn.Status)
	}

	txn.Status = status
	txn.Score = score
	if status == models.StatusChecked {
		txn.Amount = amount
	} else {
		txn.Amount = 0
	}
	txn.Synced = false
	if err := s.txns.Update(txn); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindLedger, StudentID: txn.StudentID, At: s.clock.Now().UTC()})
	return txn, nil
}

// Reconciled reports whether a student's local balance matches the
// authoritative coin count on their roster entry.
func (s *LedgerService) Reconciled(studentID string) (bool, error) {
	student, err := s.students.GetByID(studentID)
	if err != nil {
		return false, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return false, ErrStudentNotFound
	}
	balance, err := s.Balance(studentID)
	if err != nil {
		return false, err
	}
	return balance == student.Coins, nil
}
