package service

import (
	"context"
	"fmt"
	"log"

	"classcoins/internal/models"
	"classcoins/internal/validation"
)

// GradingService handles homework submission and grading. Grading fires
// two independent side effects from the same event: staging the coin
// reward and emailing the guardian when the score is low. Neither is
// wrapped in the other; each is tracked by its own flag on the
// transaction so a failed one can be retried without duplicating the
// one that succeeded.
type GradingService struct {
	ledger    *LedgerService
	txns      TransactionStore
	rewards   *RewardService
	accounts  AccountStore
	students  StudentStore
	notifier  Notifier
	threshold int
}

// NewGradingService creates a grading service. threshold is the score
// below which the guardian is notified.
func NewGradingService(ledger *LedgerService, txns TransactionStore, rewards *RewardService, accounts AccountStore, students StudentStore, notifier Notifier, threshold int) *GradingService {
	return &GradingService{
		ledger:    ledger,
		txns:      txns,
		rewards:   rewards,
		accounts:  accounts,
		students:  students,
		notifier:  notifier,
		threshold: threshold,
	}
}

// Submit records a homework hand-in as an unsettled log entry. It
// contributes nothing to the balance until a teacher grades it.
func (s *GradingService) Submit(studentID, note string) (*models.Transaction, error) {
	return s.ledger.Append(studentID, models.SourceHomeworkGrade, 0, models.StatusSubmitted, 0, note)
}

// Grade settles a submitted homework with a score and a coin award,
// then fires the side effects.
func (s *GradingService) Grade(ctx context.Context, txnID string, score, coins int) (*models.Transaction, error) {
	if err := validation.ValidateScore(score); err != nil {
		return nil, err
	}
	if coins < 0 {
		return nil, fmt.Errorf("coin award must not be negative")
	}

	txn, err := s.ledger.Settle(txnID, models.StatusChecked, score, coins)
	if err != nil {
		return nil, err
	}

	s.runSideEffects(ctx, txn)
	return txn, nil
}

// Reject settles a submitted homework without awarding coins.
func (s *GradingService) Reject(txnID string, score int) (*models.Transaction, error) {
	return s.ledger.Settle(txnID, models.StatusRejected, score, 0)
}

// RetrySideEffects re-runs any side effect of a graded homework that
// has not completed yet. Already finished effects are skipped.
func (s *GradingService) RetrySideEffects(ctx context.Context, txnID string) error {
	txn, err := s.txns.GetByID(txnID)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn == nil {
		return ErrTransactionNotFound
	}
	if txn.Status != models.StatusChecked {
		return fmt.Errorf("transaction %s is not graded", txnID)
	}
	s.runSideEffects(ctx, txn)
	return nil
}

// runSideEffects attempts reward staging and guardian notification.
// Each effect is attempted even when the other fails; each is marked
// done individually so retries never duplicate it.
func (s *GradingService) runSideEffects(ctx context.Context, txn *models.Transaction) {
	if !txn.RewardStaged && txn.Amount > 0 {
		reason := fmt.Sprintf("Homework graded: %d coins for score %d", txn.Amount, txn.Score)
		if err := s.rewards.Stage(txn.StudentID, txn.Amount, reason); err != nil {
			log.Printf("Failed to stage reward for transaction %s: %v", txn.ID, err)
		} else {
			txn.RewardStaged = true
			if err := s.txns.Update(txn); err != nil {
				log.Printf("Failed to mark reward staged on %s: %v", txn.ID, err)
			}
		}
	}

	if !txn.Notified && txn.Score < s.threshold {
		if err := s.notifyGuardian(ctx, txn); err != nil {
			log.Printf("Failed to notify guardian for transaction %s: %v", txn.ID, err)
		} else {
			txn.Notified = true
			if err := s.txns.Update(txn); err != nil {
				log.Printf("Failed to mark guardian notified on %s: %v", txn.ID, err)
			}
		}
	}
}

func (s *GradingService) notifyGuardian(ctx context.Context, txn *models.Transaction) error {
	account, err := s.accounts.GetByStudentID(txn.StudentID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil || account.GuardianEmail == "" {
		return nil
	}

	student, err := s.students.GetByID(txn.StudentID)
	if err != nil {
		return fmt.Errorf("failed to load student: %w", err)
	}
	name := txn.StudentID
	if student != nil {
		name = student.Name
	}

	return s.notifier.SendLowScoreEmail(ctx, account.GuardianEmail, name, txn.Score)
}
