package models

import "time"

// SourceKind identifies which feature produced a transaction
type SourceKind string

const (
	SourceLesson          SourceKind = "lesson"
	SourceHomeworkGrade   SourceKind = "homework_grade"
	SourceGameResult      SourceKind = "game_result"
	SourceShopPurchase    SourceKind = "shop_purchase"
	SourceAdminAdjustment SourceKind = "admin_adjustment"
)

// Valid reports whether the source kind is known
func (k SourceKind) Valid() bool {
	switch k {
	case SourceLesson, SourceHomeworkGrade, SourceGameResult, SourceShopPurchase, SourceAdminAdjustment:
		return true
	}
	return false
}

// Status gates whether a transaction's amount counts toward the balance.
// A transaction transitions status at most once (submitted -> checked or
// submitted -> rejected); the other statuses are terminal at creation.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusChecked   Status = "checked"
	StatusRejected  Status = "rejected"
	StatusGameWin   Status = "game_win"
	StatusPurchase  Status = "purchase"
)

// Settled reports whether the transaction amount contributes to the balance.
// Every status must appear in exactly one branch here: adding a new status
// without deciding its settledness is a compile-visible omission at review,
// and unknown strings read from storage count as unsettled.
func (s Status) Settled() bool {
	switch s {
	case StatusChecked, StatusGameWin, StatusPurchase:
		return true
	case StatusSubmitted, StatusRejected:
		return false
	}
	return false
}

// Valid reports whether the status is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusChecked, StatusRejected, StatusGameWin, StatusPurchase:
		return true
	}
	return false
}

// Transaction is a single append-only coin-affecting event. Amount is a
// signed delta; purchases are negative. Amount is immutable after creation
// except through the one-shot grading transition that settles it.
type Transaction struct {
	ID         string
	StudentID  string
	SourceKind SourceKind
	Amount     int
	Status     Status
	// Score holds the grade a teacher assigned alongside the coins for
	// homework transactions; zero otherwise.
	Score int
	Note  string
	// RewardStaged and Notified track which grading side effects have
	// already run, so a retried grade call never duplicates one.
	RewardStaged bool
	Notified     bool
	// Synced reports whether the entry has been pushed to the system of
	// record yet.
	Synced    bool
	CreatedAt time.Time
}

// BalanceFromLog derives a student's balance as the sum of settled amounts.
// It is a pure function of the log; an unknown student simply sums nothing
// and yields 0.
func BalanceFromLog(log []Transaction, studentID string) int {
	total := 0
	for _, tx := range log {
		if tx.StudentID != studentID {
			continue
		}
		if tx.Status.Settled() {
			total += tx.Amount
		}
	}
	return total
}

// BalancesFromLog derives every student's balance in one pass over the log.
func BalancesFromLog(log []Transaction) map[string]int {
	balances := make(map[string]int)
	for _, tx := range log {
		if tx.Status.Settled() {
			balances[tx.StudentID] += tx.Amount
		}
	}
	return balances
}

// ClampBalance applies the display floor of zero
func ClampBalance(balance int) int {
	if balance < 0 {
		return 0
	}
	return balance
}
