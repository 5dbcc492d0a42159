package models

import (
	"testing"
	"time"
)

func TestStatusSettled(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{
			name:   "submitted never contributes",
			status: StatusSubmitted,
			want:   false,
		},
		{
			name:   "rejected never contributes",
			status: StatusRejected,
			want:   false,
		},
		{
			name:   "checked contributes",
			status: StatusChecked,
			want:   true,
		},
		{
			name:   "game win contributes",
			status: StatusGameWin,
			want:   true,
		},
		{
			name:   "purchase contributes",
			status: StatusPurchase,
			want:   true,
		},
		{
			name:   "unknown status counts as unsettled",
			status: Status("mystery"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Settled(); got != tt.want {
				t.Errorf("Status(%q).Settled() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestBalanceFromLog(t *testing.T) {
	log := []Transaction{
		{ID: "t1", StudentID: "s1", SourceKind: SourceLesson, Amount: 20, Status: StatusChecked},
		{ID: "t2", StudentID: "s1", SourceKind: SourceHomeworkGrade, Amount: 50, Status: StatusSubmitted},
		{ID: "t3", StudentID: "s1", SourceKind: SourceGameResult, Amount: 15, Status: StatusGameWin},
		{ID: "t4", StudentID: "s1", SourceKind: SourceShopPurchase, Amount: -10, Status: StatusPurchase},
		{ID: "t5", StudentID: "s2", SourceKind: SourceLesson, Amount: 100, Status: StatusChecked},
		{ID: "t6", StudentID: "s1", SourceKind: SourceHomeworkGrade, Amount: 30, Status: StatusRejected},
	}

	tests := []struct {
		name      string
		studentID string
		want      int
	}{
		{
			name:      "settled entries only",
			studentID: "s1",
			want:      25, // 20 + 15 - 10, submitted and rejected excluded
		},
		{
			name:      "other student unaffected",
			studentID: "s2",
			want:      100,
		},
		{
			name:      "unknown student is zero, not an error",
			studentID: "ghost",
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BalanceFromLog(log, tt.studentID); got != tt.want {
				t.Errorf("BalanceFromLog(%q) = %d, want %d", tt.studentID, got, tt.want)
			}
		})
	}
}

func TestBalanceFromLogDeterminism(t *testing.T) {
	log := []Transaction{
		{ID: "t1", StudentID: "s1", Amount: 7, Status: StatusChecked},
		{ID: "t2", StudentID: "s1", Amount: -3, Status: StatusPurchase},
		{ID: "t3", StudentID: "s1", Amount: 11, Status: StatusGameWin},
	}

	first := BalanceFromLog(log, "s1")
	second := BalanceFromLog(log, "s1")
	if first != second {
		t.Errorf("repeated computation diverged: %d then %d", first, second)
	}
	if first != 15 {
		t.Errorf("BalanceFromLog = %d, want 15", first)
	}
}

func TestBalancesFromLog(t *testing.T) {
	log := []Transaction{
		{StudentID: "a", Amount: 10, Status: StatusChecked},
		{StudentID: "b", Amount: 5, Status: StatusChecked},
		{StudentID: "a", Amount: 4, Status: StatusSubmitted},
		{StudentID: "b", Amount: -2, Status: StatusPurchase},
	}

	balances := BalancesFromLog(log)
	if balances["a"] != 10 {
		t.Errorf("balance of a = %d, want 10", balances["a"])
	}
	if balances["b"] != 3 {
		t.Errorf("balance of b = %d, want 3", balances["b"])
	}
}

func TestDisplayCoinsClamped(t *testing.T) {
	tests := []struct {
		name  string
		coins int
		want  int
	}{
		{
			name:  "positive balance unchanged",
			coins: 42,
			want:  42,
		},
		{
			name:  "zero balance unchanged",
			coins: 0,
			want:  0,
		},
		{
			name:  "negative balance clamped for display",
			coins: -17,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Student{ID: "s1", Coins: tt.coins}
			if got := s.DisplayCoins(); got != tt.want {
				t.Errorf("DisplayCoins() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQuotaRecordCountFor(t *testing.T) {
	tests := []struct {
		name   string
		record *QuotaRecord
		day    string
		want   int
	}{
		{
			name:   "record from today counts",
			record: &QuotaRecord{Feature: FeatureMathGame, Date: "2025-06-01", Plays: 3},
			day:    "2025-06-01",
			want:   3,
		},
		{
			name:   "stale record treated as absent",
			record: &QuotaRecord{Feature: FeatureMathGame, Date: "2025-05-31", Plays: 5},
			day:    "2025-06-01",
			want:   0,
		},
		{
			name:   "missing record is zero",
			record: nil,
			day:    "2025-06-01",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.CountFor(tt.day); got != tt.want {
				t.Errorf("CountFor(%q) = %d, want %d", tt.day, got, tt.want)
			}
		})
	}
}

func TestFeatureDailyLimit(t *testing.T) {
	if got := FeatureLesson.DailyLimit(); got != StrictDailyLimit {
		t.Errorf("lesson limit = %d, want %d", got, StrictDailyLimit)
	}
	if got := FeatureMathGame.DailyLimit(); got != LenientDailyLimit {
		t.Errorf("math game limit = %d, want %d", got, LenientDailyLimit)
	}
}

func TestDayKey(t *testing.T) {
	at := time.Date(2025, 6, 1, 23, 59, 59, 0, time.Local)
	if got := DayKey(at); got != "2025-06-01" {
		t.Errorf("DayKey = %q, want 2025-06-01", got)
	}
}
