package service

import (
	"testing"
	"time"

	"classcoins/internal/models"
)

func newTestRanking(t *testing.T) (*RankingService, *fakeStudentStore, *fakeRankStore, *fakeClock) {
	t.Helper()
	students := newFakeStudentStore()
	history := newFakeRankStore()
	clock := newFakeClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	return NewRankingService(students, history, clock), students, history, clock
}

func TestLeaderboardOrdering(t *testing.T) {
	ranking, students, _, _ := newTestRanking(t)
	students.Upsert(&models.Student{ID: "s3", Name: "Cleo", TotalScore: 900, Coins: 10})
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", TotalScore: 1200, Coins: 5})
	students.Upsert(&models.Student{ID: "s2", Name: "Ben", TotalScore: 900, Coins: 40})

	entries, err := ranking.Leaderboard("")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}

	wantOrder := []string{"s1", "s2", "s3"}
	for i, want := range wantOrder {
		if entries[i].Student.ID != want {
			t.Errorf("position %d = %s, want %s", i, entries[i].Student.ID, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("rank at %d = %d, want %d", i, entries[i].Rank, i+1)
		}
	}
	if entries[0].Percentile != 100 {
		t.Errorf("top percentile = %d, want 100", entries[0].Percentile)
	}
	if entries[2].Percentile != 33 {
		t.Errorf("bottom percentile = %d, want 33", entries[2].Percentile)
	}
}

func TestLeaderboardTieBreakStable(t *testing.T) {
	ranking, students, _, _ := newTestRanking(t)
	students.Upsert(&models.Student{ID: "s2", Name: "Ben", TotalScore: 500, Coins: 20})
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", TotalScore: 500, Coins: 20})

	for i := 0; i < 20; i++ {
		entries, err := ranking.Leaderboard("")
		if err != nil {
			t.Fatalf("Leaderboard: %v", err)
		}
		if entries[0].Student.ID != "s1" || entries[1].Student.ID != "s2" {
			t.Fatalf("iteration %d: identical students not ordered by id: %s, %s",
				i, entries[0].Student.ID, entries[1].Student.ID)
		}
	}
}

func TestLeaderboardByGroup(t *testing.T) {
	ranking, students, _, _ := newTestRanking(t)
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", GroupID: "g1", TotalScore: 100})
	students.Upsert(&models.Student{ID: "s2", Name: "Ben", GroupID: "g2", TotalScore: 200})

	entries, err := ranking.Leaderboard("g1")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].Student.ID != "s1" {
		t.Errorf("group board = %+v, want only s1", entries)
	}
	if entries[0].Rank != 1 || entries[0].Percentile != 100 {
		t.Errorf("single-member board rank=%d percentile=%d", entries[0].Rank, entries[0].Percentile)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name  string
		ranks []int
		want  models.Trend
	}{
		{
			name:  "no history",
			ranks: nil,
			want:  models.TrendStable,
		},
		{
			name:  "single snapshot",
			ranks: []int{3},
			want:  models.TrendStable,
		},
		{
			name:  "improving",
			ranks: []int{10, 10, 10, 10, 10, 2, 2, 2, 2, 2},
			want:  models.TrendImproving,
		},
		{
			name:  "declining",
			ranks: []int{1, 1, 1, 1, 1, 8, 8, 8, 8, 8},
			want:  models.TrendDeclining,
		},
		{
			name:  "flat",
			ranks: []int{4, 4, 4, 4, 4, 4, 4, 4, 4, 4},
			want:  models.TrendStable,
		},
		{
			name:  "within one place is stable",
			ranks: []int{5, 5, 5, 5, 5, 4, 4, 4, 4, 4},
			want:  models.TrendStable,
		},
		{
			name:  "short history improving",
			ranks: []int{9, 9, 1, 1, 1, 1, 1},
			want:  models.TrendImproving,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranking, _, history, _ := newTestRanking(t)
			for i, rank := range tt.ranks {
				day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
				history.Record(models.RankSnapshot{
					StudentID: "s1",
					Date:      models.DayKey(day),
					Rank:      rank,
				})
			}

			got, err := ranking.Trend("s1")
			if err != nil {
				t.Fatalf("Trend: %v", err)
			}
			if got != tt.want {
				t.Errorf("Trend = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnapshotRanks(t *testing.T) {
	ranking, students, history, clock := newTestRanking(t)
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", TotalScore: 100, Coins: 5})
	students.Upsert(&models.Student{ID: "s2", Name: "Ben", TotalScore: 200, Coins: 3})

	if err := ranking.SnapshotRanks(); err != nil {
		t.Fatalf("SnapshotRanks: %v", err)
	}
	// A second snapshot on the same day overwrites, not appends.
	if err := ranking.SnapshotRanks(); err != nil {
		t.Fatalf("SnapshotRanks: %v", err)
	}

	snaps, _ := history.ListByStudent("s1")
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	if snaps[0].Rank != 2 {
		t.Errorf("s1 rank = %d, want 2", snaps[0].Rank)
	}

	clock.Advance(24 * time.Hour)
	if err := ranking.SnapshotRanks(); err != nil {
		t.Fatalf("SnapshotRanks: %v", err)
	}
	snaps, _ = history.ListByStudent("s1")
	if len(snaps) != 2 {
		t.Errorf("snapshots = %d, want 2 after next day", len(snaps))
	}
}
