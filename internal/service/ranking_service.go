package service

import (
	"fmt"
	"math"
	"sort"

	"classcoins/internal/models"
)

// RankingService computes the leaderboard and coarse rank trends.
type RankingService struct {
	students StudentStore
	history  RankHistoryStore
	clock    Clock
}

// NewRankingService creates a ranking service.
func NewRankingService(students StudentStore, history RankHistoryStore, clock Clock) *RankingService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RankingService{students: students, history: history, clock: clock}
}

// Leaderboard returns students in rank order. groupID narrows the board
// to one group; pass "" for the whole roster. The sort key is total
// score descending, coins descending, then ID ascending so equal scores
// never flicker between reconciliation cycles.
func (s *RankingService) Leaderboard(groupID string) ([]models.LeaderboardEntry, error) {
	var (
		students []models.Student
		err      error
	)
	if groupID == "" {
		students, err = s.students.List()
	} else {
		students, err = s.students.ListByGroup(groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.Coins != b.Coins {
			return a.Coins > b.Coins
		}
		return a.ID < b.ID
	})

	n := len(students)
	entries := make([]models.LeaderboardEntry, n)
	for i := range students {
		entries[i] = models.LeaderboardEntry{
			Student:    students[i],
			Rank:       i + 1,
			Percentile: int(math.Round((1 - float64(i)/float64(n)) * 100)),
		}
	}
	return entries, nil
}

// SnapshotRanks records today's rank sample for every student on the
// board. Samples beyond the rolling cap are evicted oldest first by the
// history store.
func (s *RankingService) SnapshotRanks() error {
	entries, err := s.Leaderboard("")
	if err != nil {
		return err
	}

	today := models.DayKey(s.clock.Now())
	for _, e := range entries {
		snap := models.RankSnapshot{
			StudentID:  e.Student.ID,
			Date:       today,
			Rank:       e.Rank,
			Coins:      e.Student.Coins,
			TotalScore: e.Student.TotalScore,
		}
		if err := s.history.Record(snap); err != nil {
			return fmt.Errorf("failed to record rank snapshot for %s: %w", e.Student.ID, err)
		}
	}
	return nil
}

// Trend compares the mean rank of the last five snapshots against the
// mean of the five before them. A recent mean more than one place
// better (numerically lower) reads as improving, more than one place
// worse as declining. Fewer than two snapshots is stable, not an error.
func (s *RankingService) Trend(studentID string) (models.Trend, error) {
	snaps, err := s.history.ListByStudent(studentID)
	if err != nil {
		return models.TrendStable, fmt.Errorf("failed to load rank history: %w", err)
	}
	return trendOf(snaps), nil
}

func trendOf(snaps []models.RankSnapshot) models.Trend {
	if len(snaps) < 2 {
		return models.TrendStable
	}

	recentStart := len(snaps) - 5
	if recentStart < 0 {
		recentStart = 0
	}
	recent := snaps[recentStart:]

	olderStart := recentStart - 5
	if olderStart < 0 {
		olderStart = 0
	}
	older := snaps[olderStart:recentStart]
	if len(older) == 0 {
		return models.TrendStable
	}

	diff := meanRank(recent) - meanRank(older)
	switch {
	case diff < -1:
		return models.TrendImproving
	case diff > 1:
		return models.TrendDeclining
	}
	return models.TrendStable
}

func meanRank(snaps []models.RankSnapshot) float64 {
	sum := 0
	for i := range snaps {
		sum += snaps[i].Rank
	}
	return float64(sum) / float64(len(snaps))
}
