package models

// RankSnapshot is one time-series sample of a student's standing. Only the
// last RankHistoryCap samples per student are kept (FIFO by date); the
// series exists to derive a coarse trend, not precise history.
type RankSnapshot struct {
	StudentID  string
	Date       string
	Rank       int
	Coins      int
	TotalScore int
}

// RankHistoryCap bounds per-student rank history
const RankHistoryCap = 30

// Trend is the coarse direction of a student's recent rank movement
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// LeaderboardEntry is one row of the computed leaderboard
type LeaderboardEntry struct {
	Student    Student
	Rank       int
	Percentile int
}
