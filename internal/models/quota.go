package models

import "time"

// Feature identifies a quota-limited activity
type Feature string

const (
	FeatureLesson     Feature = "lesson"
	FeatureHomework   Feature = "homework"
	FeatureTypingGame Feature = "typing_game"
	FeatureMathGame   Feature = "math_game"
	FeatureMemoryGame Feature = "memory_game"
	FeatureQuizGame   Feature = "quiz_game"
)

// Daily play limits. Lessons and homework follow the strict policy of one
// play per day; mini-games use the lenient policy.
const (
	StrictDailyLimit  = 1
	LenientDailyLimit = 5
)

// DailyLimit returns the per-day play limit for a feature
func (f Feature) DailyLimit() int {
	switch f {
	case FeatureLesson, FeatureHomework:
		return StrictDailyLimit
	case FeatureTypingGame, FeatureMathGame, FeatureMemoryGame, FeatureQuizGame:
		return LenientDailyLimit
	}
	return StrictDailyLimit
}

// Valid reports whether the feature is known
func (f Feature) Valid() bool {
	switch f {
	case FeatureLesson, FeatureHomework, FeatureTypingGame, FeatureMathGame, FeatureMemoryGame, FeatureQuizGame:
		return true
	}
	return false
}

// DayKey formats a wall-clock time as the calendar-day key quotas are
// bucketed by.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// QuotaRecord counts plays of one feature by one student on one calendar
// day. A record whose Date differs from today is stale and counts as zero;
// it is never consulted to deny play after a day boundary.
type QuotaRecord struct {
	StudentID string
	Feature   Feature
	Date      string
	Plays     int
}

// CountFor returns the play count the record contributes on the given day.
// Stale records are treated as absent (lazy reset).
func (q *QuotaRecord) CountFor(day string) int {
	if q == nil || q.Date != day {
		return 0
	}
	return q.Plays
}
