package models

import "time"

// PendingReward aggregates coin deltas that are already reflected in the
// balance but have not been shown to the student yet. It is zeroed only by
// an explicit acknowledge, never by a read. If the process dies between
// render and acknowledge the reward is shown again.
type PendingReward struct {
	StudentID string
	Amount    int
	Reasons   []string
	Timestamp time.Time
}
