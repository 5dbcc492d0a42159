package models

import "time"

// Role identifies what a person can do in the system
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return true
	}
	return false
}

// Student represents a tracked learner. Coins is a cached, derived balance:
// the transaction log is the authority and reconciliation recomputes it.
type Student struct {
	ID         string
	Name       string
	GroupID    string
	Role       Role
	Coins      int
	TotalScore int
	// LastRewardID is the id of the most recent remote reward descriptor
	// already mirrored into the local pending-reward queue. It never leaves
	// the local cache.
	LastRewardID string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayCoins clamps the cached balance for presentation. The underlying
// log is never rewritten to enforce non-negativity.
func (s *Student) DisplayCoins() int {
	if s.Coins < 0 {
		return 0
	}
	return s.Coins
}

// Group is a class/group of students. Groups with members cannot be deleted.
type Group struct {
	ID        string
	Name      string
	Schedule  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemoteReward is the reward descriptor a remote student record may carry.
// It stays on the remote record until the write-back clears it.
type RemoteReward struct {
	ID      string   `json:"id"`
	Amount  int      `json:"amount"`
	Reasons []string `json:"reasons"`
}

// RemoteStudent is a student record as fetched from the system of record.
type RemoteStudent struct {
	Student
	Reward *RemoteReward
}

// StudentPatch carries the writable non-coin fields of a student.
// Nil fields are left untouched.
type StudentPatch struct {
	Name       *string `json:"name,omitempty"`
	GroupID    *string `json:"group_id,omitempty"`
	Role       *Role   `json:"role,omitempty"`
	TotalScore *int    `json:"total_score,omitempty"`
}
