package models

import "time"

// Account is a login identity. Students map to a Student record via
// StudentID; teacher/parent/admin accounts leave it empty.
type Account struct {
	ID            int64
	Username      string
	PasswordHash  string
	Role          Role
	StudentID     string
	GuardianEmail string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
