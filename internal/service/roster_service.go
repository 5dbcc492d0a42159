package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"classcoins/internal/events"
	"classcoins/internal/models"
	"classcoins/internal/validation"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrGroupHasMembers = errors.New("group still has member students")
)

// RosterService manages students and groups. Students are soft-deleted
// so transactions never point at a missing record; groups refuse
// deletion while members exist.
type RosterService struct {
	students StudentStore
	groups   GroupStore
	remote   RemoteLedger
	bus      *events.Bus
	clock    Clock
}

// NewRosterService creates a roster service. remote may be nil; when
// set, identity edits are written back to the system of record.
func NewRosterService(students StudentStore, groups GroupStore, remote RemoteLedger, bus *events.Bus, clock Clock) *RosterService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RosterService{students: students, groups: groups, remote: remote, bus: bus, clock: clock}
}

// CreateStudent adds a student to the roster.
func (s *RosterService) CreateStudent(name, groupID string) (*models.Student, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if groupID != "" {
		group, err := s.groups.GetByID(groupID)
		if err != nil {
			return nil, fmt.Errorf("failed to load group: %w", err)
		}
		if group == nil {
			return nil, ErrGroupNotFound
		}
	}

	student := &models.Student{
		ID:      uuid.New().String(),
		Name:    name,
		GroupID: groupID,
		Role:    models.RoleStudent,
	}
	if err := s.students.Upsert(student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	// Announce the new student to the remote so reconciliation sees them
	// on both sides. Fire and forget; until the write lands the cycle
	// refreshes their cached balance from the local log alone.
	if s.remote != nil {
		if err := s.remote.WriteStudent(context.Background(), *student); err != nil {
			log.Printf("Failed to write student %s to remote: %v", student.ID, err)
		}
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindStudents, StudentID: student.ID, At: s.clock.Now().UTC()})
	return student, nil
}

// GetStudent loads one student.
func (s *RosterService) GetStudent(id string) (*models.Student, error) {
	student, err := s.students.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// ListStudents returns the active roster, optionally narrowed to a group.
func (s *RosterService) ListStudents(groupID string) ([]models.Student, error) {
	if groupID == "" {
		return s.students.List()
	}
	return s.students.ListByGroup(groupID)
}

// UpdateStudent applies a partial update to a student's identity fields.
// Coins and total score are never touched here; those flow through the
// ledger and the reconciliation loop.
func (s *RosterService) UpdateStudent(id string, patch models.StudentPatch) (*models.Student, error) {
	student, err := s.GetStudent(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := validation.ValidateName(*patch.Name); err != nil {
			return nil, err
		}
		student.Name = *patch.Name
	}
	if patch.GroupID != nil {
		if *patch.GroupID != "" {
			group, err := s.groups.GetByID(*patch.GroupID)
			if err != nil {
				return nil, fmt.Errorf("failed to load group: %w", err)
			}
			if group == nil {
				return nil, ErrGroupNotFound
			}
		}
		student.GroupID = *patch.GroupID
	}
	if patch.Role != nil {
		if err := validation.ValidateRole(*patch.Role); err != nil {
			return nil, err
		}
		student.Role = *patch.Role
	}

	if err := s.students.Upsert(student); err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	// Identity fields are non-critical for the ledger; the remote
	// write-back is fire and forget and the next reconciliation cycle
	// resolves any disagreement.
	if s.remote != nil {
		if err := s.remote.WriteStudent(context.Background(), *student); err != nil {
			log.Printf("Failed to write student %s to remote: %v", id, err)
		}
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindStudents, StudentID: id, At: s.clock.Now().UTC()})
	return student, nil
}

// DeleteStudent soft-deletes a student. Their transactions stay in the
// log so balances of past periods remain reproducible.
func (s *RosterService) DeleteStudent(id string) error {
	if _, err := s.GetStudent(id); err != nil {
		return err
	}
	if err := s.students.SoftDelete(id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	s.bus.Publish(events.ChangeEvent{Kind: events.KindStudents, StudentID: id, At: s.clock.Now().UTC()})
	return nil
}

// CreateGroup adds a group.
func (s *RosterService) CreateGroup(name, schedule string) (*models.Group, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	group := &models.Group{
		ID:       uuid.New().String(),
		Name:     name,
		Schedule: schedule,
	}
	if err := s.groups.Create(group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

// ListGroups returns all groups.
func (s *RosterService) ListGroups() ([]models.Group, error) {
	return s.groups.List()
}

// UpdateGroup renames a group or changes its schedule.
func (s *RosterService) UpdateGroup(id, name, schedule string) (*models.Group, error) {
	group, err := s.groups.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	group.Name = name
	group.Schedule = schedule
	if err := s.groups.Update(group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group. The delete is refused while any active
// student still references it.
func (s *RosterService) DeleteGroup(id string) error {
	group, err := s.groups.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return ErrGroupNotFound
	}

	members, err := s.students.CountByGroup(id)
	if err != nil {
		return fmt.Errorf("failed to count group members: %w", err)
	}
	if members > 0 {
		return ErrGroupHasMembers
	}

	return s.groups.Delete(id)
}
