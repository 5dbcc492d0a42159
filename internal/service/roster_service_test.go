package service

import (
	"errors"
	"testing"
	"time"

	"classcoins/internal/events"
	"classcoins/internal/models"
)

func newTestRoster(t *testing.T) (*RosterService, *fakeStudentStore, *fakeGroupStore, *fakeRemote) {
	t.Helper()
	students := newFakeStudentStore()
	groups := newFakeGroupStore()
	remote := newFakeRemote()
	clock := newFakeClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	roster := NewRosterService(students, groups, remote, events.NewBus(), clock)
	return roster, students, groups, remote
}

func TestCreateStudent(t *testing.T) {
	roster, _, groups, _ := newTestRoster(t)
	groups.Create(&models.Group{ID: "g1", Name: "Morning class"})

	student, err := roster.CreateStudent("Ada", "g1")
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if student.Role != models.RoleStudent {
		t.Errorf("role = %q, want student", student.Role)
	}

	if _, err := roster.CreateStudent("Bo", "missing-group"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("error = %v, want ErrGroupNotFound", err)
	}
	if _, err := roster.CreateStudent("", "g1"); err == nil {
		t.Error("CreateStudent accepted an empty name")
	}
}

func TestCreateStudentWritesBackToRemote(t *testing.T) {
	roster, _, _, remote := newTestRoster(t)

	student, err := roster.CreateStudent("Ada", "")
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if len(remote.writtenBack) != 1 || remote.writtenBack[0].ID != student.ID {
		t.Errorf("remote write-back = %+v", remote.writtenBack)
	}

	// A remote failure never blocks roster changes.
	remote.writeStuErr = errors.New("remote down")
	if _, err := roster.CreateStudent("Bo", ""); err != nil {
		t.Fatalf("CreateStudent with remote down: %v", err)
	}
}

func TestUpdateStudentWritesBackToRemote(t *testing.T) {
	roster, students, _, remote := newTestRoster(t)
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", Role: models.RoleStudent})

	name := "Ada L."
	updated, err := roster.UpdateStudent("s1", models.StudentPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}
	if updated.Name != "Ada L." {
		t.Errorf("name = %q", updated.Name)
	}
	if len(remote.writtenBack) != 1 || remote.writtenBack[0].Name != "Ada L." {
		t.Errorf("remote write-back = %+v", remote.writtenBack)
	}
}

func TestUpdateStudentSurvivesRemoteFailure(t *testing.T) {
	roster, students, _, remote := newTestRoster(t)
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", Role: models.RoleStudent})
	remote.writeStuErr = errors.New("remote down")

	name := "Ada L."
	if _, err := roster.UpdateStudent("s1", models.StudentPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}
	student, _ := students.GetByID("s1")
	if student.Name != "Ada L." {
		t.Error("local update lost on remote failure")
	}
}

func TestDeleteStudentIsSoft(t *testing.T) {
	roster, students, _, _ := newTestRoster(t)
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", Role: models.RoleStudent})

	if err := roster.DeleteStudent("s1"); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}

	// The record survives for the transaction log; listings skip it.
	student, _ := students.GetByID("s1")
	if student == nil || !student.Deleted {
		t.Errorf("student = %+v, want soft-deleted record", student)
	}
	active, _ := roster.ListStudents("")
	if len(active) != 0 {
		t.Errorf("active roster = %d, want 0", len(active))
	}
}

func TestDeleteGroupRefusedWhileMembersExist(t *testing.T) {
	roster, students, groups, _ := newTestRoster(t)
	groups.Create(&models.Group{ID: "g1", Name: "Morning class"})
	students.Upsert(&models.Student{ID: "s1", Name: "Ada", GroupID: "g1", Role: models.RoleStudent})

	if err := roster.DeleteGroup("g1"); !errors.Is(err, ErrGroupHasMembers) {
		t.Errorf("error = %v, want ErrGroupHasMembers", err)
	}

	// Once the member is gone the delete goes through.
	students.SoftDelete("s1")
	if err := roster.DeleteGroup("g1"); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	if g, _ := groups.GetByID("g1"); g != nil {
		t.Error("group still present after delete")
	}
}
