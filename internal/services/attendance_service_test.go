package services

import (
	"context"
	"errors"
	"testing"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/store"
)

func newAttendance() (*AttendanceService, *recordingNotifier) {
	n := &recordingNotifier{}
	s := NewAttendanceService(store.NewMemoryStore(), n)
	s.Location = brt
	return s, n
}

func TestAttendanceAlternatesWithinDay(t *testing.T) {
	ctx := context.Background()
	s, n := newAttendance()
	token := employeeToken(t, "1", "João")

	steps := []struct {
		hour, min int
		want      models.AttendanceType
	}{
		{8, 0, models.AttendanceEntrance},
		{17, 0, models.AttendanceExit},
		{17, 5, models.AttendanceEntrance},
	}

	for _, step := range steps {
		rec, err := s.RegisterScan(ctx, token, at(10, step.hour, step.min))
		if err != nil {
			t.Fatalf("scan at %02d:%02d: %v", step.hour, step.min, err)
		}
		if rec.Type != step.want {
			t.Fatalf("at %02d:%02d expected %s, got %s", step.hour, step.min, step.want, rec.Type)
		}
		if rec.EmployeeID != "1" || rec.EmployeeName != "João" {
			t.Fatalf("unexpected record %+v", rec)
		}
	}
	if len(n.messages) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(n.messages))
	}

	state, err := s.CurrentState(ctx, "1", at(10, 18, 0))
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != models.PresenceInside {
		t.Fatalf("expected inside, got %s", state)
	}
}

func TestAttendanceDayReset(t *testing.T) {
	ctx := context.Background()
	s, _ := newAttendance()
	token := employeeToken(t, "1", "João")

	if _, err := s.RegisterScan(ctx, token, at(10, 8, 0)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	// no exit on the 10th; the 11th starts fresh
	rec, err := s.RegisterScan(ctx, token, at(11, 7, 30))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rec.Type != models.AttendanceEntrance {
		t.Fatalf("expected entrance on new day, got %s", rec.Type)
	}

	all, _ := s.ListByEmployee(ctx, "1", 0)
	if len(all) != 2 {
		t.Fatalf("expected yesterday's entrance to stay untouched, got %d records", len(all))
	}
}

func TestAttendanceEmployeesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s, _ := newAttendance()

	s.RegisterScan(ctx, employeeToken(t, "1", "João"), at(10, 8, 0))
	rec, err := s.RegisterScan(ctx, employeeToken(t, "2", "Maria"), at(10, 8, 5))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rec.Type != models.AttendanceEntrance {
		t.Fatalf("expected entrance for a different employee, got %s", rec.Type)
	}

	inside, _ := s.InsideCount(ctx, at(10, 9, 0))
	if inside != 2 {
		t.Fatalf("expected 2 inside, got %d", inside)
	}
}

func TestNextAttendanceType(t *testing.T) {
	ts := at(10, 12, 0)

	tests := []struct {
		name    string
		records []models.AttendanceRecord
		want    models.AttendanceType
	}{
		{"no records", nil, models.AttendanceEntrance},
		{"last is entrance", []models.AttendanceRecord{
			{EmployeeID: "1", Type: models.AttendanceEntrance, Timestamp: at(10, 8, 0)},
		}, models.AttendanceExit},
		{"greatest timestamp wins over position", []models.AttendanceRecord{
			{EmployeeID: "1", Type: models.AttendanceExit, Timestamp: at(10, 11, 0)},
			{EmployeeID: "1", Type: models.AttendanceEntrance, Timestamp: at(10, 8, 0)},
		}, models.AttendanceEntrance},
		{"tie goes to later position", []models.AttendanceRecord{
			{EmployeeID: "1", Type: models.AttendanceExit, Timestamp: at(10, 9, 0)},
			{EmployeeID: "1", Type: models.AttendanceEntrance, Timestamp: at(10, 9, 0)},
		}, models.AttendanceExit},
		{"other employee ignored", []models.AttendanceRecord{
			{EmployeeID: "2", Type: models.AttendanceEntrance, Timestamp: at(10, 8, 0)},
		}, models.AttendanceEntrance},
		{"yesterday ignored", []models.AttendanceRecord{
			{EmployeeID: "1", Type: models.AttendanceEntrance, Timestamp: at(9, 22, 0)},
		}, models.AttendanceEntrance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextAttendanceType(tt.records, "1", ts, brt); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAttendanceRejectsInvalidTokens(t *testing.T) {
	ctx := context.Background()
	s, n := newAttendance()

	tokens := map[string]string{
		"not json":        "JOAO-1",
		"missing name":    `{"id":"1"}`,
		"equipment label": equipmentToken(t, "9", "Furadeira"),
	}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			if _, err := s.RegisterScan(ctx, token, at(10, 8, 0)); !errors.Is(err, ErrInvalidReference) {
				t.Fatalf("expected ErrInvalidReference, got %v", err)
			}
		})
	}

	today, _ := s.ListToday(ctx, at(10, 8, 0))
	if len(today) != 0 {
		t.Fatalf("expected nothing written, got %d records", len(today))
	}
	if len(n.messages) != 0 {
		t.Fatalf("expected no notifications")
	}
}

func TestAttendanceSaveFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{MemoryStore: store.NewMemoryStore()}
	s := NewAttendanceService(st, nil)
	s.Location = brt

	if _, err := s.RegisterScan(ctx, employeeToken(t, "1", "João"), at(10, 8, 0)); err == nil {
		t.Fatalf("expected save error")
	}
	raw, _ := st.MemoryStore.Load(ctx, store.KeyCheckinRecords)
	if raw != nil {
		t.Fatalf("expected no stored records, got %s", raw)
	}
}

func TestAttendanceListRange(t *testing.T) {
	ctx := context.Background()
	s, _ := newAttendance()
	token := employeeToken(t, "1", "João")
	s.RegisterScan(ctx, token, at(10, 8, 0))
	s.RegisterScan(ctx, token, at(11, 8, 0))
	s.RegisterScan(ctx, token, at(12, 8, 0))

	got, err := s.ListRange(ctx, at(11, 0, 0), at(12, 23, 59))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 || !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Fatalf("expected 2 records oldest first, got %+v", got)
	}
}
