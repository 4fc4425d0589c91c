package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"tecnobra-backend/internal/cache"
	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/store"
)

func rec(id string, typ models.AttendanceType, ts time.Time) models.AttendanceRecord {
	return models.AttendanceRecord{ID: ts.String(), EmployeeID: id, EmployeeName: "Func " + id, Type: typ, Timestamp: ts}
}

func TestAttendanceDays(t *testing.T) {
	records := []models.AttendanceRecord{
		rec("1", models.AttendanceExit, at(10, 12, 0)),
		rec("1", models.AttendanceEntrance, at(10, 8, 0)),
		rec("1", models.AttendanceEntrance, at(10, 13, 0)),
		rec("1", models.AttendanceExit, at(10, 17, 30)),
		rec("2", models.AttendanceEntrance, at(10, 9, 0)),
		rec("1", models.AttendanceEntrance, at(11, 8, 0)),
	}

	days := AttendanceDays(records, brt)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}

	tests := []struct {
		idx     int
		id      string
		date    string
		minutes int
		open    bool
	}{
		{0, "1", "2024-05-10", 8*60 + 30, false},
		{1, "2", "2024-05-10", 0, true},
		{2, "1", "2024-05-11", 0, true},
	}
	for _, tt := range tests {
		d := days[tt.idx]
		if d.EmployeeID != tt.id || d.Date != tt.date || d.WorkedMinutes != tt.minutes || d.Open != tt.open {
			t.Fatalf("day %d: expected %s %s %d open=%v, got %+v", tt.idx, tt.id, tt.date, tt.minutes, tt.open, d)
		}
	}
	if !days[0].FirstEntrance.Equal(at(10, 8, 0)) || !days[0].LastExit.Equal(at(10, 17, 30)) {
		t.Fatalf("unexpected first/last %v %v", days[0].FirstEntrance, days[0].LastExit)
	}
	if days[1].LastExit != nil {
		t.Fatalf("expected no exit for open day, got %v", days[1].LastExit)
	}
}

func newReportFixture(t *testing.T) *ReportService {
	t.Helper()
	cache.Use(nil)
	st := store.NewMemoryStore()

	attendance := NewAttendanceService(st, nil)
	attendance.Location = brt
	loans := NewLoanService(st, nil)
	rental := NewRentalService(st)
	rental.Location = brt
	employees := NewEmployeeService(st)
	safety := NewSafetyService(st, employees)
	safety.Location = brt
	visits := NewVisitService(st)

	r := NewReportService(attendance, loans, rental, safety, employees, visits)
	r.Location = brt
	return r
}

func TestReportExports(t *testing.T) {
	ctx := context.Background()
	r := newReportFixture(t)

	token := employeeToken(t, "42", "João Silva")
	if _, err := r.Attendance.RegisterScan(ctx, token, at(10, 8, 0)); err != nil {
		t.Fatalf("entrance: %v", err)
	}
	if _, err := r.Attendance.RegisterScan(ctx, token, at(10, 17, 0)); err != nil {
		t.Fatalf("exit: %v", err)
	}

	data, err := r.AttendanceCSV(ctx, PeriodToday, time.Time{}, time.Time{}, at(10, 18, 0))
	if err != nil {
		t.Fatalf("attendance csv: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if rows[1][1] != "João Silva" || rows[1][5] != "540" || rows[1][6] != "9h00" {
		t.Fatalf("unexpected row %v", rows[1])
	}

	emp, _ := EmployeeFromToken(token)
	if _, err := r.Loans.RegisterScan(ctx, emp, equipmentToken(t, "7", "Furadeira"), at(10, 9, 0)); err != nil {
		t.Fatalf("loan: %v", err)
	}

	now := at(10, 18, 0)
	exports := []struct {
		name string
		fn   func() ([]byte, error)
	}{
		{"attendance", func() ([]byte, error) { return r.AttendancePDF(ctx, PeriodToday, time.Time{}, time.Time{}, now) }},
		{"loans", func() ([]byte, error) { return r.LoansPDF(ctx, PeriodWeek, time.Time{}, time.Time{}, now) }},
		{"rental", func() ([]byte, error) { return r.RentalPDF(ctx, PeriodMonth, time.Time{}, time.Time{}, now) }},
		{"safety", func() ([]byte, error) { return r.SafetyPDF(ctx, now) }},
	}
	for _, e := range exports {
		t.Run(e.name, func(t *testing.T) {
			pdf, err := e.fn()
			if err != nil {
				t.Fatalf("pdf: %v", err)
			}
			if !bytes.HasPrefix(pdf, []byte("%PDF")) {
				t.Fatalf("expected PDF output, got %q", pdf[:min(len(pdf), 8)])
			}
		})
	}

	loansCSV, err := r.LoansCSV(ctx, PeriodToday, time.Time{}, time.Time{}, now)
	if err != nil {
		t.Fatalf("loans csv: %v", err)
	}
	loanRows, _ := csv.NewReader(bytes.NewReader(loansCSV)).ReadAll()
	if len(loanRows) != 2 || loanRows[1][0] != "Furadeira" || loanRows[1][5] != "Emprestado" {
		t.Fatalf("unexpected loan rows %v", loanRows)
	}
}

func TestReportRejectsBadPeriod(t *testing.T) {
	r := newReportFixture(t)
	if _, err := r.RentalCSV(context.Background(), PeriodCustom, time.Time{}, time.Time{}, at(10, 8, 0)); err == nil {
		t.Fatal("expected error for custom period without dates")
	}
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	r := newReportFixture(t)

	if _, err := r.Employees.Create(ctx, &models.EmployeeRequest{
		Name: "João Silva", Email: "joao@tecnobra.com", Role: "worker", Department: "Obra",
	}, at(10, 7, 0)); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	token := employeeToken(t, "42", "João Silva")
	if _, err := r.Attendance.RegisterScan(ctx, token, at(10, 8, 0)); err != nil {
		t.Fatalf("entrance: %v", err)
	}
	v, _ := r.Visits.Create(ctx, &models.CreateVisitRequest{
		VisitorName: "Ana", Company: "X", Purpose: "Vistoria", HostEmployee: "Carlos",
	}, at(10, 8, 0))
	if _, err := r.Visits.CheckIn(ctx, v.ID, at(10, 8, 30)); err != nil {
		t.Fatalf("check in: %v", err)
	}

	stats, err := r.Stats(ctx, at(10, 9, 0))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Employees != 1 || stats.ActiveEmployees != 1 || stats.InsideNow != 1 || stats.ActiveVisits != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.OpenLoans != 0 || stats.WorkingMachines != 0 {
		t.Fatalf("expected no loans or machines, got %+v", stats)
	}
}
