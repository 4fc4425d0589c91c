package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"
)

func newRental(t *testing.T) (*RentalService, *models.RentalMachine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	s := NewRentalService(st)
	s.Location = brt
	m, err := s.Register(context.Background(), &models.CreateRentalMachineRequest{
		Name:       "Retroescavadeira",
		Type:       "Escavação",
		Model:      "CAT 416F",
		Supplier:   "Locar",
		HourlyRate: 120,
		Plate:      "ABC1D23",
		Operator:   "Carlos",
	}, at(10, 7, 0))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return s, m, st
}

func TestRentalStartStop(t *testing.T) {
	ctx := context.Background()
	s, m, _ := newRental(t)

	started, err := s.Start(ctx, m.ID, at(10, 9, 0))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != models.MachineWorking || started.CurrentSessionStart == nil || !started.CurrentSessionStart.Equal(at(10, 9, 0)) {
		t.Fatalf("unexpected started machine %+v", started)
	}

	stopped, session, err := s.Stop(ctx, m.ID, at(10, 9, 30))
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if session.DurationMinutes != 30 {
		t.Fatalf("expected 30 minutes, got %d", session.DurationMinutes)
	}
	if stopped.TotalHours != 0.5 {
		t.Fatalf("expected 0.5 hours, got %v", stopped.TotalHours)
	}
	if stopped.Status != models.MachineIdle || stopped.CurrentSessionStart != nil {
		t.Fatalf("expected idle with no session start, got %+v", stopped)
	}
	if len(stopped.Sessions) != 1 || stopped.Sessions[0].Operator != "Carlos" || stopped.Sessions[0].Date != "2024-05-10" {
		t.Fatalf("unexpected sessions %+v", stopped.Sessions)
	}
	if AccruedValue(stopped) != 60 {
		t.Fatalf("expected accrued 60, got %v", AccruedValue(stopped))
	}
}

func TestRentalDurationFloorsToMinutes(t *testing.T) {
	ctx := context.Background()
	s, m, _ := newRental(t)

	s.Start(ctx, m.ID, at(10, 9, 0))
	_, session, err := s.Stop(ctx, m.ID, at(10, 9, 0).Add(59*time.Second))
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if session.DurationMinutes != 0 {
		t.Fatalf("expected 0 minutes, got %d", session.DurationMinutes)
	}

	s.Start(ctx, m.ID, at(10, 10, 0))
	// clock skew
	_, session, err = s.Stop(ctx, m.ID, at(10, 9, 0))
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if session.DurationMinutes != 0 {
		t.Fatalf("expected negative duration clamped to 0, got %d", session.DurationMinutes)
	}
}

func TestRentalStopTwice(t *testing.T) {
	ctx := context.Background()
	s, m, st := newRental(t)

	s.Start(ctx, m.ID, at(10, 9, 0))
	s.Stop(ctx, m.ID, at(10, 10, 0))
	before, _ := st.Load(ctx, store.KeyRentalMachines)

	if _, _, err := s.Stop(ctx, m.ID, at(10, 11, 0)); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	after, _ := st.Load(ctx, store.KeyRentalMachines)
	if string(before) != string(after) {
		t.Fatalf("expected machine untouched after failed stop")
	}
	got, _ := s.Get(ctx, m.ID)
	if got.TotalHours != 1 || len(got.Sessions) != 1 {
		t.Fatalf("unexpected totals %v / %d sessions", got.TotalHours, len(got.Sessions))
	}
}

func TestRentalIllegalTransitions(t *testing.T) {
	ctx := context.Background()
	s, m, _ := newRental(t)

	s.Start(ctx, m.ID, at(10, 9, 0))
	if _, err := s.Start(ctx, m.ID, at(10, 9, 5)); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if _, err := s.SetOffline(ctx, m.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := s.Delete(ctx, m.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected delete of running machine to fail, got %v", err)
	}
	got, _ := s.Get(ctx, m.ID)
	if !got.CurrentSessionStart.Equal(at(10, 9, 0)) {
		t.Fatalf("expected original start kept, got %v", got.CurrentSessionStart)
	}

	s.Stop(ctx, m.ID, at(10, 9, 10))
	if _, err := s.SetOffline(ctx, m.ID); err != nil {
		t.Fatalf("offline: %v", err)
	}
	if _, err := s.Start(ctx, m.ID, at(10, 9, 20)); !errors.Is(err, ErrMachineOffline) {
		t.Fatalf("expected ErrMachineOffline, got %v", err)
	}
	if _, _, err := s.Stop(ctx, m.ID, at(10, 9, 20)); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, err := s.SetIdle(ctx, m.ID); err != nil {
		t.Fatalf("idle: %v", err)
	}
	if _, err := s.Start(ctx, "missing", at(10, 9, 30)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRentalLiveSnapshotDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	s, m, st := newRental(t)

	s.Start(ctx, m.ID, at(10, 9, 0))
	before, _ := st.Load(ctx, store.KeyRentalMachines)

	for _, minute := range []int{1, 2, 45} {
		live, err := s.LiveSnapshot(ctx, at(10, 9, minute))
		if err != nil {
			t.Fatalf("live: %v", err)
		}
		if len(live) != 1 || live[0].ElapsedMinutes != minute {
			t.Fatalf("expected %d elapsed minutes, got %+v", minute, live)
		}
		if live[0].DisplayHours != float64(minute)/60 {
			t.Fatalf("unexpected display hours %v", live[0].DisplayHours)
		}
	}

	after, _ := st.Load(ctx, store.KeyRentalMachines)
	if string(before) != string(after) {
		t.Fatalf("live snapshot must not write")
	}

	_, session, _ := s.Stop(ctx, m.ID, at(10, 10, 0))
	if session.DurationMinutes != 60 {
		t.Fatalf("expected ticks not to double count, got %d", session.DurationMinutes)
	}
}

func TestRentalScanToggles(t *testing.T) {
	ctx := context.Background()
	s, m, _ := newRental(t)

	res, err := s.RegisterScan(ctx, m.QRCode, at(10, 9, 0))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Action != RentalActionStart || res.Machine.Status != models.MachineWorking {
		t.Fatalf("expected start, got %+v", res)
	}

	res, err = s.RegisterScan(ctx, m.QRCode, at(10, 11, 15))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Action != RentalActionStop || res.Session == nil || res.Session.DurationMinutes != 135 {
		t.Fatalf("expected 135 minute stop, got %+v", res)
	}

	equipment, _ := qrcode.Encode(qrcode.EquipmentTag{ID: m.ID, Name: "x"})
	if _, err := s.RegisterScan(ctx, equipment, at(10, 12, 0)); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestRentalRegisterValidation(t *testing.T) {
	s := NewRentalService(store.NewMemoryStore())
	_, err := s.Register(context.Background(), &models.CreateRentalMachineRequest{Name: "R", HourlyRate: 0}, at(10, 7, 0))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPeriodRange(t *testing.T) {
	now := at(15, 14, 0) // Wednesday

	tests := []struct {
		name       string
		period     Period
		from, to   time.Time
		start, end time.Time
		wantErr    bool
	}{
		{name: "today", period: PeriodToday, start: at(15, 0, 0), end: at(15, 23, 59).Add(59*time.Second + 999999999)},
		{name: "week starts sunday", period: PeriodWeek, start: at(12, 0, 0), end: at(18, 23, 59).Add(59*time.Second + 999999999)},
		{name: "month", period: PeriodMonth, start: at(1, 0, 0), end: at(31, 23, 59).Add(59*time.Second + 999999999)},
		{name: "custom", period: PeriodCustom, from: at(3, 10, 0), to: at(4, 1, 0), start: at(3, 0, 0), end: at(4, 23, 59).Add(59*time.Second + 999999999)},
		{name: "custom missing end", period: PeriodCustom, from: at(3, 0, 0), wantErr: true},
		{name: "custom reversed", period: PeriodCustom, from: at(5, 0, 0), to: at(3, 0, 0), wantErr: true},
		{name: "unknown", period: "year", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := PeriodRange(tt.period, tt.from, tt.to, now, brt)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !start.Equal(tt.start) || !end.Equal(tt.end) {
				t.Fatalf("expected [%v, %v], got [%v, %v]", tt.start, tt.end, start, end)
			}
		})
	}
}

func TestRentalSessionsInPeriod(t *testing.T) {
	ctx := context.Background()
	s, m, _ := newRental(t)

	s.Start(ctx, m.ID, at(10, 9, 0))
	s.Stop(ctx, m.ID, at(10, 10, 0))
	s.Start(ctx, m.ID, at(11, 9, 0))
	s.Stop(ctx, m.ID, at(11, 9, 30))

	today, err := s.SessionsInPeriod(ctx, PeriodToday, time.Time{}, time.Time{}, at(11, 18, 0))
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(today) != 1 || today[0].Session.DurationMinutes != 30 || today[0].MachineName != "Retroescavadeira" {
		t.Fatalf("unexpected sessions %+v", today)
	}

	summaries, err := s.Summaries(ctx, PeriodCustom, at(10, 0, 0), at(11, 0, 0), at(11, 18, 0))
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 1 || summaries[0].TotalMinutes != 90 || summaries[0].Cost != 180 {
		t.Fatalf("unexpected summary %+v", summaries)
	}
}
