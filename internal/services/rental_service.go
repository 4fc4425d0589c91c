package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"tecnobra-backend/internal/metrics"
	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"
	"tecnobra-backend/internal/timeutil"

	"github.com/google/uuid"
)

type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

// PeriodRange resolves a report period to an inclusive [start, end] range.
// Weeks start on Sunday. A custom range ends at the end of its last day.
func PeriodRange(p Period, from, to, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	switch p {
	case PeriodToday, "":
		return timeutil.StartOfDay(now, loc), timeutil.EndOfDay(now, loc), nil
	case PeriodWeek:
		start := timeutil.StartOfWeek(now, loc)
		return start, timeutil.EndOfDay(start.AddDate(0, 0, 6), loc), nil
	case PeriodMonth:
		start := timeutil.StartOfMonth(now, loc)
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond), nil
	case PeriodCustom:
		if from.IsZero() || to.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: custom period needs start and end", ErrValidation)
		}
		start, end := timeutil.StartOfDay(from, loc), timeutil.EndOfDay(to, loc)
		if end.Before(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end before start", ErrValidation)
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown period %q", ErrValidation, p)
}

// RentalAction is what a machine label scan did
type RentalAction string

const (
	RentalActionStart RentalAction = "start"
	RentalActionStop  RentalAction = "stop"
)

type RentalScanResult struct {
	Action  RentalAction         `json:"action"`
	Machine models.RentalMachine `json:"machine"`
	Session *models.WorkSession  `json:"session,omitempty"`
}

type RentalService struct {
	Store    store.Store
	Location *time.Location

	mu sync.Mutex
}

func NewRentalService(st store.Store) *RentalService {
	return &RentalService{Store: st}
}

func (s *RentalService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return timeutil.Location()
}

// AccruedValue is the rental cost of the committed hours
func AccruedValue(m *models.RentalMachine) float64 {
	return m.TotalHours * m.HourlyRate
}

// elapsedMinutes floors to whole minutes and never goes negative
func elapsedMinutes(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func (s *RentalService) load(ctx context.Context) ([]models.RentalMachine, error) {
	return store.LoadCollection[models.RentalMachine](ctx, s.Store, store.KeyRentalMachines)
}

// mutate applies fn to one machine and saves the collection only if fn succeeds
func (s *RentalService) mutate(ctx context.Context, id string, fn func(m *models.RentalMachine) error) (*models.RentalMachine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range machines {
		if machines[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: machine %s", ErrNotFound, id)
	}
	if err := fn(&machines[idx]); err != nil {
		return nil, err
	}
	if err := store.SaveCollection(ctx, s.Store, store.KeyRentalMachines, machines); err != nil {
		return nil, err
	}
	m := machines[idx]
	return &m, nil
}

func startMachine(m *models.RentalMachine, now time.Time) error {
	switch m.Status {
	case models.MachineWorking:
		return ErrAlreadyRunning
	case models.MachineOffline:
		return ErrMachineOffline
	}
	start := now
	m.Status = models.MachineWorking
	m.CurrentSessionStart = &start
	return nil
}

func stopMachine(m *models.RentalMachine, now time.Time, loc *time.Location) (*models.WorkSession, error) {
	if m.Status != models.MachineWorking || m.CurrentSessionStart == nil {
		return nil, ErrNotRunning
	}
	start := *m.CurrentSessionStart
	minutes := elapsedMinutes(start, now)
	session := models.WorkSession{
		ID:              uuid.NewString(),
		StartTime:       start,
		EndTime:         now,
		DurationMinutes: minutes,
		Operator:        m.Operator,
		Date:            now.In(loc).Format(timeutil.DateLayout),
	}
	m.Sessions = append(m.Sessions, session)
	m.TotalHours += float64(minutes) / 60
	m.CurrentSessionStart = nil
	m.Status = models.MachineIdle
	return &session, nil
}

// Start opens a session. Only an idle machine can start.
func (s *RentalService) Start(ctx context.Context, machineID string, now time.Time) (*models.RentalMachine, error) {
	m, err := s.mutate(ctx, machineID, func(m *models.RentalMachine) error {
		return startMachine(m, now)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Rental] %s started", m.Name)
	return m, nil
}

// Stop commits the running session: one WorkSession appended, its whole
// minutes folded into TotalHours, and the machine back to idle.
func (s *RentalService) Stop(ctx context.Context, machineID string, now time.Time) (*models.RentalMachine, *models.WorkSession, error) {
	var session *models.WorkSession
	m, err := s.mutate(ctx, machineID, func(m *models.RentalMachine) error {
		var err error
		session, err = stopMachine(m, now, s.loc())
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.RentalLiveMinutes.DeleteLabelValues(m.ID)
	log.Printf("[Rental] %s stopped after %d min", m.Name, session.DurationMinutes)
	return m, session, nil
}

// RegisterScan toggles the machine on the label between working and idle
func (s *RentalService) RegisterScan(ctx context.Context, token string, now time.Time) (res *RentalScanResult, err error) {
	defer func() { metrics.ObserveScan("rental", err) }()

	p, err := qrcode.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	var ref qrcode.Ref
	switch v := p.(type) {
	case qrcode.MachineTag:
		ref = v.Ref()
	case qrcode.Untagged:
		ref = v.Ref()
	default:
		return nil, fmt.Errorf("%w: not a machine label", ErrInvalidReference)
	}

	res = &RentalScanResult{}
	m, err := s.mutate(ctx, ref.ID, func(m *models.RentalMachine) error {
		if m.Status == models.MachineWorking {
			res.Action = RentalActionStop
			session, err := stopMachine(m, now, s.loc())
			res.Session = session
			return err
		}
		res.Action = RentalActionStart
		return startMachine(m, now)
	})
	if err != nil {
		return nil, err
	}
	if res.Action == RentalActionStop {
		metrics.RentalLiveMinutes.DeleteLabelValues(m.ID)
	}
	res.Machine = *m
	log.Printf("[Rental] scan %s %s", m.Name, res.Action)
	return res, nil
}

// SetOffline takes an idle machine out of service
func (s *RentalService) SetOffline(ctx context.Context, machineID string) (*models.RentalMachine, error) {
	return s.mutate(ctx, machineID, func(m *models.RentalMachine) error {
		if m.Status == models.MachineWorking {
			return fmt.Errorf("%w: stop the machine first", ErrInvalidTransition)
		}
		m.Status = models.MachineOffline
		return nil
	})
}

// SetIdle brings an offline machine back into service
func (s *RentalService) SetIdle(ctx context.Context, machineID string) (*models.RentalMachine, error) {
	return s.mutate(ctx, machineID, func(m *models.RentalMachine) error {
		if m.Status == models.MachineWorking {
			return fmt.Errorf("%w: stop the machine first", ErrInvalidTransition)
		}
		m.Status = models.MachineIdle
		return nil
	})
}

// LiveSnapshot computes display-only running time. It never writes.
func (s *RentalService) LiveSnapshot(ctx context.Context, now time.Time) ([]models.LiveMachine, error) {
	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.LiveMachine{}
	for _, m := range machines {
		if m.Status != models.MachineWorking || m.CurrentSessionStart == nil {
			continue
		}
		elapsed := elapsedMinutes(*m.CurrentSessionStart, now)
		out = append(out, models.LiveMachine{
			MachineID:      m.ID,
			Name:           m.Name,
			Operator:       m.Operator,
			StartedAt:      *m.CurrentSessionStart,
			ElapsedMinutes: elapsed,
			DisplayHours:   m.TotalHours + float64(elapsed)/60,
		})
	}
	return out, nil
}

// Register adds a machine and issues its label
func (s *RentalService) Register(ctx context.Context, req *models.CreateRentalMachineRequest, now time.Time) (*models.RentalMachine, error) {
	if err := validateMachine(req); err != nil {
		return nil, err
	}

	m := models.RentalMachine{
		ID:         strconv.FormatInt(now.UnixMilli(), 10),
		Name:       strings.TrimSpace(req.Name),
		Type:       strings.TrimSpace(req.Type),
		Model:      strings.TrimSpace(req.Model),
		Supplier:   strings.TrimSpace(req.Supplier),
		HourlyRate: req.HourlyRate,
		Plate:      strings.TrimSpace(req.Plate),
		Operator:   strings.TrimSpace(req.Operator),
		EntryDate:  now,
		Status:     models.MachineIdle,
		Sessions:   []models.WorkSession{},
	}
	token, err := qrcode.Encode(qrcode.MachineTag{ID: m.ID, Name: m.Name, Type: m.Type})
	if err != nil {
		return nil, err
	}
	m.QRCode = token

	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range machines {
		if existing.ID == m.ID {
			return nil, fmt.Errorf("%w: machine %s", ErrDuplicate, m.ID)
		}
	}
	if err := store.SaveCollection(ctx, s.Store, store.KeyRentalMachines, append(machines, m)); err != nil {
		return nil, err
	}
	log.Printf("[Rental] Registered %s (%s)", m.Name, m.Plate)
	return &m, nil
}

func validateMachine(req *models.CreateRentalMachineRequest) error {
	var missing []string
	if len([]rune(strings.TrimSpace(req.Name))) < 2 {
		missing = append(missing, "name")
	}
	if len([]rune(strings.TrimSpace(req.Type))) < 2 {
		missing = append(missing, "type")
	}
	if len([]rune(strings.TrimSpace(req.Model))) < 2 {
		missing = append(missing, "model")
	}
	if len([]rune(strings.TrimSpace(req.Supplier))) < 2 {
		missing = append(missing, "supplier")
	}
	if req.HourlyRate <= 0 || math.IsNaN(req.HourlyRate) || math.IsInf(req.HourlyRate, 0) {
		missing = append(missing, "hourlyRate")
	}
	if len([]rune(strings.TrimSpace(req.Plate))) < 3 {
		missing = append(missing, "plate")
	}
	if len([]rune(strings.TrimSpace(req.Operator))) < 2 {
		missing = append(missing, "operator")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: invalid %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// List filters by name, type, supplier or plate
func (s *RentalService) List(ctx context.Context, search string) ([]models.RentalMachine, error) {
	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return machines, nil
	}
	out := []models.RentalMachine{}
	for _, m := range machines {
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Type), q) ||
			strings.Contains(strings.ToLower(m.Supplier), q) ||
			strings.Contains(strings.ToLower(m.Plate), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *RentalService) Get(ctx context.Context, id string) (*models.RentalMachine, error) {
	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range machines {
		if machines[i].ID == id {
			return &machines[i], nil
		}
	}
	return nil, fmt.Errorf("%w: machine %s", ErrNotFound, id)
}

// Delete removes a machine with its sessions. A running machine must be stopped first.
func (s *RentalService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := s.load(ctx)
	if err != nil {
		return err
	}
	out := machines[:0]
	found := false
	for _, m := range machines {
		if m.ID != id {
			out = append(out, m)
			continue
		}
		found = true
		if m.Status == models.MachineWorking {
			return fmt.Errorf("%w: stop the machine first", ErrInvalidTransition)
		}
	}
	if !found {
		return fmt.Errorf("%w: machine %s", ErrNotFound, id)
	}
	return store.SaveCollection(ctx, s.Store, store.KeyRentalMachines, out)
}

// SessionsInPeriod returns committed sessions that ended inside the period
func (s *RentalService) SessionsInPeriod(ctx context.Context, period Period, from, to, now time.Time) ([]models.MachineSession, error) {
	start, end, err := PeriodRange(period, from, to, now, s.loc())
	if err != nil {
		return nil, err
	}
	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.MachineSession{}
	for _, m := range machines {
		for _, sess := range m.Sessions {
			if sess.EndTime.Before(start) || sess.EndTime.After(end) {
				continue
			}
			out = append(out, models.MachineSession{
				MachineID:   m.ID,
				MachineName: m.Name,
				HourlyRate:  m.HourlyRate,
				Session:     sess,
			})
		}
	}
	return out, nil
}

// Summaries totals every machine over the period, machines without sessions included
func (s *RentalService) Summaries(ctx context.Context, period Period, from, to, now time.Time) ([]models.RentalSummary, error) {
	start, end, err := PeriodRange(period, from, to, now, s.loc())
	if err != nil {
		return nil, err
	}
	machines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.RentalSummary, 0, len(machines))
	for _, m := range machines {
		sum := models.RentalSummary{
			MachineID: m.ID,
			Machine:   m.Name,
			Supplier:  m.Supplier,
			Operator:  m.Operator,
			Plate:     m.Plate,
			Type:      m.Type,
			Model:     m.Model,
			Rate:      m.HourlyRate,
			Sessions:  []models.WorkSession{},
		}
		for _, sess := range m.Sessions {
			if sess.EndTime.Before(start) || sess.EndTime.After(end) {
				continue
			}
			sum.TotalMinutes += sess.DurationMinutes
			sum.Sessions = append(sum.Sessions, sess)
		}
		sum.Hours = float64(sum.TotalMinutes) / 60
		sum.Cost = sum.Hours * sum.Rate
		out = append(out, sum)
	}
	return out, nil
}
