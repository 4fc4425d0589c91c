package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"tecnobra-backend/internal/metrics"
	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/notify"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"
	"tecnobra-backend/internal/timeutil"

	"github.com/google/uuid"
)

type AttendanceService struct {
	Store    store.Store
	Notifier notify.Notifier
	// Location decides calendar days; nil means the site timezone
	Location *time.Location

	mu sync.Mutex
}

func NewAttendanceService(st store.Store, notifier notify.Notifier) *AttendanceService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &AttendanceService{Store: st, Notifier: notifier}
}

func (s *AttendanceService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return timeutil.Location()
}

// NextAttendanceType applies the per-day alternation rule. Only the
// employee's records on now's calendar day count; the latest one by
// timestamp decides, later position breaking ties. An entrance left open on
// a previous day does not carry over.
func NextAttendanceType(records []models.AttendanceRecord, employeeID string, now time.Time, loc *time.Location) models.AttendanceType {
	var last *models.AttendanceRecord
	for i := range records {
		r := &records[i]
		if r.EmployeeID != employeeID || !timeutil.SameDay(r.Timestamp, now, loc) {
			continue
		}
		if last == nil || !r.Timestamp.Before(last.Timestamp) {
			last = r
		}
	}
	if last == nil || last.Type == models.AttendanceExit {
		return models.AttendanceEntrance
	}
	return models.AttendanceExit
}

// employeeRef accepts employee cards and legacy untagged cards
func employeeRef(token string) (qrcode.Ref, error) {
	p, err := qrcode.Decode(token)
	if err != nil {
		return qrcode.Ref{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	switch v := p.(type) {
	case qrcode.EmployeeCard:
		return v.Ref(), nil
	case qrcode.Untagged:
		return v.Ref(), nil
	}
	return qrcode.Ref{}, fmt.Errorf("%w: not an employee card", ErrInvalidReference)
}

// RegisterScan records an entrance or exit for the employee on the card
func (s *AttendanceService) RegisterScan(ctx context.Context, token string, now time.Time) (rec *models.AttendanceRecord, err error) {
	defer func() { metrics.ObserveScan("checkin", err) }()

	ref, err := employeeRef(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := store.LoadCollection[models.AttendanceRecord](ctx, s.Store, store.KeyCheckinRecords)
	if err != nil {
		return nil, err
	}

	rec = &models.AttendanceRecord{
		ID:           uuid.NewString(),
		EmployeeID:   ref.ID,
		EmployeeName: ref.Name,
		Type:         NextAttendanceType(records, ref.ID, now, s.loc()),
		Timestamp:    now,
	}

	if err := store.SaveCollection(ctx, s.Store, store.KeyCheckinRecords, append(records, *rec)); err != nil {
		return nil, err
	}

	log.Printf("[Attendance] %s %s (%s)", rec.EmployeeName, rec.Type, rec.EmployeeID)
	if rec.Type == models.AttendanceEntrance {
		s.Notifier.Notify(fmt.Sprintf("🟢 *%s* entrou às %s", rec.EmployeeName, now.In(s.loc()).Format("15:04")))
	} else {
		s.Notifier.Notify(fmt.Sprintf("🔴 *%s* saiu às %s", rec.EmployeeName, now.In(s.loc()).Format("15:04")))
	}
	return rec, nil
}

// ListToday returns the records of now's calendar day, newest first
func (s *AttendanceService) ListToday(ctx context.Context, now time.Time) ([]models.AttendanceRecord, error) {
	records, err := store.LoadCollection[models.AttendanceRecord](ctx, s.Store, store.KeyCheckinRecords)
	if err != nil {
		return nil, err
	}
	out := []models.AttendanceRecord{}
	for _, r := range records {
		if timeutil.SameDay(r.Timestamp, now, s.loc()) {
			out = append(out, r)
		}
	}
	newestFirst(out)
	return out, nil
}

// ListByEmployee returns up to limit records of one employee, newest first.
// limit <= 0 returns everything.
func (s *AttendanceService) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]models.AttendanceRecord, error) {
	records, err := store.LoadCollection[models.AttendanceRecord](ctx, s.Store, store.KeyCheckinRecords)
	if err != nil {
		return nil, err
	}
	out := []models.AttendanceRecord{}
	for _, r := range records {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	newestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListRange returns records with from <= timestamp <= to, oldest first
func (s *AttendanceService) ListRange(ctx context.Context, from, to time.Time) ([]models.AttendanceRecord, error) {
	records, err := store.LoadCollection[models.AttendanceRecord](ctx, s.Store, store.KeyCheckinRecords)
	if err != nil {
		return nil, err
	}
	out := []models.AttendanceRecord{}
	for _, r := range records {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// CurrentState is the badge shown next to an employee
func (s *AttendanceService) CurrentState(ctx context.Context, employeeID string, now time.Time) (models.PresenceState, error) {
	records, err := store.LoadCollection[models.AttendanceRecord](ctx, s.Store, store.KeyCheckinRecords)
	if err != nil {
		return "", err
	}
	if NextAttendanceType(records, employeeID, now, s.loc()) == models.AttendanceExit {
		return models.PresenceInside, nil
	}
	return models.PresenceOutside, nil
}

// InsideCount is the number of employees whose last record today is an entrance
func (s *AttendanceService) InsideCount(ctx context.Context, now time.Time) (int, error) {
	records, err := store.LoadCollection[models.AttendanceRecord](ctx, s.Store, store.KeyCheckinRecords)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool)
	count := 0
	for _, r := range records {
		if seen[r.EmployeeID] {
			continue
		}
		seen[r.EmployeeID] = true
		if NextAttendanceType(records, r.EmployeeID, now, s.loc()) == models.AttendanceExit {
			count++
		}
	}
	return count, nil
}

func newestFirst(records []models.AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp.After(records[j].Timestamp) })
}
