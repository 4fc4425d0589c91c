package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/store"
	"tecnobra-backend/internal/timeutil"
)

type VisitService struct {
	Store store.Store

	mu sync.Mutex
}

func NewVisitService(st store.Store) *VisitService {
	return &VisitService{Store: st}
}

func (s *VisitService) load(ctx context.Context) ([]models.Visit, error) {
	return store.LoadCollection[models.Visit](ctx, s.Store, store.KeyVisits)
}

// Create schedules a pending visit
func (s *VisitService) Create(ctx context.Context, req *models.CreateVisitRequest, now time.Time) (*models.Visit, error) {
	if len([]rune(strings.TrimSpace(req.VisitorName))) < 2 ||
		strings.TrimSpace(req.Company) == "" ||
		strings.TrimSpace(req.Purpose) == "" ||
		strings.TrimSpace(req.HostEmployee) == "" {
		return nil, fmt.Errorf("%w: visitor, company, purpose and host are required", ErrValidation)
	}

	v := models.Visit{
		ID:               strconv.FormatInt(now.UnixMilli(), 10),
		VisitorName:      strings.TrimSpace(req.VisitorName),
		Company:          strings.TrimSpace(req.Company),
		Purpose:          strings.TrimSpace(req.Purpose),
		HostEmployee:     strings.TrimSpace(req.HostEmployee),
		ExpectedDuration: strings.TrimSpace(req.ExpectedDuration),
		LicensePlate:     strings.ToUpper(strings.TrimSpace(req.LicensePlate)),
		Status:           models.VisitPending,
		CreatedAt:        now.In(timeutil.Location()).Format(timeutil.DateLayout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	visits, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range visits {
		if existing.ID == v.ID {
			return nil, fmt.Errorf("%w: visit %s", ErrDuplicate, v.ID)
		}
	}
	if err := store.SaveCollection(ctx, s.Store, store.KeyVisits, append(visits, v)); err != nil {
		return nil, err
	}
	log.Printf("[Visit] Scheduled %s (%s)", v.VisitorName, v.Company)
	return &v, nil
}

// transition moves a visit from one status to the next, stamping the time
func (s *VisitService) transition(ctx context.Context, id string, from, to models.VisitStatus, now time.Time) (*models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visits, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range visits {
		v := &visits[i]
		if v.ID != id {
			continue
		}
		if v.Status != from {
			return nil, fmt.Errorf("%w: visit is %s", ErrInvalidTransition, v.Status)
		}
		stamp := now
		v.Status = to
		if to == models.VisitActive {
			v.CheckInTime = &stamp
		} else {
			v.CheckOutTime = &stamp
		}
		if err := store.SaveCollection(ctx, s.Store, store.KeyVisits, visits); err != nil {
			return nil, err
		}
		out := *v
		log.Printf("[Visit] %s %s -> %s", out.VisitorName, from, to)
		return &out, nil
	}
	return nil, fmt.Errorf("%w: visit %s", ErrNotFound, id)
}

func (s *VisitService) CheckIn(ctx context.Context, id string, now time.Time) (*models.Visit, error) {
	return s.transition(ctx, id, models.VisitPending, models.VisitActive, now)
}

func (s *VisitService) CheckOut(ctx context.Context, id string, now time.Time) (*models.Visit, error) {
	return s.transition(ctx, id, models.VisitActive, models.VisitCompleted, now)
}

// List filters by visitor, company or host, and optionally by status
func (s *VisitService) List(ctx context.Context, search string, status models.VisitStatus) ([]models.Visit, error) {
	visits, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(search))
	out := []models.Visit{}
	for _, v := range visits {
		if status != "" && v.Status != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(v.VisitorName), q) &&
			!strings.Contains(strings.ToLower(v.Company), q) &&
			!strings.Contains(strings.ToLower(v.HostEmployee), q) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *VisitService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	visits, err := s.load(ctx)
	if err != nil {
		return err
	}
	out := make([]models.Visit, 0, len(visits))
	for _, v := range visits {
		if v.ID != id {
			out = append(out, v)
		}
	}
	if len(out) == len(visits) {
		return fmt.Errorf("%w: visit %s", ErrNotFound, id)
	}
	return store.SaveCollection(ctx, s.Store, store.KeyVisits, out)
}
