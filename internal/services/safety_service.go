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
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"
	"tecnobra-backend/internal/timeutil"
)

// SafetyService tracks PPE handed to employees
type SafetyService struct {
	Store     store.Store
	Employees *EmployeeService
	Location  *time.Location

	mu sync.Mutex
}

func NewSafetyService(st store.Store, employees *EmployeeService) *SafetyService {
	return &SafetyService{Store: st, Employees: employees}
}

func (s *SafetyService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return timeutil.Location()
}

// EffectiveStatus reports a delivered item past its validity date as expired
func EffectiveStatus(item *models.SafetyEquipment, now time.Time, loc *time.Location) models.SafetyStatus {
	if item.Status != models.SafetyDelivered || item.ValidityDate == "" {
		return item.Status
	}
	validity, err := time.ParseInLocation(timeutil.DateLayout, item.ValidityDate, loc)
	if err != nil {
		return item.Status
	}
	if validity.Before(timeutil.StartOfDay(now, loc)) {
		return models.SafetyExpired
	}
	return item.Status
}

func (s *SafetyService) load(ctx context.Context) ([]models.SafetyEquipment, error) {
	return store.LoadCollection[models.SafetyEquipment](ctx, s.Store, store.KeySafetyEquipment)
}

// Deliver records a PPE handover to an existing employee and issues its label
func (s *SafetyService) Deliver(ctx context.Context, req *models.DeliverSafetyRequest, now time.Time) (*models.SafetyEquipment, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" ||
		strings.TrimSpace(req.EmployeeID) == "" || strings.TrimSpace(req.CertificateNumber) == "" {
		return nil, fmt.Errorf("%w: name, type, employee and certificate number are required", ErrValidation)
	}
	if req.ValidityDate != "" {
		if _, err := time.Parse(timeutil.DateLayout, req.ValidityDate); err != nil {
			return nil, fmt.Errorf("%w: validity date must be YYYY-MM-DD", ErrValidation)
		}
	}

	emp, err := s.Employees.Get(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	item := models.SafetyEquipment{
		ID:                strconv.FormatInt(now.UnixMilli(), 10),
		Name:              strings.TrimSpace(req.Name),
		Type:              strings.TrimSpace(req.Type),
		Size:              strings.TrimSpace(req.Size),
		CertificateNumber: strings.TrimSpace(req.CertificateNumber),
		ValidityDate:      req.ValidityDate,
		DeliveredTo:       emp.Name,
		EmployeeID:        emp.ID,
		DeliveryDate:      now.In(s.loc()).Format(timeutil.DateLayout),
		Status:            models.SafetyDelivered,
		Notes:             req.Notes,
	}
	item.QRCode, err = qrcode.Encode(qrcode.SafetyTag{
		ID:           item.ID,
		Name:         item.Name,
		Type:         item.Type,
		EmployeeID:   item.EmployeeID,
		DeliveryDate: item.DeliveryDate,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range items {
		if existing.ID == item.ID {
			return nil, fmt.Errorf("%w: item %s", ErrDuplicate, item.ID)
		}
	}
	if err := store.SaveCollection(ctx, s.Store, store.KeySafetyEquipment, append(items, item)); err != nil {
		return nil, err
	}
	log.Printf("[Safety] %s delivered to %s", item.Name, item.DeliveredTo)
	return &item, nil
}

// Return closes a delivery once
func (s *SafetyService) Return(ctx context.Context, id string, now time.Time) (*models.SafetyEquipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID != id {
			continue
		}
		if items[i].Status != models.SafetyDelivered {
			return nil, fmt.Errorf("%w: item is %s", ErrInvalidTransition, items[i].Status)
		}
		returned := now
		items[i].Status = models.SafetyReturned
		items[i].ReturnDate = &returned
		if err := store.SaveCollection(ctx, s.Store, store.KeySafetyEquipment, items); err != nil {
			return nil, err
		}
		out := items[i]
		return &out, nil
	}
	return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
}

func (s *SafetyService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	out := make([]models.SafetyEquipment, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	if len(out) == len(items) {
		return fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	return store.SaveCollection(ctx, s.Store, store.KeySafetyEquipment, out)
}

// List returns items with their effective status, optionally for one employee
func (s *SafetyService) List(ctx context.Context, employeeID string, now time.Time) ([]models.SafetyEquipment, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.SafetyEquipment{}
	for _, it := range items {
		if employeeID != "" && it.EmployeeID != employeeID {
			continue
		}
		it.Status = EffectiveStatus(&it, now, s.loc())
		out = append(out, it)
	}
	return out, nil
}

func (s *SafetyService) Stats(ctx context.Context, now time.Time) (*models.SafetyStats, error) {
	items, err := s.List(ctx, "", now)
	if err != nil {
		return nil, err
	}
	stats := &models.SafetyStats{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case models.SafetyDelivered:
			stats.Delivered++
		case models.SafetyReturned:
			stats.Returned++
		case models.SafetyExpired:
			stats.Expired++
		}
	}
	return stats, nil
}

// QRToken returns the label of an item
func (s *SafetyService) QRToken(ctx context.Context, id string) (string, error) {
	items, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	for _, it := range items {
		if it.ID == id {
			return qrcode.Encode(qrcode.SafetyTag{
				ID:           it.ID,
				Name:         it.Name,
				Type:         it.Type,
				EmployeeID:   it.EmployeeID,
				DeliveryDate: it.DeliveryDate,
			})
		}
	}
	return "", fmt.Errorf("%w: item %s", ErrNotFound, id)
}
