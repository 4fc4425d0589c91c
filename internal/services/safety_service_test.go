package services

import (
	"context"
	"errors"
	"testing"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"
)

func newSafetyFixture(t *testing.T) (*SafetyService, *models.Employee) {
	t.Helper()
	st := store.NewMemoryStore()
	employees := NewEmployeeService(st)
	emp := newEmployee(t, employees, "João Silva", 0)
	svc := NewSafetyService(st, employees)
	svc.Location = brt
	return svc, emp
}

func deliverHelmet(t *testing.T, svc *SafetyService, employeeID, validity string, minute int) *models.SafetyEquipment {
	t.Helper()
	item, err := svc.Deliver(context.Background(), &models.DeliverSafetyRequest{
		Name:              "Capacete",
		Type:              "Proteção da Cabeça",
		CertificateNumber: "CA-12345",
		ValidityDate:      validity,
		EmployeeID:        employeeID,
	}, at(10, 9, minute))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	return item
}

func TestSafetyDeliver(t *testing.T) {
	svc, emp := newSafetyFixture(t)
	item := deliverHelmet(t, svc, emp.ID, "2025-01-01", 0)

	if item.DeliveredTo != "João Silva" || item.DeliveryDate != "2024-05-10" {
		t.Fatalf("unexpected delivery %+v", item)
	}
	if item.Status != models.SafetyDelivered {
		t.Fatalf("expected delivered, got %s", item.Status)
	}

	p, err := qrcode.Decode(item.QRCode)
	if err != nil {
		t.Fatalf("decode label: %v", err)
	}
	tag, ok := p.(qrcode.SafetyTag)
	if !ok || tag.EmployeeID != emp.ID || tag.DeliveryDate != "2024-05-10" {
		t.Fatalf("expected safety tag, got %#v", p)
	}
}

func TestSafetyDeliverRejects(t *testing.T) {
	svc, emp := newSafetyFixture(t)
	ctx := context.Background()

	_, err := svc.Deliver(ctx, &models.DeliverSafetyRequest{Name: "Luva", Type: "Mãos", EmployeeID: emp.ID}, at(10, 9, 0))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without certificate, got %v", err)
	}

	_, err = svc.Deliver(ctx, &models.DeliverSafetyRequest{
		Name: "Luva", Type: "Mãos", CertificateNumber: "CA-1", EmployeeID: "ghost",
	}, at(10, 9, 0))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown employee, got %v", err)
	}

	_, err = svc.Deliver(ctx, &models.DeliverSafetyRequest{
		Name: "Luva", Type: "Mãos", CertificateNumber: "CA-1", EmployeeID: emp.ID, ValidityDate: "01/01/2025",
	}, at(10, 9, 0))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad date, got %v", err)
	}
}

func TestSafetyReturnOnce(t *testing.T) {
	svc, emp := newSafetyFixture(t)
	ctx := context.Background()
	item := deliverHelmet(t, svc, emp.ID, "", 0)

	returned, err := svc.Return(ctx, item.ID, at(11, 17, 0))
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != models.SafetyReturned || returned.ReturnDate == nil {
		t.Fatalf("unexpected return %+v", returned)
	}

	if _, err := svc.Return(ctx, item.ID, at(11, 18, 0)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Return(ctx, "missing", at(11, 18, 0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSafetyExpiredAndStats(t *testing.T) {
	svc, emp := newSafetyFixture(t)
	ctx := context.Background()
	deliverHelmet(t, svc, emp.ID, "2024-05-09", 0)
	deliverHelmet(t, svc, emp.ID, "2024-05-10", 1)
	returned := deliverHelmet(t, svc, emp.ID, "2024-05-01", 2)
	if _, err := svc.Return(ctx, returned.ID, at(10, 10, 0)); err != nil {
		t.Fatalf("return: %v", err)
	}

	stats, err := svc.Stats(ctx, at(10, 12, 0))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := models.SafetyStats{Total: 3, Delivered: 1, Returned: 1, Expired: 1}
	if *stats != want {
		t.Fatalf("expected %+v, got %+v", want, *stats)
	}

	mine, _ := svc.List(ctx, emp.ID, at(10, 12, 0))
	if len(mine) != 3 {
		t.Fatalf("expected 3 items for employee, got %d", len(mine))
	}
	other, _ := svc.List(ctx, "someone-else", at(10, 12, 0))
	if len(other) != 0 {
		t.Fatalf("expected no items, got %d", len(other))
	}

	if err := svc.Delete(ctx, returned.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stats, _ = svc.Stats(ctx, at(10, 12, 0))
	if stats.Total != 2 {
		t.Fatalf("expected 2 items after delete, got %d", stats.Total)
	}
}
