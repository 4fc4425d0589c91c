package services

import (
	"context"
	"errors"
	"testing"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"
)

func newEmployee(t *testing.T, svc *EmployeeService, name string, minute int) *models.Employee {
	t.Helper()
	emp, err := svc.Create(context.Background(), &models.EmployeeRequest{
		Name:       name,
		Email:      "joao@tecnobra.com",
		Role:       models.EmployeeRoleWorker,
		Department: "Obra",
	}, at(10, 8, minute))
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return emp
}

func TestEmployeeCreateAndGet(t *testing.T) {
	svc := NewEmployeeService(store.NewMemoryStore())
	emp := newEmployee(t, svc, "João Silva", 0)

	if emp.Status != models.EmployeeActive {
		t.Fatalf("expected active, got %s", emp.Status)
	}
	if emp.CreatedAt != "2024-05-10" {
		t.Fatalf("expected createdAt 2024-05-10, got %s", emp.CreatedAt)
	}

	got, err := svc.Get(context.Background(), emp.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "João Silva" {
		t.Fatalf("expected João Silva, got %s", got.Name)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmployeeValidation(t *testing.T) {
	svc := NewEmployeeService(store.NewMemoryStore())
	tests := []struct {
		name string
		req  models.EmployeeRequest
	}{
		{"short name", models.EmployeeRequest{Name: "J", Email: "j@x.com", Role: "worker", Department: "Obra"}},
		{"bad email", models.EmployeeRequest{Name: "João", Email: "joao", Role: "worker", Department: "Obra"}},
		{"bad role", models.EmployeeRequest{Name: "João", Email: "j@x.com", Role: "boss", Department: "Obra"}},
		{"no department", models.EmployeeRequest{Name: "João", Email: "j@x.com", Role: "worker"}},
		{"bad status", models.EmployeeRequest{Name: "João", Email: "j@x.com", Role: "worker", Department: "Obra", Status: "fired"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), &tt.req, at(10, 8, 0)); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestEmployeeSearchUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewEmployeeService(store.NewMemoryStore())
	joao := newEmployee(t, svc, "João Silva", 0)
	newEmployee(t, svc, "Maria Souza", 1)

	found, err := svc.List(ctx, "maria")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Maria Souza" {
		t.Fatalf("expected Maria only, got %+v", found)
	}

	all, _ := svc.List(ctx, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(all))
	}

	updated, err := svc.Update(ctx, joao.ID, &models.EmployeeRequest{
		Name: "João Silva", Email: "joao@tecnobra.com", Role: "supervisor", Department: "Obra", Status: "inactive",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != "supervisor" || updated.Status != models.EmployeeInactive {
		t.Fatalf("unexpected update %+v", updated)
	}
	active, total, _ := svc.Count(ctx)
	if active != 1 || total != 2 {
		t.Fatalf("expected 1/2 active, got %d/%d", active, total)
	}

	if err := svc.Delete(ctx, joao.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, joao.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestEmployeeQRTokenIsStable(t *testing.T) {
	ctx := context.Background()
	svc := NewEmployeeService(store.NewMemoryStore())
	emp := newEmployee(t, svc, "João Silva", 0)

	first, err := svc.QRToken(ctx, emp.ID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	second, _ := svc.QRToken(ctx, emp.ID)
	if first != second {
		t.Fatalf("expected identical tokens, got %q and %q", first, second)
	}

	p, err := qrcode.Decode(first)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	card, ok := p.(qrcode.EmployeeCard)
	if !ok || card.ID != emp.ID || card.Name != emp.Name {
		t.Fatalf("expected employee card for %s, got %#v", emp.ID, p)
	}
}
