package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/store"
)

func TestCapture(t *testing.T) {
	t.Run("first non-blank code", func(t *testing.T) {
		codes := make(chan string, 3)
		codes <- "  "
		codes <- " abc "
		codes <- "def"
		got, err := Capture(context.Background(), time.Second, codes)
		if err != nil || got != "abc" {
			t.Fatalf("expected abc, got %q (%v)", got, err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := Capture(context.Background(), 10*time.Millisecond, make(chan string))
		if !errors.Is(err, ErrCaptureTimeout) {
			t.Fatalf("expected ErrCaptureTimeout, got %v", err)
		}
	})

	t.Run("closed source", func(t *testing.T) {
		codes := make(chan string)
		close(codes)
		if _, err := Capture(context.Background(), time.Second, codes); !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Capture(ctx, time.Second, make(chan string)); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func encode(t *testing.T, p qrcode.Payload) string {
	t.Helper()
	token, err := qrcode.Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return token
}

func newLoanTerminal(t *testing.T) *Terminal {
	t.Helper()
	loans := services.NewLoanService(store.NewMemoryStore(), nil)
	term, err := NewTerminal(ModeLoan, nil, loans, nil)
	if err != nil {
		t.Fatalf("terminal: %v", err)
	}
	return term
}

func TestLoanTerminalFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	term := newLoanTerminal(t)

	if term.Step() != StepEmployee {
		t.Fatalf("expected employee step, got %s", term.Step())
	}

	employee := encode(t, qrcode.EmployeeCard{ID: "42", Name: "João"})
	drill := encode(t, qrcode.EquipmentTag{ID: "7", Name: "Furadeira", Type: "Elétrica"})

	res := term.Handle(ctx, employee, now)
	if res.Event != "employee_selected" || res.Step != StepEquipment || res.Employee == nil || res.Employee.ID != "42" {
		t.Fatalf("unexpected result %+v", res)
	}

	// An employee card in the equipment step is rejected and keeps the selection
	res = term.Handle(ctx, employee, now)
	if res.Event != "error" || res.Code != "invalid_reference" || res.Step != StepEquipment {
		t.Fatalf("expected invalid reference in equipment step, got %+v", res)
	}

	res = term.Handle(ctx, drill, now)
	if res.Event != string(services.LoanActionLoan) || res.Step != StepEmployee {
		t.Fatalf("expected loan and reset, got %+v", res)
	}
	if term.Employee() != nil {
		t.Fatal("expected employee cleared after loan")
	}

	// Returns need no employee
	res = term.Handle(ctx, drill, now.Add(time.Hour))
	if res.Event != string(services.LoanActionReturn) {
		t.Fatalf("expected return, got %+v", res)
	}

	// Lending without an employee is refused
	res = term.Handle(ctx, drill, now.Add(2*time.Hour))
	if res.Code != "no_employee_selected" {
		t.Fatalf("expected no_employee_selected, got %+v", res)
	}
}

func TestTerminalReset(t *testing.T) {
	term := newLoanTerminal(t)
	term.Handle(context.Background(), encode(t, qrcode.EmployeeCard{ID: "1", Name: "Ana"}), time.Now())
	if res := term.Reset(); res.Step != StepEmployee || term.Employee() != nil {
		t.Fatalf("expected reset to employee step, got %+v", res)
	}
}

func TestCheckinAndRentalTerminals(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	att := services.NewAttendanceService(st, nil)
	checkin, _ := NewTerminal(ModeCheckin, att, nil, nil)
	res := checkin.Handle(ctx, encode(t, qrcode.EmployeeCard{ID: "1", Name: "Ana"}), now)
	if res.Event != string(models.AttendanceEntrance) || res.Step != StepCard {
		t.Fatalf("expected entrance, got %+v", res)
	}
	res = checkin.Handle(ctx, "not json", now)
	if res.Code != "invalid_reference" {
		t.Fatalf("expected invalid_reference, got %+v", res)
	}

	rental := services.NewRentalService(st)
	machine, err := rental.Register(ctx, &models.CreateRentalMachineRequest{
		Name: "Escavadeira", Type: "Escavação", Model: "PC200", Supplier: "Locar",
		HourlyRate: 150, Plate: "XYZ9A87", Operator: "Carlos",
	}, now)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	term, _ := NewTerminal(ModeRental, nil, nil, rental)
	if res := term.Handle(ctx, machine.QRCode, now); res.Event != string(services.RentalActionStart) {
		t.Fatalf("expected start, got %+v", res)
	}
	if res := term.Handle(ctx, machine.QRCode, now.Add(time.Hour)); res.Event != string(services.RentalActionStop) {
		t.Fatalf("expected stop, got %+v", res)
	}
}

func TestNewTerminalRejectsUnknownMode(t *testing.T) {
	if _, err := NewTerminal("teleport", nil, nil, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoanTerminalReturnsDemoLabel(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	term := newLoanTerminal(t)

	label := `{"id":"3","name":"Furadeira DeWalt","type":"Ferramenta Elétrica"}`
	employee := encode(t, qrcode.EmployeeCard{ID: "42", Name: "João"})

	term.Handle(ctx, employee, now)
	if res := term.Handle(ctx, label, now); res.Event != string(services.LoanActionLoan) {
		t.Fatalf("expected loan, got %+v", res)
	}

	res := term.Handle(ctx, label, now.Add(time.Hour))
	if res.Event != string(services.LoanActionReturn) || res.Employee != nil || res.Step != StepEmployee {
		t.Fatalf("expected return with no employee selected, got %+v", res)
	}

	// the next card still selects an employee
	res = term.Handle(ctx, employee, now.Add(2*time.Hour))
	if res.Event != "employee_selected" || res.Employee.ID != "42" {
		t.Fatalf("expected employee_selected, got %+v", res)
	}

	// an old uncategorized employee card is not mistaken for a tool
	term.Reset()
	res = term.Handle(ctx, `{"id":"7","name":"Maria"}`, now.Add(3*time.Hour))
	if res.Event != "employee_selected" || res.Employee.Name != "Maria" {
		t.Fatalf("expected Maria selected, got %+v", res)
	}
}
