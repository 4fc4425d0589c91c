package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/services"
)

type Mode string

const (
	ModeCheckin Mode = "checkin"
	ModeLoan    Mode = "loan"
	ModeRental  Mode = "rental"
)

// Step is what the terminal expects next
type Step string

const (
	StepCard      Step = "card"
	StepEmployee  Step = "employee"
	StepEquipment Step = "equipment"
	StepMachine   Step = "machine"
)

type Attendance interface {
	RegisterScan(ctx context.Context, token string, now time.Time) (*models.AttendanceRecord, error)
}

type Loans interface {
	RegisterScan(ctx context.Context, employee *qrcode.Ref, token string, now time.Time) (*services.LoanResult, error)
	IsEquipment(ctx context.Context, ref qrcode.Ref) (bool, error)
}

type Rental interface {
	RegisterScan(ctx context.Context, token string, now time.Time) (*services.RentalScanResult, error)
}

// Result is sent back to the camera page after every code
type Result struct {
	Mode     Mode        `json:"mode"`
	Step     Step        `json:"step"`
	Event    string      `json:"event"`
	Employee *qrcode.Ref `json:"employee,omitempty"`
	Data     any         `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Code     string      `json:"code,omitempty"`
}

// Terminal is one scanning session. In loan mode it remembers the employee
// scanned first until an equipment label completes the loan or return.
type Terminal struct {
	Mode       Mode
	Attendance Attendance
	Loans      Loans
	Rental     Rental

	mu       sync.Mutex
	employee *qrcode.Ref
}

func NewTerminal(mode Mode, attendance Attendance, loans Loans, rental Rental) (*Terminal, error) {
	switch mode {
	case ModeCheckin, ModeLoan, ModeRental:
	default:
		return nil, fmt.Errorf("%w: unknown scan mode %q", services.ErrValidation, mode)
	}
	return &Terminal{Mode: mode, Attendance: attendance, Loans: loans, Rental: rental}, nil
}

func (t *Terminal) step() Step {
	switch t.Mode {
	case ModeLoan:
		if t.employee != nil {
			return StepEquipment
		}
		return StepEmployee
	case ModeRental:
		return StepMachine
	}
	return StepCard
}

func (t *Terminal) Step() Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step()
}

// Employee is the employee selected for the next loan, if any
func (t *Terminal) Employee() *qrcode.Ref {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.employee
}

// Reset drops the selected employee
func (t *Terminal) Reset() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.employee = nil
	return Result{Mode: t.Mode, Step: t.step(), Event: "reset"}
}

// Handle routes one decoded code. Failures are reported in the result and
// leave the session where it was.
func (t *Terminal) Handle(ctx context.Context, code string, now time.Time) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		event string
		data  any
		err   error
	)
	switch t.Mode {
	case ModeCheckin:
		var rec *models.AttendanceRecord
		if rec, err = t.Attendance.RegisterScan(ctx, code, now); err == nil {
			event, data = string(rec.Type), rec
		}
	case ModeRental:
		var res *services.RentalScanResult
		if res, err = t.Rental.RegisterScan(ctx, code, now); err == nil {
			event, data = string(res.Action), res
		}
	case ModeLoan:
		event, data, err = t.handleLoan(ctx, code, now)
	}

	res := Result{Mode: t.Mode, Event: event, Data: data, Employee: t.employee}
	if err != nil {
		res.Event = "error"
		res.Error = err.Error()
		res.Code = ErrorCode(err)
	}
	res.Step = t.step()
	return res
}

func (t *Terminal) handleLoan(ctx context.Context, code string, now time.Time) (string, any, error) {
	if t.employee == nil {
		// Equipment labels go straight to the toggle so returns need no employee
		if p, err := qrcode.Decode(code); err == nil {
			switch v := p.(type) {
			case qrcode.EquipmentTag:
				return t.completeLoan(ctx, code, now)
			case qrcode.Untagged:
				known, err := t.Loans.IsEquipment(ctx, v.Ref())
				if err != nil {
					return "", nil, err
				}
				if known {
					return t.completeLoan(ctx, code, now)
				}
			}
		}
		emp, err := services.EmployeeFromToken(code)
		if err != nil {
			return "", nil, err
		}
		t.employee = emp
		return "employee_selected", emp, nil
	}
	return t.completeLoan(ctx, code, now)
}

func (t *Terminal) completeLoan(ctx context.Context, code string, now time.Time) (string, any, error) {
	res, err := t.Loans.RegisterScan(ctx, t.employee, code, now)
	if err != nil {
		return "", nil, err
	}
	t.employee = nil
	return string(res.Action), res, nil
}

// ErrorCode names a scan failure for the client
func ErrorCode(err error) string {
	var decodeErr *qrcode.DecodeError
	switch {
	case errors.Is(err, services.ErrNoEmployeeSelected):
		return "no_employee_selected"
	case errors.Is(err, services.ErrAlreadyRunning):
		return "already_running"
	case errors.Is(err, services.ErrNotRunning):
		return "not_running"
	case errors.Is(err, services.ErrMachineOffline):
		return "machine_offline"
	case errors.Is(err, services.ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	case errors.Is(err, services.ErrInvalidReference), errors.As(err, &decodeErr):
		return "invalid_reference"
	case errors.Is(err, ErrCaptureTimeout):
		return "timeout"
	}
	return "internal"
}
