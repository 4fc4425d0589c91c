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

type EmployeeService struct {
	Store store.Store

	mu sync.Mutex
}

func NewEmployeeService(st store.Store) *EmployeeService {
	return &EmployeeService{Store: st}
}

var employeeRoles = map[string]bool{
	models.EmployeeRoleAdmin:      true,
	models.EmployeeRoleSupervisor: true,
	models.EmployeeRoleWorker:     true,
	models.EmployeeRoleVisitor:    true,
}

func validateEmployee(req *models.EmployeeRequest) error {
	if len([]rune(strings.TrimSpace(req.Name))) < 2 {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if !employeeRoles[req.Role] {
		return fmt.Errorf("%w: role must be admin, supervisor, worker or visitor", ErrValidation)
	}
	if strings.TrimSpace(req.Department) == "" {
		return fmt.Errorf("%w: department is required", ErrValidation)
	}
	if req.Status != "" && req.Status != models.EmployeeActive && req.Status != models.EmployeeInactive {
		return fmt.Errorf("%w: status must be active or inactive", ErrValidation)
	}
	return nil
}

func (s *EmployeeService) load(ctx context.Context) ([]models.Employee, error) {
	return store.LoadCollection[models.Employee](ctx, s.Store, store.KeyEmployees)
}

// Create assigns a timestamp id; the id never changes so reprinted cards match
func (s *EmployeeService) Create(ctx context.Context, req *models.EmployeeRequest, now time.Time) (*models.Employee, error) {
	if err := validateEmployee(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	emp := models.Employee{
		ID:         strconv.FormatInt(now.UnixMilli(), 10),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
		Phone:      strings.TrimSpace(req.Phone),
		Status:     models.EmployeeActive,
		CreatedAt:  now.In(timeutil.Location()).Format(timeutil.DateLayout),
	}
	for _, e := range employees {
		if e.ID == emp.ID {
			return nil, fmt.Errorf("%w: employee %s", ErrDuplicate, emp.ID)
		}
	}

	if err := store.SaveCollection(ctx, s.Store, store.KeyEmployees, append(employees, emp)); err != nil {
		return nil, err
	}
	log.Printf("[Employee] Created %s (%s)", emp.Name, emp.ID)
	return &emp, nil
}

func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		if employees[i].ID == id {
			return &employees[i], nil
		}
	}
	return nil, fmt.Errorf("%w: employee %s", ErrNotFound, id)
}

// List filters by name, email, role or department
func (s *EmployeeService) List(ctx context.Context, search string) ([]models.Employee, error) {
	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return employees, nil
	}
	out := []models.Employee{}
	for _, e := range employees {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Email), q) ||
			strings.Contains(strings.ToLower(e.Role), q) ||
			strings.Contains(strings.ToLower(e.Department), q) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EmployeeService) Update(ctx context.Context, id string, req *models.EmployeeRequest) (*models.Employee, error) {
	if err := validateEmployee(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	employees, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		if employees[i].ID != id {
			continue
		}
		e := &employees[i]
		e.Name = strings.TrimSpace(req.Name)
		e.Email = strings.TrimSpace(req.Email)
		e.Role = req.Role
		e.Department = strings.TrimSpace(req.Department)
		e.Phone = strings.TrimSpace(req.Phone)
		if req.Status != "" {
			e.Status = req.Status
		}
		if err := store.SaveCollection(ctx, s.Store, store.KeyEmployees, employees); err != nil {
			return nil, err
		}
		updated := *e
		return &updated, nil
	}
	return nil, fmt.Errorf("%w: employee %s", ErrNotFound, id)
}

// Delete removes the employee. Attendance and loan history keep the name
// copied into each record.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	employees, err := s.load(ctx)
	if err != nil {
		return err
	}
	out := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if e.ID != id {
			out = append(out, e)
		}
	}
	if len(out) == len(employees) {
		return fmt.Errorf("%w: employee %s", ErrNotFound, id)
	}
	return store.SaveCollection(ctx, s.Store, store.KeyEmployees, out)
}

// QRToken issues the badge token. Reissuing yields the same identity.
func (s *EmployeeService) QRToken(ctx context.Context, id string) (string, error) {
	emp, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return qrcode.Encode(qrcode.EmployeeCard{
		ID:         emp.ID,
		Name:       emp.Name,
		Role:       emp.Role,
		Department: emp.Department,
	})
}

// Count returns active and total employees
func (s *EmployeeService) Count(ctx context.Context) (active, total int, err error) {
	employees, err := s.load(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range employees {
		if e.Status == models.EmployeeActive {
			active++
		}
	}
	return active, len(employees), nil
}
