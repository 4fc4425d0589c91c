package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"tecnobra-backend/internal/metrics"
	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/notify"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"

	"github.com/google/uuid"
)

type LoanAction string

const (
	LoanActionLoan   LoanAction = "loan"
	LoanActionReturn LoanAction = "return"
)

// LoanResult reports which side of the toggle a scan took
type LoanResult struct {
	Action    LoanAction        `json:"action"`
	Record    models.LoanRecord `json:"record"`
	Equipment models.Equipment  `json:"equipment"`
}

// demoEquipment seeds the availability list the first time it is read.
// The labels printed for these tools carry no category.
var demoEquipment = []models.Equipment{
	{ID: "1", Name: "Martelo Elétrico Stanley", Type: "Ferramenta Elétrica"},
	{ID: "2", Name: "Pá de Obra", Type: "Ferramenta Manual"},
	{ID: "3", Name: "Furadeira DeWalt", Type: "Ferramenta Elétrica"},
	{ID: "4", Name: "Enxada", Type: "Ferramenta Manual"},
}

type LoanService struct {
	Store    store.Store
	Notifier notify.Notifier

	mu sync.Mutex
}

func NewLoanService(st store.Store, notifier notify.Notifier) *LoanService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &LoanService{Store: st, Notifier: notifier}
}

// equipmentRef accepts equipment tags and the untagged demo labels
func equipmentRef(token string) (qrcode.Ref, string, error) {
	p, err := qrcode.Decode(token)
	if err != nil {
		return qrcode.Ref{}, "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	switch v := p.(type) {
	case qrcode.EquipmentTag:
		return v.Ref(), v.Type, nil
	case qrcode.Untagged:
		return v.Ref(), v.Type, nil
	}
	return qrcode.Ref{}, "", fmt.Errorf("%w: not an equipment label", ErrInvalidReference)
}

// EmployeeFromToken decodes the employee card scanned before the equipment
func EmployeeFromToken(token string) (*qrcode.Ref, error) {
	ref, err := employeeRef(token)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// openLoans returns the indexes of open loans for one equipment item
func openLoans(records []models.LoanRecord, equipmentID string) []int {
	var idx []int
	for i := range records {
		if records[i].EquipmentID == equipmentID && records[i].IsOpen() {
			idx = append(idx, i)
		}
	}
	return idx
}

// AppendLoan adds a record, refusing a second open loan for the same equipment
func AppendLoan(records []models.LoanRecord, rec models.LoanRecord) ([]models.LoanRecord, error) {
	if rec.IsOpen() && len(openLoans(records, rec.EquipmentID)) > 0 {
		return records, fmt.Errorf("%w: %s", ErrInvariantViolation, rec.EquipmentID)
	}
	return append(records, rec), nil
}

// RegisterScan toggles the equipment on the label between borrowed and
// available. employee may be nil for a return; any employee may return.
func (s *LoanService) RegisterScan(ctx context.Context, employee *qrcode.Ref, equipmentToken string, now time.Time) (res *LoanResult, err error) {
	defer func() { metrics.ObserveScan("loan", err) }()

	ref, equipmentType, err := equipmentRef(equipmentToken)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := store.LoadCollection[models.LoanRecord](ctx, s.Store, store.KeyLoanRecords)
	if err != nil {
		return nil, err
	}
	equipment, err := s.loadEquipment(ctx)
	if err != nil {
		return nil, err
	}
	equipment = withLoanStatus(equipment, records)

	open := openLoans(records, ref.ID)
	switch {
	case len(open) > 1:
		log.Printf("[Loan] %d open loans for equipment %s", len(open), ref.ID)
		return nil, fmt.Errorf("%w: %s", ErrInvariantViolation, ref.ID)

	case len(open) == 1:
		rec := &records[open[0]]
		returned := now
		if returned.Before(rec.LoanTimestamp) {
			returned = rec.LoanTimestamp
		}
		rec.ReturnTimestamp = &returned
		rec.Status = models.LoanReturned
		res = &LoanResult{Action: LoanActionReturn, Record: *rec}

	default:
		if employee == nil || strings.TrimSpace(employee.ID) == "" {
			return nil, ErrNoEmployeeSelected
		}
		rec := models.LoanRecord{
			ID:            uuid.NewString(),
			EmployeeID:    employee.ID,
			EmployeeName:  employee.Name,
			EquipmentID:   ref.ID,
			EquipmentName: ref.Name,
			EquipmentType: equipmentType,
			LoanTimestamp: now,
			Status:        models.LoanBorrowed,
		}
		if records, err = AppendLoan(records, rec); err != nil {
			return nil, err
		}
		res = &LoanResult{Action: LoanActionLoan, Record: rec}
	}

	status := models.EquipmentAvailable
	if res.Action == LoanActionLoan {
		status = models.EquipmentBorrowed
	}
	previous := append([]models.Equipment(nil), equipment...)
	equipment, res.Equipment = setEquipmentStatus(equipment, ref, equipmentType, status)

	// The loan records decide availability, so they are written last. A failed
	// records save rolls the list back; readers overlay the open loans either way.
	if err := store.SaveCollection(ctx, s.Store, store.KeyEquipmentList, equipment); err != nil {
		return nil, err
	}
	if err := store.SaveCollection(ctx, s.Store, store.KeyLoanRecords, records); err != nil {
		if rbErr := store.SaveCollection(ctx, s.Store, store.KeyEquipmentList, previous); rbErr != nil {
			log.Printf("[Loan] Failed to roll back availability for %s: %v", ref.ID, rbErr)
		}
		return nil, err
	}

	if res.Action == LoanActionLoan {
		log.Printf("[Loan] %s borrowed by %s", ref.Name, res.Record.EmployeeName)
		s.Notifier.Notify(fmt.Sprintf("🔧 *%s* entregue para %s", ref.Name, res.Record.EmployeeName))
	} else {
		log.Printf("[Loan] %s returned (loaned to %s)", ref.Name, res.Record.EmployeeName)
		s.Notifier.Notify(fmt.Sprintf("✅ *%s* devolvido por %s", ref.Name, res.Record.EmployeeName))
	}
	return res, nil
}

// withLoanStatus sets each row's status from the open loans
func withLoanStatus(list []models.Equipment, records []models.LoanRecord) []models.Equipment {
	borrowed := make(map[string]bool)
	for _, r := range records {
		if r.IsOpen() {
			borrowed[r.EquipmentID] = true
		}
	}
	for i := range list {
		if borrowed[list[i].ID] {
			list[i].Status = models.EquipmentBorrowed
		} else {
			list[i].Status = models.EquipmentAvailable
		}
	}
	return list
}

// setEquipmentStatus updates the row for ref, inserting it when unknown
func setEquipmentStatus(list []models.Equipment, ref qrcode.Ref, equipmentType string, status models.EquipmentStatus) ([]models.Equipment, models.Equipment) {
	for i := range list {
		if list[i].ID == ref.ID {
			list[i].Status = status
			return list, list[i]
		}
	}
	row := models.Equipment{ID: ref.ID, Name: ref.Name, Type: equipmentType, Status: status}
	return append(list, row), row
}

// loadEquipment reads the availability list, seeding the demo tools when
// the key has never been written
func (s *LoanService) loadEquipment(ctx context.Context) ([]models.Equipment, error) {
	raw, err := s.Store.Load(ctx, store.KeyEquipmentList)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.KeyEquipmentList, err)
	}
	if raw == nil {
		seeded := make([]models.Equipment, len(demoEquipment))
		for i, eq := range demoEquipment {
			token, err := qrcode.Encode(qrcode.Untagged{ID: eq.ID, Name: eq.Name, Type: eq.Type})
			if err != nil {
				return nil, err
			}
			eq.Status = models.EquipmentAvailable
			eq.QRCode = token
			seeded[i] = eq
		}
		return seeded, nil
	}
	return store.LoadCollection[models.Equipment](ctx, s.Store, store.KeyEquipmentList)
}

// AddEquipment registers a tool and issues its label
func (s *LoanService) AddEquipment(ctx context.Context, req *models.CreateEquipmentRequest, now time.Time) (*models.Equipment, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" {
		return nil, fmt.Errorf("%w: name and type are required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadEquipment(ctx)
	if err != nil {
		return nil, err
	}

	eq := models.Equipment{
		ID:     strconv.FormatInt(now.UnixMilli(), 10),
		Name:   req.Name,
		Type:   req.Type,
		Status: models.EquipmentAvailable,
	}
	for _, existing := range list {
		if existing.ID == eq.ID {
			return nil, fmt.Errorf("%w: equipment %s", ErrDuplicate, eq.ID)
		}
	}
	eq.QRCode, err = qrcode.Encode(qrcode.EquipmentTag{ID: eq.ID, Name: eq.Name, Type: eq.Type})
	if err != nil {
		return nil, err
	}

	if err := store.SaveCollection(ctx, s.Store, store.KeyEquipmentList, append(list, eq)); err != nil {
		return nil, err
	}
	return &eq, nil
}

// ListRecords returns every loan, newest first
func (s *LoanService) ListRecords(ctx context.Context) ([]models.LoanRecord, error) {
	records, err := store.LoadCollection[models.LoanRecord](ctx, s.Store, store.KeyLoanRecords)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LoanTimestamp.After(records[j].LoanTimestamp)
	})
	return records, nil
}

// ListOpen returns loans still holding equipment
func (s *LoanService) ListOpen(ctx context.Context) ([]models.LoanRecord, error) {
	records, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.LoanRecord{}
	for _, r := range records {
		if r.IsOpen() {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListEquipment returns the availability list
func (s *LoanService) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	records, err := store.LoadCollection[models.LoanRecord](ctx, s.Store, store.KeyLoanRecords)
	if err != nil {
		return nil, err
	}
	list, err := s.loadEquipment(ctx)
	if err != nil {
		return nil, err
	}
	return withLoanStatus(list, records), nil
}

// IsEquipment reports whether ref names a tool on the list or one out on
// loan. Uncategorized labels are shared by demo tools and old employee cards.
func (s *LoanService) IsEquipment(ctx context.Context, ref qrcode.Ref) (bool, error) {
	records, err := store.LoadCollection[models.LoanRecord](ctx, s.Store, store.KeyLoanRecords)
	if err != nil {
		return false, err
	}
	for _, i := range openLoans(records, ref.ID) {
		if records[i].EquipmentName == ref.Name {
			return true, nil
		}
	}
	list, err := s.loadEquipment(ctx)
	if err != nil {
		return false, err
	}
	for _, eq := range list {
		if eq.ID == ref.ID && eq.Name == ref.Name {
			return true, nil
		}
	}
	return false, nil
}

// EquipmentStatus derives availability from the open loans
func (s *LoanService) EquipmentStatus(ctx context.Context, equipmentID string) (models.EquipmentStatus, error) {
	records, err := store.LoadCollection[models.LoanRecord](ctx, s.Store, store.KeyLoanRecords)
	if err != nil {
		return "", err
	}
	switch n := len(openLoans(records, equipmentID)); {
	case n == 1:
		return models.EquipmentBorrowed, nil
	case n > 1:
		return "", fmt.Errorf("%w: %s", ErrInvariantViolation, equipmentID)
	}

	list, err := s.loadEquipment(ctx)
	if err != nil {
		return "", err
	}
	for _, eq := range list {
		if eq.ID == equipmentID {
			return models.EquipmentAvailable, nil
		}
	}
	for _, r := range records {
		if r.EquipmentID == equipmentID {
			return models.EquipmentAvailable, nil
		}
	}
	return "", ErrNotFound
}
