package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"tecnobra-backend/internal/cache"
	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

const statsTTL = 30 * time.Second

// ReportService builds CSV and PDF exports and the dashboard counters
type ReportService struct {
	Attendance *AttendanceService
	Loans      *LoanService
	Rental     *RentalService
	Safety     *SafetyService
	Employees  *EmployeeService
	Visits     *VisitService
	Location   *time.Location
}

// NewReportService creates a new report service
func NewReportService(
	attendance *AttendanceService,
	loans *LoanService,
	rental *RentalService,
	safety *SafetyService,
	employees *EmployeeService,
	visits *VisitService,
) *ReportService {
	return &ReportService{
		Attendance: attendance,
		Loans:      loans,
		Rental:     rental,
		Safety:     safety,
		Employees:  employees,
		Visits:     visits,
	}
}

func (s *ReportService) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return timeutil.Location()
}

func (s *ReportService) formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.loc()).Format(timeutil.DisplayLayout)
}

func formatHours(minutes int) string {
	return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
}

// AttendanceDays groups records per employee and site day. Worked time sums
// every entrance followed by an exit; a trailing entrance leaves the day open.
func AttendanceDays(records []models.AttendanceRecord, loc *time.Location) []models.AttendanceDay {
	sorted := make([]models.AttendanceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	type dayKey struct{ employee, date string }
	days := make(map[dayKey]*models.AttendanceDay)
	open := make(map[dayKey]time.Time)
	var order []dayKey

	for _, r := range sorted {
		ts := r.Timestamp
		key := dayKey{r.EmployeeID, ts.In(loc).Format(timeutil.DateLayout)}
		day, ok := days[key]
		if !ok {
			day = &models.AttendanceDay{EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName, Date: key.date}
			days[key] = day
			order = append(order, key)
		}
		day.Records++

		switch r.Type {
		case models.AttendanceEntrance:
			if day.FirstEntrance == nil {
				day.FirstEntrance = &ts
			}
			if _, pending := open[key]; !pending {
				open[key] = ts
			}
		case models.AttendanceExit:
			day.LastExit = &ts
			if start, pending := open[key]; pending {
				day.WorkedMinutes += elapsedMinutes(start, ts)
				delete(open, key)
			}
		}
	}

	out := make([]models.AttendanceDay, 0, len(order))
	for _, key := range order {
		day := *days[key]
		_, day.Open = open[key]
		out = append(out, day)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	return out
}

// AttendanceReport returns the per-day summary for a period
func (s *ReportService) AttendanceReport(ctx context.Context, period Period, from, to, now time.Time) ([]models.AttendanceDay, error) {
	start, end, err := PeriodRange(period, from, to, now, s.loc())
	if err != nil {
		return nil, err
	}
	records, err := s.Attendance.ListRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return AttendanceDays(records, s.loc()), nil
}

func (s *ReportService) AttendanceCSV(ctx context.Context, period Period, from, to, now time.Time) ([]byte, error) {
	days, err := s.AttendanceReport(ctx, period, from, to, now)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date, d.EmployeeName, d.EmployeeID,
			s.formatTime(d.FirstEntrance), s.formatTime(d.LastExit),
			strconv.Itoa(d.WorkedMinutes), formatHours(d.WorkedMinutes),
		})
	}
	return writeCSV([]string{"Data", "Funcionário", "ID", "Primeira entrada", "Última saída", "Minutos", "Horas"}, rows)
}

func (s *ReportService) AttendancePDF(ctx context.Context, period Period, from, to, now time.Time) ([]byte, error) {
	days, err := s.AttendanceReport(ctx, period, from, to, now)
	if err != nil {
		return nil, err
	}
	t := pdfTable{
		headers: []string{"Data", "Funcionário", "Primeira entrada", "Última saída", "Horas"},
		widths:  []float64{35, 95, 50, 50, 47},
	}
	total := 0
	for _, d := range days {
		total += d.WorkedMinutes
		t.rows = append(t.rows, []string{
			d.Date, d.EmployeeName, s.formatTime(d.FirstEntrance), s.formatTime(d.LastExit), formatHours(d.WorkedMinutes),
		})
	}
	t.footer = fmt.Sprintf("Registros: %d    Total trabalhado: %s", len(days), formatHours(total))
	return s.renderPDF("Relatório de Ponto", now, t)
}

// LoanReport returns loans taken inside the period, oldest first
func (s *ReportService) LoanReport(ctx context.Context, period Period, from, to, now time.Time) ([]models.LoanRecord, error) {
	start, end, err := PeriodRange(period, from, to, now, s.loc())
	if err != nil {
		return nil, err
	}
	records, err := s.Loans.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.LoanRecord{}
	for _, r := range records {
		if !r.LoanTimestamp.Before(start) && !r.LoanTimestamp.After(end) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LoanTimestamp.Before(out[j].LoanTimestamp) })
	return out, nil
}

func loanStatusLabel(st models.LoanStatus) string {
	if st == models.LoanBorrowed {
		return "Emprestado"
	}
	return "Devolvido"
}

func (s *ReportService) LoansCSV(ctx context.Context, period Period, from, to, now time.Time) ([]byte, error) {
	records, err := s.LoanReport(ctx, period, from, to, now)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		loaned := r.LoanTimestamp
		rows = append(rows, []string{
			r.EquipmentName, r.EquipmentType, r.EmployeeName,
			s.formatTime(&loaned), s.formatTime(r.ReturnTimestamp), loanStatusLabel(r.Status),
		})
	}
	return writeCSV([]string{"Equipamento", "Tipo", "Funcionário", "Retirada", "Devolução", "Status"}, rows)
}

func (s *ReportService) LoansPDF(ctx context.Context, period Period, from, to, now time.Time) ([]byte, error) {
	records, err := s.LoanReport(ctx, period, from, to, now)
	if err != nil {
		return nil, err
	}
	t := pdfTable{
		headers: []string{"Equipamento", "Tipo", "Funcionário", "Retirada", "Devolução", "Status"},
		widths:  []float64{60, 45, 60, 40, 40, 32},
	}
	open := 0
	for _, r := range records {
		if r.IsOpen() {
			open++
		}
		loaned := r.LoanTimestamp
		t.rows = append(t.rows, []string{
			r.EquipmentName, r.EquipmentType, r.EmployeeName,
			s.formatTime(&loaned), s.formatTime(r.ReturnTimestamp), loanStatusLabel(r.Status),
		})
	}
	t.footer = fmt.Sprintf("Empréstimos: %d    Em aberto: %d", len(records), open)
	return s.renderPDF("Relatório de Empréstimos", now, t)
}

func (s *ReportService) RentalCSV(ctx context.Context, period Period, from, to, now time.Time) ([]byte, error) {
	summaries, err := s.Rental.Summaries(ctx, period, from, to, now)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, sum := range summaries {
		rows = append(rows, []string{
			sum.Machine, sum.Type, sum.Model, sum.Supplier, sum.Plate, sum.Operator,
			strconv.Itoa(sum.TotalMinutes),
			fmt.Sprintf("%.2f", sum.Hours),
			fmt.Sprintf("%.2f", sum.Rate),
			fmt.Sprintf("%.2f", sum.Cost),
			strconv.Itoa(len(sum.Sessions)),
		})
	}
	return writeCSV([]string{"Máquina", "Tipo", "Modelo", "Fornecedor", "Placa", "Operador", "Minutos", "Horas", "Valor/hora", "Custo", "Sessões"}, rows)
}

func (s *ReportService) RentalPDF(ctx context.Context, period Period, from, to, now time.Time) ([]byte, error) {
	summaries, err := s.Rental.Summaries(ctx, period, from, to, now)
	if err != nil {
		return nil, err
	}
	totals := pdfTable{
		headers: []string{"Máquina", "Fornecedor", "Placa", "Horas", "Valor/hora", "Custo"},
		widths:  []float64{70, 60, 30, 35, 40, 42},
	}
	sessions := pdfTable{
		title:   "Sessões",
		headers: []string{"Máquina", "Operador", "Início", "Fim", "Duração"},
		widths:  []float64{70, 60, 50, 50, 47},
	}
	var cost float64
	minutes := 0
	for _, sum := range summaries {
		cost += sum.Cost
		minutes += sum.TotalMinutes
		totals.rows = append(totals.rows, []string{
			sum.Machine, sum.Supplier, sum.Plate,
			formatHours(sum.TotalMinutes),
			fmt.Sprintf("R$ %.2f", sum.Rate),
			fmt.Sprintf("R$ %.2f", sum.Cost),
		})
		for _, sess := range sum.Sessions {
			started, ended := sess.StartTime, sess.EndTime
			sessions.rows = append(sessions.rows, []string{
				sum.Machine, sess.Operator, s.formatTime(&started), s.formatTime(&ended), formatHours(sess.DurationMinutes),
			})
		}
	}
	totals.footer = fmt.Sprintf("Total: %s    Custo total: R$ %.2f", formatHours(minutes), cost)
	return s.renderPDF("Relatório de Máquinas Alugadas", now, totals, sessions)
}

func safetyStatusLabel(st models.SafetyStatus) string {
	switch st {
	case models.SafetyDelivered:
		return "Entregue"
	case models.SafetyReturned:
		return "Devolvido"
	case models.SafetyExpired:
		return "Vencido"
	}
	return string(st)
}

func (s *ReportService) SafetyCSV(ctx context.Context, now time.Time) ([]byte, error) {
	items, err := s.Safety.List(ctx, "", now)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Name, it.Type, it.Size, it.CertificateNumber, it.DeliveredTo,
			it.DeliveryDate, it.ValidityDate, s.formatTime(it.ReturnDate), safetyStatusLabel(it.Status),
		})
	}
	return writeCSV([]string{"EPI", "Tipo", "Tamanho", "CA", "Entregue a", "Entrega", "Validade", "Devolução", "Status"}, rows)
}

func (s *ReportService) SafetyPDF(ctx context.Context, now time.Time) ([]byte, error) {
	items, err := s.Safety.List(ctx, "", now)
	if err != nil {
		return nil, err
	}
	t := pdfTable{
		headers: []string{"EPI", "CA", "Entregue a", "Entrega", "Validade", "Status"},
		widths:  []float64{65, 35, 65, 37, 37, 38},
	}
	counts := make(map[models.SafetyStatus]int)
	for _, it := range items {
		counts[it.Status]++
		t.rows = append(t.rows, []string{
			it.Name, it.CertificateNumber, it.DeliveredTo, it.DeliveryDate, it.ValidityDate, safetyStatusLabel(it.Status),
		})
	}
	t.footer = fmt.Sprintf("Total: %d    Entregues: %d    Devolvidos: %d    Vencidos: %d",
		len(items), counts[models.SafetyDelivered], counts[models.SafetyReturned], counts[models.SafetyExpired])
	return s.renderPDF("Relatório de EPIs", now, t)
}

// Stats returns the dashboard counters, cached briefly when redis is available
func (s *ReportService) Stats(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	if data, ok := cache.GetCached(ctx, cache.StatsKey); ok {
		var stats models.DashboardStats
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
	}

	stats := &models.DashboardStats{GeneratedAt: now}
	var err error
	if stats.ActiveEmployees, stats.Employees, err = s.Employees.Count(ctx); err != nil {
		return nil, err
	}
	if stats.InsideNow, err = s.Attendance.InsideCount(ctx, now); err != nil {
		return nil, err
	}
	open, err := s.Loans.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	stats.OpenLoans = len(open)
	live, err := s.Rental.LiveSnapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	stats.WorkingMachines = len(live)
	active, err := s.Visits.List(ctx, "", models.VisitActive)
	if err != nil {
		return nil, err
	}
	stats.ActiveVisits = len(active)
	safety, err := s.Safety.Stats(ctx, now)
	if err != nil {
		return nil, err
	}
	stats.ExpiredSafety = safety.Expired

	if data, err := json.Marshal(stats); err == nil {
		cache.SetCached(ctx, cache.StatsKey, data, statsTTL)
	} else {
		log.Printf("[Report] Failed to encode stats for cache: %v", err)
	}
	return stats, nil
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(header)
	for _, row := range rows {
		w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pdfTable struct {
	title   string
	headers []string
	widths  []float64
	rows    [][]string
	footer  string
}

// renderPDF writes landscape A4 tables under a common header
func (s *ReportService) renderPDF(title string, now time.Time, tables ...pdfTable) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, tr("Tecnobra - "+title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, tr("Gerado em: "+now.In(s.loc()).Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	for _, t := range tables {
		if t.title != "" {
			pdf.Ln(4)
			pdf.SetFont("Arial", "B", 12)
			pdf.SetFillColor(240, 240, 240)
			pdf.CellFormat(277, 8, tr(t.title), "1", 1, "L", true, 0, "")
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		for i, h := range t.headers {
			ln := 0
			if i == len(t.headers)-1 {
				ln = 1
			}
			pdf.CellFormat(t.widths[i], 7, tr(h), "1", ln, "C", true, 0, "")
		}

		pdf.SetFont("Arial", "", 9)
		if len(t.rows) == 0 {
			pdf.CellFormat(277, 7, tr("Nenhum registro no período"), "1", 1, "C", false, 0, "")
		}
		for _, row := range t.rows {
			for i, cell := range row {
				ln := 0
				if i == len(row)-1 {
					ln = 1
				}
				pdf.CellFormat(t.widths[i], 6, tr(truncate(cell, t.widths[i])), "1", ln, "L", false, 0, "")
			}
		}

		if t.footer != "" {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(277, 8, tr(t.footer), "1", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncate keeps text within a column of the given width in mm
func truncate(text string, width float64) string {
	limit := int(width / 1.9)
	r := []rune(text)
	if len(r) <= limit || limit < 4 {
		return text
	}
	return string(r[:limit-3]) + "..."
}
