package models

import "time"

type LoanStatus string

const (
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
)

// LoanRecord is created borrowed and closed exactly once
type LoanRecord struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	EmployeeName    string     `json:"employeeName"`
	EquipmentID     string     `json:"equipmentId"`
	EquipmentName   string     `json:"equipmentName"`
	EquipmentType   string     `json:"equipmentType"`
	LoanTimestamp   time.Time  `json:"loanTimestamp"`
	ReturnTimestamp *time.Time `json:"returnTimestamp,omitempty"`
	Status          LoanStatus `json:"status"`
}

// IsOpen reports whether the loan still holds the equipment
func (l *LoanRecord) IsOpen() bool {
	return l.Status == LoanBorrowed && l.ReturnTimestamp == nil
}

type EquipmentStatus string

const (
	EquipmentAvailable EquipmentStatus = "available"
	EquipmentBorrowed  EquipmentStatus = "borrowed"
)

// Equipment is one row of the availability list
type Equipment struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Status EquipmentStatus `json:"status"`
	QRCode string          `json:"qrCode,omitempty"`
}

// CreateEquipmentRequest registers a tool and issues its label
type CreateEquipmentRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LoanScanRequest is the body of POST /api/loans/scan.
// EmployeeToken is optional when returning equipment.
type LoanScanRequest struct {
	EmployeeToken  string `json:"employeeToken,omitempty"`
	EquipmentToken string `json:"equipmentToken"`
}
