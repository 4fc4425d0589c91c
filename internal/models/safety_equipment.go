package models

import "time"

type SafetyStatus string

const (
	SafetyDelivered SafetyStatus = "delivered"
	SafetyReturned  SafetyStatus = "returned"
	SafetyExpired   SafetyStatus = "expired"
)

// SafetyEquipment is a PPE item handed to an employee
type SafetyEquipment struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Type              string       `json:"type"`
	Size              string       `json:"size"`
	CertificateNumber string       `json:"certificateNumber"`
	ValidityDate      string       `json:"validityDate"` // YYYY-MM-DD
	DeliveredTo       string       `json:"deliveredTo"`
	EmployeeID        string       `json:"employeeId"`
	DeliveryDate      string       `json:"deliveryDate"` // YYYY-MM-DD
	ReturnDate        *time.Time   `json:"returnDate,omitempty"`
	QRCode            string       `json:"qrCode,omitempty"`
	Status            SafetyStatus `json:"status"`
	Notes             string       `json:"notes"`
}

type DeliverSafetyRequest struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	Size              string `json:"size"`
	CertificateNumber string `json:"certificateNumber"`
	ValidityDate      string `json:"validityDate"`
	EmployeeID        string `json:"employeeId"`
	Notes             string `json:"notes"`
}

type SafetyStats struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Returned  int `json:"returned"`
	Expired   int `json:"expired"`
}
