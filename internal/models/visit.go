package models

import "time"

type VisitStatus string

const (
	VisitPending   VisitStatus = "pending"
	VisitActive    VisitStatus = "active"
	VisitCompleted VisitStatus = "completed"
)

type Visit struct {
	ID               string      `json:"id"`
	VisitorName      string      `json:"visitorName"`
	Company          string      `json:"company"`
	Purpose          string      `json:"purpose"`
	HostEmployee     string      `json:"hostEmployee"`
	ExpectedDuration string      `json:"expectedDuration"`
	LicensePlate     string      `json:"licensePlate"`
	CheckInTime      *time.Time  `json:"checkInTime,omitempty"`
	CheckOutTime     *time.Time  `json:"checkOutTime,omitempty"`
	Status           VisitStatus `json:"status"`
	CreatedAt        string      `json:"createdAt"` // YYYY-MM-DD
}

type CreateVisitRequest struct {
	VisitorName      string `json:"visitorName"`
	Company          string `json:"company"`
	Purpose          string `json:"purpose"`
	HostEmployee     string `json:"hostEmployee"`
	ExpectedDuration string `json:"expectedDuration"`
	LicensePlate     string `json:"licensePlate"`
}
