package models

import "time"

type MachineStatus string

const (
	MachineIdle    MachineStatus = "idle"
	MachineWorking MachineStatus = "working"
	MachineOffline MachineStatus = "offline"
)

// RentalMachine embeds its finalized sessions.
// CurrentSessionStart is set if and only if Status is working.
type RentalMachine struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Type                string        `json:"type"`
	Model               string        `json:"model"`
	Supplier            string        `json:"supplier"`
	HourlyRate          float64       `json:"hourlyRate"`
	Plate               string        `json:"plate"`
	Operator            string        `json:"operator"`
	QRCode              string        `json:"qrCode"`
	EntryDate           time.Time     `json:"entryDate"`
	Status              MachineStatus `json:"status"`
	TotalHours          float64       `json:"totalHours"`
	CurrentSessionStart *time.Time    `json:"currentSessionStart,omitempty"`
	Sessions            []WorkSession `json:"sessions"`
}

// WorkSession is created only when a running session is stopped
type WorkSession struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Operator        string    `json:"operator"`
	Date            string    `json:"date"`
}

// CreateRentalMachineRequest is the body for registering a machine
type CreateRentalMachineRequest struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Model      string  `json:"model"`
	Supplier   string  `json:"supplier"`
	HourlyRate float64 `json:"hourlyRate"`
	Plate      string  `json:"plate"`
	Operator   string  `json:"operator"`
}

// LiveMachine is the display-only view of a running machine
type LiveMachine struct {
	MachineID      string    `json:"machineId"`
	Name           string    `json:"name"`
	Operator       string    `json:"operator"`
	StartedAt      time.Time `json:"startedAt"`
	ElapsedMinutes int       `json:"elapsedMinutes"`
	DisplayHours   float64   `json:"displayHours"`
}

// MachineSession pairs a session with the machine it belongs to
type MachineSession struct {
	MachineID   string      `json:"machineId"`
	MachineName string      `json:"machineName"`
	HourlyRate  float64     `json:"hourlyRate"`
	Session     WorkSession `json:"session"`
}

// RentalScanRequest is the body of POST /api/rental/scan
type RentalScanRequest struct {
	Token string `json:"token"`
}

// RentalSummary totals one machine's sessions in a report period
type RentalSummary struct {
	MachineID    string        `json:"machineId"`
	Machine      string        `json:"machine"`
	Supplier     string        `json:"supplier"`
	Operator     string        `json:"operator"`
	Plate        string        `json:"plate"`
	Type         string        `json:"type"`
	Model        string        `json:"model"`
	TotalMinutes int           `json:"totalMinutes"`
	Hours        float64       `json:"hours"`
	Rate         float64       `json:"rate"`
	Cost         float64       `json:"cost"`
	Sessions     []WorkSession `json:"sessions"`
}
