package models

import "time"

// AttendanceType is the direction of a site gate scan
type AttendanceType string

const (
	AttendanceEntrance AttendanceType = "entrance"
	AttendanceExit     AttendanceType = "exit"
)

// AttendanceRecord is append-only. Records are never edited or removed.
type AttendanceRecord struct {
	ID           string         `json:"id"`
	EmployeeID   string         `json:"employeeId"`
	EmployeeName string         `json:"employeeName"`
	Type         AttendanceType `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
}

// AttendanceScanRequest is the body of POST /api/checkin/scan
type AttendanceScanRequest struct {
	Token string `json:"token"`
}

// PresenceState is the derived badge for an employee
type PresenceState string

const (
	PresenceInside  PresenceState = "inside"
	PresenceOutside PresenceState = "outside"
)
