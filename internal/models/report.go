package models

import "time"

// AttendanceDay summarizes one employee's records on one site day
type AttendanceDay struct {
	EmployeeID    string     `json:"employeeId"`
	EmployeeName  string     `json:"employeeName"`
	Date          string     `json:"date"` // YYYY-MM-DD
	FirstEntrance *time.Time `json:"firstEntrance,omitempty"`
	LastExit      *time.Time `json:"lastExit,omitempty"`
	WorkedMinutes int        `json:"workedMinutes"`
	Records       int        `json:"records"`
	// Open is set when the day ends on an entrance without a matching exit
	Open bool `json:"open"`
}

// DashboardStats is the header of the dashboard
type DashboardStats struct {
	Employees       int       `json:"employees"`
	ActiveEmployees int       `json:"activeEmployees"`
	InsideNow       int       `json:"insideNow"`
	OpenLoans       int       `json:"openLoans"`
	WorkingMachines int       `json:"workingMachines"`
	ActiveVisits    int       `json:"activeVisits"`
	ExpiredSafety   int       `json:"expiredSafety"`
	GeneratedAt     time.Time `json:"generatedAt"`
}
