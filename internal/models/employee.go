package models

const (
	EmployeeRoleAdmin      = "admin"
	EmployeeRoleSupervisor = "supervisor"
	EmployeeRoleWorker     = "worker"
	EmployeeRoleVisitor    = "visitor"

	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"` // YYYY-MM-DD
}

// EmployeeRequest is used for both create and update
type EmployeeRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
}
