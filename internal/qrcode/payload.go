// Package qrcode encodes site entities into scannable QR tokens and decodes
// scanned strings back into typed payloads.
package qrcode

// Version is the schema tag written into every token
const Version = "2.0"

type Category string

const (
	CategoryEmployee  Category = "employee_card"
	CategoryEquipment Category = "equipment"
	CategoryMachine   Category = "machine"
	CategorySafety    Category = "safety_equipment"
)

func (c Category) known() bool {
	switch c {
	case CategoryEmployee, CategoryEquipment, CategoryMachine, CategorySafety:
		return true
	}
	return false
}

// Ref is the identity carried by a structured payload.
// Identity is the pair (ID, Category).
type Ref struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category,omitempty"`
	Version  string   `json:"v,omitempty"`
}

// Payload is the closed set of decoded token shapes
type Payload interface {
	payload()
}

// Entity is a payload that identifies something
type Entity interface {
	Payload
	Ref() Ref
}

type EmployeeCard struct {
	ID         string
	Name       string
	Role       string
	Department string
	Version    string
}

type EquipmentTag struct {
	ID      string
	Name    string
	Type    string
	Version string
}

type MachineTag struct {
	ID      string
	Name    string
	Type    string
	Version string
}

type SafetyTag struct {
	ID           string
	Name         string
	Type         string
	EmployeeID   string
	DeliveryDate string
	Version      string
}

// Untagged is a legacy token with id and name but no category,
// such as the printed demo tool labels.
type Untagged struct {
	ID      string
	Name    string
	Type    string
	Version string
}

// Raw holds a scanned string that is not a structured token
type Raw struct {
	Token string
}

func (EmployeeCard) payload() {}
func (EquipmentTag) payload() {}
func (MachineTag) payload()   {}
func (SafetyTag) payload()    {}
func (Untagged) payload()     {}
func (Raw) payload()          {}

func (p EmployeeCard) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name, Category: CategoryEmployee, Version: p.Version}
}

func (p EquipmentTag) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name, Category: CategoryEquipment, Version: p.Version}
}

func (p MachineTag) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name, Category: CategoryMachine, Version: p.Version}
}

func (p SafetyTag) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name, Category: CategorySafety, Version: p.Version}
}

func (p Untagged) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name, Version: p.Version}
}
