package qrcode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformed     = errors.New("qrcode: malformed token")
	ErrMissingFields = errors.New("qrcode: id and name are required")
	ErrNotEncodable  = errors.New("qrcode: payload cannot be encoded")
)

type DecodeErrorKind int

const (
	Malformed DecodeErrorKind = iota + 1
	MissingFields
)

func (k DecodeErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case MissingFields:
		return "missing_fields"
	}
	return "unknown"
}

// DecodeError reports why a scanned string is not a usable token
type DecodeError struct {
	Kind   DecodeErrorKind
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return e.Unwrap().Error()
	}
	return fmt.Sprintf("%s: %s", e.Unwrap().Error(), e.Detail)
}

func (e *DecodeError) Unwrap() error {
	if e.Kind == MissingFields {
		return ErrMissingFields
	}
	return ErrMalformed
}

// wire is the on-label JSON shape. Field order is fixed so that encoding
// the same payload always yields the same token.
type wire struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role,omitempty"`
	Department   string   `json:"department,omitempty"`
	Type         string   `json:"type,omitempty"`
	EmployeeID   string   `json:"employeeId,omitempty"`
	DeliveryDate string   `json:"deliveryDate,omitempty"`
	Category     Category `json:"category,omitempty"`
	Version      string   `json:"v"`
	GeneratedAt  string   `json:"ts,omitempty"`
}

type encodeOptions struct {
	generatedAt time.Time
}

type EncodeOption func(*encodeOptions)

// WithGeneratedAt embeds a generation fingerprint. It is not part of identity.
func WithGeneratedAt(t time.Time) EncodeOption {
	return func(o *encodeOptions) {
		o.generatedAt = t
	}
}

// Encode serializes a payload into a token
func Encode(p Payload, opts ...EncodeOption) (string, error) {
	var o encodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var w wire
	switch v := p.(type) {
	case EmployeeCard:
		// type is kept for scanners that predate the category field
		w = wire{ID: v.ID, Name: v.Name, Role: v.Role, Department: v.Department,
			Type: string(CategoryEmployee), Category: CategoryEmployee}
	case EquipmentTag:
		w = wire{ID: v.ID, Name: v.Name, Type: v.Type, Category: CategoryEquipment}
	case MachineTag:
		w = wire{ID: v.ID, Name: v.Name, Type: v.Type, Category: CategoryMachine}
	case SafetyTag:
		w = wire{ID: v.ID, Name: v.Name, Type: v.Type, EmployeeID: v.EmployeeID,
			DeliveryDate: v.DeliveryDate, Category: CategorySafety}
	case Untagged:
		w = wire{ID: v.ID, Name: v.Name, Type: v.Type}
	default:
		return "", ErrNotEncodable
	}

	if strings.TrimSpace(w.ID) == "" || strings.TrimSpace(w.Name) == "" {
		return "", ErrMissingFields
	}
	w.Version = Version
	if !o.generatedAt.IsZero() {
		w.GeneratedAt = o.generatedAt.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("qrcode: encode: %w", err)
	}
	return string(data), nil
}

// Decode parses a scanned token into a structured payload
func Decode(token string) (Payload, error) {
	dec := json.NewDecoder(strings.NewReader(token))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, &DecodeError{Kind: Malformed, Detail: err.Error()}
	}
	if fields == nil {
		return nil, &DecodeError{Kind: Malformed, Detail: "not an object"}
	}
	if dec.More() {
		return nil, &DecodeError{Kind: Malformed, Detail: "trailing data"}
	}

	var category Category
	if raw, ok := fields["category"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, &DecodeError{Kind: Malformed, Detail: "category is not a string"}
		}
		category = Category(s)
		if category != "" && !category.known() {
			return nil, &DecodeError{Kind: Malformed, Detail: "unknown category " + s}
		}
	}

	id := text(fields["id"])
	name := text(fields["name"])
	if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
		return nil, &DecodeError{Kind: MissingFields}
	}

	typ := text(fields["type"])
	version := text(fields["v"])

	// Employee cards printed before the category field carry it in type
	if category == "" && typ == string(CategoryEmployee) {
		category = CategoryEmployee
	}

	switch category {
	case CategoryEmployee:
		return EmployeeCard{ID: id, Name: name, Role: text(fields["role"]),
			Department: text(fields["department"]), Version: version}, nil
	case CategoryEquipment:
		return EquipmentTag{ID: id, Name: name, Type: typ, Version: version}, nil
	case CategoryMachine:
		return MachineTag{ID: id, Name: name, Type: typ, Version: version}, nil
	case CategorySafety:
		return SafetyTag{ID: id, Name: name, Type: typ, EmployeeID: text(fields["employeeId"]),
			DeliveryDate: text(fields["deliveryDate"]), Version: version}, nil
	}
	return Untagged{ID: id, Name: name, Type: typ, Version: version}, nil
}

// DecodeLenient never fails: anything Decode rejects comes back as Raw.
// Callers that need an entity must reject Raw themselves.
func DecodeLenient(token string) Payload {
	p, err := Decode(token)
	if err != nil {
		return Raw{Token: token}
	}
	return p
}

// text accepts strings and numbers; ids on old labels were sometimes numeric
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return ""
}

// Canonical re-encodes a token without its fingerprint. Two labels for the
// same entity compare equal after Canonical.
func Canonical(token string) (string, error) {
	p, err := Decode(token)
	if err != nil {
		return "", err
	}
	out, err := Encode(p)
	if err != nil {
		return "", err
	}
	return out, nil
}
