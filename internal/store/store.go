// Package store persists whole JSON collections under fixed string keys.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection keys, named after the keys the dashboard used in browser storage
const (
	KeyCheckinRecords  = "tecnobra_checkin_records"
	KeyLoanRecords     = "tecnobra_loan_records"
	KeyEquipmentList   = "tecnobra_equipment_list"
	KeyRentalMachines  = "tecnobra_rental_machines"
	KeySafetyEquipment = "tecnobra_safety_equipment"
	KeyEmployees       = "tecnobra_employees"
	KeyVisits          = "tecnobra_visits"
	KeyUsers           = "tecnobra_users"
)

// Keys lists every collection, in backup order
var Keys = []string{
	KeyCheckinRecords,
	KeyLoanRecords,
	KeyEquipmentList,
	KeyRentalMachines,
	KeySafetyEquipment,
	KeyEmployees,
	KeyVisits,
	KeyUsers,
}

// Store is a string-keyed blob store. Every write replaces the whole value;
// concurrent writers to the same key resolve as last writer wins.
type Store interface {
	// Load returns nil, nil when the key has never been written
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// LoadCollection reads a JSON array. An absent key is an empty collection.
func LoadCollection[T any](ctx context.Context, s Store, key string) ([]T, error) {
	data, err := s.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	items := []T{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// SaveCollection overwrites the whole collection
func SaveCollection[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
