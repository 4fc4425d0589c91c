package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tecnobra-backend/internal/notify"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/store"
)

var brt = time.FixedZone("BRT", -3*60*60)

func at(day, hour, min int) time.Time {
	return time.Date(2024, 5, day, hour, min, 0, 0, brt)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(message string) {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	r.mu.Unlock()
}

var _ notify.Notifier = (*recordingNotifier)(nil)

// failingStore fails every Save after the first allowed ones
type failingStore struct {
	*store.MemoryStore
	allowed int
	saves   int
}

func (f *failingStore) Save(ctx context.Context, key string, data []byte) error {
	f.saves++
	if f.saves > f.allowed {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, key, data)
}

func employeeToken(t *testing.T, id, name string) string {
	t.Helper()
	token, err := qrcode.Encode(qrcode.EmployeeCard{ID: id, Name: name, Role: "worker"})
	if err != nil {
		t.Fatalf("encode employee: %v", err)
	}
	return token
}

func equipmentToken(t *testing.T, id, name string) string {
	t.Helper()
	token, err := qrcode.Encode(qrcode.EquipmentTag{ID: id, Name: name, Type: "Ferramenta Elétrica"})
	if err != nil {
		t.Fatalf("encode equipment: %v", err)
	}
	return token
}
