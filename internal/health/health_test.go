package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestCheckBasic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"store up", nil, "healthy"},
		{"store down", errors.New("refused"), "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewHealthChecker(fakePinger{tt.err}, "memory").CheckBasic(context.Background())
			if got.Status != tt.want || got.Store.Status != tt.want || got.Store.Backend != "memory" {
				t.Fatalf("expected %s, got %+v", tt.want, got)
			}
		})
	}
}

func TestCheckDetailedWithoutCache(t *testing.T) {
	got := NewHealthChecker(fakePinger{}, "sqlite").CheckDetailed(context.Background())
	if got.Status != "healthy" || got.Cache != "disabled" {
		t.Fatalf("unexpected detailed status %+v", got)
	}
}
