package cache

import (
	"context"
	"testing"
	"time"
)

func TestDisabledCacheMisses(t *testing.T) {
	Use(nil)
	ctx := context.Background()

	if Enabled() {
		t.Fatal("expected cache disabled")
	}
	SetCached(ctx, StatsKey, []byte("x"), time.Minute)
	if _, ok := GetCached(ctx, StatsKey); ok {
		t.Fatal("expected miss without a client")
	}
	InvalidateReports(ctx)
	InvalidateKeys(ctx, StatsKey)
	if IsHealthy() {
		t.Fatal("expected unhealthy without a client")
	}
}

func TestInitFailureLeavesCacheDisabled(t *testing.T) {
	if err := Init("127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected error connecting to a closed port")
	}
	if Enabled() {
		t.Fatal("expected cache disabled after failed init")
	}
}
