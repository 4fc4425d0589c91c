package health

import (
	"context"
	"time"

	"tecnobra-backend/internal/cache"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is satisfied by every store backend
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	store   Pinger
	backend string
}

type HealthStatus struct {
	Status string      `json:"status"`
	Store  StoreHealth `json:"store"`
}

type StoreHealth struct {
	Backend      string `json:"backend"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	DiskPercent   float64 `json:"disk_percent"`
}

type DetailedStatus struct {
	HealthStatus
	Cache string    `json:"cache"`
	Host  HostStats `json:"host"`
}

func NewHealthChecker(store Pinger, backend string) *HealthChecker {
	return &HealthChecker{store: store, backend: backend}
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	storeHealth := h.checkStore(ctx)

	status := "healthy"
	if storeHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status: status,
		Store:  storeHealth,
	}
}

// CheckDetailed adds host usage and the report cache state
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	out := DetailedStatus{HealthStatus: h.CheckBasic(ctx), Cache: "disabled"}
	if cache.Enabled() {
		out.Cache = "unhealthy"
		if cache.IsHealthy() {
			out.Cache = "healthy"
		}
	}

	if cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		out.Host.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out.Host.MemoryPercent = memStats.UsedPercent
		out.Host.MemoryUsedMB = memStats.Used / 1024 / 1024
		out.Host.MemoryTotalMB = memStats.Total / 1024 / 1024
	}
	if diskStats, err := disk.UsageWithContext(ctx, "/"); err == nil {
		out.Host.DiskPercent = diskStats.UsedPercent
	}
	return out
}

func (h *HealthChecker) checkStore(ctx context.Context) StoreHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return StoreHealth{
			Backend:      h.backend,
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return StoreHealth{
		Backend:      h.backend,
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
