package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"syscall"
	"time"

	"github.com/mstgnz/brqpay/infra/config"
	"github.com/mstgnz/brqpay/infra/response"
)

// Pinger is a dependency that can report whether it answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db            Pinger
	searchEnabled bool
	startTime     time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	Database    *DatabaseHealth           `json:"database"`
	System      *SystemHealth             `json:"system"`
	Services    map[string]*ServiceHealth `json:"services"`
}

// DatabaseHealth represents database health status
type DatabaseHealth struct {
	Status       string `json:"status"`
	Connected    bool   `json:"connected"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth represents system resource health
type SystemHealth struct {
	Memory     *MemoryHealth `json:"memory"`
	Disk       *DiskHealth   `json:"disk"`
	GoRoutines int           `json:"goroutines"`
}

// MemoryHealth represents memory usage
type MemoryHealth struct {
	Alloc  string `json:"alloc"`
	Sys    string `json:"sys"`
	GCRuns uint32 `json:"gc_runs"`
}

// DiskHealth represents disk usage
type DiskHealth struct {
	Available    string  `json:"available"`
	Total        string  `json:"total"`
	UsagePercent float64 `json:"usage_percent"`
	Status       string  `json:"status"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status      string `json:"status"`
	Healthy     bool   `json:"healthy"`
	Description string `json:"description,omitempty"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, searchEnabled bool) *HealthHandler {
	return &HealthHandler{
		db:            db,
		searchEnabled: searchEnabled,
		startTime:     time.Now(),
	}
}

// CheckHealth reports database, system and service health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := &HealthStatus{
		Version:     "1.0.0",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).String(),
		Environment: config.GetEnv("ENVIRONMENT", "development"),
		Database:    h.checkDatabaseHealth(ctx),
		System:      checkSystemHealth(),
		Services:    h.checkServicesHealth(),
	}

	health.Status = "healthy"
	switch {
	case health.Database.Status == "unhealthy" || health.Database.Status == "not_configured":
		health.Status = "unhealthy"
	case health.System.Disk.Status == "critical":
		health.Status = "degraded"
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkDatabaseHealth(ctx context.Context) *DatabaseHealth {
	if h.db == nil {
		return &DatabaseHealth{Status: "not_configured", Error: "Database not configured"}
	}

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		return &DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: time.Since(start).String(),
			Error:        err.Error(),
		}
	}

	elapsed := time.Since(start)
	status := "healthy"
	if elapsed > time.Second {
		status = "degraded"
	}
	return &DatabaseHealth{Status: status, Connected: true, ResponseTime: elapsed.String()}
}

func (h *HealthHandler) checkServicesHealth() map[string]*ServiceHealth {
	services := map[string]*ServiceHealth{
		"push_service":   {Status: "healthy", Healthy: true, Description: "Push notification processing"},
		"refund_service": {Status: "healthy", Healthy: true, Description: "Outbound refunds"},
	}
	if h.searchEnabled {
		services["opensearch_logger"] = &ServiceHealth{Status: "healthy", Healthy: true, Description: "Audit logging to OpenSearch"}
	} else {
		services["opensearch_logger"] = &ServiceHealth{Status: "not_configured", Description: "OpenSearch logging disabled"}
	}
	return services
}

func checkSystemHealth() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Memory: &MemoryHealth{
			Alloc:  formatBytes(memStats.Alloc),
			Sys:    formatBytes(memStats.Sys),
			GCRuns: memStats.NumGC,
		},
		Disk:       diskUsage("/"),
		GoRoutines: runtime.NumGoroutine(),
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func diskUsage(path string) *DiskHealth {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return &DiskHealth{Status: "error"}
	}

	available := stat.Bavail * uint64(stat.Bsize)
	total := stat.Blocks * uint64(stat.Bsize)
	used := total - (stat.Bfree * uint64(stat.Bsize))

	disk := &DiskHealth{
		Available: formatBytes(available),
		Total:     formatBytes(total),
	}
	if total > 0 {
		disk.UsagePercent = (float64(used) / float64(total)) * 100
	}

	switch {
	case disk.UsagePercent > 90:
		disk.Status = "critical"
	case disk.UsagePercent > 80:
		disk.Status = "warning"
	default:
		disk.Status = "healthy"
	}
	return disk
}
