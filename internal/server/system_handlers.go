package server

import (
	"encoding/json"
	"net/http"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/woodid012/renew-asset-platform-sub004/internal/database"
)

// SystemHandlers serves process and database health endpoints.
type SystemHandlers struct {
	dataDir   string
	databases []*database.DB
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(dataDir string, databases []*database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		dataDir:   dataDir,
		databases: databases,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth handles GET /health. A fast liveness probe: pings every
// database and reports degraded rather than failing the whole check.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	databases := make(map[string]string, len(h.databases))
	for _, db := range h.databases {
		if err := db.Conn().PingContext(r.Context()); err != nil {
			databases[db.Name()] = "unreachable"
			status = "degraded"
			continue
		}
		databases[db.Name()] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, map[string]interface{}{
		"status":         status,
		"databases":      databases,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, ramPct := h.systemStats()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cpu_percent":    cpuPct,
		"ram_percent":    ramPct,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{}, len(h.databases))
	for _, db := range h.databases {
		s, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			stats[db.Name()] = map[string]string{"error": err.Error()}
			continue
		}
		stats[db.Name()] = map[string]interface{}{
			"size_mb":     float64(s.SizeBytes) / 1024 / 1024,
			"wal_size_mb": float64(s.WALSizeBytes) / 1024 / 1024,
			"page_count":  s.PageCount,
			"page_size":   s.PageSize,
		}
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// HandleDiskUsage handles GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	totalGB := float64(stat.Blocks*uint64(stat.Bsize)) / 1e9
	availableGB := float64(stat.Bavail*uint64(stat.Bsize)) / 1e9

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data_dir":     h.dataDir,
		"total_gb":     totalGB,
		"available_gb": availableGB,
		"used_pct":     (totalGB - availableGB) / totalGB * 100,
	})
}

// systemStats samples CPU and RAM usage. A 100ms CPU window keeps the
// endpoint fast enough for dashboard polling.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
