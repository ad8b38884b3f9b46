package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/edgekit/edgekit/internal/domain"
	"github.com/edgekit/edgekit/internal/resultcache"
)

// SystemHandlers serves health and capability endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	cache     *resultcache.Cache
	startTime time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, cache *resultcache.Cache) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		cache:     cache,
		startTime: time.Now(),
	}
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	cpuAvg, ramPercent := h.getSystemStats()

	h.writeJSON(w, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"cached_imports": h.cache.Len(),
		"goroutines":     runtime.NumGoroutine(),
		"cpu_percent":    cpuAvg,
		"ram_percent":    ramPercent,
	})
}

// HandleListBrokers handles GET /api/brokers, enumerating the supported tags.
func (h *SystemHandlers) HandleListBrokers(w http.ResponseWriter, r *http.Request) {
	tags := make([]string, 0, len(domain.SupportedBrokers))
	for _, b := range domain.SupportedBrokers {
		tags = append(tags, string(b))
	}
	h.writeJSON(w, map[string]interface{}{"data": tags})
}

// getSystemStats calculates CPU and RAM usage percentages. The short CPU
// sampling interval keeps the health endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
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

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
