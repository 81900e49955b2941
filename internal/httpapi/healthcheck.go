package httpapi

import (
	"net/http"

	"kyushu-tempmap/internal/utils"
)

// CacheStats reports snapshot cache counters for /healthz.
type CacheStats interface {
	Stats() (hits, misses int)
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	cache CacheStats
}

func NewHealthchecker(cache CacheStats) healthchecker {
	return &healthcheckerImpl{cache: cache}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if h.cache != nil {
		hits, misses := h.cache.Stats()
		body["cache"] = map[string]int{"hits": hits, "misses": misses}
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

// RegisterHealthcheck mounts GET /healthz. cache may be nil.
func RegisterHealthcheck(mux *http.ServeMux, cache CacheStats) {
	healthchecker := NewHealthchecker(cache)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
