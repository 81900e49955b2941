package httpapi

import (
	"net/http"
	"time"

	"kyushu-tempmap/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
