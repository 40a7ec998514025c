package apiserver

import (
	"net/http"
	"time"

	"github.com/costpilot/costpilot/internal/apiserver/handler"
	"github.com/costpilot/costpilot/internal/config"
)

// NewServer creates a new HTTP server for the REST API.
func NewServer(cfg *config.Config, builder handler.ReportBuilder, narrative handler.NarrativeGenerator) *http.Server {
	router := NewRouter(builder, narrative)

	return &http.Server{
		Addr:         cfg.APIServer.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
