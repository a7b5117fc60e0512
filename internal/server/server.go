package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/campuswell/nutriscan/internal/auth"
	"github.com/campuswell/nutriscan/internal/config"
	"github.com/campuswell/nutriscan/internal/history"
	"github.com/campuswell/nutriscan/internal/lookup"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// HistoryResponse represents the scan history response
type HistoryResponse struct {
	Scans []history.Entry `json:"scans"`
}

// ErrorResponse is the JSON body returned for failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server serves the barcode lookup API over HTTP
type Server struct {
	config  *config.Config
	svc     *lookup.Service
	history *history.Store
	auth    *auth.TokenAuth
	log     *slog.Logger
}

// New creates a new server instance. history may be nil when scan
// history is disabled.
func New(cfg *config.Config, svc *lookup.Service, hist *history.Store, logger *slog.Logger) *Server {
	return &Server{
		config:  cfg,
		svc:     svc,
		history: hist,
		auth:    auth.New(cfg.App.AuthToken),
		log:     logger,
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(Recovery(s.log))
	r.Use(RequestID)
	r.Use(Logging(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Public routes
	r.Get("/health", s.handleHealth)

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/product/{barcode}", s.handleProduct)
			r.Post("/reset", s.handleReset)
			r.Get("/history", s.handleHistory)
		})
	})

	return r
}

// Start runs the HTTP server until ctx is canceled or a shutdown
// signal arrives.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting NutriScan API server", "addr", s.config.Server.Address())

	if s.config.App.IsDevelopment() {
		s.log.Warn("Development mode enabled",
			"environment", s.config.App.Environment,
			"note", "Detailed error messages will be returned to clients")
	}

	server := &http.Server{
		Addr:         s.config.Server.Address(),
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	go func() {
		s.log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down server due to context cancellation")
	case sig := <-sigChan:
		s.log.Info("Shutting down server", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", "error", err)
	}

	s.log.Info("Server stopped")
	return nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Authorized(r) {
			s.auth.SetUnauthorizedHeaders(w)
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Ready: true})
}

// handleProduct runs the lookup pipeline for a barcode and returns the
// scored result.
func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if !validBarcode(barcode) {
		writeError(w, http.StatusBadRequest, "invalid_barcode", "barcode must be 1-20 digits")
		return
	}

	state := s.svc.LookupBarcode(r.Context(), barcode)

	switch {
	case state.IsNotFound:
		writeError(w, http.StatusNotFound, "not_found", "no product for barcode "+barcode)
	case state.IsError:
		writeError(w, http.StatusBadGateway, "upstream_error", "product lookup failed")
	default:
		writeJSON(w, http.StatusOK, state.ScannedFood)
	}
}

// handleReset clears the active scan state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.svc.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHistory returns the most recent recorded scans.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "scan history is not enabled")
		return
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error("History query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read scan history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Scans: entries})
}

// validBarcode accepts the numeric codes Open Food Facts uses
// (EAN-8, EAN-13, UPC-A and friends).
func validBarcode(barcode string) bool {
	if len(barcode) == 0 || len(barcode) > 20 {
		return false
	}
	for i := 0; i < len(barcode); i++ {
		if barcode[i] < '0' || barcode[i] > '9' {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
