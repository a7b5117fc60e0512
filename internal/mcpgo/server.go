// Package mcpgo exposes the lookup pipeline as MCP tools over stdio or
// streamable HTTP, using the mark3labs SDK.
package mcpgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/campuswell/nutriscan/internal/auth"
	"github.com/campuswell/nutriscan/internal/cache"
	"github.com/campuswell/nutriscan/internal/history"
	"github.com/campuswell/nutriscan/internal/lookup"
	"github.com/campuswell/nutriscan/internal/types"
)

// responseRecorder wraps http.ResponseWriter to capture response details
type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.headerWritten {
		return // Prevent duplicate WriteHeader calls
	}
	r.statusCode = code
	r.headerWritten = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.headerWritten {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytesWritten += n
	return n, err
}

// Server wraps the mark3labs MCP server with authentication
type Server struct {
	mcpServer *server.MCPServer
	svc       *lookup.Service
	history   *history.Store
	store     cache.Store
	auth      *auth.TokenAuth
	log       *slog.Logger

	// Health check caching to prevent DOS attacks
	healthMu        sync.RWMutex
	lastHealthCheck time.Time
	lastHealthError error
}

// LookupBarcodeResponse represents the response from lookup_barcode
type LookupBarcodeResponse struct {
	Found  bool                `json:"found"`
	Result *types.LookupResult `json:"result,omitempty"`
}

// RecentScansResponse represents the response from recent_scans
type RecentScansResponse struct {
	Count int             `json:"count"`
	Scans []history.Entry `json:"scans"`
}

// NewServer creates a new MCP server with the mark3labs SDK. hist may be
// nil when scan history is disabled.
func NewServer(svc *lookup.Service, hist *history.Store, store cache.Store, authenticator *auth.TokenAuth, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		"NutriScan MCP Server",
		"1.0.0",
		server.WithToolCapabilities(false), // Tools don't change dynamically
		server.WithRecovery(),              // Recover from panics
		server.WithLogging(),               // Enable logging
	)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
		history:   hist,
		store:     store,
		auth:      authenticator,
		log:       logger,
	}

	s.addTools()

	return s
}

// checkHealthWithCache probes the result store with 10-second caching to
// prevent DOS attacks through the health endpoint.
func (s *Server) checkHealthWithCache(ctx context.Context) error {
	const cacheDuration = 10 * time.Second

	s.healthMu.RLock()
	if time.Since(s.lastHealthCheck) < cacheDuration {
		err := s.lastHealthError
		s.healthMu.RUnlock()
		s.log.Debug("Health check: using cached result",
			"cached_error", err != nil,
			"cache_age", time.Since(s.lastHealthCheck))
		return err
	}
	s.healthMu.RUnlock()

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	// Double-check in case another goroutine updated while waiting for write lock
	if time.Since(s.lastHealthCheck) < cacheDuration {
		return s.lastHealthError
	}

	s.log.Debug("Health check: probing result store")
	_, err := s.store.Get(ctx, "healthcheck")
	if errors.Is(err, cache.ErrMiss) {
		err = nil // a miss means the store answered
	}
	s.lastHealthCheck = time.Now()
	s.lastHealthError = err

	return err
}

func (s *Server) addTools() {
	lookupTool := mcp.NewTool("lookup_barcode",
		mcp.WithDescription("Look up a food product by barcode (UPC/EAN) and return its normalized nutrition, flagged ingredients, health score and tier."),
		mcp.WithString("barcode",
			mcp.Required(),
			mcp.MinLength(1), // must be at least 1 char
			mcp.Description("The barcode (UPC/EAN) to look up. Required and must be a non-empty string."),
		),
		mcp.WithOutputSchema[LookupBarcodeResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.mcpServer.AddTool(lookupTool, s.handleLookupBarcode)

	recentTool := mcp.NewTool("recent_scans",
		mcp.WithDescription("Return the most recently scanned products with their health scores and tiers."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of scans to return (default: 20, max: 100)"),
			mcp.DefaultNumber(20),
			mcp.Min(1),
			mcp.Max(100),
		),
		mcp.WithOutputSchema[RecentScansResponse](),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.mcpServer.AddTool(recentTool, s.handleRecentScans)
}

func (s *Server) handleLookupBarcode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("handleLookupBarcode: Starting tool call",
		"arguments", request.GetArguments())

	barcode, err := request.RequireString("barcode")
	if err != nil {
		s.log.Warn("handleLookupBarcode: Missing 'barcode' parameter", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'barcode': %v", err)), nil
	}

	s.log.Debug("MCP LookupBarcode called", "barcode", barcode)

	state := s.svc.LookupBarcode(ctx, barcode)
	if state.IsError {
		s.log.Error("Barcode lookup failed", "barcode", barcode)
		return mcp.NewToolResultError(fmt.Sprintf("Lookup failed for barcode %s: upstream error", barcode)), nil
	}

	response := LookupBarcodeResponse{
		Found:  !state.IsNotFound,
		Result: state.ScannedFood,
	}

	// Create fallback text for backwards compatibility
	responseJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		s.log.Error("handleLookupBarcode: Failed to marshal response", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}

	s.log.Debug("handleLookupBarcode: Returning structured result",
		"found", response.Found,
		"response_size", len(responseJSON))

	// Return both structured content and text fallback for maximum compatibility
	return mcp.NewToolResultStructured(response, string(responseJSON)), nil
}

func (s *Server) handleRecentScans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("handleRecentScans: Starting tool call",
		"arguments", request.GetArguments())

	if s.history == nil {
		return mcp.NewToolResultError("Scan history is not enabled on this server"), nil
	}

	limitFloat := request.GetFloat("limit", 20.0)
	limit := int(limitFloat)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	scans, err := s.history.Recent(ctx, limit)
	if err != nil {
		s.log.Error("History query failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("History query failed: %v", err)), nil
	}
	if scans == nil {
		scans = []history.Entry{}
	}

	response := RecentScansResponse{
		Count: len(scans),
		Scans: scans,
	}

	responseJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		s.log.Error("handleRecentScans: Failed to marshal response", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}

	s.log.Debug("handleRecentScans: Returning structured result",
		"count", response.Count,
		"response_size", len(responseJSON))

	return mcp.NewToolResultStructured(response, string(responseJSON)), nil
}

// ServeHTTP serves the MCP server over HTTP with authentication
func (s *Server) ServeHTTP(addr string) error {
	mux := http.NewServeMux()

	// Health endpoint (no auth required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Use cached health check to prevent DOS attacks
		ctx := r.Context()
		if err := s.checkHealthWithCache(ctx); err != nil {
			s.log.Error("Health check failed", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
		})
	})

	// Create the streamable HTTP server
	streamableServer := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true), // Stateless for better OpenAI compatibility
	)

	// MCP endpoint with authentication and enhanced error logging
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovery := recover(); recovery != nil {
				s.log.Error("MCP endpoint panic recovered",
					"panic", recovery,
					"method", r.Method,
					"url", r.URL.String(),
					"remote_addr", r.RemoteAddr)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			}
		}()

		s.log.Debug("MCP request received",
			"method", r.Method,
			"url", r.URL.String(),
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"remote_addr", r.RemoteAddr)

		if !s.auth.Authorized(r) {
			s.auth.SetUnauthorizedHeaders(w)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			s.log.Warn("Unauthorized MCP request", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())
			return
		}

		recorder := &responseRecorder{ResponseWriter: w}

		streamableServer.ServeHTTP(recorder, r)

		s.log.Debug("MCP response sent",
			"status_code", recorder.statusCode,
			"response_size", recorder.bytesWritten,
			"content_type", recorder.Header().Get("Content-Type"))
	})

	s.log.Info("Starting MCP server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

// ServeStdio serves the MCP server over stdio (no auth required for local use)
func (s *Server) ServeStdio() error {
	s.log.Info("Starting MCP server in stdio mode")
	return server.ServeStdio(s.mcpServer)
}
