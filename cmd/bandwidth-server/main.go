// Package main implements the bandwidth web server: an HTTP surface over
// the availability-scoring engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/bandwidth/pkg/bandwidth"
	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
	"github.com/codeGROOVE-dev/bandwidth/pkg/persona"
	"github.com/codeGROOVE-dev/bandwidth/pkg/respcache"
	"github.com/codeGROOVE-dev/bandwidth/pkg/workday"
)

const maxBodyBytes = 1 << 20 // requests are event lists, 1MB is generous

var (
	port         = flag.String("port", "8080", "Port for web server")
	personasFile = flag.String("personas", "", "Persona overrides file, YAML or JSON (or set PERSONAS_FILE)")
	cacheTTL     = flag.Duration("cache-ttl", time.Hour, "TTL for cached analysis responses")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 60 requests per minute per IP
	if len(valid) >= 60 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("bandwidth Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *personasFile == "" {
		*personasFile = os.Getenv("PERSONAS_FILE")
	}

	personas := persona.Builtin()
	if *personasFile != "" {
		loaded, err := persona.LoadOverrides(*personasFile)
		if err != nil {
			logger.Error("Failed to load persona overrides", "path", *personasFile, "error", err)
			os.Exit(1)
		}
		personas = loaded
	}

	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"cache_ttl", *cacheTTL,
		"personas_file", *personasFile,
		"personas", personas.IDs())

	server := &server{
		analyzer: bandwidth.NewWithLogger(logger, bandwidth.WithPersonas(personas)),
		cache:    respcache.New(*cacheTTL, logger),
		limiter:  newRateLimiter(),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/analyze", server.handleAnalyze)
	mux.HandleFunc("POST /api/v1/analyze-multiday", server.handleAnalyzeMultiDay)
	mux.HandleFunc("GET /healthz", server.handleHealth)

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           server.wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

type server struct {
	analyzer *bandwidth.Analyzer
	cache    *respcache.Cache
	limiter  *rateLimiter
	logger   *slog.Logger
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			w.Header().Set("Pragma", "no-cache")
		}

		handler.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	return strings.Split(r.RemoteAddr, ":")[0]
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"cached_entries": s.cache.Len(),
	}); err != nil {
		s.logger.Error("Failed to encode health response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, requestID, message string, status int) {
	s.logger.Error("Request rejected",
		"request_id", requestID,
		"status", status,
		"error", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		s.logger.Error("Failed to encode error response", "request_id", requestID, "error", err)
	}
}

// readBody enforces the rate limit and returns the raw request body; a nil
// result means the response has already been written.
func (s *server) readBody(w http.ResponseWriter, r *http.Request) []byte {
	requestID := w.Header().Get("X-Request-ID")

	if !s.limiter.allow(clientIP(r)) {
		s.logger.Error("Rate limit exceeded",
			"request_id", requestID,
			"client_ip", clientIP(r))
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, requestID, "Invalid request", http.StatusBadRequest)
		return nil
	}
	return body
}

func (s *server) respond(w http.ResponseWriter, requestID string, endpoint string, body, data []byte, cached bool) {
	w.Header().Set("Content-Type", "application/json")
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
		s.cache.Set(endpoint, body, data)
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write response",
			"request_id", requestID,
			"error", err,
			"response_size", len(data))
	}
}

type analyzeRequest struct {
	TimeZone         string                 `json:"timeZone"`
	Date             string                 `json:"date"`
	Persona          string                 `json:"persona"`
	AdvancedResponse bandwidth.AdvancedFlag `json:"advancedResponse"`
	Events           []calendar.RawEvent    `json:"events"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get("X-Request-ID")

	body := s.readBody(w, r)
	if body == nil {
		return
	}

	if data, found := s.cache.Get(r.URL.Path, body); found {
		s.respond(w, requestID, r.URL.Path, body, data, true)
		return
	}

	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, requestID, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.TimeZone == "" {
		req.TimeZone = "UTC"
	}
	if req.Date != "" {
		if _, ok := workday.ParseDate(req.Date); !ok {
			s.writeError(w, requestID, "Invalid date. Use YYYY-MM-DD.", http.StatusBadRequest)
			return
		}
	}

	analysis := s.analyzer.AnalyzeDay(req.Events, req.TimeZone, req.Date, req.Persona)
	data, err := json.Marshal(analysis.Response(req.TimeZone, bool(req.AdvancedResponse)))
	if err != nil {
		s.logger.Error("JSON encoding failed", "request_id", requestID, "error", err)
		http.Error(w, "Encoding failed", http.StatusInternalServerError)
		return
	}

	s.respond(w, requestID, r.URL.Path, body, data, false)
	s.logger.Info("Analyze request completed",
		"request_id", requestID,
		"date", analysis.Date,
		"zone", req.TimeZone,
		"persona", analysis.Profile.ID,
		"slots", len(analysis.AvailableSlots),
		"duration_ms", time.Since(start).Milliseconds())
}

type analyzeMultiDayRequest struct {
	TimeZone         string                 `json:"timeZone"`
	Persona          string                 `json:"persona"`
	AdvancedResponse bandwidth.AdvancedFlag `json:"advancedResponse"`
	Schedules        []bandwidth.Schedule   `json:"schedules"`
}

func (s *server) handleAnalyzeMultiDay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get("X-Request-ID")

	body := s.readBody(w, r)
	if body == nil {
		return
	}

	if data, found := s.cache.Get(r.URL.Path, body); found {
		s.respond(w, requestID, r.URL.Path, body, data, true)
		return
	}

	var req analyzeMultiDayRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, requestID, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.TimeZone == "" {
		req.TimeZone = "UTC"
	}
	if len(req.Schedules) == 0 {
		s.writeError(w, requestID, "schedules must be a non-empty array.", http.StatusBadRequest)
		return
	}
	for _, schedule := range req.Schedules {
		if _, ok := workday.ParseDate(schedule.Date); !ok {
			s.writeError(w, requestID, "Each schedule.date must be YYYY-MM-DD.", http.StatusBadRequest)
			return
		}
	}

	analysis := s.analyzer.AnalyzeMultiDay(req.Schedules, req.TimeZone, req.Persona)
	data, err := json.Marshal(analysis.Response(req.TimeZone, bool(req.AdvancedResponse)))
	if err != nil {
		s.logger.Error("JSON encoding failed", "request_id", requestID, "error", err)
		http.Error(w, "Encoding failed", http.StatusInternalServerError)
		return
	}

	s.respond(w, requestID, r.URL.Path, body, data, false)
	s.logger.Info("Multi-day analyze request completed",
		"request_id", requestID,
		"days", len(analysis.Days),
		"zone", req.TimeZone,
		"persona", analysis.Profile.ID,
		"duration_ms", time.Since(start).Milliseconds())
}
