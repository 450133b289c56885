// Package server exposes the engine over a JSON HTTP control surface:
// action submission for producers, queue operations for operators, and
// read-only boundary, audit, and stats views.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/avrelio/warden/internal/approval"
	"github.com/avrelio/warden/internal/audit"
	"github.com/avrelio/warden/internal/engine"
	"github.com/avrelio/warden/internal/model"
)

// Config holds HTTP server configuration.
type Config struct {
	Listen             string
	BoundaryConfigPath string
}

// Server wraps the engine with an HTTP API.
type Server struct {
	engine *engine.Engine
	cfg    Config
	http   *http.Server
}

// New creates a Server over an engine.
func New(e *engine.Engine, cfg Config) *Server {
	s := &Server{engine: e, cfg: cfg}
	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler. For testing.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Serve listens on the configured address. Blocks until shutdown.
func (s *Server) Serve() error {
	return s.http.ListenAndServe()
}

// ServeOn serves on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	return s.http.Serve(lis)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// ReloadBoundaries swaps in the boundary config from disk.
// Called by the hot-reloader on file change.
func (s *Server) ReloadBoundaries() error {
	return s.engine.ReloadBoundaries(s.cfg.BoundaryConfigPath)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/actions", s.handleSubmit)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("PUT /v1/level", s.handleSetLevel)

	mux.HandleFunc("GET /v1/queue", s.handleQueue)
	mux.HandleFunc("GET /v1/queue/{id}", s.handleQueueGet)
	mux.HandleFunc("POST /v1/queue/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /v1/queue/{id}/reject", s.handleReject)
	mux.HandleFunc("POST /v1/queue/batch-approve", s.handleBatchApprove)

	mux.HandleFunc("GET /v1/boundaries", s.handleBoundaries)
	mux.HandleFunc("GET /v1/audit", s.handleAuditTail)
	mux.HandleFunc("GET /v1/audit/verify", s.handleAuditVerify)
	mux.HandleFunc("GET /v1/audit/trace/{action_id}", s.handleAuditTrace)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	return mux
}

type submitPayload struct {
	Category          string         `json:"category"`
	Type              string         `json:"type"`
	FinancialValue    *float64       `json:"financial_value,omitempty"`
	Reversible        bool           `json:"reversible"`
	Urgency           string         `json:"urgency,omitempty"`
	ExternallyVisible bool           `json:"externally_visible"`
	Payload           map[string]any `json:"payload,omitempty"`
	SourceEngine      string         `json:"source_engine"`
}

type submitResponse struct {
	ActionID   string          `json:"action_id"`
	Decision   *model.Decision `json:"decision"`
	RequestID  string          `json:"request_id,omitempty"`
	ExecStatus string          `json:"exec_status,omitempty"`
	ExecError  string          `json:"exec_error,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var p submitPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	a := model.NewAction(model.Category(p.Category), p.Type, p.SourceEngine)
	a.FinancialValue = p.FinancialValue
	a.Reversible = p.Reversible
	a.ExternallyVisible = p.ExternallyVisible
	a.Payload = p.Payload
	if p.Urgency != "" {
		a.Urgency = model.Urgency(p.Urgency)
	}

	sub, err := s.engine.Submit(r.Context(), a)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, approval.ErrQueueFull):
			writeError(w, http.StatusTooManyRequests, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	resp := submitResponse{ActionID: a.ID, Decision: sub.Decision}
	if sub.Request != nil {
		resp.RequestID = sub.Request.ID
	}
	if sub.Exec != nil {
		resp.ExecStatus = string(sub.Exec.Status)
		if sub.Exec.Err != nil {
			resp.ExecError = sub.Exec.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"autonomy_level": snap.AutonomyLevel,
		"level_label":    snap.LevelLabel,
		"pending":        snap.Queue[approval.StatusPending],
		"audit_seq":      snap.AuditSeq,
	})
}

func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := s.engine.SetLevel(p.Level); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"level": p.Level})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": s.engine.Pending(),
	})
}

func (s *Server) handleQueueGet(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.Request(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type resolvePayload struct {
	Feedback string `json:"feedback,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type resolveResponse struct {
	Request    *approval.Request `json:"request"`
	Changed    bool              `json:"changed"`
	ExecStatus string            `json:"exec_status,omitempty"`
	ExecError  string            `json:"exec_error,omitempty"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var p resolvePayload
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&p) // empty body = no feedback
	}

	req, result, err := s.engine.Approve(r.Context(), r.PathValue("id"), p.Feedback)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := resolveResponse{Request: req, Changed: result != nil}
	if result != nil {
		resp.ExecStatus = string(result.Status)
		if result.Err != nil {
			resp.ExecError = result.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var p resolvePayload
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&p)
	}
	if p.Reason == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reject requires a reason"))
		return
	}

	req, changed, err := s.engine.Reject(r.PathValue("id"), p.Reason)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Request: req, Changed: changed})
}

type batchPayload struct {
	SafeOnly bool   `json:"safe_only,omitempty"`
	MaxLevel string `json:"max_level,omitempty"`
	Category string `json:"category,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

func (s *Server) handleBatchApprove(w http.ResponseWriter, r *http.Request) {
	var p batchPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	f := approval.Filter{
		SafeOnly: p.SafeOnly,
		MaxLevel: model.RiskLevel(p.MaxLevel),
		Category: model.Category(p.Category),
	}
	approved, err := s.engine.BatchApprove(r.Context(), f, p.Feedback)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"approved": len(approved),
		"requests": approved,
	})
}

func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	cfg, usage := s.engine.Boundaries()
	writeJSON(w, http.StatusOK, map[string]any{
		"limits": cfg.Categories,
		"usage":  usage,
	})
}

func (s *Server) handleAuditTail(w http.ResponseWriter, r *http.Request) {
	path := s.engine.AuditPath()
	if path == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("auditing disabled"))
		return
	}

	n := 20
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("n must be a positive integer"))
			return
		}
		n = parsed
	}

	entries, err := audit.Tail(path, n, audit.EntryType(r.URL.Query().Get("type")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleAuditVerify(w http.ResponseWriter, r *http.Request) {
	path := s.engine.AuditPath()
	if path == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("auditing disabled"))
		return
	}
	writeJSON(w, http.StatusOK, audit.Verify(path))
}

func (s *Server) handleAuditTrace(w http.ResponseWriter, r *http.Request) {
	path := s.engine.AuditPath()
	if path == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("auditing disabled"))
		return
	}
	result, err := audit.Trace(path, audit.TraceFilter{ActionID: r.PathValue("action_id")})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func statusFor(err error) int {
	if errors.Is(err, approval.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
