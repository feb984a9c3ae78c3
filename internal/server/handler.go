package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/internal/metrics"
	"github.com/felixgeelhaar/agentplan/internal/plan"
	"github.com/felixgeelhaar/agentplan/internal/telemetry"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// handlePlan serves POST /api/plan.
//
//	200 {"plan": PlanNode}
//	400 {"error": "Idea is required"} or {"error": "Invalid request body"}
//	413 {"error": "Request body too large"}
//	500 {"error": <message>}
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		s.fail(w, r, errors.NewRequestMalformedError(err))
		return
	}

	idea := strings.TrimSpace(req.Idea)
	if idea == "" {
		s.fail(w, r, errors.NewInvalidInputError())
		return
	}
	opts := req.Options.Apply(s.cfg.Defaults).Normalize()

	key, err := plan.Fingerprint(idea, opts)
	if err != nil {
		s.fail(w, r, errors.NewGenerationError(err))
		return
	}
	if body, ok := s.cache.Get(key); ok {
		s.recordCache(true)
		writeRaw(w, http.StatusOK, body)
		return
	}
	if s.cache != nil {
		s.recordCache(false)
	}

	body, err := s.generateBody(r, idea, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.cache.Set(key, body)
	writeRaw(w, http.StatusOK, body)
}

// generateBody generates and encodes one plan response
func (s *Server) generateBody(r *http.Request, idea string, opts types.Options) ([]byte, error) {
	_, span := telemetry.StartGenerateSpan(r.Context(), "http", opts)
	defer span.End()

	start := time.Now()
	root, err := s.generate(idea, opts)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.RecordError(span, err)
		s.recordGeneration(elapsed, nil, err)
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(types.GenerateResponse{Plan: root}); err != nil {
		wrapped := errors.NewGenerationError(err)
		telemetry.RecordError(span, wrapped)
		return nil, wrapped
	}

	stats := plan.Summarize(root)
	telemetry.RecordSuccess(span, attribute.Int("plan.nodes", stats.Nodes))
	s.recordGeneration(elapsed, &stats, nil)

	return buf.Bytes(), nil
}

// fail maps err onto a status code and writes {"error": message}
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeRequestMalformed:
		status = http.StatusBadRequest
	}

	message := errors.MessageOf(err)
	if message == "" {
		message = "Unknown error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.LogError(r.Context(), "plan request failed", err)
	} else {
		s.logger.WithContext(r.Context()).Debug("plan request rejected", "error", message)
	}
	if s.metrics != nil {
		s.metrics.RecordError(string(errors.CodeOf(err)), "server")
	}

	writeJSONError(w, status, message)
}

func (s *Server) recordGeneration(d time.Duration, stats *plan.Stats, err error) {
	if s.metrics == nil {
		return
	}
	var shape metrics.PlanShape
	if stats != nil {
		shape.MaxDepth = stats.MaxDepth
		shape.ByType = make(map[string]int, len(stats.ByType))
		for t, n := range stats.ByType {
			shape.ByType[t.String()] = n
		}
	}
	s.metrics.RecordGeneration("http", d, shape, err)
}

func (s *Server) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache(hit)
	}
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
