// Package api exposes the question-answering HTTP surface plus health and
// metrics endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderlens/orderlens/internal/agent"
	"github.com/orderlens/orderlens/internal/analytics"
	"github.com/orderlens/orderlens/internal/auth"
	"github.com/orderlens/orderlens/internal/compose"
	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/intent"
	"github.com/orderlens/orderlens/internal/observability"
	"github.com/orderlens/orderlens/internal/store"
)

// Dependencies carries everything a request handler needs. Built once at
// process start; no package-level state.
type Dependencies struct {
	Logger     *slog.Logger
	Config     config.Config
	DB         *store.DB
	Classifier intent.Classifier
	Dispatcher *analytics.Dispatcher
	Composer   *compose.Composer // nil disables conversational rephrasing
	Agent      *agent.Agent      // nil disables the agent endpoint
	Validator  auth.APIKeyValidator
}

func NewHandler(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.Handler) http.Handler { return h }
	if deps.Config.Auth.Required && deps.Validator != nil {
		protect = auth.Middleware(deps.Logger, deps.Validator)
	}

	mux.Handle("POST /ask", protect(http.HandlerFunc(deps.handleAsk)))
	mux.Handle("POST /v1/agent/ask", protect(http.HandlerFunc(deps.handleAgentAsk)))
	mux.HandleFunc("GET /v1/health", deps.handleHealth)
	mux.HandleFunc("GET /v1/ready", deps.handleReady)
	mux.Handle("GET /v1/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = observability.LoggingMiddleware(deps.Logger)(handler)
	handler = observability.MetricsMiddleware(handler)
	handler = observability.TraceMiddleware(handler)
	return handler
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// handleAsk runs classifier, dispatcher and optionally the composer. Any
// processing failure is reported inside a normal answer with status 200;
// only a malformed request gets an error status.
func (deps Dependencies) handleAsk(w http.ResponseWriter, r *http.Request) {
	question, ok := deps.decodeQuestion(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	classified, err := deps.Classifier.Classify(ctx, question)
	if err != nil {
		deps.logProcessingError(r, "classify failed", err)
		observability.ObserveQuestion("", "classify_error")
		writeJSON(w, http.StatusOK, askResponse{Answer: "error processing question: could not interpret the question"})
		return
	}

	outcome, err := deps.Dispatcher.Dispatch(ctx, classified)
	if err != nil {
		deps.logProcessingError(r, "dispatch failed", err)
		observability.ObserveQuestion(string(classified.Type), "dispatch_error")
		writeJSON(w, http.StatusOK, askResponse{Answer: "error processing question: " + err.Error()})
		return
	}

	answer := analytics.Format(outcome)
	if deps.Composer != nil && classified.Type != "" {
		composed, err := deps.Composer.Compose(ctx, question, classified, answer)
		if err != nil {
			deps.logProcessingError(r, "compose failed", err)
			observability.ObserveQuestion(string(classified.Type), "compose_error")
			writeJSON(w, http.StatusOK, askResponse{Answer: "error processing question: " + err.Error()})
			return
		}
		answer = composed
	}

	observability.ObserveQuestion(string(classified.Type), "ok")
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (deps Dependencies) handleAgentAsk(w http.ResponseWriter, r *http.Request) {
	if deps.Agent == nil {
		writeError(w, r, http.StatusNotFound, "agent is not enabled")
		return
	}
	question, ok := deps.decodeQuestion(w, r)
	if !ok {
		return
	}

	answer, err := deps.Agent.Answer(r.Context(), question)
	if err != nil {
		deps.logProcessingError(r, "agent failed", err)
		observability.ObserveQuestion("agent", "agent_error")
		writeJSON(w, http.StatusOK, askResponse{Answer: "error processing question: " + err.Error()})
		return
	}

	observability.ObserveQuestion("agent", "ok")
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (deps Dependencies) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (deps Dependencies) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := deps.DB.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": err.Error(),
		})
		return
	}
	if deps.Config.AI.APIKey == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "ai api key is not configured",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (deps Dependencies) decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.Question == "" {
		writeError(w, r, http.StatusBadRequest, "question is required")
		return "", false
	}
	return req.Question, true
}

func (deps Dependencies) logProcessingError(r *http.Request, message string, err error) {
	if deps.Logger == nil {
		return
	}
	deps.Logger.ErrorContext(r.Context(), message,
		slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":    message,
		"trace_id": observability.TraceIDFromContext(r.Context()),
	})
}
