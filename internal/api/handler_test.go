package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/orderlens/orderlens/internal/analytics"
	"github.com/orderlens/orderlens/internal/auth"
	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/intent"
	"github.com/orderlens/orderlens/internal/observability"
	"github.com/orderlens/orderlens/internal/store"
)

type stubClassifier struct {
	result intent.Intent
	err    error
}

func (s stubClassifier) Classify(context.Context, string) (intent.Intent, error) {
	return s.result, s.err
}

func newTestDeps(t *testing.T, classifier intent.Classifier) (Dependencies, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	db := &store.DB{SQL: mockDB, Dialect: store.DuckDB}
	cfg, err := config.Load("orderlens-api", func(key string) (string, bool) {
		switch key {
		case "ORDERLENS_PROFILE":
			return "test", true
		case "ORDERLENS_AI_API_KEY":
			return "test-key", true
		default:
			return "", false
		}
	})
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	logger := observability.NewLogger(cfg, nil)
	return Dependencies{
		Logger:     logger,
		Config:     cfg,
		DB:         db,
		Classifier: classifier,
		Dispatcher: analytics.NewDispatcher(db, logger),
	}, mock
}

func postAsk(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeAnswer(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload.Answer
}

func TestAskRevenueEndToEnd(t *testing.T) {
	deps, mock := newTestDeps(t, stubClassifier{result: intent.Intent{
		Type:    intent.TypeRevenue,
		Filters: map[string]string{"cidade": "São Paulo", "data_pedido": "2024-03"},
	}})
	handler := NewHandler(deps)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT SUM(valor_total) FROM pedidos WHERE cidade = ? AND strftime(data_pedido, '%Y-%m') = ?`)).
		WithArgs("São Paulo", "2024-03").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(102.0))

	recorder := postAsk(t, handler, "/ask", `{"question": "revenue for São Paulo in March 2024?"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if got := decodeAnswer(t, recorder); got != "total revenue: 102.00" {
		t.Fatalf("answer = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestAskOffTopicQuestion(t *testing.T) {
	deps, _ := newTestDeps(t, stubClassifier{result: intent.Intent{}})
	handler := NewHandler(deps)

	recorder := postAsk(t, handler, "/ask", `{"question": "what is the capital of France?"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if got := decodeAnswer(t, recorder); got != "sorry, I did not understand the requested analysis" {
		t.Fatalf("answer = %q", got)
	}
}

func TestAskClassifierFailureStaysConversational(t *testing.T) {
	deps, _ := newTestDeps(t, stubClassifier{err: &intent.ParseError{Raw: "gibberish"}})
	handler := NewHandler(deps)

	recorder := postAsk(t, handler, "/ask", `{"question": "revenue?"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, processing failures must not become error statuses", recorder.Code)
	}
	answer := decodeAnswer(t, recorder)
	if !strings.HasPrefix(answer, "error processing question:") {
		t.Fatalf("answer = %q", answer)
	}
	if strings.Contains(answer, "gibberish") {
		t.Fatalf("answer = %q, raw model output must stay in logs only", answer)
	}
}

func TestAskMissingQuestion(t *testing.T) {
	deps, _ := newTestDeps(t, stubClassifier{})
	handler := NewHandler(deps)

	recorder := postAsk(t, handler, "/ask", `{}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestAskMalformedBody(t *testing.T) {
	deps, _ := newTestDeps(t, stubClassifier{})
	handler := NewHandler(deps)

	recorder := postAsk(t, handler, "/ask", `not json`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestAgentAskDisabled(t *testing.T) {
	deps, _ := newTestDeps(t, stubClassifier{})
	handler := NewHandler(deps)

	recorder := postAsk(t, handler, "/v1/agent/ask", `{"question": "how many orders?"}`)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestHealth(t *testing.T) {
	deps, _ := newTestDeps(t, stubClassifier{})
	handler := NewHandler(deps)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestReadyChecksStore(t *testing.T) {
	deps, mock := newTestDeps(t, stubClassifier{})
	handler := NewHandler(deps)

	mock.ExpectPing()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestReadyFailsWithoutAIKey(t *testing.T) {
	deps, mock := newTestDeps(t, stubClassifier{})
	deps.Config.AI.APIKey = ""
	handler := NewHandler(deps)

	mock.ExpectPing()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestAskRequiresAPIKeyWhenAuthEnabled(t *testing.T) {
	deps, _ := newTestDeps(t, stubClassifier{result: intent.Intent{}})
	deps.Config.Auth.Required = true
	validator, err := auth.NewStaticAPIKeyValidator("secret-key")
	if err != nil {
		t.Fatalf("NewStaticAPIKeyValidator() error = %v", err)
	}
	deps.Validator = validator
	handler := NewHandler(deps)

	recorder := postAsk(t, handler, "/ask", `{"question": "revenue?"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "revenue?"}`))
	request.Header.Set("X-API-Key", "secret-key")
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d with valid key", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("health status = %d, health must stay open", recorder.Code)
	}
}
