package intent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/orderlens/orderlens/internal/llm"
)

func TestParseModelOutput(t *testing.T) {
	parsed, err := ParseModelOutput(`{"type": "revenue", "filters": {"cidade": "São Paulo", "data_pedido": "2024-03"}}`)
	if err != nil {
		t.Fatalf("ParseModelOutput() error = %v", err)
	}
	if parsed.Type != TypeRevenue {
		t.Fatalf("Type = %q", parsed.Type)
	}
	if parsed.Filters["cidade"] != "São Paulo" || parsed.Filters["data_pedido"] != "2024-03" {
		t.Fatalf("Filters = %v", parsed.Filters)
	}
}

func TestParseModelOutputNullType(t *testing.T) {
	parsed, err := ParseModelOutput(`{"type": null, "filters": {}}`)
	if err != nil {
		t.Fatalf("ParseModelOutput() error = %v", err)
	}
	if parsed.Type != "" {
		t.Fatalf("Type = %q, want empty", parsed.Type)
	}
	if len(parsed.Filters) != 0 {
		t.Fatalf("Filters = %v, want empty", parsed.Filters)
	}
}

func TestParseModelOutputStripsFence(t *testing.T) {
	parsed, err := ParseModelOutput("```json\n{\"type\": \"order_count\", \"filters\": {}}\n```")
	if err != nil {
		t.Fatalf("ParseModelOutput() error = %v", err)
	}
	if parsed.Type != TypeOrderCount {
		t.Fatalf("Type = %q", parsed.Type)
	}
}

func TestParseModelOutputDropsEmptyFilterValues(t *testing.T) {
	parsed, err := ParseModelOutput(`{"type": "revenue", "filters": {"cidade": "", "bairro": "  "}}`)
	if err != nil {
		t.Fatalf("ParseModelOutput() error = %v", err)
	}
	if len(parsed.Filters) != 0 {
		t.Fatalf("Filters = %v, want empty", parsed.Filters)
	}
}

func TestParseModelOutputInvalidJSON(t *testing.T) {
	raw := "I think you want the revenue for March."
	_, err := ParseModelOutput(raw)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error type = %T", err)
	}
	if parseErr.Raw != raw {
		t.Fatalf("Raw = %q", parseErr.Raw)
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages    []llm.Message `json:"messages"`
			Temperature float64       `json:"temperature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Temperature != 0 {
			t.Fatalf("temperature = %v, classifier must be deterministic", payload.Temperature)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
			t.Fatalf("messages = %+v", payload.Messages)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": `{"type": "best_sellers", "filters": {"cidade": "Rio de Janeiro"}}`,
				}},
			},
		})
	}))
	defer server.Close()

	client, err := llm.New(llm.Config{BaseURL: server.URL, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("llm.New() error = %v", err)
	}

	classifier := NewLLMClassifier(client, 0, nil)
	parsed, err := classifier.Classify(context.Background(), "what are the top products in Rio de Janeiro?")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if parsed.Type != TypeBestSellers {
		t.Fatalf("Type = %q", parsed.Type)
	}
	if parsed.Filters["cidade"] != "Rio de Janeiro" {
		t.Fatalf("Filters = %v", parsed.Filters)
	}
}

func TestClassifyPropagatesParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "not json"}},
			},
		})
	}))
	defer server.Close()

	client, err := llm.New(llm.Config{BaseURL: server.URL, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("llm.New() error = %v", err)
	}

	classifier := NewLLMClassifier(client, 0, nil)
	_, err = classifier.Classify(context.Background(), "revenue?")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if parseErr.Raw != "not json" {
		t.Fatalf("Raw = %q", parseErr.Raw)
	}
}
