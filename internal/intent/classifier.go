package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/orderlens/orderlens/internal/llm"
	"github.com/orderlens/orderlens/internal/observability"
)

const classifySystemPrompt = `You are an intent analyzer for a delivery analytics assistant.
Your only task is to identify the intent of the question and return a structured JSON object.

Respond ONLY with a valid JSON object. No explanations, no greetings, no markdown.

JSON shape:

{
    "type": "<average_ticket|best_sellers|average_delivery_time|order_count|revenue|profit|margin|monthly_revenue|sales_by_category>",
    "filters": {
        "cidade": "São Paulo",
        "data_pedido": "2024-03"
    }
}

Filter fields refer to columns of the orders table: cliente, cidade, bairro,
produto, categoria, data_pedido, forma_pagamento. A data_pedido value of
"YYYY-MM" means the whole month. Only include a filter when the question
explicitly mentions it; never include a filter with an empty or null value.
If the question is not about delivery data, return: {"type": null, "filters": {}}`

type Classifier interface {
	Classify(ctx context.Context, question string) (Intent, error)
}

// LLMClassifier asks the language model to tag a question, at deterministic
// (zero by default) sampling temperature.
type LLMClassifier struct {
	client      *llm.Client
	temperature float64
	logger      *slog.Logger
}

func NewLLMClassifier(client *llm.Client, temperature float64, logger *slog.Logger) *LLMClassifier {
	return &LLMClassifier{client: client, temperature: temperature, logger: logger}
}

func (c *LLMClassifier) Classify(ctx context.Context, question string) (Intent, error) {
	start := time.Now()
	message, err := c.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Question: %q", question)},
		},
		Temperature: c.temperature,
	})
	observability.ObserveLLMRequest("classify", time.Since(start))
	if err != nil {
		return Intent{}, fmt.Errorf("classify question: %w", err)
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "classifier model output",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("raw", message.Content),
		)
	}

	parsed, err := ParseModelOutput(message.Content)
	if err != nil {
		observability.IncrementClassifierParseFailure()
		return Intent{}, err
	}
	return parsed, nil
}

// ParseModelOutput decodes the model's JSON into an Intent. A surrounding
// markdown fence is tolerated; anything else that is not the expected shape
// yields a *ParseError carrying the raw text.
func ParseModelOutput(raw string) (Intent, error) {
	var wire struct {
		Type    *string           `json:"type"`
		Filters map[string]string `json:"filters"`
	}
	if err := json.Unmarshal([]byte(llm.StripMarkdownFence(raw)), &wire); err != nil {
		return Intent{}, &ParseError{Raw: raw, Err: err}
	}

	parsed := Intent{Filters: map[string]string{}}
	if wire.Type != nil {
		parsed.Type = Type(strings.TrimSpace(*wire.Type))
	}
	for field, value := range wire.Filters {
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if field == "" || value == "" {
			continue
		}
		parsed.Filters[field] = value
	}
	return parsed, nil
}
