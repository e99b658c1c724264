// Package agent answers questions by letting the model choose its own SQL
// through a bounded tool-calling loop. Every statement the model proposes
// goes through the store's read-only gate, so the agent can inspect the
// orders table but never mutate it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/orderlens/orderlens/internal/llm"
	"github.com/orderlens/orderlens/internal/observability"
	"github.com/orderlens/orderlens/internal/store"
)

const schemaDescription = `Table pedidos, one row per delivery order:
  id               BIGINT   unique order identifier
  cliente          VARCHAR  customer name
  cidade           VARCHAR  city
  bairro           VARCHAR  neighborhood
  produto          VARCHAR  product name
  categoria        VARCHAR  product category
  data_pedido      DATE     order date
  valor_total      DOUBLE   order total (unit price x quantity)
  tempo_entrega    INTEGER  delivery time in minutes
  quantidade       INTEGER  units ordered
  custo_unitario   DOUBLE   unit cost
  forma_pagamento  VARCHAR  payment method (Cartão, Pix, Dinheiro)`

const agentSystemPrompt = `You are a data analyst for a delivery business.
Answer the user's question by querying the database with the run_sql tool.
Only SELECT statements are accepted; writes are rejected. Use describe_schema
if you need to recall the table layout. When you have the numbers, reply with
a short conversational answer.

` + schemaDescription

type Agent struct {
	client   *llm.Client
	db       *store.DB
	maxSteps int
	rowLimit int
	logger   *slog.Logger
}

func New(client *llm.Client, db *store.DB, maxSteps, rowLimit int, logger *slog.Logger) *Agent {
	if maxSteps <= 0 {
		maxSteps = 8
	}
	return &Agent{client: client, db: db, maxSteps: maxSteps, rowLimit: rowLimit, logger: logger}
}

func tools() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "run_sql",
				Description: "Run a single read-only SELECT statement against the orders database and return the resulting rows as JSON.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"sql": map[string]any{
							"type":        "string",
							"description": "A single SELECT or WITH statement.",
						},
					},
					"required": []string{"sql"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "describe_schema",
				Description: "Return the schema of the orders table.",
				Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			},
		},
	}
}

// Answer runs the tool-calling loop until the model replies without tool
// calls or the step budget runs out.
func (a *Agent) Answer(ctx context.Context, question string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: agentSystemPrompt},
		{Role: "user", Content: question},
	}

	for step := 1; step <= a.maxSteps; step++ {
		start := time.Now()
		message, err := a.client.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    tools(),
		})
		observability.ObserveLLMRequest("agent", time.Since(start))
		if err != nil {
			return "", fmt.Errorf("agent step %d: %w", step, err)
		}

		if len(message.ToolCalls) == 0 {
			observability.ObserveAgentSteps(step)
			return strings.TrimSpace(message.Content), nil
		}

		messages = append(messages, message)
		for _, call := range message.ToolCalls {
			result := a.executeTool(ctx, call)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	observability.ObserveAgentSteps(a.maxSteps)
	return "", fmt.Errorf("no answer after %d agent steps", a.maxSteps)
}

// executeTool never fails the loop: tool errors are returned as JSON content
// so the model can see what went wrong and try again.
func (a *Agent) executeTool(ctx context.Context, call llm.ToolCall) string {
	switch call.Function.Name {
	case "describe_schema":
		return schemaDescription
	case "run_sql":
		return a.runSQL(ctx, call.Function.Arguments)
	default:
		return toolError(fmt.Sprintf("unknown tool %q", call.Function.Name))
	}
}

func (a *Agent) runSQL(ctx context.Context, arguments string) string {
	var args struct {
		SQL string `json:"sql"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return toolError("invalid run_sql arguments: " + err.Error())
	}

	sqlText := llm.StripMarkdownFence(args.SQL)
	if a.logger != nil {
		a.logger.DebugContext(ctx, "agent sql",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("sql", sqlText),
		)
	}

	result, err := a.db.RunReadOnly(ctx, sqlText, a.rowLimit)
	if err != nil {
		return toolError(err.Error())
	}

	encoded, err := json.Marshal(map[string]any{
		"columns": result.Columns,
		"rows":    result.Rows,
	})
	if err != nil {
		return toolError("encode result: " + err.Error())
	}
	return string(encoded)
}

func toolError(message string) string {
	encoded, _ := json.Marshal(map[string]string{"error": message})
	return string(encoded)
}
