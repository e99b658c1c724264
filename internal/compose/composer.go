// Package compose rephrases a dispatched aggregation result as a
// conversational answer.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orderlens/orderlens/internal/intent"
	"github.com/orderlens/orderlens/internal/llm"
	"github.com/orderlens/orderlens/internal/observability"
)

const composeSystemPrompt = `You are a friendly assistant for a delivery
business. You receive the user's question, the detected analysis type and the
computed result. Answer the question conversationally in one or two short
sentences, keeping every number from the result exactly as given. Do not
invent data that is not in the result.`

type Composer struct {
	client      *llm.Client
	temperature float64
}

// NewComposer builds a composer that samples at the given temperature. The
// classifier runs deterministic; the composer is expected to vary phrasing.
func NewComposer(client *llm.Client, temperature float64) *Composer {
	return &Composer{client: client, temperature: temperature}
}

// Compose asks the model to rephrase the formatted result. The output is
// trimmed but otherwise passed through unvalidated; only transport failures
// propagate.
func (c *Composer) Compose(ctx context.Context, question string, in intent.Intent, result string) (string, error) {
	start := time.Now()
	message, err := c.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: composeSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Question: %s\nAnalysis type: %s\nResult: %s", question, in.Type, result)},
		},
		Temperature: c.temperature,
	})
	observability.ObserveLLMRequest("compose", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("compose answer: %w", err)
	}
	return strings.TrimSpace(message.Content), nil
}
