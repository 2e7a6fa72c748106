// Package ai wraps the language-model service behind a two-operation gateway.
// The gateway fails closed: when the service is missing or errors, callers
// get a fixed apology string, never an error.
package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
)

const (
	systemPrompt = "You are an SQL expert who helps fix errors in queries. " +
		"Explain the cause of the error in plain language and suggest a fix."

	// ApologyText is sent whenever the assistant cannot be reached.
	ApologyText = "Sorry, the error analysis service is temporarily unavailable."
)

// Completer is the raw text-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, transcript []domain.ChatMessage) (string, error)
}

// Gateway is the only component allowed to talk to the language model.
type Gateway struct {
	completer Completer // nil when the service is not configured
	log       *zap.Logger
	timeout   time.Duration
}

// NewGateway creates a Gateway. completer may be nil, in which case every
// operation yields the apology text.
func NewGateway(completer Completer, log *zap.Logger, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{completer: completer, log: log, timeout: timeout}
}

// ExplainError asks the assistant for a first diagnostic of a failed query
// and returns the seeded dialogue transcript: system preamble, the user's
// query plus error, and the assistant's reply. Always length 3.
func (g *Gateway) ExplainError(ctx context.Context, query, errMsg string) []domain.ChatMessage {
	transcript := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(
			"Help me fix this SQL query.\nQuery: %s\nError: %s", query, errMsg)},
	}
	reply := g.complete(ctx, transcript)
	return append(transcript, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
}

// ContinueDialogue produces the assistant's next turn for an ongoing
// transcript.
func (g *Gateway) ContinueDialogue(ctx context.Context, transcript []domain.ChatMessage) string {
	return g.complete(ctx, transcript)
}

func (g *Gateway) complete(ctx context.Context, transcript []domain.ChatMessage) string {
	if g.completer == nil {
		return ApologyText
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.completer.Complete(ctx, transcript)
	if err != nil {
		g.log.Warn("assistant completion failed", zap.Error(err))
		return ApologyText
	}
	return text
}
