package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lookingforcommit/sql-ai-bot/internal/domain"
)

type fakeCompleter struct {
	reply string
	err   error

	got         []domain.ChatMessage
	hadDeadline bool
}

func (f *fakeCompleter) Complete(ctx context.Context, transcript []domain.ChatMessage) (string, error) {
	f.got = transcript
	_, f.hadDeadline = ctx.Deadline()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestExplainErrorSeedsTranscript(t *testing.T) {
	c := &fakeCompleter{reply: "you forgot FROM"}
	g := NewGateway(c, zap.NewNop(), time.Second)

	transcript := g.ExplainError(context.Background(), "SELEC * users", "near \"SELEC\": syntax error")

	require.Len(t, transcript, 3)
	assert.Equal(t, domain.RoleSystem, transcript[0].Role)
	assert.Equal(t, domain.RoleUser, transcript[1].Role)
	assert.Equal(t, domain.RoleAssistant, transcript[2].Role)
	assert.Contains(t, transcript[1].Content, "SELEC * users")
	assert.Contains(t, transcript[1].Content, "syntax error")
	assert.Equal(t, "you forgot FROM", transcript[2].Content)
	// The assistant never sees its own pending reply.
	assert.Len(t, c.got, 2)
}

func TestExplainErrorFailsClosed(t *testing.T) {
	g := NewGateway(&fakeCompleter{err: errors.New("boom")}, zap.NewNop(), time.Second)

	transcript := g.ExplainError(context.Background(), "q", "e")

	require.Len(t, transcript, 3)
	assert.Equal(t, ApologyText, transcript[2].Content)
}

func TestNilCompleterFailsClosed(t *testing.T) {
	g := NewGateway(nil, zap.NewNop(), time.Second)

	assert.Equal(t, ApologyText, g.ContinueDialogue(context.Background(), nil))
	assert.Equal(t, ApologyText, g.ExplainError(context.Background(), "q", "e")[2].Content)
}

func TestContinueDialoguePassesTranscript(t *testing.T) {
	c := &fakeCompleter{reply: "try GROUP BY"}
	g := NewGateway(c, zap.NewNop(), time.Second)

	transcript := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "a"},
		{Role: domain.RoleUser, Content: "and now?"},
	}
	reply := g.ContinueDialogue(context.Background(), transcript)

	assert.Equal(t, "try GROUP BY", reply)
	assert.Equal(t, transcript, c.got)
}

func TestCompletionIsBounded(t *testing.T) {
	c := &fakeCompleter{reply: "ok"}
	g := NewGateway(c, zap.NewNop(), 100*time.Millisecond)

	g.ContinueDialogue(context.Background(), nil)

	assert.True(t, c.hadDeadline, "remote call must carry a deadline")
}
