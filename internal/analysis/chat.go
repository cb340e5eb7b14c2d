package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/subtext/internal/llm"
)

// chatTimeout bounds the interactive chat path; it runs at a lower
// reasoning effort than full analysis and should stay responsive.
const chatTimeout = 60 * time.Second

// maxHistoryTurns limits how many prior exchanges are threaded into the
// prompt. Older turns fall off; the caller owns full persistence.
const maxHistoryTurns = 6

// chatFallback is returned when the model call fails.
const chatFallback = "I apologize, but I encountered an error while thinking about your question."

// Turn is one prior exchange in a chat conversation.
type Turn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Chat answers a free-form question grounded in the active document.
// Context is retrieved with the raw query; retrieval failures degrade
// to an empty context rather than surfacing to the caller. The model
// call never raises: any failure yields a fixed apology.
func (ag *Agent) Chat(ctx context.Context, query string, history []Turn) string {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	rc, err := ag.retriever.Retrieve(ctx, query, ag.topK)
	if err != nil {
		ag.logger.Warn("chat retrieval failed, answering without context", "error", err)
	}

	var sb strings.Builder
	sb.WriteString("Context from document:\n")
	for _, ch := range rc.Chunks {
		fmt.Fprintf(&sb, "[Page %d] %s\n\n", ch.Page, ch.Text)
	}

	if len(history) > 0 {
		recent := history
		if len(recent) > maxHistoryTurns {
			recent = recent[len(recent)-maxHistoryTurns:]
		}
		sb.WriteString("Conversation so far:\n")
		for _, t := range recent {
			fmt.Fprintf(&sb, "[%s]: %s\n", t.Role, t.Text)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, `User Query: %s

Answer the user's question based strictly on the document context.
`, query)

	answer, err := ag.model.Generate(ctx, llm.Request{
		Prompt: sb.String(),
		Format: llm.FormatText,
		Effort: llm.EffortMedium,
	})
	if err != nil {
		ag.logger.Warn("chat generation failed", "error", err)
		return chatFallback
	}
	return strings.TrimSpace(answer)
}
