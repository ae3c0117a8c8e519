// Package chat drives the follow-up conversation about a looked-up term.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/medilex/internal/llm"
	"github.com/raphaelgruber/medilex/internal/metrics"
	"github.com/raphaelgruber/medilex/internal/models"
)

const (
	// FallbackReply is appended as a normal assistant turn when the
	// provider fails; a broken chat turn never invalidates the session.
	FallbackReply = "Sorry, I encountered an error responding to that."

	// EmptyReply stands in when the provider answers with no content.
	EmptyReply = "I apologize, I could not generate a response."

	// readyAck is the synthetic model turn that grounds the conversation
	// without re-sending the definition on every exchange.
	readyAck = "Understood. I am ready to answer questions about this medical term."
)

// Outcome is the result of one chat turn. Ask never fails: a provider
// fault yields Degraded=true with the fixed fallback text, and the caller
// renders both variants identically.
type Outcome struct {
	Text     string
	Degraded bool
}

// Orchestrator builds bounded conversation context and issues chat turns.
type Orchestrator struct {
	completer llm.Completer
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewOrchestrator creates a chat orchestrator.
func NewOrchestrator(completer llm.Completer, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{completer: completer, collector: collector, logger: logger}
}

// Ask sends one follow-up message about term. Prior turns are replayed
// behind two seeded context turns; the system instruction pins the term,
// answer length and language.
func (o *Orchestrator) Ask(ctx context.Context, term, definition string, prior []models.ChatMessage, message string, lang models.Language) Outcome {
	turns := seedTurns(term, definition)
	for _, m := range prior {
		turns = append(turns, llm.Turn{Role: m.Role, Text: m.Text})
	}

	start := time.Now()
	reply, err := o.completer.Chat(ctx, systemInstruction(term, lang), turns, message)
	if o.collector != nil {
		o.collector.Record(metrics.OpChat, time.Since(start))
	}
	if err != nil {
		o.logger.Warn("chat turn failed", "term", term, "error", err)
		return Outcome{Text: FallbackReply, Degraded: true}
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Outcome{Text: EmptyReply}
	}
	return Outcome{Text: reply}
}

// seedTurns grounds the model with the current definition.
func seedTurns(term, definition string) []llm.Turn {
	return []llm.Turn{
		{Role: models.RoleUser, Text: fmt.Sprintf("Context: Definition of %s: %s", term, definition)},
		{Role: models.RoleModel, Text: readyAck},
	}
}

// systemInstruction names the term and constrains answers.
func systemInstruction(term string, lang models.Language) string {
	langContext := "Answer in English."
	if lang == models.LanguageArabic {
		langContext = "Answer in Arabic."
	}
	return fmt.Sprintf(`You are a helpful medical assistant. The user is asking about the term: %q.
Use your knowledge to answer follow-up questions simply and accurately based on reliable medical science.
%s
Keep answers concise (under 3 paragraphs).`, term, langContext)
}
