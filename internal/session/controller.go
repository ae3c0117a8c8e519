// Package session owns all mutable client state: the current result, the
// chat transcript, the lookup history and the loading state machine.
// Mutations go through intent-style operations so the rendering layer only
// ever observes consistent snapshots.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/medilex/internal/chat"
	"github.com/raphaelgruber/medilex/internal/lookup"
	"github.com/raphaelgruber/medilex/internal/models"
	"github.com/raphaelgruber/medilex/internal/store"
)

// LookupErrorBanner is the fixed user-visible message for a failed lookup.
// Sub-causes are logged, never shown.
const LookupErrorBanner = "Failed to retrieve information. Please check your API key or try again."

// State is an immutable snapshot of the session for rendering.
type State struct {
	Loading  models.LoadingState
	Language models.Language
	Result   *models.SearchResult
	Messages []models.ChatMessage
	History  []models.HistoryItem
	Error    string
}

// Controller is the single writer of session state. Its operations block
// for the duration of their network calls; Snapshot may be read from other
// goroutines at any time.
type Controller struct {
	mu sync.Mutex

	searcher *lookup.Searcher
	chat     *chat.Orchestrator
	history  *store.History
	kv       *store.KV
	logger   *slog.Logger

	language models.Language
	loading  models.LoadingState
	result   *models.SearchResult
	messages []models.ChatMessage
	items    []models.HistoryItem
	errMsg   string
}

// NewController creates a session controller with history preloaded.
func NewController(searcher *lookup.Searcher, chatOrch *chat.Orchestrator, history *store.History, kv *store.KV, lang models.Language, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		searcher: searcher,
		chat:     chatOrch,
		history:  history,
		kv:       kv,
		logger:   logger,
		language: lang,
		loading:  models.StateIdle,
		items:    history.Load(),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]models.ChatMessage, len(c.messages))
	copy(msgs, c.messages)
	items := make([]models.HistoryItem, len(c.items))
	copy(items, c.items)

	return State{
		Loading:  c.loading,
		Language: c.language,
		Result:   c.result,
		Messages: msgs,
		History:  items,
		Error:    c.errMsg,
	}
}

// SetLanguage switches the session language for subsequent operations.
func (c *Controller) SetLanguage(lang models.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = lang
}

// SubmitSearch runs a full lookup. The previous result, chat transcript
// and error are cleared before the network call starts so stale chat never
// renders against a pending result. Blank terms are ignored.
func (c *Controller) SubmitSearch(ctx context.Context, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}

	c.mu.Lock()
	c.loading = models.StateSearching
	c.result = nil
	c.messages = nil
	c.errMsg = ""
	lang := c.language
	c.mu.Unlock()

	result, err := c.searcher.Search(ctx, term, lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("search failed", "term", term, "error", err)
		c.loading = models.StateError
		c.errMsg = LookupErrorBanner
		return
	}

	c.result = result
	c.loading = models.StateSuccess

	items, histErr := c.history.Record(result.Term)
	if histErr != nil {
		c.logger.Warn("record history", "term", result.Term, "error", histErr)
		return
	}
	c.items = items
}

// SelectHistoryTerm re-runs the lookup for a stored history entry,
// using the term verbatim as it was stored.
func (c *Controller) SelectHistoryTerm(ctx context.Context, id string) {
	c.mu.Lock()
	var term string
	for _, it := range c.items {
		if it.ID == id {
			term = it.Term
			break
		}
	}
	c.mu.Unlock()

	if term == "" {
		return
	}
	c.SubmitSearch(ctx, term)
}

// SubmitChatMessage appends the user turn, runs one chat exchange and
// appends the assistant turn. The loading state always resolves back to
// Success: a degraded chat turn is cosmetic, not systemic.
func (c *Controller) SubmitChatMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.mu.Lock()
	if c.result == nil || c.loading != models.StateSuccess {
		c.mu.Unlock()
		return
	}
	prior := make([]models.ChatMessage, len(c.messages))
	copy(prior, c.messages)
	c.messages = append(c.messages, models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	c.loading = models.StateThinking
	result := c.result
	lang := c.language
	c.mu.Unlock()

	outcome := c.chat.Ask(ctx, result.Term, result.Definition, prior, text, lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleModel,
		Text:      outcome.Text,
		Timestamp: time.Now().UnixMilli(),
	})
	c.loading = models.StateSuccess
}

// ClearHistory wipes the persisted lookup history.
func (c *Controller) ClearHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.history.Clear(); err != nil {
		return err
	}
	c.items = nil
	return nil
}

// ClearCredential removes the stored API key and resets the session so the
// key-entry flow runs again.
func (c *Controller) ClearCredential() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.kv.ClearAPIKey(); err != nil {
		return err
	}
	c.loading = models.StateIdle
	c.result = nil
	c.messages = nil
	c.errMsg = ""
	return nil
}
