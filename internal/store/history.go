package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/medilex/internal/models"
)

// historyKey matches the original web client's localStorage key.
const historyKey = "medilex_history"

// MaxHistoryEntries caps the persisted lookup history.
const MaxHistoryEntries = 20

// History manages the persisted list of past lookups. Every mutation
// rebuilds and rewrites the whole list; entries are never edited in place.
type History struct {
	kv     *KV
	logger *slog.Logger
}

// NewHistory creates a history store over kv.
func NewHistory(kv *KV, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{kv: kv, logger: logger}
}

// Load returns the stored history, most recent first. Corrupt stored data
// is discarded silently and treated as empty.
func (h *History) Load() []models.HistoryItem {
	raw, ok, err := h.kv.Get(historyKey)
	if err != nil || !ok {
		if err != nil {
			h.logger.Warn("load history", "error", err)
		}
		return nil
	}

	var items []models.HistoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		h.logger.Warn("discarding corrupt history", "error", err)
		return nil
	}
	return items
}

// Record inserts term at the head, dropping any existing entry whose term
// matches case-insensitively, truncates to MaxHistoryEntries and persists.
// The returned slice is the new full list.
func (h *History) Record(term string) ([]models.HistoryItem, error) {
	items := h.Load()

	updated := make([]models.HistoryItem, 0, len(items)+1)
	updated = append(updated, models.HistoryItem{
		ID:        uuid.NewString(),
		Term:      term,
		Timestamp: time.Now().UnixMilli(),
	})
	for _, it := range items {
		if strings.EqualFold(it.Term, term) {
			continue
		}
		updated = append(updated, it)
	}
	if len(updated) > MaxHistoryEntries {
		updated = updated[:MaxHistoryEntries]
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	if err := h.kv.Set(historyKey, string(raw)); err != nil {
		return nil, err
	}
	return updated, nil
}

// Clear wipes the stored history.
func (h *History) Clear() error {
	return h.kv.Delete(historyKey)
}
