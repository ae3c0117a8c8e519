package models

// HistoryItem records one past lookup. The persisted history list is
// most-recent-first, deduplicated case-insensitively by term and capped.
type HistoryItem struct {
	ID        string `json:"id"`
	Term      string `json:"term"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}
