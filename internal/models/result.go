// Package models defines data structures for the MediLex term explainer.
package models

// SearchResult is the structured outcome of a single term lookup.
// It is immutable after creation: a new lookup replaces it wholesale.
type SearchResult struct {
	Term       string   `json:"term"`
	Definition string   `json:"definition"`
	KeyPoints  []string `json:"keyPoints"`
	Sources    []string `json:"sources"`

	// ImageURL is either a data URI with inline image bytes or the
	// deterministic placeholder URL when no real illustration exists.
	ImageURL string `json:"imageUrl,omitempty"`
}
