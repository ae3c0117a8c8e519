package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/medilex/internal/llm"
	"github.com/raphaelgruber/medilex/internal/metrics"
	"github.com/raphaelgruber/medilex/internal/models"
)

// ErrLookup marks a failed lookup: the text completion itself failed.
// Image failure never produces this, it degrades to the placeholder.
var ErrLookup = errors.New("lookup failed")

// ErrEmptyTerm rejects blank search input before any network call.
var ErrEmptyTerm = errors.New("empty search term")

// Searcher orchestrates a term lookup against the provider.
type Searcher struct {
	completer llm.Completer
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewSearcher creates a lookup orchestrator.
func NewSearcher(completer llm.Completer, collector *metrics.Collector, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{completer: completer, collector: collector, logger: logger}
}

// Search issues the text and image completions concurrently, waits for both
// to settle regardless of individual failure, and assembles a SearchResult.
//
// The text payload is primary: its failure fails the lookup with ErrLookup.
// The image path degrades to a deterministic placeholder URL on provider
// failure or an image-free response. Neither request cancels the other.
func (s *Searcher) Search(ctx context.Context, term string, lang models.Language) (*models.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	start := time.Now()

	var (
		wg      sync.WaitGroup
		text    string
		textErr error
		img     *llm.ImageData
		imgErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		text, textErr = s.completer.CompleteText(ctx, textPrompt(term, lang), llm.CompleteOptions{WebSearch: true})
	}()
	go func() {
		defer wg.Done()
		imgStart := time.Now()
		img, imgErr = s.completer.CompleteImage(ctx, imagePrompt(term))
		if s.collector != nil {
			s.collector.Record(metrics.OpImage, time.Since(imgStart))
		}
	}()
	wg.Wait()

	if textErr != nil {
		s.logger.Error("text completion failed", "term", term, "error", textErr)
		return nil, fmt.Errorf("%w: %v", ErrLookup, textErr)
	}

	normalized := Normalize(text)

	imageURL := PlaceholderURL(term)
	switch {
	case imgErr == nil && img != nil:
		imageURL = img.DataURI()
	case imgErr != nil && !errors.Is(imgErr, llm.ErrNoImage):
		s.logger.Warn("image completion failed, using placeholder", "term", term, "error", imgErr)
	}

	if s.collector != nil {
		s.collector.Record(metrics.OpLookup, time.Since(start))
	}
	s.logger.Info("lookup complete",
		"term", term,
		"language", lang,
		"key_points", len(normalized.KeyPoints),
		"sources", len(normalized.Sources),
		"inline_image", img != nil,
		"duration_ms", time.Since(start).Milliseconds())

	return &models.SearchResult{
		Term:       term,
		Definition: normalized.Definition,
		KeyPoints:  normalized.KeyPoints,
		Sources:    normalized.Sources,
		ImageURL:   imageURL,
	}, nil
}
