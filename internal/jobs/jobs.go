// Package jobs is the job search view-model: it runs a grounded web search for openings and keeps
// the last successful result list.
package jobs

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/errs"
)

// Listing is one opening returned by the search.
type Listing struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url"`
	MatchReason string `json:"matchReason,omitempty"`
}

// Searcher finds openings for a free-text query.
type Searcher interface {
	SearchJobs(ctx context.Context, query string) ([]Listing, error)
}

// PostFilter cleans up raw search results before they are shown.
type PostFilter interface {
	Filter(ctx context.Context, listings []Listing) ([]Listing, error)
}

type State struct {
	Query       string    `json:"query"`
	Results     []Listing `json:"results"`
	IsSearching bool      `json:"isSearching"`
	SearchedAt  time.Time `json:"searchedAt,omitzero"`
}

type Board struct {
	searcher Searcher
	filter   PostFilter
	logger   *zap.Logger

	mu         sync.Mutex
	query      string
	results    []Listing
	searching  bool
	searchedAt time.Time
}

// NewBoard creates an empty board. filter may be nil.
func NewBoard(searcher Searcher, filter PostFilter, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		searcher: searcher,
		filter:   filter,
		logger:   logger,
		results:  []Listing{},
	}
}

func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Board) stateLocked() State {
	return State{
		Query:       b.query,
		Results:     slices.Clone(b.results),
		IsSearching: b.searching,
		SearchedAt:  b.searchedAt,
	}
}

// Search replaces the results with the openings found for query. A failed search keeps the
// previous results; a search started while another one runs is ignored.
func (b *Board) Search(ctx context.Context, query string) (State, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return b.State(), errs.Validation("query", "must not be empty")
	}

	b.mu.Lock()
	if b.searching {
		defer b.mu.Unlock()
		return b.stateLocked(), nil
	}
	b.searching = true
	b.query = query
	b.mu.Unlock()

	found, err := b.search(ctx, query)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.searching = false

	if err != nil {
		b.logger.Warn("job search failed", zap.String("query", query), zap.Error(err))
		return b.stateLocked(), err
	}

	b.results = found
	b.searchedAt = time.Now()
	b.logger.Info("job search completed", zap.String("query", query), zap.Int("results", len(found)))

	return b.stateLocked(), nil
}

func (b *Board) search(ctx context.Context, query string) ([]Listing, error) {
	found, err := b.searcher.SearchJobs(ctx, query)
	if err != nil {
		return nil, errs.Capability("job search", err)
	}
	if found == nil {
		found = []Listing{}
	}

	if b.filter == nil {
		return found, nil
	}

	filtered, err := b.filter.Filter(ctx, found)
	if err != nil {
		return nil, fmt.Errorf("filter job listings: %w", err)
	}
	return filtered, nil
}
