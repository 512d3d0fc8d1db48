package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/nexaforge/internal/errs"
)

type stubSearcher struct {
	results []Listing
	err     error
	calls   int
	block   chan struct{}
}

func (s *stubSearcher) SearchJobs(_ context.Context, _ string) ([]Listing, error) {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	return s.results, s.err
}

type dropFirst struct{}

func (dropFirst) Filter(_ context.Context, listings []Listing) ([]Listing, error) {
	if len(listings) == 0 {
		return listings, nil
	}
	return listings[1:], nil
}

func TestSearchReplacesResults(t *testing.T) {
	searcher := &stubSearcher{results: []Listing{
		{Title: "Go Engineer", Company: "Acme", URL: "https://acme.io/1"},
		{Title: "SRE", Company: "Globex", URL: "https://globex.com/2"},
	}}
	board := NewBoard(searcher, nil, nil)

	state, err := board.Search(context.Background(), "  go remote  ")
	require.NoError(t, err)
	assert.Equal(t, "go remote", state.Query)
	assert.Len(t, state.Results, 2)
	assert.False(t, state.IsSearching)
	assert.False(t, state.SearchedAt.IsZero())

	searcher.results = []Listing{{Title: "Staff Engineer", Company: "Initech", URL: "https://initech.com/3"}}
	state, err = board.Search(context.Background(), "staff")
	require.NoError(t, err)
	require.Len(t, state.Results, 1)
	assert.Equal(t, "Initech", state.Results[0].Company)
}

func TestSearchFailureKeepsPriorResults(t *testing.T) {
	searcher := &stubSearcher{results: []Listing{{Title: "Go Engineer", Company: "Acme", URL: "https://acme.io/1"}}}
	board := NewBoard(searcher, nil, nil)

	_, err := board.Search(context.Background(), "go")
	require.NoError(t, err)

	searcher.err = errors.New("search backend down")
	state, err := board.Search(context.Background(), "rust")
	require.Error(t, err)
	assert.True(t, errs.IsCapability(err))
	assert.Len(t, state.Results, 1)
	assert.False(t, state.IsSearching)
}

func TestSearchBlankQuery(t *testing.T) {
	searcher := &stubSearcher{}
	board := NewBoard(searcher, nil, nil)

	_, err := board.Search(context.Background(), " ")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, 0, searcher.calls)
}

func TestSearchAppliesPostFilter(t *testing.T) {
	searcher := &stubSearcher{results: []Listing{
		{Title: "a", Company: "A", URL: "https://a.io"},
		{Title: "b", Company: "B", URL: "https://b.io"},
	}}
	board := NewBoard(searcher, dropFirst{}, nil)

	state, err := board.Search(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, state.Results, 1)
	assert.Equal(t, "b", state.Results[0].Title)
}

func TestSearchIgnoredWhileRunning(t *testing.T) {
	searcher := &stubSearcher{block: make(chan struct{})}
	board := NewBoard(searcher, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = board.Search(context.Background(), "first")
	}()

	require.Eventually(t, func() bool { return board.State().IsSearching }, time.Second, time.Millisecond)

	state, err := board.Search(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "first", state.Query)

	close(searcher.block)
	<-done
	assert.Equal(t, 1, searcher.calls)
	assert.NotNil(t, board.State().Results)
}
