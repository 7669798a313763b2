package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	result  string
	queries []string
}

func (m *fakeMarket) Query(_ context.Context, query string) string {
	m.queries = append(m.queries, query)
	return m.result
}

type fakeSearch struct {
	requests []SearchRequest
	results  *SearchResults
	err      error
}

func (s *fakeSearch) Search(_ context.Context, req SearchRequest) (*SearchResults, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestDispatchUnknownTool(t *testing.T) {
	d := NewDispatcher(&fakeMarket{}, &fakeSearch{}, 0, nil)

	result := d.Dispatch(context.Background(), "make_coffee", "strong")

	assert.Equal(t, "Error: Tool make_coffee not recognized.", result)

	// Tool names are matched exactly; a miscased name is unknown.
	result = d.Dispatch(context.Background(), "QUERY_VNSTOCK_DATA", "SELECT 1")
	assert.Equal(t, "Error: Tool QUERY_VNSTOCK_DATA not recognized.", result)
}

func TestDispatchMarketQuery(t *testing.T) {
	market := &fakeMarket{result: "ticker: VCB, close: 92.5"}
	d := NewDispatcher(market, &fakeSearch{}, 0, nil)

	result := d.Dispatch(context.Background(), ToolMarketQuery, "SELECT 1")

	assert.Equal(t, "ticker: VCB, close: 92.5", result)
	assert.Equal(t, []string{"SELECT 1"}, market.queries)
}

func TestDispatchSearch(t *testing.T) {
	search := &fakeSearch{results: &SearchResults{
		SearchParameters: map[string]interface{}{"q": "roe"},
		Organic: []OrganicResult{
			{Title: "Return on equity", Link: "https://example.com/roe"},
		},
		Credits: 1,
	}}
	d := NewDispatcher(&fakeMarket{}, search, 0, nil)

	result := d.Dispatch(context.Background(), ToolWebSearch, `{"query": "roe"}`)

	require.Len(t, search.requests, 1)
	assert.Equal(t, "roe", search.requests[0].Query)
	assert.Equal(t, SearchTypeSearch, search.requests[0].Type)
	assert.Equal(t, 5, search.requests[0].NumResults)
	assert.Contains(t, result, "Return on equity")
	assert.Contains(t, result, "https://example.com/roe")
}

func TestDispatchSearchArgErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		expected string
	}{
		{
			name:     "Missing query field",
			args:     `{"search_type": "news"}`,
			expected: "Error: Missing 'query' parameter for serperdev_tool",
		},
		{
			name:     "Args are not JSON",
			args:     "just some text",
			expected: "Error running Serper Tool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &fakeSearch{}
			d := NewDispatcher(&fakeMarket{}, search, 0, nil)

			result := d.Dispatch(context.Background(), ToolWebSearch, tt.args)

			assert.Contains(t, result, tt.expected)
			assert.Empty(t, search.requests, "argument errors must not reach the client")
		})
	}
}

func TestDispatchSearchFailureBecomesText(t *testing.T) {
	search := &fakeSearch{err: errors.New("connection refused")}
	d := NewDispatcher(&fakeMarket{}, search, 0, nil)

	result := d.Dispatch(context.Background(), ToolWebSearch, `{"query": "roe"}`)

	assert.Contains(t, result, "Error running Serper Tool")
	assert.Contains(t, result, "connection refused")
}

func TestDispatchSearchTypeOverride(t *testing.T) {
	search := &fakeSearch{results: &SearchResults{Credits: 1}}
	d := NewDispatcher(&fakeMarket{}, search, 0, nil)

	d.Dispatch(context.Background(), ToolWebSearch, `{"query": "vn index", "search_type": "news", "n_results": 3}`)

	require.Len(t, search.requests, 1)
	assert.Equal(t, SearchTypeNews, search.requests[0].Type)
	assert.Equal(t, 3, search.requests[0].NumResults)
}
