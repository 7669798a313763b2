package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerperSearch(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"searchParameters": map[string]interface{}{"gl": "vn"},
			"organic": []map[string]interface{}{
				{"title": "First", "link": "https://example.com/1", "position": 1},
				{"title": "Second", "link": "https://example.com/2", "position": 2},
				{"title": "Third", "link": "https://example.com/3", "position": 3},
			},
			"credits": 2,
		})
	}))
	defer server.Close()

	client := NewSerperClient("test-key", server.URL, nil)
	results, err := client.Search(context.Background(), SearchRequest{
		Query:      "vietcombank roe",
		Type:       SearchTypeSearch,
		NumResults: 2,
		Country:    "vn",
	})
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "vietcombank roe", gotPayload["q"])
	assert.Equal(t, float64(2), gotPayload["num"])
	assert.Equal(t, "vn", gotPayload["gl"])

	require.Len(t, results.Organic, 2, "results beyond the requested count are dropped")
	assert.Equal(t, "First", results.Organic[0].Title)
	assert.Equal(t, 2, results.Credits)
	assert.Equal(t, "vietcombank roe", results.SearchParameters["q"])
	assert.Equal(t, "search", results.SearchParameters["type"])
	assert.Equal(t, "vn", results.SearchParameters["gl"])
}

func TestSerperNews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"news": []map[string]interface{}{
				{"title": "Rate cut", "link": "https://example.com/news", "source": "Reuters"},
			},
		})
	}))
	defer server.Close()

	client := NewSerperClient("test-key", server.URL, nil)
	results, err := client.Search(context.Background(), SearchRequest{
		Query: "sbv interest rate",
		Type:  SearchTypeNews,
	})
	require.NoError(t, err)

	require.Len(t, results.News, 1)
	assert.Equal(t, "Rate cut", results.News[0].Title)
	assert.Equal(t, 1, results.Credits, "missing credits defaults to 1")
}

func TestSerperRejectsInvalidType(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewSerperClient("test-key", server.URL, nil)
	_, err := client.Search(context.Background(), SearchRequest{Query: "roe", Type: "images"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search type")
	assert.False(t, called, "invalid type must be rejected before any network call")
}

func TestSerperNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewSerperClient("bad-key", server.URL, nil)
	_, err := client.Search(context.Background(), SearchRequest{Query: "roe", Type: SearchTypeSearch})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
