package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// SearchType selects the Serper endpoint. The enumeration is closed;
// anything else is rejected before any network call.
type SearchType string

const (
	SearchTypeSearch SearchType = "search"
	SearchTypeNews   SearchType = "news"
)

// DefaultSerperBaseURL is the production Serper API endpoint.
const DefaultSerperBaseURL = "https://google.serper.dev"

// SearchRequest describes one web search.
type SearchRequest struct {
	Query      string
	Type       SearchType
	NumResults int
	Country    string
	Location   string
	Locale     string
}

// KnowledgeGraph is the knowledge-graph panel of a search response.
type KnowledgeGraph struct {
	Title             string            `json:"title"`
	Type              string            `json:"type"`
	Website           string            `json:"website"`
	ImageURL          string            `json:"imageUrl"`
	Description       string            `json:"description"`
	DescriptionSource string            `json:"descriptionSource"`
	DescriptionLink   string            `json:"descriptionLink"`
	Attributes        map[string]string `json:"attributes"`
}

// Sitelink is a nested link within an organic result.
type Sitelink struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Snippet   string     `json:"snippet,omitempty"`
	Position  int        `json:"position,omitempty"`
	Sitelinks []Sitelink `json:"sitelinks,omitempty"`
}

// RelatedQuestion is one "people also ask" entry.
type RelatedQuestion struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet,omitempty"`
	Title    string `json:"title,omitempty"`
	Link     string `json:"link,omitempty"`
}

// RelatedSearch is one related-search suggestion.
type RelatedSearch struct {
	Query string `json:"query"`
}

// NewsResult is one news hit.
type NewsResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
	Date     string `json:"date,omitempty"`
	Source   string `json:"source,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// SearchResults is the processed search response handed back to the
// dispatcher.
type SearchResults struct {
	SearchParameters map[string]interface{} `json:"searchParameters"`
	KnowledgeGraph   *KnowledgeGraph        `json:"knowledgeGraph,omitempty"`
	Organic          []OrganicResult        `json:"organic,omitempty"`
	PeopleAlsoAsk    []RelatedQuestion      `json:"peopleAlsoAsk,omitempty"`
	RelatedSearches  []RelatedSearch        `json:"relatedSearches,omitempty"`
	News             []NewsResult           `json:"news,omitempty"`
	Credits          int                    `json:"credits"`
}

// serperResponse mirrors the raw API payload.
type serperResponse struct {
	SearchParameters map[string]interface{} `json:"searchParameters"`
	KnowledgeGraph   *KnowledgeGraph        `json:"knowledgeGraph"`
	Organic          []OrganicResult        `json:"organic"`
	PeopleAlsoAsk    []RelatedQuestion      `json:"peopleAlsoAsk"`
	RelatedSearches  []RelatedSearch        `json:"relatedSearches"`
	News             []NewsResult           `json:"news"`
	Credits          int                    `json:"credits"`
}

// SerperClient calls the Serper web-search API.
type SerperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewSerperClient creates a client. baseURL == "" selects the production
// endpoint.
func NewSerperClient(apiKey, baseURL string, logger *logrus.Logger) *SerperClient {
	if baseURL == "" {
		baseURL = DefaultSerperBaseURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &SerperClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Search performs one search. The search type is validated before any
// network I/O.
func (c *SerperClient) Search(ctx context.Context, req SearchRequest) (*SearchResults, error) {
	if req.Type != SearchTypeSearch && req.Type != SearchTypeNews {
		return nil, fmt.Errorf("invalid search type: %s (must be one of: search, news)", req.Type)
	}

	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 10
	}

	payload := map[string]interface{}{
		"q":   req.Query,
		"num": numResults,
	}
	if req.Country != "" {
		payload["gl"] = req.Country
	}
	if req.Location != "" {
		payload["location"] = req.Location
	}
	if req.Locale != "" {
		payload["hl"] = req.Locale
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, req.Type)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var raw serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return c.processResults(req, numResults, &raw), nil
}

func (c *SerperClient) processResults(req SearchRequest, numResults int, raw *serperResponse) *SearchResults {
	params := map[string]interface{}{
		"q":    req.Query,
		"type": string(req.Type),
	}
	for k, v := range raw.SearchParameters {
		params[k] = v
	}

	results := &SearchResults{
		SearchParameters: params,
		Credits:          raw.Credits,
	}
	if results.Credits == 0 {
		results.Credits = 1
	}

	switch req.Type {
	case SearchTypeSearch:
		results.KnowledgeGraph = raw.KnowledgeGraph
		results.Organic = clamp(raw.Organic, numResults)
		results.PeopleAlsoAsk = clamp(raw.PeopleAlsoAsk, numResults)
		results.RelatedSearches = clamp(raw.RelatedSearches, numResults)
	case SearchTypeNews:
		results.News = clamp(raw.News, numResults)
	}

	return results
}

func clamp[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
