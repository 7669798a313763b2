// Package tools maps agent tool names onto external collaborators and
// normalizes every outcome, including failures, to observation text.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Recognized tool names. The set is closed; new tools are a code change.
const (
	ToolMarketQuery = "query_vnstock_data"
	ToolWebSearch   = "serperdev_tool"
)

// DefaultToolTimeout bounds a single tool invocation so a stuck
// collaborator fails into the error-observation path instead of hanging
// the turn.
const DefaultToolTimeout = 30 * time.Second

// MarketData executes a raw SQL query and renders the result as text.
// Errors are surfaced as text, never returned.
type MarketData interface {
	Query(ctx context.Context, query string) string
}

// WebSearch performs a web search.
type WebSearch interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResults, error)
}

// Dispatcher routes a (tool, args) pair to its collaborator.
type Dispatcher struct {
	market  MarketData
	search  WebSearch
	timeout time.Duration
	logger  *logrus.Logger
}

// NewDispatcher creates a dispatcher. timeout <= 0 selects
// DefaultToolTimeout.
func NewDispatcher(market MarketData, search WebSearch, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		market:  market,
		search:  search,
		timeout: timeout,
		logger:  logger,
	}
}

// searchArgs is the JSON argument shape the model is prompted to emit
// for the web-search tool.
type searchArgs struct {
	Query      string `json:"query"`
	SearchType string `json:"search_type"`
	NumResults int    `json:"n_results"`
}

// Dispatch invokes the named tool and returns its observation text. An
// unrecognized name and every tool failure become textual observations.
func (d *Dispatcher) Dispatch(ctx context.Context, tool, args string) string {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch tool {
	case ToolMarketQuery:
		result := d.market.Query(ctx, args)
		d.logger.WithFields(logrus.Fields{"tool": tool, "query": args}).Info("market query dispatched")
		return result

	case ToolWebSearch:
		return d.dispatchSearch(ctx, args)

	default:
		d.logger.WithField("tool", tool).Error("unknown tool")
		return fmt.Sprintf("Error: Tool %s not recognized.", tool)
	}
}

func (d *Dispatcher) dispatchSearch(ctx context.Context, args string) string {
	var parsed searchArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		d.logger.WithError(err).Error("failed to parse search args")
		return fmt.Sprintf("Error running Serper Tool %v", err)
	}
	if parsed.Query == "" {
		return "Error: Missing 'query' parameter for serperdev_tool"
	}

	req := SearchRequest{
		Query:      parsed.Query,
		Type:       SearchTypeSearch,
		NumResults: 5,
	}
	if parsed.SearchType != "" {
		req.Type = SearchType(parsed.SearchType)
	}
	if parsed.NumResults > 0 {
		req.NumResults = parsed.NumResults
	}

	d.logger.WithField("query", parsed.Query).Info("calling web search")
	results, err := d.search.Search(ctx, req)
	if err != nil {
		d.logger.WithError(err).Error("web search failed")
		return fmt.Sprintf("Error running Serper Tool %v", err)
	}

	rendered, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error running Serper Tool %v", err)
	}
	return string(rendered)
}
