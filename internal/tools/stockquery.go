package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// StockQueryTool runs raw SQL against the read-only market dataset and
// renders rows as "column: value" lines. All failures come back as text
// so the dispatcher never has an error to propagate.
type StockQueryTool struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewStockQueryTool creates the market-data query tool. db may be nil
// when the dataset file is absent; queries then report the missing
// connection.
func NewStockQueryTool(db *sqlx.DB, logger *logrus.Logger) *StockQueryTool {
	if logger == nil {
		logger = logrus.New()
	}
	return &StockQueryTool{db: db, logger: logger}
}

// Query executes the SQL and formats the result set.
func (t *StockQueryTool) Query(ctx context.Context, query string) string {
	if t.db == nil {
		t.logger.Error("market data query without database connection")
		return "Error: No database connection. Please check the database file."
	}

	t.logger.WithField("query", query).Debug("executing market data query")
	rows, err := t.db.QueryxContext(ctx, query)
	if err != nil {
		t.logger.WithError(err).Error("market data query failed")
		return fmt.Sprintf("Error: Unable to execute query - %v", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Sprintf("Error: Unable to execute query - %v", err)
	}

	var lines []string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return fmt.Sprintf("Error: Unable to execute query - %v", err)
		}
		pairs := make([]string, len(columns))
		for i, col := range columns {
			pairs[i] = fmt.Sprintf("%s: %s", col, renderValue(values[i]))
		}
		lines = append(lines, strings.Join(pairs, ", "))
	}
	if err := rows.Err(); err != nil {
		return fmt.Sprintf("Error: Unable to execute query - %v", err)
	}

	if len(lines) == 0 {
		t.logger.Info("market data query returned empty result")
		return "No data found for the given query."
	}
	return strings.Join(lines, "\n")
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
