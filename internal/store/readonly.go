package store

import (
	"context"
	"fmt"
	"strings"
)

// QueryResult is a generic tabular result for ad-hoc read-only queries.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// RunReadOnly executes an ad-hoc statement after enforcing the read-only
// allow-list: a single SELECT or WITH statement, wrapped with a hard row
// limit. This is the only query entry point exposed to the agent tools.
func (db *DB) RunReadOnly(ctx context.Context, sqlText string, rowLimit int) (QueryResult, error) {
	trimmed := stripTrailingSemicolons(sqlText)
	if trimmed == "" {
		return QueryResult{}, fmt.Errorf("sql is required")
	}
	if !isAllowedSQL(trimmed) {
		return QueryResult{}, fmt.Errorf("only single read-only SELECT/WITH statements are allowed")
	}
	if rowLimit > 0 {
		trimmed = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", trimmed, rowLimit)
	}

	rows, err := db.SQL.QueryContext(ctx, trimmed)
	if err != nil {
		return QueryResult{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResult{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return QueryResult{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("iterate rows: %w", err)
	}

	return QueryResult{Columns: columns, Rows: resultRows}, nil
}

func isAllowedSQL(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return false
	}
	if strings.ContainsRune(normalized, ';') {
		return false
	}
	return strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with")
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
