package domain

import "context"

// ActivityRecord is a single feed row as decoded from the data store's JSON
// output. The schema is owned by the SQL template that produced it.
type ActivityRecord map[string]any

// Handle returns the record's author handle, or "" when absent.
func (r ActivityRecord) Handle() string {
	handle, _ := r["handle"].(string)
	return handle
}

// QueryProvider resolves named SQL templates.
type QueryProvider interface {
	Template(domain, name string) (string, error)
}

// DataStore executes read queries and returns their rows as JSON objects.
type DataStore interface {
	QueryArrayJSON(ctx context.Context, query string, args ...any) ([]ActivityRecord, error)
}
