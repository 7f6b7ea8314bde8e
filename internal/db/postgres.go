package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"example.com/cruddur/internal/domain"
)

const tracerName = "cruddur.db"

// ErrNoReturnedRow is returned by QueryCommit when the statement produced no row.
var ErrNoReturnedRow = errors.New("statement returned no row")

// Querier is the subset of pgxpool.Pool used by Store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store runs templated SQL against Postgres and decodes rows as JSON.
type Store struct {
	q Querier
}

// NewStore constructs a Store.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// QueryArrayJSON returns every row of query as a JSON object, preserving row order.
func (s *Store) QueryArrayJSON(ctx context.Context, query string, args ...any) (records []domain.ActivityRecord, err error) {
	ctx, span := s.start(ctx, "db.query_array_json")
	defer func() { endSpan(span, err) }()

	raw, err := s.scanJSON(ctx, WrapArrayJSON(query), args...)
	if err != nil {
		return nil, err
	}

	records = make([]domain.ActivityRecord, 0)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode json array: %w", err)
	}
	span.SetAttributes(attribute.Int("db.rows", len(records)))
	return records, nil
}

// QueryObjectJSON returns the first row of query as a JSON object. A query
// without rows yields an empty record.
func (s *Store) QueryObjectJSON(ctx context.Context, query string, args ...any) (record domain.ActivityRecord, err error) {
	ctx, span := s.start(ctx, "db.query_object_json")
	defer func() { endSpan(span, err) }()

	record = domain.ActivityRecord{}
	raw, err := s.scanJSON(ctx, WrapObjectJSON(query), args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode json object: %w", err)
	}
	return record, nil
}

// QueryCommit executes a write statement ending in RETURNING and returns the
// first returned column as text.
func (s *Store) QueryCommit(ctx context.Context, query string, args ...any) (id string, err error) {
	ctx, span := s.start(ctx, "db.query_commit")
	defer func() { endSpan(span, err) }()

	if !strings.Contains(strings.ToUpper(query), "RETURNING") {
		return "", errors.New("query commit requires a RETURNING clause")
	}

	var returned any
	if err := s.q.QueryRow(ctx, query, args...).Scan(&returned); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoReturnedRow
		}
		return "", err
	}
	return formatReturned(returned), nil
}

func (s *Store) scanJSON(ctx context.Context, query string, args ...any) ([]byte, error) {
	var raw []byte
	if err := s.q.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Store) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "postgresql")))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// WrapArrayJSON wraps query so Postgres aggregates its rows into one JSON array.
func WrapArrayJSON(query string) string {
	return fmt.Sprintf(`SELECT COALESCE(array_to_json(array_agg(row_to_json(array_row))),'[]'::json) FROM (
%s
) array_row`, trimStatement(query))
}

// WrapObjectJSON wraps query so Postgres returns its first row as one JSON object.
func WrapObjectJSON(query string) string {
	return fmt.Sprintf(`SELECT COALESCE(row_to_json(object_row),'{}'::json) FROM (
%s
) object_row`, trimStatement(query))
}

func trimStatement(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), ";")
}

func formatReturned(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
