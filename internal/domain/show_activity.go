package domain

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrActivityNotFound is returned when an activity cannot be located.
var ErrActivityNotFound = errors.New("activity not found")

// ObjectStore loads a single row as a JSON object. Missing rows yield an empty record.
type ObjectStore interface {
	QueryObjectJSON(ctx context.Context, query string, args ...any) (ActivityRecord, error)
}

// ShowActivity fetches one activity by uuid.
type ShowActivity struct {
	queries QueryProvider
	store   ObjectStore
	tracer  trace.Tracer
}

// NewShowActivity constructs a ShowActivity.
func NewShowActivity(queries QueryProvider, store ObjectStore, tracer trace.Tracer) *ShowActivity {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(TracerName)
	}
	return &ShowActivity{queries: queries, store: store, tracer: tracer}
}

// Run returns the activity identified by activityUUID.
func (s *ShowActivity) Run(ctx context.Context, activityUUID string) (record ActivityRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "show-activity", trace.WithAttributes(attribute.String("app.activity_uuid", activityUUID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sql, err := s.queries.Template("activities", "object")
	if err != nil {
		return nil, fmt.Errorf("load object template: %w", err)
	}

	record, err = s.store.QueryObjectJSON(ctx, sql, activityUUID)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	if len(record) == 0 {
		return nil, ErrActivityNotFound
	}
	return record, nil
}
