// Package domain defines the business logic for the cruddur feed service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the instrumentation scope used for feed spans.
	TracerName = "home.activities"
	// HomeSpanName names the span opened for each home feed lookup.
	HomeSpanName = "home-activities"

	AttrNow          = attribute.Key("app.now")
	AttrUserID       = attribute.Key("app.user_id")
	AttrResultLength = attribute.Key("app.result_length")
)

// ErrEmptyResult is returned when the home feed query yields no rows.
var ErrEmptyResult = errors.New("home activities: empty result")

// Option configures optional behaviour for HomeActivities.
type Option func(*HomeActivities)

// WithClock overrides the wall clock used for the app.now attribute.
func WithClock(now func() time.Time) Option {
	return func(h *HomeActivities) {
		if now != nil {
			h.now = now
		}
	}
}

// HomeActivities lists the activities shown on the home feed.
type HomeActivities struct {
	queries QueryProvider
	store   DataStore
	tracer  trace.Tracer
	now     func() time.Time
}

// NewHomeActivities constructs a HomeActivities. A nil tracer disables tracing.
func NewHomeActivities(queries QueryProvider, store DataStore, tracer trace.Tracer, opts ...Option) *HomeActivities {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(TracerName)
	}
	h := &HomeActivities{
		queries: queries,
		store:   store,
		tracer:  tracer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run returns the home feed rows in data store order. cognitoUserID is
// accepted for callers that know the viewer but does not affect the result.
func (h *HomeActivities) Run(ctx context.Context, cognitoUserID string) (records []ActivityRecord, err error) {
	ctx, span := h.tracer.Start(ctx, HomeSpanName)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	span.SetAttributes(AttrNow.String(h.now().Local().Format(time.RFC3339Nano)))

	sql, err := h.queries.Template("activities", "home")
	if err != nil {
		return nil, fmt.Errorf("load home template: %w", err)
	}

	records, err = h.store.QueryArrayJSON(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query home activities: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyResult
	}

	span.SetAttributes(
		AttrUserID.String(records[0].Handle()),
		AttrResultLength.Int(len(records)),
	)
	return records, nil
}
