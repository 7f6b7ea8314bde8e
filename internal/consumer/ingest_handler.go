package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example.com/cruddur/internal/db"
	"example.com/cruddur/internal/domain"
	"example.com/cruddur/internal/events"
	"example.com/cruddur/internal/observability"
)

// MaxMessageLength is the longest crud accepted, in characters.
const MaxMessageLength = 280

// ErrInvalidActivity marks payloads that can never be stored.
var ErrInvalidActivity = errors.New("invalid activity")

var ttls = map[string]time.Duration{
	"30-days":  30 * 24 * time.Hour,
	"7-days":   7 * 24 * time.Hour,
	"3-days":   3 * 24 * time.Hour,
	"1-day":    24 * time.Hour,
	"12-hours": 12 * time.Hour,
	"3-hours":  3 * time.Hour,
	"1-hour":   time.Hour,
}

// Committer runs write statements that return the new row's id.
type Committer interface {
	QueryCommit(ctx context.Context, query string, args ...any) (string, error)
}

// IngestHandler writes activity.created events into the activities table.
type IngestHandler struct {
	queries domain.QueryProvider
	store   Committer
	logger  zerolog.Logger
	now     func() time.Time
}

// NewIngestHandler constructs a handler that stores activities through store.
func NewIngestHandler(queries domain.QueryProvider, store Committer, logger zerolog.Logger) *IngestHandler {
	return &IngestHandler{queries: queries, store: store, logger: logger, now: time.Now}
}

// Handle stores activity.created events and ignores every other event type.
// Invalid payloads and unknown handles are logged and dropped so they are committed.
func (h *IngestHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeActivityCreated {
		return nil
	}

	var evt events.ActivityCreated
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		h.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("dropping undecodable activity")
		recordDropped(msg.Topic, dropMalformed)
		return nil
	}

	args, err := h.insertArgs(evt)
	if err != nil {
		h.logger.Warn().Err(err).Str("handle", evt.Handle).Int64("offset", msg.Offset).Msg("dropping invalid activity")
		recordDropped(msg.Topic, dropInvalid)
		return nil
	}

	sql, err := h.queries.Template("activities", "create")
	if err != nil {
		return err
	}

	id, err := h.store.QueryCommit(ctx, sql, args...)
	if errors.Is(err, db.ErrNoReturnedRow) {
		h.logger.Warn().Str("handle", evt.Handle).Int64("offset", msg.Offset).Msg("dropping activity for unknown handle")
		recordDropped(msg.Topic, dropUnknownHandle)
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	observability.RecordActivityIngested(args[4].(time.Time))
	h.logger.Debug().Str("activity_uuid", id).Str("handle", evt.Handle).Msg("activity ingested")
	return nil
}

// insertArgs validates evt and returns the parameters for activities/create.sql.
func (h *IngestHandler) insertArgs(evt events.ActivityCreated) ([]any, error) {
	var activityID any
	if evt.ActivityUUID != "" {
		parsed, err := uuid.Parse(evt.ActivityUUID)
		if err != nil {
			return nil, fmt.Errorf("%w: activity_uuid: %v", ErrInvalidActivity, err)
		}
		activityID = parsed.String()
	}

	handle := strings.TrimSpace(evt.Handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: handle is required", ErrInvalidActivity)
	}

	message := strings.TrimSpace(evt.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidActivity)
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidActivity, MaxMessageLength)
	}

	createdAt := evt.CreatedAt
	if createdAt.IsZero() {
		createdAt = h.now()
	}
	createdAt = createdAt.UTC()

	var expiresAt time.Time
	switch {
	case evt.ExpiresAt != nil:
		expiresAt = evt.ExpiresAt.UTC()
	case evt.TTL != "":
		ttl, ok := ttls[evt.TTL]
		if !ok {
			return nil, fmt.Errorf("%w: unknown ttl %q", ErrInvalidActivity, evt.TTL)
		}
		expiresAt = createdAt.Add(ttl)
	default:
		expiresAt = createdAt.Add(ttls["7-days"])
	}
	if !expiresAt.After(createdAt) {
		return nil, fmt.Errorf("%w: expires_at must be after created_at", ErrInvalidActivity)
	}
	if !expiresAt.After(h.now()) {
		return nil, fmt.Errorf("%w: already expired at %s", ErrInvalidActivity, expiresAt.Format(time.RFC3339))
	}

	return []any{activityID, handle, message, expiresAt, createdAt}, nil
}
