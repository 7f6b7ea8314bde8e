package consumer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := []byte(`{"handle":"andrewbrown","message":"cloud!"}`)
	msg := kafka.Message{
		Topic:     "activity_events",
		Partition: 0,
		Offset:    10,
		Time:      time.Now().UTC(),
		Key:       []byte("andrewbrown"),
		Value:     payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("activity.created")},
		},
	}

	reader := &stubReader{
		messages: []kafka.Message{msg},
		after:    contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(zerolog.New(zerolog.NewTestWriter(t))))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "activity.created", handler.last.EventType)
	require.Equal(t, "andrewbrown", handler.last.Key)
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, string(payload), string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{
		Topic:  "activity_events",
		Offset: 20,
		Time:   time.Now().UTC(),
		Value:  []byte(`{"handle":"bayko","message":"hi"}`),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("activity.created")},
		},
	}

	reader := &stubReader{
		messages: []kafka.Message{msg},
		after:    contextCanceled,
	}
	handler := &stubHandler{err: errors.New("boom")}

	processor := NewProcessor(reader, handler, WithLogger(zerolog.New(zerolog.NewTestWriter(t))))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{
		messages: []kafka.Message{
			{Topic: "activity_events", Offset: 1, Value: []byte(`{}`)},
			{Topic: "activity_events", Offset: 2, Value: []byte(`not json`), Headers: []kafka.Header{
				{Key: "event_type", Value: []byte("activity.created")},
			}},
		},
		after: contextCanceled,
	}
	handler := &stubHandler{}
	dropped := droppedCounter.WithLabelValues("activity_events", dropMalformed)
	before := testutil.ToFloat64(dropped)

	err := NewProcessor(reader, handler).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 0, handler.calls)
	require.Equal(t, 2, reader.commitCalls)
	require.Equal(t, before+2, testutil.ToFloat64(dropped))
}

func TestProcessorBacksOffOnFetchErrors(t *testing.T) {
	var fetches []time.Time
	reader := &stubReader{after: func() error {
		fetches = append(fetches, time.Now())
		if len(fetches) < 3 {
			return context.DeadlineExceeded
		}
		return io.EOF
	}}

	err := NewProcessor(reader, &stubHandler{}, WithFetchBackoff(20*time.Millisecond)).Run(context.Background())
	require.NoError(t, err, "closed reader ends the loop")
	require.Len(t, fetches, 3)
	require.GreaterOrEqual(t, fetches[1].Sub(fetches[0]), 20*time.Millisecond)
	require.GreaterOrEqual(t, fetches[2].Sub(fetches[1]), 40*time.Millisecond, "backoff doubles")
}

func TestProcessorBackoffHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &stubReader{after: func() error {
		cancel()
		return errors.New("broker unavailable")
	}}

	err := NewProcessor(reader, &stubHandler{}, WithFetchBackoff(time.Hour)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessorStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &stubReader{}
	err := NewProcessor(reader, &stubHandler{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, reader.index)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
