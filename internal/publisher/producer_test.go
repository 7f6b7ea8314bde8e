package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/cruddur/internal/events"
)

func TestPublishActivityCreated(t *testing.T) {
	writer := &stubWriter{}
	pub := NewPublisher(writer, "activity_events")
	now := time.Date(2023, time.March, 1, 9, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return now }

	err := pub.PublishActivityCreated(context.Background(), events.ActivityCreated{Handle: "andrewbrown", Message: "cloud!", TTL: "1-day"})
	require.NoError(t, err)

	require.Equal(t, "activity_events", writer.topic)
	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	require.Equal(t, "andrewbrown", string(msg.Key))
	require.Equal(t, now, msg.Time)
	require.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte(events.TypeActivityCreated)}}, msg.Headers)

	var decoded events.ActivityCreated
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, "cloud!", decoded.Message)
	require.True(t, decoded.CreatedAt.Equal(now))
}

func TestPublishRequiresHandle(t *testing.T) {
	writer := &stubWriter{}
	err := NewPublisher(writer, "activity_events").PublishActivityCreated(context.Background(), events.ActivityCreated{Message: "m"})
	require.Error(t, err)
	require.Empty(t, writer.msgs)
}

func TestPublishPropagatesWriterErrors(t *testing.T) {
	boom := errors.New("broker unavailable")
	err := NewPublisher(&stubWriter{err: boom}, "activity_events").PublishActivityCreated(context.Background(), events.ActivityCreated{Handle: "a", Message: "m"})
	require.ErrorIs(t, err, boom)
}

func TestKafkaProducerReusesWriters(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"})
	first := p.writerForTopic("activity_events")
	require.Same(t, first, p.writerForTopic("activity_events"))
	require.NotSame(t, first, p.writerForTopic("other"))

	require.NoError(t, p.Close())
	require.Empty(t, p.writers)
}

type stubWriter struct {
	topic string
	msgs  []kafka.Message
	err   error
}

func (w *stubWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.topic = topic
	w.msgs = append(w.msgs, msgs...)
	return nil
}
