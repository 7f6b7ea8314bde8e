// Command postcrud publishes an activity.created event, for exercising the
// ingest consumer locally.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"example.com/cruddur/internal/config"
	"example.com/cruddur/internal/events"
	"example.com/cruddur/internal/logging"
	"example.com/cruddur/internal/publisher"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, true)

	handle := flag.String("handle", "andrewbrown", "author handle")
	message := flag.String("message", "", "crud text")
	ttl := flag.String("ttl", "7-days", "expiry, e.g. 1-hour, 3-days, 30-days")
	topic := flag.String("topic", "", "topic to publish to (defaults to the first consumer topic)")
	flag.Parse()

	if *message == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *topic == "" && len(cfg.ConsumerTopics) > 0 {
		*topic = cfg.ConsumerTopics[0]
	}

	evt := events.ActivityCreated{Handle: *handle, Message: *message, TTL: *ttl}
	if err := publish(cfg.KafkaBrokers, *topic, evt); err != nil {
		logger.Error().Err(err).Str("topic", *topic).Msg("publish failed")
		os.Exit(1)
	}
	logger.Info().Str("topic", *topic).Str("handle", *handle).Msg("activity published")
}

func publish(brokers []string, topic string, evt events.ActivityCreated) error {
	producer := publisher.NewKafkaProducer(brokers)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return publisher.NewPublisher(producer, topic).PublishActivityCreated(ctx, evt)
}
