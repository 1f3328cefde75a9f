package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/logger"
)

// Broadcaster sends a message to every connected client
type Broadcaster interface {
	Broadcast(target string, args ...interface{})
}

// RelayConfig holds the consumer settings of the relay
type RelayConfig struct {
	StreamName   string
	ConsumerName string
	AckWait      time.Duration
	MaxDeliver   int
}

// Relay forwards notifications from the stream to hub clients
type Relay struct {
	js          adapter.JetStream
	json        adapter.JSON
	broadcaster Broadcaster
	statuses    *StatusBook
	config      RelayConfig
}

func NewRelay(js adapter.JetStream, jsonAdapter adapter.JSON, broadcaster Broadcaster, statuses *StatusBook, cfg RelayConfig) *Relay {
	if cfg.StreamName == "" {
		cfg.StreamName = StreamName
	}
	return &Relay{
		js:          js,
		json:        jsonAdapter,
		broadcaster: broadcaster,
		statuses:    statuses,
		config:      cfg,
	}
}

// Run consumes until ctx is cancelled. The consumer starts from the last
// message of every subject so the latest status of each source is known
// right after startup.
func (r *Relay) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting notification relay",
		zap.String("stream", r.config.StreamName),
		zap.String("consumer", r.config.ConsumerName))

	consumer, err := r.js.CreateOrUpdateConsumer(ctx, r.config.StreamName, jetstream.ConsumerConfig{
		Durable:       r.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       r.config.AckWait,
		MaxDeliver:    r.config.MaxDeliver,
		DeliverPolicy: jetstream.DeliverLastPerSubjectPolicy,
		FilterSubject: SubjectAll,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	cc, err := consumer.Consume(r.HandleMessage)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.InfoCtx(ctx, "Shutting down notification relay")
		cc.Drain()
		return nil
	case <-cc.Closed():
		return fmt.Errorf("consumer closed unexpectedly")
	}
}

// HandleMessage forwards one notification and acknowledges it
func (r *Relay) HandleMessage(msg adapter.Message) {
	var env Envelope
	if err := r.json.Unmarshal(msg.Data(), &env); err != nil {
		logger.Error(fmt.Errorf("failed to unmarshal notification: %w", err), zap.String("subject", msg.Subject()))
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	switch env.Kind {
	case KindLifecycle:
		if env.Status == nil {
			break
		}
		if r.statuses.Set(*env.Status) {
			r.broadcaster.Broadcast(TargetSourceStatus, *env.Status)
		}
	case KindChange:
		if env.Change == nil {
			break
		}
		r.broadcaster.Broadcast(TargetProjectionChanged, *env.Change)
	default:
		logger.Warn("Unknown notification kind", zap.String("kind", string(env.Kind)), zap.String("subject", msg.Subject()))
	}

	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ack message"), zap.String("id", env.ID))
	}
}
