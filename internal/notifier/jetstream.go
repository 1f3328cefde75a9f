package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
)

const defaultPublishTimeout = 5 * time.Second

// Config holds the configuration for the NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	MaxAge         time.Duration
	PublishTimeout time.Duration
}

// ConnectOptions returns the NATS options shared by the publisher and the relay
func ConnectOptions(cfg Config) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}
}

type jetStreamNotifier struct {
	nc      adapter.NatsConn
	js      adapter.JetStream
	json    adapter.JSON
	clock   adapter.Clock
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewJetStreamNotifier connects to NATS and makes sure the notification stream exists
func NewJetStreamNotifier(
	ctx context.Context,
	cfg Config,
	natsJS adapter.NatsJetStream,
	jsonAdapter adapter.JSON,
	clock adapter.Clock,
	m *metrics.Metrics,
) (Notifier, error) {
	nc, js, err := natsJS.Connect(cfg.URL, ConnectOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	streamName := cfg.StreamName
	if streamName == "" {
		streamName = StreamName
	}

	err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{SubjectAll},
		Storage:  jetstream.FileStorage,
		MaxAge:   cfg.MaxAge,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", streamName, err)
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	logger.InfoCtx(ctx, "Notifier connected", zap.String("url", nc.ConnectedUrl()), zap.String("stream", streamName))

	return &jetStreamNotifier{
		nc:      nc,
		js:      js,
		json:    jsonAdapter,
		clock:   clock,
		metrics: m,
		timeout: timeout,
	}, nil
}

func (n *jetStreamNotifier) SourceStateChanged(ctx context.Context, status domain.SourceStatus) {
	n.publish(ctx, LifecycleSubject(status.Source), Envelope{
		Kind:   KindLifecycle,
		Status: &status,
	})
}

func (n *jetStreamNotifier) ProjectionApplied(ctx context.Context, ev *domain.Event, delta *domain.Delta) {
	n.publish(ctx, ChangeSubject(ev.Name), Envelope{
		Kind:   KindChange,
		Change: NewChange(ev, delta),
	})
}

func (n *jetStreamNotifier) publish(ctx context.Context, subject string, env Envelope) {
	now := n.clock.Now()
	env.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	env.PublishedAt = now

	data, err := n.json.Marshal(env)
	if err != nil {
		n.fail(ctx, env.Kind, fmt.Errorf("failed to marshal notification: %w", err), subject)
		return
	}

	// shutdown must not lose the final lifecycle transition
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if _, err := n.js.Publish(pubCtx, subject, data, jetstream.WithMsgID(env.ID)); err != nil {
		n.fail(ctx, env.Kind, fmt.Errorf("failed to publish notification: %w", err), subject)
		return
	}

	logger.DebugCtx(ctx, "Published notification", zap.String("subject", subject), zap.String("id", env.ID))
}

func (n *jetStreamNotifier) fail(ctx context.Context, kind EnvelopeKind, err error, subject string) {
	if n.metrics != nil {
		n.metrics.IncNotifierFailure(string(kind))
	}
	logger.ErrorCtx(ctx, err, zap.String("subject", subject))
}

func (n *jetStreamNotifier) Close() {
	if n.nc == nil {
		return
	}
	n.nc.Close()
}
