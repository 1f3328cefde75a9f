package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
	"github.com/feral-file/flightstake-indexer/internal/mocks"
	"github.com/feral-file/flightstake-indexer/internal/notifier"
)

const natsURL = "nats://localhost:4222"

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	_ = logger.Initialize(logger.Config{Debug: true})
	m.Run()
}

type testSetup struct {
	ctrl    *gomock.Controller
	natsJS  *mocks.MockNatsJetStream
	nc      *mocks.MockNatsConn
	js      *mocks.MockJetStream
	clock   *mocks.MockClock
	metrics *metrics.Metrics
}

func setupTest(t *testing.T) *testSetup {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()

	return &testSetup{
		ctrl:    ctrl,
		natsJS:  mocks.NewMockNatsJetStream(ctrl),
		nc:      mocks.NewMockNatsConn(ctrl),
		js:      mocks.NewMockJetStream(ctrl),
		clock:   clock,
		metrics: metrics.New(),
	}
}

func (ts *testSetup) connect(t *testing.T, jsonAdapter adapter.JSON) notifier.Notifier {
	ctx := context.Background()

	ts.natsJS.EXPECT().Connect(natsURL, gomock.Any()).Return(ts.nc, ts.js, nil)
	ts.js.EXPECT().CreateOrUpdateStream(ctx, gomock.Any()).Return(nil)
	ts.nc.EXPECT().ConnectedUrl().Return(natsURL)

	n, err := notifier.NewJetStreamNotifier(ctx, notifier.Config{URL: natsURL, ConnectionName: "projector"},
		ts.natsJS, jsonAdapter, ts.clock, ts.metrics)
	require.NoError(t, err)
	return n
}

func TestNewJetStreamNotifier_CreatesStream(t *testing.T) {
	ts := setupTest(t)
	defer ts.ctrl.Finish()
	ctx := context.Background()

	ts.natsJS.EXPECT().Connect(natsURL, gomock.Any()).Return(ts.nc, ts.js, nil)
	ts.js.EXPECT().CreateOrUpdateStream(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg jetstream.StreamConfig) error {
			assert.Equal(t, "TICKETS", cfg.Name)
			assert.Equal(t, []string{notifier.SubjectAll}, cfg.Subjects)
			assert.Equal(t, jetstream.FileStorage, cfg.Storage)
			assert.Equal(t, time.Hour, cfg.MaxAge)
			return nil
		})
	ts.nc.EXPECT().ConnectedUrl().Return(natsURL)

	n, err := notifier.NewJetStreamNotifier(ctx, notifier.Config{URL: natsURL, StreamName: "TICKETS", MaxAge: time.Hour},
		ts.natsJS, adapter.NewJSON(), ts.clock, ts.metrics)
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestNewJetStreamNotifier_Failures(t *testing.T) {
	ts := setupTest(t)
	defer ts.ctrl.Finish()
	ctx := context.Background()

	t.Run("connect", func(t *testing.T) {
		ts.natsJS.EXPECT().Connect(natsURL, gomock.Any()).Return(nil, nil, errors.New("no servers available"))

		_, err := notifier.NewJetStreamNotifier(ctx, notifier.Config{URL: natsURL}, ts.natsJS, adapter.NewJSON(), ts.clock, ts.metrics)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to NATS")
	})

	t.Run("stream", func(t *testing.T) {
		ts.natsJS.EXPECT().Connect(natsURL, gomock.Any()).Return(ts.nc, ts.js, nil)
		ts.js.EXPECT().CreateOrUpdateStream(ctx, gomock.Any()).Return(errors.New("insufficient resources"))
		ts.nc.EXPECT().Close()

		_, err := notifier.NewJetStreamNotifier(ctx, notifier.Config{URL: natsURL}, ts.natsJS, adapter.NewJSON(), ts.clock, ts.metrics)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), notifier.StreamName)
	})
}

func TestJetStreamNotifier_SourceStateChanged(t *testing.T) {
	ts := setupTest(t)
	defer ts.ctrl.Finish()

	n := ts.connect(t, adapter.NewJSON())

	status := domain.SourceStatus{Source: domain.SourceStaking, State: domain.SourceStateSubscribed, ChangedAt: now}

	ts.js.EXPECT().Publish(gomock.Any(), "flightstake.lifecycle.staking", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)

			var env notifier.Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			assert.Equal(t, notifier.KindLifecycle, env.Kind)
			assert.Len(t, env.ID, 26)
			assert.Equal(t, now, env.PublishedAt)
			require.NotNil(t, env.Status)
			assert.Equal(t, domain.SourceStateSubscribed, env.Status.State)
			assert.Nil(t, env.Change)
			return &jetstream.PubAck{Stream: notifier.StreamName}, nil
		})

	n.SourceStateChanged(context.Background(), status)
}

func TestJetStreamNotifier_ProjectionAppliedSurvivesCancelledContext(t *testing.T) {
	ts := setupTest(t)
	defer ts.ctrl.Finish()

	n := ts.connect(t, adapter.NewJSON())

	ev := &domain.Event{
		Source:      domain.SourceMarketplace,
		Name:        domain.EventItemCanceled,
		TxHash:      "0xabc",
		BlockNumber: 12,
		LogIndex:    4,
	}
	delta := &domain.Delta{
		TokenID:       9,
		Ticket:        &domain.Ticket{TokenID: 9, Status: domain.TicketStatusIdle},
		DeleteListing: true,
	}

	ts.js.EXPECT().Publish(gomock.Any(), "flightstake.changes.ItemCanceled", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			assert.NoError(t, ctx.Err())

			var env notifier.Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			require.NotNil(t, env.Change)
			assert.Equal(t, uint64(9), env.Change.TokenID)
			assert.True(t, env.Change.ListingRemoved)
			assert.Equal(t, "0xabc", env.Change.TxHash)
			return &jetstream.PubAck{}, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.ProjectionApplied(ctx, ev, delta)
}

func TestJetStreamNotifier_FailuresAreCounted(t *testing.T) {
	ts := setupTest(t)
	defer ts.ctrl.Finish()

	jsonAdapter := mocks.NewMockJSON(ts.ctrl)
	n := ts.connect(t, jsonAdapter)
	ctx := context.Background()

	gomock.InOrder(
		jsonAdapter.EXPECT().Marshal(gomock.Any()).Return(nil, errors.New("unsupported value")),
		jsonAdapter.EXPECT().Marshal(gomock.Any()).Return([]byte(`{}`), nil),
	)
	ts.js.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("nats: timeout"))

	status := domain.SourceStatus{Source: domain.SourceOracle, State: domain.SourceStateConnecting}
	assert.NotPanics(t, func() {
		n.SourceStateChanged(ctx, status)
		n.SourceStateChanged(ctx, status)
	})

	expected := `
# HELP flightstake_notifier_failures_total Total number of notifications that could not be published.
# TYPE flightstake_notifier_failures_total counter
flightstake_notifier_failures_total{kind="lifecycle"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(ts.metrics.Registry(), strings.NewReader(expected), "flightstake_notifier_failures_total"))
}

func TestJetStreamNotifier_Close(t *testing.T) {
	ts := setupTest(t)
	defer ts.ctrl.Finish()

	n := ts.connect(t, adapter.NewJSON())
	ts.nc.EXPECT().Close()
	n.Close()
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "flightstake.lifecycle.oracle", notifier.LifecycleSubject(domain.SourceOracle))
	assert.Equal(t, "flightstake.changes.Transfer", notifier.ChangeSubject(domain.EventTransfer))
}

func TestNop(t *testing.T) {
	n := notifier.Nop()
	assert.NotPanics(t, func() {
		n.SourceStateChanged(context.Background(), domain.SourceStatus{})
		n.ProjectionApplied(context.Background(), &domain.Event{}, &domain.Delta{})
		n.Close()
	})
}
