package notifier_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
	"github.com/feral-file/flightstake-indexer/internal/mocks"
	"github.com/feral-file/flightstake-indexer/internal/notifier"
)

func TestHub_Presence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	gomock.InOrder(
		clock.EXPECT().Now().Return(now),
		clock.EXPECT().Now().Return(now.Add(time.Second)),
		clock.EXPECT().Now().Return(now.Add(time.Minute)),
	)

	m := metrics.New()
	presence := notifier.NewPresence()
	factory := notifier.HubFactory(presence, notifier.NewStatusBook(), clock, m)

	factory().(*notifier.Hub).OnConnected("a")
	factory().(*notifier.Hub).OnConnected("b")
	assert.Equal(t, 2, presence.Count())

	factory().(*notifier.Hub).OnDisconnected("a")
	assert.Equal(t, 1, presence.Count())

	expected := `
# HELP flightstake_hub_clients Number of clients connected to the live-update hub.
# TYPE flightstake_hub_clients gauge
flightstake_hub_clients 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "flightstake_hub_clients"))
}

func TestHub_Sources(t *testing.T) {
	statuses := notifier.NewStatusBook()
	statuses.Set(domain.SourceStatus{Source: domain.SourceOracle, State: domain.SourceStateSubscribed, ChangedAt: now})

	hub := notifier.HubFactory(notifier.NewPresence(), statuses, nil, nil)().(*notifier.Hub)
	sources := hub.Sources()

	require.Len(t, sources, len(domain.AllSources))
	for _, s := range sources {
		if s.Source == domain.SourceOracle {
			assert.Equal(t, domain.SourceStateSubscribed, s.State)
		} else {
			assert.Equal(t, domain.SourceStateDisconnected, s.State)
		}
	}
}

func TestNewHubServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	sr := mocks.NewMockSignalR(ctrl)
	server := mocks.NewMockSignalRServer(ctrl)

	sr.EXPECT().NewServer(ctx, gomock.Any(), gomock.Any(), 15*time.Second).Return(server, nil)
	got, err := notifier.NewHubServer(ctx, sr, notifier.NewPresence(), notifier.NewStatusBook(), nil, nil, 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, server, got)

	sr.EXPECT().NewServer(ctx, gomock.Any(), gomock.Any(), 15*time.Second).Return(nil, errors.New("bad option"))
	_, err = notifier.NewHubServer(ctx, sr, notifier.NewPresence(), notifier.NewStatusBook(), nil, nil, 15*time.Second)
	assert.Error(t, err)
}

func TestPresence_RemoveUnknown(t *testing.T) {
	p := notifier.NewPresence()
	p.Add("a", now)

	open, n := p.Remove("missing", now.Add(time.Minute))
	assert.Zero(t, open)
	assert.Equal(t, 1, n)

	open, n = p.Remove("a", now.Add(time.Minute))
	assert.Equal(t, time.Minute, open)
	assert.Equal(t, 0, n)
}

func TestStatusBook_KeepsNewest(t *testing.T) {
	b := notifier.NewStatusBook()

	assert.True(t, b.Set(domain.SourceStatus{Source: domain.SourceStaking, State: domain.SourceStateConnecting, ChangedAt: now}))
	assert.False(t, b.Set(domain.SourceStatus{Source: domain.SourceStaking, State: domain.SourceStateDisconnected, ChangedAt: now.Add(-time.Second)}))
	assert.True(t, b.Set(domain.SourceStatus{Source: domain.SourceStaking, State: domain.SourceStateSubscribed, ChangedAt: now}))

	all := b.All()
	require.Len(t, all, len(domain.AllSources))
	for i, source := range domain.AllSources {
		assert.Equal(t, source, all[i].Source)
	}
}

func TestSignalRLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := notifier.NewSignalRLogger(zap.New(core))

	require.NoError(t, l.Log("ts", "now", "caller", "server.go:10", "message", "connection started", "connection", "abc"))
	require.NoError(t, l.Log("error", errors.New("read tcp: reset"), "connection", "abc"))
	require.NoError(t, l.Log("dangling"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "connection started", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"connection": "abc"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "signalr", entries[1].Message)

	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}
