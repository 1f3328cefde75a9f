package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
)

func TestMetrics_SourceStateIsExclusive(t *testing.T) {
	m := metrics.New()

	m.SetSourceState(domain.SourceStaking, domain.SourceStateConnecting)
	m.SetSourceState(domain.SourceStaking, domain.SourceStateSubscribed)

	expected := `
# HELP flightstake_source_state Connection state of a source, 1 for the current state.
# TYPE flightstake_source_state gauge
flightstake_source_state{source="staking",state="connecting"} 0
flightstake_source_state{source="staking",state="disconnected"} 0
flightstake_source_state{source="staking",state="subscribed"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "flightstake_source_state")
	assert.NoError(t, err)
}

func TestMetrics_ObserveEvent(t *testing.T) {
	m := metrics.New()

	m.ObserveEvent(domain.SourceRegistry, domain.EventTransfer, "applied", 5*time.Millisecond)
	m.ObserveEvent(domain.SourceRegistry, domain.EventTransfer, "applied", 7*time.Millisecond)
	m.ObserveEvent(domain.SourceRegistry, domain.EventTransfer, "dropped", time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "flightstake_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(m.Registry(), "flightstake_projection_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.IncReconnect(domain.SourceOracle)
	m.IncNotifierFailure("change")
	m.SetHubClients(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `flightstake_source_reconnects_total{source="oracle"} 1`)
	assert.Contains(t, body, `flightstake_notifier_failures_total{kind="change"} 1`)
	assert.Contains(t, body, "flightstake_hub_clients 3")
	assert.Contains(t, body, "go_goroutines")
}
