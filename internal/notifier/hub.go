package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/philippseith/signalr"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
)

const (
	// TargetSourceStatus is the client method receiving lifecycle transitions
	TargetSourceStatus = "sourceStatus"
	// TargetProjectionChanged is the client method receiving projection changes
	TargetProjectionChanged = "projectionChanged"
)

// Hub is the live-update hub. A new instance serves every invocation, state
// shared between connections lives in Presence and StatusBook.
type Hub struct {
	signalr.Hub

	presence *Presence
	statuses *StatusBook
	clock    adapter.Clock
	metrics  *metrics.Metrics
}

// HubFactory returns the factory handed to the SignalR server
func HubFactory(presence *Presence, statuses *StatusBook, clock adapter.Clock, m *metrics.Metrics) func() signalr.HubInterface {
	return func() signalr.HubInterface {
		return &Hub{
			presence: presence,
			statuses: statuses,
			clock:    clock,
			metrics:  m,
		}
	}
}

func (h *Hub) OnConnected(connectionID string) {
	n := h.presence.Add(connectionID, h.clock.Now())
	if h.metrics != nil {
		h.metrics.SetHubClients(n)
	}
	logger.Info("Client connected", zap.String("connectionId", connectionID), zap.Int("clients", n))
}

func (h *Hub) OnDisconnected(connectionID string) {
	open, n := h.presence.Remove(connectionID, h.clock.Now())
	if h.metrics != nil {
		h.metrics.SetHubClients(n)
	}
	logger.Info("Client disconnected",
		zap.String("connectionId", connectionID),
		zap.Duration("connectedFor", open),
		zap.Int("clients", n))
}

// Sources lets a client fetch the current state of every source on demand
func (h *Hub) Sources() []domain.SourceStatus {
	return h.statuses.All()
}

// NewHubServer creates the SignalR server serving the hub
func NewHubServer(
	ctx context.Context,
	sr adapter.SignalR,
	presence *Presence,
	statuses *StatusBook,
	clock adapter.Clock,
	m *metrics.Metrics,
	keepAlive time.Duration,
) (adapter.SignalRServer, error) {
	server, err := sr.NewServer(ctx, HubFactory(presence, statuses, clock, m), NewSignalRLogger(logger.Named("signalr")), keepAlive)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub server: %w", err)
	}
	return server, nil
}
