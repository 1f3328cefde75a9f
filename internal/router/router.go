package router

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
	"github.com/feral-file/flightstake-indexer/internal/notifier"
	"github.com/feral-file/flightstake-indexer/internal/projector"
	"github.com/feral-file/flightstake-indexer/internal/store"
)

// Outcome is what happened to a dispatched event
type Outcome string

const (
	// OutcomeApplied means the projection and cursor were committed
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored means no handler exists for the event, only the cursor moved
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDropped means the handler or the store failed and no projection
	// was written. A handler failure still moves the cursor.
	OutcomeDropped Outcome = "dropped"
)

// Dispatcher routes decoded events to their projection
//
//go:generate mockgen -source=router.go -destination=../mocks/router.go -package=mocks -mock_names=Dispatcher=MockDispatcher,Store=MockRouterStore
type Dispatcher interface {
	// Dispatch projects ev and commits it together with its cursor. Failures
	// are logged and the event is dropped, they are never returned.
	Dispatch(ctx context.Context, ev *domain.Event) Outcome
}

// Store is the part of the state store the router writes to
type Store interface {
	store.ProjectionStore
	store.CursorStore
}

type router struct {
	projector *projector.Projector
	store     Store
	notifier  notifier.Notifier
	metrics   *metrics.Metrics
	clock     adapter.Clock
	locks     *keyLock
}

// New creates a router over the given store
func New(p *projector.Projector, st Store, n notifier.Notifier, m *metrics.Metrics, clock adapter.Clock) Dispatcher {
	if n == nil {
		n = notifier.Nop()
	}
	return &router{
		projector: p,
		store:     st,
		notifier:  n,
		metrics:   m,
		clock:     clock,
		locks:     newKeyLock(defaultStripes),
	}
}

func (r *router) Dispatch(ctx context.Context, ev *domain.Event) (outcome Outcome) {
	start := r.clock.Now()
	fields := []zap.Field{
		zap.String("source", string(ev.Source)),
		zap.String("event", string(ev.Name)),
		zap.String("txHash", ev.TxHash),
		zap.Uint64("blockNumber", ev.BlockNumber),
		zap.Uint("logIndex", ev.LogIndex),
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("handler panic: %v", rec), fields...)
			outcome = OutcomeDropped
		}
		if r.metrics != nil {
			r.metrics.ObserveEvent(ev.Source, ev.Name, string(outcome), r.clock.Since(start))
		}
	}()

	handler, ok := r.projector.Lookup(ev.Source, ev.Name)
	if !ok {
		logger.DebugCtx(ctx, "No handler for event, skipping", fields...)
		r.skip(ctx, ev, fields)
		return OutcomeIgnored
	}

	tokenID, err := projector.TokenID(ev)
	if err != nil {
		logger.ErrorCtx(ctx, err, append(fields, zap.String("message", "Dropping event"))...)
		r.skip(ctx, ev, fields)
		return OutcomeDropped
	}
	fields = append(fields, zap.Uint64("tokenId", tokenID))

	unlock := r.locks.lock(tokenID)
	defer unlock()

	var handlerErr error
	cursor := ev.Cursor()
	result, err := r.store.ApplyProjection(ctx, tokenID, &cursor, func(state domain.TicketState) (*domain.Delta, error) {
		delta, err := handler(state, ev)
		handlerErr = err
		return delta, err
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.WarnCtx(ctx, "Projection cancelled", fields...)
		case handlerErr != nil:
			logger.ErrorCtx(ctx, err, append(fields, zap.String("message", "Dropping event"))...)
			r.skip(ctx, ev, fields)
		default:
			logger.ErrorCtx(ctx, err, append(fields, zap.String("message", "Dropping event"))...)
		}
		return OutcomeDropped
	}

	if result.Delta != nil && result.Delta.Transaction != nil && !result.TransactionInserted {
		logger.DebugCtx(ctx, "Transaction already recorded", fields...)
	}

	logger.DebugCtx(ctx, "Event applied", fields...)

	if result.Delta != nil {
		r.notifier.ProjectionApplied(ctx, ev, result.Delta)
	}

	return OutcomeApplied
}

// skip moves the cursor past an event the handler rejected so that catch-up
// does not read it again. Store failures keep the cursor in place.
func (r *router) skip(ctx context.Context, ev *domain.Event, fields []zap.Field) {
	if err := r.store.SetCursor(ctx, ev.Cursor()); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to advance cursor: %w", err), fields...)
	}
}
