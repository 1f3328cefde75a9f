package connection

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/block"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
	"github.com/feral-file/flightstake-indexer/internal/notifier"
	"github.com/feral-file/flightstake-indexer/internal/providers/ethereum"
	"github.com/feral-file/flightstake-indexer/internal/router"
	"github.com/feral-file/flightstake-indexer/internal/store"
)

const (
	DefaultReconnectWait    = 5 * time.Second
	DefaultMaxReconnectWait = time.Minute
	DefaultJitter           = 0.5

	liveLogBuffer = 256
)

// SourceConfig binds a source to its contract and decoder
type SourceConfig struct {
	Source  domain.Source
	Address string
	Decoder ethereum.Decoder
}

// Config holds the configuration of the connection manager
type Config struct {
	WebSocketURL string
	// StartBlock is where catch-up begins for a source without a cursor
	StartBlock       uint64
	ReconnectWait    time.Duration
	MaxReconnectWait time.Duration
	// Jitter is the backoff randomization factor, zero disables it
	Jitter      float64
	LogPageSize uint64
	BlockCache  block.Config
	Sources     []SourceConfig
}

// Manager owns one supervised subscription per source
type Manager struct {
	config   Config
	dialer   adapter.EthClientDialer
	cursors  store.CursorStore
	router   router.Dispatcher
	notifier notifier.Notifier
	metrics  *metrics.Metrics
	clock    adapter.Clock

	// registry is nil when no registry source is configured
	registry *gate

	mu       sync.RWMutex
	statuses map[domain.Source]domain.SourceStatus
}

// NewManager validates the configuration. A missing endpoint or source
// address is reported as domain.ErrMissingConfig.
func NewManager(
	cfg Config,
	dialer adapter.EthClientDialer,
	cursors store.CursorStore,
	dispatcher router.Dispatcher,
	n notifier.Notifier,
	m *metrics.Metrics,
	clock adapter.Clock,
) (*Manager, error) {
	if cfg.WebSocketURL == "" {
		return nil, fmt.Errorf("%w: ledger websocket url", domain.ErrMissingConfig)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", domain.ErrMissingConfig)
	}
	for _, src := range cfg.Sources {
		if src.Address == "" {
			return nil, fmt.Errorf("%w: address of source %s", domain.ErrMissingConfig, src.Source)
		}
		if !common.IsHexAddress(src.Address) {
			return nil, fmt.Errorf("%w: invalid address %q for source %s", domain.ErrMissingConfig, src.Address, src.Source)
		}
		if src.Decoder == nil {
			return nil, fmt.Errorf("no decoder for source %s", src.Source)
		}
	}

	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = DefaultReconnectWait
	}
	if cfg.MaxReconnectWait < cfg.ReconnectWait {
		cfg.MaxReconnectWait = max(DefaultMaxReconnectWait, cfg.ReconnectWait)
	}
	if cfg.LogPageSize == 0 {
		cfg.LogPageSize = ethereum.DefaultLogPageSize
	}
	if n == nil {
		n = notifier.Nop()
	}

	var registry *gate
	statuses := make(map[domain.Source]domain.SourceStatus, len(cfg.Sources))
	for _, src := range cfg.Sources {
		statuses[src.Source] = domain.SourceStatus{Source: src.Source, State: domain.SourceStateDisconnected}
		if src.Source == domain.SourceRegistry {
			registry = newGate()
		}
	}

	return &Manager{
		config:   cfg,
		dialer:   dialer,
		cursors:  cursors,
		router:   dispatcher,
		notifier: n,
		metrics:  m,
		clock:    clock,
		registry: registry,
		statuses: statuses,
	}, nil
}

// Run supervises every source until ctx is cancelled
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := pond.NewPool(len(m.config.Sources), pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, src := range m.config.Sources {
		group.SubmitErr(func() error {
			if err := m.supervise(ctx, src); err != nil {
				cancel()
				return err
			}
			return nil
		})
	}

	logger.InfoCtx(ctx, "Connection manager started", zap.Int("sources", len(m.config.Sources)))

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Statuses returns the current state of every source
func (m *Manager) Statuses() []domain.SourceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SourceStatus, 0, len(m.config.Sources))
	for _, src := range m.config.Sources {
		out = append(out, m.statuses[src.Source])
	}
	return out
}

func (m *Manager) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.config.ReconnectWait
	b.MaxInterval = m.config.MaxReconnectWait
	b.MaxElapsedTime = 0
	b.Multiplier = 2.0
	b.RandomizationFactor = m.config.Jitter
	b.Reset()
	return b
}

// supervise drives the Disconnected -> Connecting -> Subscribed machine of
// one source. Only a fatal error ends it before ctx is done.
func (m *Manager) supervise(ctx context.Context, src SourceConfig) error {
	b := m.newBackOff()

	for {
		if ctx.Err() != nil {
			m.setState(ctx, src.Source, domain.SourceStateDisconnected, nil)
			return nil
		}

		m.setState(ctx, src.Source, domain.SourceStateConnecting, nil)

		err := m.session(ctx, src, func() {
			b.Reset()
			m.setState(ctx, src.Source, domain.SourceStateSubscribed, nil)
		})

		if ctx.Err() != nil {
			m.setState(ctx, src.Source, domain.SourceStateDisconnected, nil)
			return nil
		}
		if errors.Is(err, domain.ErrMissingConfig) {
			m.setState(ctx, src.Source, domain.SourceStateDisconnected, err)
			return err
		}

		m.setState(ctx, src.Source, domain.SourceStateDisconnected, err)

		wait := b.NextBackOff()
		if m.metrics != nil {
			m.metrics.IncReconnect(src.Source)
		}
		logger.WarnCtx(ctx, "Source disconnected, reconnecting",
			zap.String("source", string(src.Source)),
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			m.setState(ctx, src.Source, domain.SourceStateDisconnected, nil)
			return nil
		case <-m.clock.After(wait):
		}
	}
}

// position is the last log a session has handed to the router
type position struct {
	cursor domain.Cursor
	set    bool
}

func (p *position) seen(c domain.Cursor) bool {
	return p.set && !c.After(p.cursor)
}

// awaitRegistry holds back a registry-dependent source until the registry
// session has replayed its history, so no event reaches a ticket before its mint
func (m *Manager) awaitRegistry(ctx context.Context, src SourceConfig) error {
	if m.registry == nil || src.Source == domain.SourceRegistry || m.registry.IsOpen() {
		return nil
	}
	logger.InfoCtx(ctx, "Waiting for registry catch-up", zap.String("source", string(src.Source)))
	return m.registry.Wait(ctx)
}

// session runs one connection: subscribe, replay from the cursor, then
// follow live logs until the transport fails or ctx is cancelled
func (m *Manager) session(ctx context.Context, src SourceConfig, onSubscribed func()) error {
	if src.Source == domain.SourceRegistry && m.registry != nil {
		m.registry.Close()
		defer m.registry.Close()
	}

	eth, err := m.dialer.Dial(ctx, m.config.WebSocketURL)
	if err != nil {
		if errors.Is(err, domain.ErrMissingConfig) {
			return err
		}
		return fmt.Errorf("%w: dial: %v", domain.ErrSubscriptionFailed, err)
	}
	client := ethereum.NewClient(eth)
	defer client.Close()

	blocks, err := block.NewBlockProvider(ethereum.NewEthereumBlockFetcher(eth), m.config.BlockCache, m.clock)
	if err != nil {
		return err
	}

	query := goethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(src.Address)},
		Topics:    [][]common.Hash{src.Decoder.Topics()},
	}

	logs := make(chan types.Log, liveLogBuffer)
	sub, err := client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubscriptionFailed, err)
	}
	defer sub.Unsubscribe()

	onSubscribed()

	if err := m.awaitRegistry(ctx, src); err != nil {
		return err
	}

	var pos position
	cursor, err := m.cursors.GetCursor(ctx, src.Source)
	if err != nil {
		return fmt.Errorf("failed to load cursor: %w", err)
	}

	from := m.config.StartBlock
	if cursor != nil {
		pos = position{cursor: *cursor, set: true}
		from = cursor.BlockNumber
	}

	head, err := blocks.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubscriptionFailed, err)
	}

	if from <= head {
		logger.InfoCtx(ctx, "Catching up",
			zap.String("source", string(src.Source)),
			zap.Uint64("fromBlock", from),
			zap.Uint64("toBlock", head))

		catchUp := query
		catchUp.FromBlock = new(big.Int).SetUint64(from)
		catchUp.ToBlock = new(big.Int).SetUint64(head)

		err = client.ScanLogs(ctx, catchUp, m.config.LogPageSize, func(page []types.Log) error {
			for _, vLog := range page {
				if err := m.handleLog(ctx, src, blocks, vLog, &pos); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("catch-up failed: %w", err)
		}
	}

	if src.Source == domain.SourceRegistry && m.registry != nil {
		m.registry.Open()
	}

	logger.InfoCtx(ctx, "Following live logs", zap.String("source", string(src.Source)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("%w: %v", domain.ErrSubscriptionFailed, err)
		case vLog := <-logs:
			if err := m.awaitRegistry(ctx, src); err != nil {
				return err
			}
			if err := m.handleLog(ctx, src, blocks, vLog, &pos); err != nil {
				return err
			}
		}
	}
}

// handleLog decodes and dispatches one log. Only transport failures are returned.
func (m *Manager) handleLog(ctx context.Context, src SourceConfig, blocks block.BlockProvider, vLog types.Log, pos *position) error {
	fields := []zap.Field{
		zap.String("source", string(src.Source)),
		zap.String("txHash", vLog.TxHash.Hex()),
		zap.Uint64("blockNumber", vLog.BlockNumber),
		zap.Uint("logIndex", vLog.Index),
	}

	if vLog.Removed {
		logger.WarnCtx(ctx, "Skipping removed log", fields...)
		return nil
	}

	cur := domain.Cursor{Source: src.Source, BlockNumber: vLog.BlockNumber, LogIndex: vLog.Index}
	if pos.seen(cur) {
		logger.DebugCtx(ctx, "Skipping already processed log", fields...)
		return nil
	}

	ev, err := src.Decoder.Decode(vLog)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to decode log", append(fields, zap.Error(err))...)
		*pos = position{cursor: cur, set: true}
		return nil
	}

	ts, err := blocks.GetBlockTimestamp(ctx, vLog.BlockNumber)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubscriptionFailed, err)
	}
	ev.Timestamp = ts

	m.router.Dispatch(ctx, ev)
	*pos = position{cursor: cur, set: true}

	return nil
}

func (m *Manager) setState(ctx context.Context, source domain.Source, state domain.SourceState, cause error) {
	status := domain.SourceStatus{
		Source:    source,
		State:     state,
		ChangedAt: m.clock.Now(),
	}
	if cause != nil {
		status.Error = cause.Error()
	}

	m.mu.Lock()
	previous := m.statuses[source]
	m.statuses[source] = status
	m.mu.Unlock()

	if previous.State == state && !previous.ChangedAt.IsZero() {
		return
	}

	logger.InfoCtx(ctx, "Source state changed",
		zap.String("source", string(source)),
		zap.String("from", string(previous.State)),
		zap.String("to", string(state)),
		zap.String("error", status.Error))

	if m.metrics != nil {
		m.metrics.SetSourceState(source, state)
	}
	m.notifier.SourceStateChanged(ctx, status)
}
