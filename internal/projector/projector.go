package projector

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// Handler maps the current state of one ticket and an event to the writes the
// event implies. Handlers never touch storage.
type Handler func(state domain.TicketState, ev *domain.Event) (*domain.Delta, error)

// Key identifies a handler by the source that emits the event and its name
type Key struct {
	Source domain.Source
	Event  domain.EventName
}

// Projector is the dispatch table from (source, event name) to handler
type Projector struct {
	decimals int
	handlers map[Key]Handler
}

// New builds the table for every tracked event. decimals scales transaction
// amounts to display units.
func New(decimals int) *Projector {
	p := &Projector{
		decimals: decimals,
	}

	p.handlers = map[Key]Handler{
		{domain.SourceRegistry, domain.EventTransfer}:           p.transfer,
		{domain.SourceStaking, domain.EventTokenStaked}:         p.tokenStaked,
		{domain.SourceStaking, domain.EventTokenUnstaked}:       p.tokenUnstaked,
		{domain.SourceLending, domain.EventCollateralDeposited}: p.collateralDeposited,
		{domain.SourceLending, domain.EventCollateralWithdrawn}: p.collateralWithdrawn,
		{domain.SourceMarketplace, domain.EventItemListed}:      p.itemListed,
		{domain.SourceMarketplace, domain.EventItemCanceled}:    p.itemCanceled,
		{domain.SourceMarketplace, domain.EventItemSold}:        p.itemSold,
		{domain.SourceOracle, domain.EventPriceUpdated}:         p.priceUpdated,
	}

	return p
}

// Lookup returns the handler registered for the event's source and name
func (p *Projector) Lookup(source domain.Source, name domain.EventName) (Handler, bool) {
	h, ok := p.handlers[Key{Source: source, Event: name}]
	return h, ok
}

// Keys returns the registered (source, event) pairs
func (p *Projector) Keys() []Key {
	keys := make([]Key, 0, len(p.handlers))
	for k := range p.handlers {
		keys = append(keys, k)
	}
	return keys
}

// Project applies the matching handler to state
func (p *Projector) Project(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	h, ok := p.Lookup(ev.Source, ev.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrUnknownEvent, ev.Source, ev.Name)
	}
	return h(state, ev)
}

// TokenID extracts the ticket an event targets so it can be locked before
// its state is read
func TokenID(ev *domain.Event) (uint64, error) {
	return tokenIDArg(ev, "tokenId")
}

func bigArg(ev *domain.Event, name string) (*big.Int, error) {
	raw, ok := ev.Args[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s missing %q", domain.ErrMalformedPayload, ev.Name, name)
	}
	switch v := raw.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("%w: %s has nil %q", domain.ErrMalformedPayload, ev.Name, name)
		}
		return v, nil
	case big.Int:
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: %s has non-integer %q (%T)", domain.ErrMalformedPayload, ev.Name, name, raw)
	}
}

// tokenIDArg accepts identifiers that fit the signed 64-bit key of the store
func tokenIDArg(ev *domain.Event, name string) (uint64, error) {
	v, err := bigArg(ev, name)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsInt64() {
		return 0, fmt.Errorf("%w: %s %q out of range: %s", domain.ErrMalformedPayload, ev.Name, name, v)
	}
	return v.Uint64(), nil
}

func addressArg(ev *domain.Event, name string) (string, error) {
	raw, ok := ev.Args[name]
	if !ok {
		return "", fmt.Errorf("%w: %s missing %q", domain.ErrMalformedPayload, ev.Name, name)
	}
	switch v := raw.(type) {
	case common.Address:
		return v.Hex(), nil
	case string:
		addr, err := domain.NormalizeAddress(v)
		if err != nil {
			return "", fmt.Errorf("%w: %s %q: %v", domain.ErrMalformedPayload, ev.Name, name, err)
		}
		return addr, nil
	default:
		return "", fmt.Errorf("%w: %s has non-address %q (%T)", domain.ErrMalformedPayload, ev.Name, name, raw)
	}
}
