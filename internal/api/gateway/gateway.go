package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/store"
)

// pnrLength is the length of a booking reference accepted by VerifyPNR
const pnrLength = 6

// Portfolio is everything the projection knows about one address
type Portfolio struct {
	Address      string               `json:"address"`
	User         *domain.User         `json:"user"`
	Tickets      []domain.Ticket      `json:"tickets"`
	Listings     []domain.Listing     `json:"listings"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Flight is the itinerary attached to a verified booking reference
type Flight struct {
	FlightNumber  string `json:"flight_number"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime int64  `json:"departure_time"`
}

// PNRVerification is the result of a booking reference check
type PNRVerification struct {
	Valid   bool    `json:"valid"`
	Flight  *Flight `json:"flight,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Gateway is the read-only query surface over the projection
//
//go:generate mockgen -source=gateway.go -destination=../../mocks/gateway.go -package=mocks -mock_names=Gateway=MockGateway
type Gateway interface {
	// GetPortfolio returns the user, owned tickets, active listings and the
	// most recent transactions of an address. An address never seen yields
	// an empty portfolio.
	GetPortfolio(ctx context.Context, address string) (*Portfolio, error)

	// GetActiveListings returns every active listing joined with its ticket
	GetActiveListings(ctx context.Context) ([]domain.ListingWithTicket, error)

	// VerifyPNR checks a booking reference against the itinerary stub
	VerifyPNR(ctx context.Context, pnr string) (*PNRVerification, error)
}

type gateway struct {
	store store.QueryStore
	clock adapter.Clock
}

// New creates a gateway reading from st
func New(st store.QueryStore, clock adapter.Clock) Gateway {
	return &gateway{store: st, clock: clock}
}

func (g *gateway) GetPortfolio(ctx context.Context, address string) (*Portfolio, error) {
	normalized, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	user, err := g.store.GetUser(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}

	portfolio := &Portfolio{
		Address:      normalized,
		User:         user,
		Tickets:      []domain.Ticket{},
		Listings:     []domain.Listing{},
		Transactions: []domain.Transaction{},
	}
	if user == nil {
		return portfolio, nil
	}

	tickets, err := g.store.GetTicketsByOwner(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	listings, err := g.store.GetListingsBySeller(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	transactions, err := g.store.GetRecentTransactions(ctx, normalized, domain.RECENT_TRANSACTIONS_LIMIT)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}

	if tickets != nil {
		portfolio.Tickets = tickets
	}
	if listings != nil {
		portfolio.Listings = listings
	}
	if transactions != nil {
		portfolio.Transactions = transactions
	}

	return portfolio, nil
}

func (g *gateway) GetActiveListings(ctx context.Context) ([]domain.ListingWithTicket, error) {
	listings, err := g.store.GetActiveListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	if listings == nil {
		listings = []domain.ListingWithTicket{}
	}
	return listings, nil
}

// VerifyPNR accepts any six character reference and answers with a fixed
// itinerary departing two days from now
func (g *gateway) VerifyPNR(ctx context.Context, pnr string) (*PNRVerification, error) {
	if len(strings.TrimSpace(pnr)) != pnrLength {
		return &PNRVerification{Valid: false, Message: "Invalid PNR"}, nil
	}

	return &PNRVerification{
		Valid: true,
		Flight: &Flight{
			FlightNumber:  "KQ101",
			Origin:        "NBO",
			Destination:   "LHR",
			DepartureTime: g.clock.Now().Add(48 * time.Hour).Unix(),
		},
	}, nil
}
