package store

import (
	"context"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// ProjectFunc computes the writes for one event from the locked ticket state.
// Returning an error aborts the projection and nothing is written.
type ProjectFunc func(state domain.TicketState) (*domain.Delta, error)

// ApplyResult describes a committed projection
type ApplyResult struct {
	// Delta is what project returned (nil when the event wrote nothing)
	Delta *domain.Delta
	// TransactionInserted is false when the delta carried no transaction
	// or a row with the same (hash, type) already existed
	TransactionInserted bool
}

// Store defines the interface for the projection's persistence layer
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	ProjectionStore
	QueryStore
	CursorStore
}

// ProjectionStore is the write side used by the event router
type ProjectionStore interface {
	// ApplyProjection locks tokenID, hands its current state to project and
	// persists the returned delta together with cursor in one atomic unit.
	// A nil cursor leaves the stored cursor untouched.
	ApplyProjection(ctx context.Context, tokenID uint64, cursor *domain.Cursor, project ProjectFunc) (*ApplyResult, error)
}

// QueryStore is the read side used by the query gateway
type QueryStore interface {
	// GetUser returns the user or nil if the address was never referenced
	GetUser(ctx context.Context, address string) (*domain.User, error)

	// GetTicket returns the ticket or nil if it was never minted
	GetTicket(ctx context.Context, tokenID uint64) (*domain.Ticket, error)

	// GetListing returns the active listing of a ticket or nil
	GetListing(ctx context.Context, tokenID uint64) (*domain.Listing, error)

	// GetTicketsByOwner returns the tickets owned by an address ordered by token ID
	GetTicketsByOwner(ctx context.Context, owner string) ([]domain.Ticket, error)

	// GetListingsBySeller returns the active listings of a seller ordered by token ID
	GetListingsBySeller(ctx context.Context, seller string) ([]domain.Listing, error)

	// GetRecentTransactions returns up to limit transactions of a user, newest first
	GetRecentTransactions(ctx context.Context, address string, limit int) ([]domain.Transaction, error)

	// GetTransactionsByToken returns the full history of a ticket, oldest first
	GetTransactionsByToken(ctx context.Context, tokenID uint64) ([]domain.Transaction, error)

	// GetActiveListings returns every active listing joined with its ticket, newest first
	GetActiveListings(ctx context.Context) ([]domain.ListingWithTicket, error)
}

// uniqueAddresses drops empty and repeated addresses keeping first-seen order
func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
