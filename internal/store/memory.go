package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// memoryStore keeps the projection in process memory. It enforces the same
// keys and references as the PostgreSQL schema so both behave alike.
type memoryStore struct {
	clock adapter.Clock

	mu           sync.Mutex
	users        map[string]domain.User
	tickets      map[uint64]domain.Ticket
	listings     map[uint64]domain.Listing
	transactions []domain.Transaction
	txKeys       map[string]struct{}
	cursors      map[domain.Source]domain.Cursor
	nextTxID     uint64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(clock adapter.Clock) Store {
	return &memoryStore{
		clock:    clock,
		users:    make(map[string]domain.User),
		tickets:  make(map[uint64]domain.Ticket),
		listings: make(map[uint64]domain.Listing),
		txKeys:   make(map[string]struct{}),
		cursors:  make(map[domain.Source]domain.Cursor),
		nextTxID: 1,
	}
}

func transactionKey(hash string, txType domain.TransactionType) string {
	return hash + "|" + string(txType)
}

// ApplyProjection validates the whole delta before mutating anything so a
// failing projection leaves no partial writes behind
func (s *memoryStore) ApplyProjection(ctx context.Context, tokenID uint64, cursor *domain.Cursor, project ProjectFunc) (*ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var state domain.TicketState
	if t, ok := s.tickets[tokenID]; ok {
		state.Ticket = &t
	}
	if l, ok := s.listings[tokenID]; ok {
		state.Listing = &l
	}

	delta, err := project(state)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Delta: delta}
	if delta != nil {
		if err := s.validateDelta(delta); err != nil {
			return nil, err
		}
		result.TransactionInserted = s.applyDelta(delta)
	}

	if cursor != nil {
		s.cursors[cursor.Source] = *cursor
	}

	return result, nil
}

func (s *memoryStore) validateDelta(delta *domain.Delta) error {
	users := make(map[string]struct{}, len(delta.Users))
	for _, u := range delta.Users {
		users[u] = struct{}{}
	}
	userKnown := func(address string) bool {
		if _, ok := users[address]; ok {
			return true
		}
		_, ok := s.users[address]
		return ok
	}

	_, ticketExists := s.tickets[delta.TokenID]
	if delta.Ticket != nil {
		if !userKnown(delta.Ticket.OwnerAddress) {
			return fmt.Errorf("failed to upsert ticket: unknown owner %s", delta.Ticket.OwnerAddress)
		}
		ticketExists = true
	}

	_, listingExists := s.listings[delta.TokenID]
	if delta.DeleteListing {
		listingExists = false
	}
	if delta.CreateListing != nil {
		if listingExists {
			return fmt.Errorf("failed to create listing: listing for token %d already exists", delta.TokenID)
		}
		if !ticketExists {
			return fmt.Errorf("failed to create listing: unknown ticket %d", delta.TokenID)
		}
		if !userKnown(delta.CreateListing.SellerAddress) {
			return fmt.Errorf("failed to create listing: unknown seller %s", delta.CreateListing.SellerAddress)
		}
	}

	if tx := delta.Transaction; tx != nil {
		if !ticketExists {
			return fmt.Errorf("failed to append transaction: unknown ticket %d", tx.TokenID)
		}
		if !userKnown(tx.UserAddress) {
			return fmt.Errorf("failed to append transaction: unknown user %s", tx.UserAddress)
		}
	}

	return nil
}

func (s *memoryStore) applyDelta(delta *domain.Delta) bool {
	now := s.clock.Now()

	for _, address := range uniqueAddresses(delta.Users) {
		if _, ok := s.users[address]; !ok {
			s.users[address] = domain.User{Address: address, CreatedAt: now}
		}
	}

	if delta.Ticket != nil {
		next := *delta.Ticket
		if existing, ok := s.tickets[next.TokenID]; ok {
			next.CreatedAt = existing.CreatedAt
		} else {
			next.CreatedAt = now
		}
		next.UpdatedAt = now
		s.tickets[next.TokenID] = next
	}

	if delta.DeleteListing {
		delete(s.listings, delta.TokenID)
	}
	if delta.CreateListing != nil {
		l := *delta.CreateListing
		l.CreatedAt = now
		s.listings[l.TokenID] = l
	}

	if delta.Transaction == nil {
		return false
	}
	key := transactionKey(delta.Transaction.Hash, delta.Transaction.Type)
	if _, ok := s.txKeys[key]; ok {
		return false
	}
	tx := *delta.Transaction
	tx.ID = s.nextTxID
	s.nextTxID++
	s.txKeys[key] = struct{}{}
	s.transactions = append(s.transactions, tx)

	return true
}

func (s *memoryStore) GetUser(ctx context.Context, address string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[address]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *memoryStore) GetTicket(ctx context.Context, tokenID uint64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[tokenID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *memoryStore) GetListing(ctx context.Context, tokenID uint64) (*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[tokenID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *memoryStore) GetTicketsByOwner(ctx context.Context, owner string) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets := []domain.Ticket{}
	for _, t := range s.tickets {
		if t.OwnerAddress == owner {
			tickets = append(tickets, t)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].TokenID < tickets[j].TokenID })
	return tickets, nil
}

func (s *memoryStore) GetListingsBySeller(ctx context.Context, seller string) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings := []domain.Listing{}
	for _, l := range s.listings {
		if l.SellerAddress == seller {
			listings = append(listings, l)
		}
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].TokenID < listings[j].TokenID })
	return listings, nil
}

func (s *memoryStore) GetRecentTransactions(ctx context.Context, address string, limit int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := []domain.Transaction{}
	for _, tx := range s.transactions {
		if tx.UserAddress == address {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return txs[i].ID > txs[j].ID
	})
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *memoryStore) GetTransactionsByToken(ctx context.Context, tokenID uint64) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := []domain.Transaction{}
	for _, tx := range s.transactions {
		if tx.TokenID == tokenID {
			txs = append(txs, tx)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.Before(txs[j].Timestamp)
		}
		return txs[i].ID < txs[j].ID
	})
	return txs, nil
}

func (s *memoryStore) GetActiveListings(ctx context.Context) ([]domain.ListingWithTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ListingWithTicket, 0, len(s.listings))
	for id, l := range s.listings {
		out = append(out, domain.ListingWithTicket{Listing: l, Ticket: s.tickets[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].TokenID < out[j].TokenID
	})
	return out, nil
}

func (s *memoryStore) GetCursor(ctx context.Context, source domain.Source) (*domain.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cursors[source]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memoryStore) SetCursor(ctx context.Context, cursor domain.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[cursor.Source] = cursor
	return nil
}
