package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/projector"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// fakeAddress returns a random checksum address
func fakeAddress() string {
	return common.HexToAddress(gofakeit.Numerify("0x########################################")).Hex()
}

// fakeTxHash returns a random transaction hash
func fakeTxHash() string {
	return common.HexToHash(gofakeit.Numerify("0x################################################################")).Hex()
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// mintDelta builds the delta of a mint of tokenID to owner
func mintDelta(tokenID uint64, owner, hash string, ts time.Time) *domain.Delta {
	return &domain.Delta{
		TokenID: tokenID,
		Ticket: &domain.Ticket{
			TokenID:      tokenID,
			OwnerAddress: owner,
			Status:       domain.TicketStatusIdle,
			Price:        decimal.Zero,
		},
		Users: []string{owner},
		Transaction: &domain.Transaction{
			Hash:        hash,
			Type:        domain.TransactionTypeMint,
			UserAddress: owner,
			TokenID:     tokenID,
			Timestamp:   ts,
			Raw:         []byte(`{"tokenId":"1"}`),
		},
	}
}

func constDelta(delta *domain.Delta) ProjectFunc {
	return func(domain.TicketState) (*domain.Delta, error) {
		return delta, nil
	}
}

func mustMint(t *testing.T, store Store, tokenID uint64, owner string) {
	t.Helper()
	_, err := store.ApplyProjection(context.Background(), tokenID, nil,
		constDelta(mintDelta(tokenID, owner, fakeTxHash(), time.Now().UTC())))
	require.NoError(t, err)
}

// =============================================================================
// Suite
// =============================================================================

// RunStoreTests runs the behavioural suite against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store Store)
	}{
		{"ApplyProjection creates ticket, user and transaction", testApplyProjectionMint},
		{"Duplicate (hash, type) is recorded once", testTransactionIdempotence},
		{"Project error rolls back everything", testProjectErrorRollsBack},
		{"Project sees locked state", testProjectSeesState},
		{"Listing lifecycle", testListingLifecycle},
		{"Leaving LISTED drops the listing", testStatusChangeDropsListing},
		{"Second listing is rejected atomically", testListingConflict},
		{"Recent transactions newest first", testRecentTransactions},
		{"Tickets and listings by address", testByAddress},
		{"Active listings joined with tickets", testActiveListings},
		{"Cursors", testCursors},
		{"Unknown rows return nil", testNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}

func testApplyProjectionMint(t *testing.T, store Store) {
	ctx := context.Background()
	owner := fakeAddress()
	hash := fakeTxHash()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cursor := domain.Cursor{Source: domain.SourceRegistry, BlockNumber: 100, LogIndex: 2}

	result, err := store.ApplyProjection(ctx, 7, &cursor, constDelta(mintDelta(7, owner, hash, ts)))
	require.NoError(t, err)
	assert.True(t, result.TransactionInserted)
	require.NotNil(t, result.Delta)

	ticket, err := store.GetTicket(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, owner, ticket.OwnerAddress)
	assert.Equal(t, domain.TicketStatusIdle, ticket.Status)
	assert.True(t, ticket.Price.IsZero())

	user, err := store.GetUser(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, owner, user.Address)

	txs, err := store.GetTransactionsByToken(ctx, 7)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, hash, txs[0].Hash)
	assert.Equal(t, domain.TransactionTypeMint, txs[0].Type)
	assert.Equal(t, owner, txs[0].UserAddress)
	assert.Nil(t, txs[0].Amount)
	assert.True(t, ts.Equal(txs[0].Timestamp))
	assert.JSONEq(t, `{"tokenId":"1"}`, string(txs[0].Raw))

	got, err := store.GetCursor(ctx, domain.SourceRegistry)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cursor, *got)
}

func testTransactionIdempotence(t *testing.T, store Store) {
	ctx := context.Background()
	owner := fakeAddress()
	hash := fakeTxHash()
	ts := time.Now().UTC()

	first, err := store.ApplyProjection(ctx, 8, nil, constDelta(mintDelta(8, owner, hash, ts)))
	require.NoError(t, err)
	assert.True(t, first.TransactionInserted)

	second, err := store.ApplyProjection(ctx, 8, nil, constDelta(mintDelta(8, owner, hash, ts)))
	require.NoError(t, err)
	assert.False(t, second.TransactionInserted)

	txs, err := store.GetTransactionsByToken(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	// Same hash with a different type is a distinct entry
	stake := &domain.Delta{
		TokenID: 8,
		Transaction: &domain.Transaction{
			Hash:        hash,
			Type:        domain.TransactionTypeStake,
			UserAddress: owner,
			TokenID:     8,
			Amount:      decimalPtr("50"),
			Timestamp:   ts,
		},
	}
	third, err := store.ApplyProjection(ctx, 8, nil, constDelta(stake))
	require.NoError(t, err)
	assert.True(t, third.TransactionInserted)

	txs, err = store.GetTransactionsByToken(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func testProjectErrorRollsBack(t *testing.T, store Store) {
	ctx := context.Background()
	mustMint(t, store, 9, fakeAddress())
	cursor := domain.Cursor{Source: domain.SourceStaking, BlockNumber: 5, LogIndex: 0}
	boom := errors.New("boom")

	_, err := store.ApplyProjection(ctx, 9, &cursor, func(state domain.TicketState) (*domain.Delta, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetCursor(ctx, domain.SourceStaking)
	require.NoError(t, err)
	assert.Nil(t, got)

	ticket, err := store.GetTicket(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusIdle, ticket.Status)
}

func testProjectSeesState(t *testing.T, store Store) {
	ctx := context.Background()
	owner := fakeAddress()

	_, err := store.ApplyProjection(ctx, 10, nil, func(state domain.TicketState) (*domain.Delta, error) {
		assert.Nil(t, state.Ticket)
		assert.Nil(t, state.Listing)
		return mintDelta(10, owner, fakeTxHash(), time.Now().UTC()), nil
	})
	require.NoError(t, err)

	_, err = store.ApplyProjection(ctx, 10, nil, func(state domain.TicketState) (*domain.Delta, error) {
		require.NotNil(t, state.Ticket)
		assert.Equal(t, owner, state.Ticket.OwnerAddress)
		assert.Nil(t, state.Listing)
		return nil, nil
	})
	require.NoError(t, err)
}

func testListingLifecycle(t *testing.T, store Store) {
	ctx := context.Background()
	seller := fakeAddress()
	mustMint(t, store, 11, seller)

	listed := &domain.Delta{
		TokenID: 11,
		Ticket: &domain.Ticket{
			TokenID:      11,
			OwnerAddress: seller,
			Status:       domain.TicketStatusListed,
			Price:        decimal.Zero,
		},
		Users:         []string{seller},
		CreateListing: &domain.Listing{TokenID: 11, SellerAddress: seller, Price: decimal.NewFromInt(50_000_000)},
	}
	_, err := store.ApplyProjection(ctx, 11, nil, constDelta(listed))
	require.NoError(t, err)

	listing, err := store.GetListing(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, seller, listing.SellerAddress)
	assert.Equal(t, "50000000", listing.Price.String())

	_, err = store.ApplyProjection(ctx, 11, nil, func(state domain.TicketState) (*domain.Delta, error) {
		require.NotNil(t, state.Listing)
		next := *state.Ticket
		next.Status = domain.TicketStatusIdle
		return &domain.Delta{TokenID: 11, Ticket: &next, DeleteListing: true}, nil
	})
	require.NoError(t, err)

	listing, err = store.GetListing(ctx, 11)
	require.NoError(t, err)
	assert.Nil(t, listing)

	ticket, err := store.GetTicket(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusIdle, ticket.Status)
}

func testStatusChangeDropsListing(t *testing.T, store Store) {
	ctx := context.Background()
	seller := fakeAddress()
	p := projector.New(domain.DEFAULT_TOKEN_DECIMALS)
	mustMint(t, store, 14, seller)

	listed := &domain.Event{
		Source:    domain.SourceMarketplace,
		Name:      domain.EventItemListed,
		TxHash:    fakeTxHash(),
		Timestamp: time.Now().UTC(),
		Args: map[string]interface{}{
			"seller":  common.HexToAddress(seller),
			"tokenId": big.NewInt(14),
			"price":   big.NewInt(50_000_000),
		},
	}
	_, err := store.ApplyProjection(ctx, 14, nil, func(state domain.TicketState) (*domain.Delta, error) {
		return p.Project(state, listed)
	})
	require.NoError(t, err)

	staked := &domain.Event{
		Source:    domain.SourceStaking,
		Name:      domain.EventTokenStaked,
		TxHash:    fakeTxHash(),
		Timestamp: time.Now().UTC(),
		Args: map[string]interface{}{
			"user":    common.HexToAddress(seller),
			"tokenId": big.NewInt(14),
			"value":   big.NewInt(1_000_000),
		},
	}
	_, err = store.ApplyProjection(ctx, 14, nil, func(state domain.TicketState) (*domain.Delta, error) {
		require.NotNil(t, state.Listing)
		return p.Project(state, staked)
	})
	require.NoError(t, err)

	ticket, err := store.GetTicket(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusStaked, ticket.Status)

	listing, err := store.GetListing(ctx, 14)
	require.NoError(t, err)
	assert.Nil(t, listing)

	active, err := store.GetActiveListings(ctx)
	require.NoError(t, err)
	for _, l := range active {
		assert.NotEqual(t, uint64(14), l.TokenID)
	}
}

func testListingConflict(t *testing.T, store Store) {
	ctx := context.Background()
	seller := fakeAddress()
	mustMint(t, store, 12, seller)

	create := func(status domain.TicketStatus, price int64) *domain.Delta {
		return &domain.Delta{
			TokenID: 12,
			Ticket: &domain.Ticket{
				TokenID:      12,
				OwnerAddress: seller,
				Status:       status,
				Price:        decimal.Zero,
			},
			CreateListing: &domain.Listing{TokenID: 12, SellerAddress: seller, Price: decimal.NewFromInt(price)},
		}
	}

	_, err := store.ApplyProjection(ctx, 12, nil, constDelta(create(domain.TicketStatusListed, 1)))
	require.NoError(t, err)

	cursor := domain.Cursor{Source: domain.SourceMarketplace, BlockNumber: 3, LogIndex: 1}
	_, err = store.ApplyProjection(ctx, 12, &cursor, constDelta(create(domain.TicketStatusStaked, 2)))
	require.Error(t, err)

	// Nothing from the failed projection is visible
	ticket, err := store.GetTicket(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusListed, ticket.Status)

	listing, err := store.GetListing(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "1", listing.Price.String())

	got, err := store.GetCursor(ctx, domain.SourceMarketplace)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testRecentTransactions(t *testing.T, store Store) {
	ctx := context.Background()
	user := fakeAddress()
	mustMint(t, store, 13, user)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		delta := &domain.Delta{
			TokenID: 13,
			Transaction: &domain.Transaction{
				Hash:        fmt.Sprintf("0xhash%02d", i),
				Type:        domain.TransactionTypeStake,
				UserAddress: user,
				TokenID:     13,
				Amount:      decimalPtr("1.5"),
				Timestamp:   base.Add(time.Duration(i) * time.Minute),
			},
		}
		_, err := store.ApplyProjection(ctx, 13, nil, constDelta(delta))
		require.NoError(t, err)
	}

	txs, err := store.GetRecentTransactions(ctx, user, domain.RECENT_TRANSACTIONS_LIMIT)
	require.NoError(t, err)
	require.Len(t, txs, domain.RECENT_TRANSACTIONS_LIMIT)

	// The mint carries the current time so it is the newest entry
	assert.Equal(t, domain.TransactionTypeMint, txs[0].Type)
	assert.Equal(t, "0xhash11", txs[1].Hash)
	assert.Equal(t, "0xhash03", txs[9].Hash)
	require.NotNil(t, txs[1].Amount)
	assert.Equal(t, "1.5", txs[1].Amount.String())
	for i := 1; i < len(txs); i++ {
		assert.False(t, txs[i].Timestamp.After(txs[i-1].Timestamp))
	}

	none, err := store.GetRecentTransactions(ctx, fakeAddress(), domain.RECENT_TRANSACTIONS_LIMIT)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testByAddress(t *testing.T, store Store) {
	ctx := context.Background()
	alice := fakeAddress()
	bob := fakeAddress()
	mustMint(t, store, 21, alice)
	mustMint(t, store, 20, alice)
	mustMint(t, store, 22, bob)

	list := &domain.Delta{
		TokenID: 21,
		Ticket: &domain.Ticket{
			TokenID:      21,
			OwnerAddress: alice,
			Status:       domain.TicketStatusListed,
			Price:        decimal.Zero,
		},
		CreateListing: &domain.Listing{TokenID: 21, SellerAddress: alice, Price: decimal.NewFromInt(10)},
	}
	_, err := store.ApplyProjection(ctx, 21, nil, constDelta(list))
	require.NoError(t, err)

	tickets, err := store.GetTicketsByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, uint64(20), tickets[0].TokenID)
	assert.Equal(t, uint64(21), tickets[1].TokenID)

	listings, err := store.GetListingsBySeller(ctx, alice)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, uint64(21), listings[0].TokenID)

	listings, err = store.GetListingsBySeller(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func testActiveListings(t *testing.T, store Store) {
	ctx := context.Background()
	seller := fakeAddress()
	mustMint(t, store, 31, seller)

	_, err := store.ApplyProjection(ctx, 31, nil, func(state domain.TicketState) (*domain.Delta, error) {
		next := *state.Ticket
		next.Status = domain.TicketStatusListed
		next.Price = decimal.NewFromInt(75_000_000)
		return &domain.Delta{
			TokenID:       31,
			Ticket:        &next,
			CreateListing: &domain.Listing{TokenID: 31, SellerAddress: seller, Price: decimal.NewFromInt(90_000_000)},
		}, nil
	})
	require.NoError(t, err)

	listings, err := store.GetActiveListings(ctx)
	require.NoError(t, err)

	var found *domain.ListingWithTicket
	for i := range listings {
		if listings[i].TokenID == 31 {
			found = &listings[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "90000000", found.Price.String())
	assert.Equal(t, uint64(31), found.Ticket.TokenID)
	assert.Equal(t, domain.TicketStatusListed, found.Ticket.Status)
	assert.Equal(t, "75000000", found.Ticket.Price.String())
	assert.Equal(t, seller, found.Ticket.OwnerAddress)
}

func testCursors(t *testing.T, store Store) {
	ctx := context.Background()

	got, err := store.GetCursor(ctx, domain.SourceOracle)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SetCursor(ctx, domain.Cursor{Source: domain.SourceOracle, BlockNumber: 10, LogIndex: 1}))
	require.NoError(t, store.SetCursor(ctx, domain.Cursor{Source: domain.SourceOracle, BlockNumber: 12, LogIndex: 0}))

	got, err = store.GetCursor(ctx, domain.SourceOracle)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(12), got.BlockNumber)
	assert.Equal(t, uint(0), got.LogIndex)

	// Sources keep independent cursors
	other, err := store.GetCursor(ctx, domain.SourceLending)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func testNotFound(t *testing.T, store Store) {
	ctx := context.Background()

	user, err := store.GetUser(ctx, fakeAddress())
	require.NoError(t, err)
	assert.Nil(t, user)

	ticket, err := store.GetTicket(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, ticket)

	listing, err := store.GetListing(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, listing)

	txs, err := store.GetTransactionsByToken(ctx, 999999)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
