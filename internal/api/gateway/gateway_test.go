package gateway_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/api/gateway"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/mocks"
	"github.com/feral-file/flightstake-indexer/internal/store"
)

func fakeAddress() string {
	return common.HexToAddress("0x" + gofakeit.HexUint(160)[2:]).Hex()
}

func seed(t *testing.T, st store.Store, owner string, tokenID uint64, txs int) {
	ctx := context.Background()
	_, err := st.ApplyProjection(ctx, tokenID, nil, func(domain.TicketState) (*domain.Delta, error) {
		return &domain.Delta{
			TokenID: tokenID,
			Ticket:  &domain.Ticket{TokenID: tokenID, OwnerAddress: owner, Status: domain.TicketStatusListed, Price: decimal.Zero},
			Users:   []string{owner},
			CreateListing: &domain.Listing{
				TokenID: tokenID, SellerAddress: owner, Price: decimal.NewFromInt(1_500_000),
			},
		}, nil
	})
	require.NoError(t, err)

	for i := 0; i < txs; i++ {
		hash := "0x" + strings.Repeat("0", 60) + gofakeit.DigitN(4)
		_, err := st.ApplyProjection(ctx, tokenID, nil, func(domain.TicketState) (*domain.Delta, error) {
			return &domain.Delta{
				TokenID: tokenID,
				Transaction: &domain.Transaction{
					Hash:        hash,
					Type:        domain.TransactionTypeTransfer,
					UserAddress: owner,
					TokenID:     tokenID,
					Timestamp:   time.Unix(int64(1700000000+i), 0).UTC(),
				},
			}, nil
		})
		require.NoError(t, err)
	}
}

func TestGetPortfolio(t *testing.T) {
	st := store.NewMemoryStore(adapter.NewClock())
	gw := gateway.New(st, adapter.NewClock())
	ctx := context.Background()

	owner := fakeAddress()
	seed(t, st, owner, 1, 12)

	// lower-case input is normalized before lookup
	portfolio, err := gw.GetPortfolio(ctx, strings.ToLower(owner))
	require.NoError(t, err)

	assert.Equal(t, owner, portfolio.Address)
	require.NotNil(t, portfolio.User)
	assert.Equal(t, owner, portfolio.User.Address)
	require.Len(t, portfolio.Tickets, 1)
	assert.Equal(t, uint64(1), portfolio.Tickets[0].TokenID)
	require.Len(t, portfolio.Listings, 1)
	assert.LessOrEqual(t, len(portfolio.Transactions), domain.RECENT_TRANSACTIONS_LIMIT)
	for i := 1; i < len(portfolio.Transactions); i++ {
		assert.False(t, portfolio.Transactions[i].Timestamp.After(portfolio.Transactions[i-1].Timestamp), "newest first")
	}
}

func TestGetPortfolio_UnknownAddressIsEmpty(t *testing.T) {
	gw := gateway.New(store.NewMemoryStore(adapter.NewClock()), adapter.NewClock())

	portfolio, err := gw.GetPortfolio(context.Background(), fakeAddress())
	require.NoError(t, err)
	assert.Nil(t, portfolio.User)
	assert.NotNil(t, portfolio.Tickets)
	assert.Empty(t, portfolio.Tickets)
	assert.NotNil(t, portfolio.Listings)
	assert.NotNil(t, portfolio.Transactions)
}

func TestGetPortfolio_InvalidAddress(t *testing.T) {
	gw := gateway.New(store.NewMemoryStore(adapter.NewClock()), adapter.NewClock())

	_, err := gw.GetPortfolio(context.Background(), "not-an-address")
	assert.True(t, errors.Is(err, domain.ErrInvalidAddress))
}

func TestGateway_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	gw := gateway.New(st, adapter.NewClock())
	ctx := context.Background()
	owner := fakeAddress()

	st.EXPECT().GetUser(ctx, owner).Return(nil, errors.New("connection refused"))
	_, err := gw.GetPortfolio(ctx, owner)
	assert.True(t, errors.Is(err, domain.ErrQueryFailed))

	st.EXPECT().GetUser(ctx, owner).Return(&domain.User{Address: owner}, nil)
	st.EXPECT().GetTicketsByOwner(ctx, owner).Return(nil, errors.New("timeout"))
	_, err = gw.GetPortfolio(ctx, owner)
	assert.True(t, errors.Is(err, domain.ErrQueryFailed))

	st.EXPECT().GetActiveListings(ctx).Return(nil, errors.New("timeout"))
	_, err = gw.GetActiveListings(ctx)
	assert.True(t, errors.Is(err, domain.ErrQueryFailed))
}

func TestGetActiveListings(t *testing.T) {
	st := store.NewMemoryStore(adapter.NewClock())
	gw := gateway.New(st, adapter.NewClock())
	ctx := context.Background()

	listings, err := gw.GetActiveListings(ctx)
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)

	seed(t, st, fakeAddress(), 5, 0)

	listings, err = gw.GetActiveListings(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, uint64(5), listings[0].Ticket.TokenID)
	assert.Equal(t, "1500000", listings[0].Price.String())
}

func TestVerifyPNR(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now)

	gw := gateway.New(mocks.NewMockStore(ctrl), clock)

	result, err := gw.VerifyPNR(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Flight)
	assert.Equal(t, "KQ101", result.Flight.FlightNumber)
	assert.Equal(t, now.Add(48*time.Hour).Unix(), result.Flight.DepartureTime)

	result, err = gw.VerifyPNR(context.Background(), "ABC")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid PNR", result.Message)
}
