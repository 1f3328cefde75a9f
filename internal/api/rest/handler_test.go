package rest_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/flightstake-indexer/internal/api/gateway"
	"github.com/feral-file/flightstake-indexer/internal/api/rest"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/mocks"
)

const owner = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	_ = logger.Initialize(logger.Config{Debug: true})
	m.Run()
}

func setupRouter(t *testing.T) (*gin.Engine, *mocks.MockGateway) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	gw := mocks.NewMockGateway(ctrl)
	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(gw))
	return router, gw
}

func do(router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) rest.APIError {
	var apiErr rest.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"flightstake-api"}`, rec.Body.String())
}

func TestGetPortfolio(t *testing.T) {
	router, gw := setupRouter(t)

	amount := decimal.NewFromInt(50)
	gw.EXPECT().GetPortfolio(gomock.Any(), owner).Return(&gateway.Portfolio{
		Address:  owner,
		User:     &domain.User{Address: owner},
		Tickets:  []domain.Ticket{{TokenID: 1, OwnerAddress: owner, Status: domain.TicketStatusStaked, Price: decimal.Zero}},
		Listings: []domain.Listing{},
		Transactions: []domain.Transaction{
			{Hash: "0xabc", Type: domain.TransactionTypeStake, UserAddress: owner, TokenID: 1, Amount: &amount},
		},
	}, nil)

	rec := do(router, http.MethodGet, "/api/portfolio/"+owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, owner, body["address"])
	assert.Len(t, body["tickets"], 1)
	assert.Len(t, body["listings"], 0)
	txs := body["transactions"].([]interface{})
	require.Len(t, txs, 1)
	assert.Equal(t, "STAKE", txs[0].(map[string]interface{})["type"])
	assert.Equal(t, "50", txs[0].(map[string]interface{})["amount"])
}

func TestGetPortfolio_Errors(t *testing.T) {
	router, gw := setupRouter(t)

	t.Run("invalid address", func(t *testing.T) {
		gw.EXPECT().GetPortfolio(gomock.Any(), "0x123").
			Return(nil, fmt.Errorf("%w: 0x123", domain.ErrInvalidAddress))

		rec := do(router, http.MethodGet, "/api/portfolio/0x123", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, rest.ErrCodeBadRequest, decodeError(t, rec).Code)
	})

	t.Run("store failure", func(t *testing.T) {
		gw.EXPECT().GetPortfolio(gomock.Any(), owner).
			Return(nil, fmt.Errorf("%w: connection refused", domain.ErrQueryFailed))

		rec := do(router, http.MethodGet, "/api/portfolio/"+owner, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		apiErr := decodeError(t, rec)
		assert.Equal(t, rest.ErrCodeServiceError, apiErr.Code)
		assert.NotContains(t, apiErr.Message, "connection refused")
	})

	t.Run("unexpected failure", func(t *testing.T) {
		gw.EXPECT().GetPortfolio(gomock.Any(), owner).Return(nil, errors.New("boom"))

		rec := do(router, http.MethodGet, "/api/portfolio/"+owner, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, rest.ErrCodeInternalError, decodeError(t, rec).Code)
	})
}

func TestGetMarket(t *testing.T) {
	router, gw := setupRouter(t)

	gw.EXPECT().GetActiveListings(gomock.Any()).Return([]domain.ListingWithTicket{
		{
			Listing: domain.Listing{TokenID: 4, SellerAddress: owner, Price: decimal.NewFromInt(1_500_000)},
			Ticket:  domain.Ticket{TokenID: 4, OwnerAddress: owner, Status: domain.TicketStatusListed, Price: decimal.Zero},
		},
	}, nil)

	rec := do(router, http.MethodGet, "/api/market", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "1500000", body[0]["price"])
	assert.Equal(t, owner, body[0]["seller_address"])
	assert.Equal(t, "LISTED", body[0]["ticket"].(map[string]interface{})["status"])

	gw.EXPECT().GetActiveListings(gomock.Any()).Return(nil, fmt.Errorf("%w: timeout", domain.ErrQueryFailed))
	rec = do(router, http.MethodGet, "/api/market", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVerifyPNR(t *testing.T) {
	router, gw := setupRouter(t)

	gw.EXPECT().VerifyPNR(gomock.Any(), "ABC123").Return(&gateway.PNRVerification{
		Valid:  true,
		Flight: &gateway.Flight{FlightNumber: "KQ101", Origin: "NBO", Destination: "LHR", DepartureTime: 1700000000},
	}, nil)
	rec := do(router, http.MethodPost, "/api/verify-pnr", []byte(`{"pnr":"ABC123"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"flight_number":"KQ101"`)

	gw.EXPECT().VerifyPNR(gomock.Any(), "AB").Return(&gateway.PNRVerification{Valid: false, Message: "Invalid PNR"}, nil)
	rec = do(router, http.MethodPost, "/api/verify-pnr", []byte(`{"pnr":"AB"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"valid":false,"message":"Invalid PNR"}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/verify-pnr", []byte(`{`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, rest.ErrCodeValidationFailed, decodeError(t, rec).Code)
}
