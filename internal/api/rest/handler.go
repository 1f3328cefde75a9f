package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/api/gateway"
	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// GetPortfolio returns the projection of one address
	// GET /api/portfolio/:address
	GetPortfolio(c *gin.Context)

	// GetMarket returns every active listing with its ticket
	// GET /api/market
	GetMarket(c *gin.Context)

	// VerifyPNR checks a booking reference
	// POST /api/verify-pnr
	VerifyPNR(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// verifyPNRRequest is the body of POST /api/verify-pnr
type verifyPNRRequest struct {
	PNR string `json:"pnr"`
}

// handler implements the Handler interface
type handler struct {
	gateway gateway.Gateway
}

// NewHandler creates a new REST API handler over the query gateway
func NewHandler(gw gateway.Gateway) Handler {
	return &handler{gateway: gw}
}

func (h *handler) GetPortfolio(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Address is required")
		return
	}

	portfolio, err := h.gateway.GetPortfolio(c.Request.Context(), address)
	if err != nil {
		respondQueryError(c, err, zap.String("address", address))
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

func (h *handler) GetMarket(c *gin.Context) {
	listings, err := h.gateway.GetActiveListings(c.Request.Context())
	if err != nil {
		respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, listings)
}

func (h *handler) VerifyPNR(c *gin.Context) {
	var req verifyPNRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	result, err := h.gateway.VerifyPNR(c.Request.Context(), req.PNR)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	if !result.Valid {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "flightstake-api",
	})
}

// respondQueryError maps gateway errors onto HTTP responses
func respondQueryError(c *gin.Context, err error, fields ...zap.Field) {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress):
		respondBadRequest(c, "Invalid address", err.Error())
	case errors.Is(err, domain.ErrQueryFailed):
		respondServiceError(c, err, "Failed to query projection", fields...)
	default:
		respondInternalError(c, err, "Internal server error", fields...)
	}
}
