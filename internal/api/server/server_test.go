package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/flightstake-indexer/internal/api/server"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
	"github.com/feral-file/flightstake-indexer/internal/mocks"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize(logger.Config{Debug: false})
	m.Run()
}

func TestServer_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockGateway(ctrl)
	hub := mocks.NewMockSignalRServer(ctrl)
	m := metrics.New()
	m.SetHubClients(2)

	hub.EXPECT().MapHTTP(gomock.Any(), server.HubPath).Do(func(mux *http.ServeMux, path string) {
		mux.HandleFunc(path+"/negotiate", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})
	gw.EXPECT().GetActiveListings(gomock.Any()).Return([]domain.ListingWithTicket{}, nil)

	handler := server.New(server.Config{}, gw, m, hub).Handler()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"market", http.MethodGet, "/api/market", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"hub", http.MethodPost, "/hub/negotiate", http.StatusTeapot},
		{"unknown", http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestServer_CORS(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := server.New(server.Config{}, mocks.NewMockGateway(ctrl), nil, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/market", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
