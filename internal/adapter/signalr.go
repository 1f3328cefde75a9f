package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/philippseith/signalr"
)

// SignalRServer defines an interface for SignalR hub server operations to enable mocking
//
//go:generate mockgen -source=signalr.go -destination=../mocks/signalr.go -package=mocks -mock_names=SignalRServer=MockSignalRServer,SignalR=MockSignalR
type SignalRServer interface {
	// MapHTTP mounts the hub endpoints on mux under path
	MapHTTP(mux *http.ServeMux, path string)
	// Broadcast invokes target on every connected client
	Broadcast(target string, args ...interface{})
}

// SignalR defines an interface for creating SignalR hub servers
type SignalR interface {
	NewServer(ctx context.Context, hubFactory func() signalr.HubInterface, logger signalr.StructuredLogger, keepAlive time.Duration) (SignalRServer, error)
}

// RealSignalR implements SignalR using the standard signalr package
type RealSignalR struct{}

// NewSignalR creates a new real SignalR
func NewSignalR() SignalR {
	return &RealSignalR{}
}

func (s *RealSignalR) NewServer(ctx context.Context, hubFactory func() signalr.HubInterface, logger signalr.StructuredLogger, keepAlive time.Duration) (SignalRServer, error) {
	server, err := signalr.NewServer(ctx,
		signalr.HubFactory(hubFactory),
		signalr.Logger(logger, false),
		signalr.KeepAliveInterval(keepAlive),
	)
	if err != nil {
		return nil, err
	}

	return &signalRServer{server: server}, nil
}

type signalRServer struct {
	server signalr.Server
}

func (s *signalRServer) MapHTTP(mux *http.ServeMux, path string) {
	s.server.MapHTTP(signalr.WithHTTPServeMux(mux), path)
}

func (s *signalRServer) Broadcast(target string, args ...interface{}) {
	s.server.HubClients().All().Send(target, args...)
}
