package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/scythe504/basta-backend/internal/game"
	"github.com/scythe504/basta-backend/internal/history"
)

// GameLister serves the archive of finished games.
type GameLister interface {
	ListGames(ctx context.Context, limit int) ([]history.GameRecord, error)
}

type Options struct {
	Port    string
	Rooms   *game.Manager
	Sockets *game.SocketServer
	Metrics http.Handler
	Games   GameLister
}

type Server struct {
	port    string
	rooms   *game.Manager
	sockets *game.SocketServer
	metrics http.Handler
	games   GameLister
}

func New(opts Options) *Server {
	return &Server{
		port:    opts.Port,
		rooms:   opts.Rooms,
		sockets: opts.Sockets,
		metrics: opts.Metrics,
		games:   opts.Games,
	}
}

// HTTPServer wraps the routes in an http.Server listening on the port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
