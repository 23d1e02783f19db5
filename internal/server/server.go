// Package server runs the realtime order-broadcast server: a single goroutine
// that owns the listening socket, every client connection, and all session
// state, and drives the order lifecycle fan-out.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"matcha-pos/internal/adapter/logger"
	"matcha-pos/internal/auth"
	"matcha-pos/internal/config"
	"matcha-pos/internal/interfaces"
	"matcha-pos/internal/ws"
)

const (
	// How long a single fan-out write may block before the peer is treated
	// as gone.
	writeTimeout = 5 * time.Second
	// Per-connection read poll window inside one loop iteration.
	readPollInterval = 5 * time.Millisecond
)

type Deps struct {
	Orders   interfaces.OrderRepository
	Products interfaces.ProductRepository
	Users    interfaces.UserRepository
	Reports  interfaces.ReportRepository
}

type Server struct {
	cfg      config.ServerConfig
	log      logger.Logger
	deps     Deps
	registry *ws.Registry
	tokens   *auth.TokenStore
	commands map[string]command
	readBuf  []byte
}

func New(cfg config.ServerConfig, log logger.Logger, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		deps:     deps,
		registry: ws.NewRegistry(),
		tokens:   auth.NewTokenStore(cfg.SessionTTL()),
		readBuf:  make([]byte, cfg.ReadLimit),
	}
	s.commands = s.commandTable()
	return s
}

// ListenAndServe binds the configured address and runs the event loop until
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the event loop over ln. The calling goroutine becomes the single
// owner of the registry, sessions, and every socket.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	s.log.Info("service_started", fmt.Sprintf("Server started on ws://%s", ln.Addr()), "startup",
		map[string]any{"addr": ln.Addr().String()})

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		default:
		}

		s.acceptOne(ctx, ln)
		s.pollConnections(ctx)
	}
}

// acceptOne waits up to the poll timeout for a new connection and, if one
// arrives, negotiates it synchronously.
func (s *Server) acceptOne(ctx context.Context, ln net.Listener) {
	type deadliner interface {
		SetDeadline(time.Time) error
	}
	if d, ok := ln.(deadliner); ok {
		d.SetDeadline(time.Now().Add(s.cfg.PollTimeout()))
	}

	nc, err := ln.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return
		}
		s.log.Error("accept_failed", "Failed to accept connection", "", nil, err)
		return
	}
	s.handleNewConn(ctx, nc)
}

func (s *Server) handleNewConn(ctx context.Context, nc net.Conn) {
	result, req, err := ws.Negotiate(nc, s.cfg.HandshakeTimeout())
	switch result {
	case ws.ResultUpgraded:
		c := s.registry.Register(nc)
		s.log.Info("client_connected", "WebSocket client connected", "",
			map[string]any{"conn_id": c.ID(), "remote": nc.RemoteAddr().String()})
		s.bootstrap(ctx, c)
	case ws.ResultHTTP:
		s.serveHTTP(ctx, nc, req)
		nc.Close()
	default:
		if err != nil {
			s.log.Debug("handshake_rejected", "Rejected malformed handshake", "",
				map[string]any{"error": err.Error()})
		}
		nc.Close()
	}
}

// bootstrap pushes the current state to a freshly upgraded connection only.
func (s *Server) bootstrap(ctx context.Context, c *ws.Conn) {
	pushes := []func(context.Context, *ws.Conn) error{
		s.sendProducts,
		s.sendActiveOrders,
		s.sendOrderHistory,
		s.sendSalesSummary,
	}
	for _, push := range pushes {
		if err := push(ctx, c); err != nil {
			s.sendError(c, "Bootstrap sync failed: "+err.Error())
			return
		}
	}
}

// pollConnections reads whatever each client has ready, decodes complete
// frames (carrying partial tails across reads), and dispatches the messages.
func (s *Server) pollConnections(ctx context.Context) {
	for _, c := range s.registry.Conns() {
		c.NetConn().SetReadDeadline(time.Now().Add(readPollInterval))
		n, err := c.Read(s.readBuf)

		if n > 0 {
			data := append(c.TakeTail(), s.readBuf[:n]...)
			messages, rest, closed := ws.DecodeFrames(data)
			c.SetTail(rest)
			for _, msg := range messages {
				s.dispatch(ctx, c, []byte(msg))
			}
			if closed {
				s.removeConn(c, "close_frame")
			}
			continue
		}

		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// EOF or a read fault: the peer is gone either way.
			s.removeConn(c, "read_error")
		}
	}
}

func (s *Server) removeConn(c *ws.Conn, reason string) {
	s.registry.Remove(c)
	s.log.Debug("client_disconnected", "Client removed", "",
		map[string]any{"conn_id": c.ID(), "reason": reason})
}

func (s *Server) shutdown() {
	for _, c := range s.registry.Conns() {
		s.registry.Remove(c)
	}
	s.log.Info("shutdown_complete", "Server stopped", "shutdown", nil)
}
