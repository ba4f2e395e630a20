package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leengari/atomdb/internal/executor"
	"github.com/leengari/atomdb/internal/session"
)

const greeting = "Welcome to AtomDB TCP Server!\nType commands or 'help' for assistance. 'quit' to disconnect."

// Server accepts TCP connections and speaks the line protocol on each one
type Server struct {
	listener net.Listener
	eng      session.Engine
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// Listen binds the TCP address. Use ":0" to pick a free port.
func Listen(addr string, eng session.Engine, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return &Server{
		listener: listener,
		eng:      eng,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the bound address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes the
// listener and every live connection and waits for their handlers.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("tcp server listening", slog.String("addr", s.Addr().String()))

	stop := context.AfterFunc(ctx, func() {
		s.listener.Close()
		s.closeConns()
	})
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				s.logger.Info("tcp server stopped")
				return nil
			}
			s.logger.Error("failed to accept connection", slog.Any("error", err))
			continue
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	id := uuid.New().String()
	logger := s.logger.With(slog.String("session", id), slog.String("remote", conn.RemoteAddr().String()))
	logger.Info("client connected")
	defer logger.Info("client disconnected")

	sess := session.New(id, s.eng, logger)
	w := bufio.NewWriter(conn)
	fmt.Fprintln(w, greeting)
	if err := w.Flush(); err != nil {
		return
	}

	scanner := session.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if executor.IsMutating(line) {
			logger.Debug("mutating command", slog.String("command", line))
		}

		done := sess.Handle(w, line)
		if done {
			fmt.Fprintln(w, "Goodbye!")
		}
		if err := w.Flush(); err != nil {
			logger.Warn("write failed", slog.Any("error", err))
			return
		}
		if done {
			return
		}
	}
	err := scanner.Err()
	if session.WriteScanError(w, err) {
		logger.Info("closing connection after oversized command", slog.Any("error", err))
		if w.Flush() == nil {
			drain(conn)
		}
		return
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Warn("read failed", slog.Any("error", err))
	}
}

// drain stops writing and discards what the client is still sending, so
// the last response is not lost to a reset when the connection closes
func drain(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	io.Copy(io.Discard, io.LimitReader(conn, 8*session.MaxLineBytes))
}

// track registers a live connection; it refuses once shutdown began
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}
