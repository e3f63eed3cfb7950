// Package server exposes a running simulation over WebSocket: clients
// receive a frame after every step and drive the simulation with commands.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/gridlife/config"
	"github.com/pthm-cable/gridlife/game"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Client is one connected observer. Writes are serialized by mu.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send writes v as a JSON message.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

const writeTimeout = 5 * time.Second

// Server streams frames of one Runner's simulation to its clients.
type Server struct {
	runner *game.Runner
	base   *config.Config // starting point for start overrides

	ctx    context.Context // bounds auto-runs
	cancel context.CancelFunc

	clientsMu sync.Mutex
	clients   map[*Client]struct{}

	frames    chan *Frame
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a server driving runner. base is the config used by start
// commands before overrides; nil uses the defaults.
func New(runner *game.Runner, base *config.Config) *Server {
	if base == nil {
		base = config.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		runner:  runner,
		base:    base.Clone(),
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*Client]struct{}),
		frames:  make(chan *Frame, 1),
		done:    make(chan struct{}),
	}

	runner.OnTick(func(sim *game.Simulation) {
		s.publish(snapshot(sim, runner.Running(), runner.Speed()))
	})

	go s.broadcastLoop()
	return s
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops auto-stepping, the broadcast loop, and every client connection.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.runner.Stop()
		s.runner.Wait()
		close(s.done)

		s.clientsMu.Lock()
		for c := range s.clients {
			c.conn.Close()
			delete(s.clients, c)
		}
		s.clientsMu.Unlock()
	})
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{conn: conn}
	s.addClient(client)
	slog.Info("client connected", "remote", r.RemoteAddr)

	if err := s.greet(client); err != nil {
		slog.Warn("client greeting failed", "remote", r.RemoteAddr, "error", err)
		s.removeClient(client)
		return
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		if err := client.Send(s.handle(cmd)); err != nil {
			break
		}
	}

	s.removeClient(client)
	slog.Info("client disconnected", "remote", r.RemoteAddr)
}

// greet sends the hello message and the current frame.
func (s *Server) greet(c *Client) error {
	if err := c.Send(Hello{Type: "hello", Speed: s.runner.Speed(), Commands: commandNames}); err != nil {
		return err
	}
	return c.Send(s.frame())
}

func (s *Server) addClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) removeClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// frame snapshots the simulation through the runner.
func (s *Server) frame() *Frame {
	var f *Frame
	running, speed := s.runner.Running(), s.runner.Speed()
	s.runner.Do(func(sim *game.Simulation) {
		f = snapshot(sim, running, speed)
	})
	return f
}

// publish queues f for broadcast. Only the newest pending frame is kept.
func (s *Server) publish(f *Frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

func (s *Server) broadcastLoop() {
	for {
		select {
		case <-s.done:
			return
		case f := <-s.frames:
			s.broadcast(f)
		}
	}
}

func (s *Server) broadcast(v any) {
	s.clientsMu.Lock()
	list := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		list = append(list, c)
	}
	s.clientsMu.Unlock()

	for _, c := range list {
		if err := c.Send(v); err != nil {
			slog.Warn("client send failed", "error", err)
			s.removeClient(c)
		}
	}
}
