// Package server implements the collaboration sync server: one hub per room
// (project id) relaying document, awareness, and sync frames between the
// room's peers. The server never interprets document payloads; it validates
// the envelope and forwards the original bytes to every other member.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/buildr-dev/buildr/internal/collab"
	"github.com/buildr-dev/buildr/internal/logging"
)

// Options configures the sync server.
type Options struct {
	Host string
	Port int
	// AllowedOrigins restricts browser connections; empty allows any origin
	AllowedOrigins []string
	Logger         logging.Logger
}

// SyncServer accepts websocket connections on /sync and relays frames
// within rooms.
type SyncServer struct {
	opts       Options
	logger     logging.Logger
	rooms      map[string]*room
	roomsMutex sync.Mutex

	httpServer   *http.Server
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

type room struct {
	name    string
	clients map[*client]bool
	mutex   sync.Mutex
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	// done signals writePump shutdown. send is never closed: relay may hold
	// a membership snapshot from before removal, and a send on a closed
	// channel would panic the relaying read goroutine.
	done chan struct{}
}

// New creates a sync server.
func New(opts Options) *SyncServer {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncServer{
		opts:   opts,
		logger: opts.Logger.WithComponent("sync-server"),
		rooms:  make(map[string]*room),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs the HTTP server until the context is cancelled or Shutdown is
// called.
func (s *SyncServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", s.handleSync)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info(ctx, "sync server listening", "addr", addr)

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every connection and stops the HTTP server.
func (s *SyncServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cancel()

		s.roomsMutex.Lock()
		for _, rm := range s.rooms {
			rm.mutex.Lock()
			for cl := range rm.clients {
				close(cl.done)
				_ = cl.conn.Close(websocket.StatusGoingAway, "server shutdown")
			}
			rm.clients = make(map[*client]bool)
			rm.mutex.Unlock()
		}
		s.rooms = make(map[string]*room)
		s.roomsMutex.Unlock()

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
		s.logger.Info(ctx, "sync server stopped")
	})
	return err
}

func (s *SyncServer) allowedOrigin(origin string) bool {
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *SyncServer) handleSync(w http.ResponseWriter, r *http.Request) {
	if !s.allowedOrigin(r.Header.Get("Origin")) {
		s.logger.Warn(r.Context(), nil, "rejected connection from disallowed origin",
			"origin", r.Header.Get("Origin"))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	roomName := r.URL.Query().Get("room")
	if roomName == "" {
		http.Error(w, "missing room parameter", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // validated above
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, 64), done: make(chan struct{})}
	rm := s.joinRoom(roomName, cl)
	s.logger.Info(r.Context(), "peer joined", "room", roomName, "peers", rm.count())

	go s.writePump(cl)
	s.readPump(rm, cl)

	s.leaveRoom(rm, cl)
	s.logger.Info(context.Background(), "peer left", "room", roomName, "peers", rm.count())
}

func (s *SyncServer) joinRoom(name string, cl *client) *room {
	s.roomsMutex.Lock()
	rm, ok := s.rooms[name]
	if !ok {
		rm = &room{name: name, clients: make(map[*client]bool)}
		s.rooms[name] = rm
	}
	s.roomsMutex.Unlock()

	rm.mutex.Lock()
	rm.clients[cl] = true
	rm.mutex.Unlock()
	return rm
}

func (s *SyncServer) leaveRoom(rm *room, cl *client) {
	empty := rm.remove(cl)

	_ = cl.conn.Close(websocket.StatusNormalClosure, "")

	if empty {
		s.roomsMutex.Lock()
		if current, ok := s.rooms[rm.name]; ok && current == rm && current.count() == 0 {
			delete(s.rooms, rm.name)
		}
		s.roomsMutex.Unlock()
	}
}

func (rm *room) count() int {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	return len(rm.clients)
}

// remove detaches a member and stops its write pump. Safe to call while
// other goroutines are relaying, and idempotent. Reports whether the room
// is now empty.
func (rm *room) remove(cl *client) bool {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	if rm.clients[cl] {
		delete(rm.clients, cl)
		close(cl.done)
	}
	return len(rm.clients) == 0
}

// relay forwards a frame to every room member except the sender. Slow
// members with a full send buffer drop the frame; the next full-state
// publish re-converges them.
func (rm *room) relay(from *client, frame []byte) {
	rm.mutex.Lock()
	members := make([]*client, 0, len(rm.clients))
	for cl := range rm.clients {
		if cl != from {
			members = append(members, cl)
		}
	}
	rm.mutex.Unlock()

	for _, cl := range members {
		select {
		case cl.send <- frame:
		default:
		}
	}
}

func (s *SyncServer) readPump(rm *room, cl *client) {
	for {
		_, frame, err := cl.conn.Read(s.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && s.ctx.Err() == nil {
				s.logger.Debug(context.Background(), "read ended", "room", rm.name, "reason", err.Error())
			}
			return
		}

		var env collab.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			s.logger.Warn(context.Background(), err, "dropping malformed frame", "room", rm.name)
			continue
		}

		rm.relay(cl, frame)
	}
}

func (s *SyncServer) writePump(cl *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case frame := <-cl.send:
			ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
			err := cl.conn.Write(ctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
			err := cl.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-cl.done:
			return

		case <-s.ctx.Done():
			return
		}
	}
}
