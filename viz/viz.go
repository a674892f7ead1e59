// Package viz streams simulation frames to websocket watchers.
package viz

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// sendBuffer is how many frames a watcher may fall behind before frames are dropped.
const sendBuffer = 4

const writeWait = 2 * time.Second

// AgentFrame is one agent in a frame.
type AgentFrame struct {
	ID        uint32  `json:"id"`
	Archetype string  `json:"archetype"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Heading   float64 `json:"heading"`
	Radius    float64 `json:"radius"`
	FX        float64 `json:"fx"`
	FY        float64 `json:"fy"`
}

// ObstacleFrame is one obstacle in a frame.
type ObstacleFrame struct {
	ID     uint32  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Frame is the world state published to watchers.
type Frame struct {
	Tick      int32           `json:"tick"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Agents    []AgentFrame    `json:"agents"`
	Obstacles []ObstacleFrame `json:"obstacles"`
}

// Status is served on GET /.
type Status struct {
	Tick     int32  `json:"tick"`
	Agents   int    `json:"agents"`
	Watchers int    `json:"watchers"`
	Dropped  uint64 `json:"dropped"`
}

type watcher struct {
	conn *websocket.Conn
	send chan []byte
}

// offer queues msg without blocking. It reports false when the watcher is full.
func (w *watcher) offer(msg []byte) bool {
	select {
	case w.send <- msg:
		return true
	default:
		return false
	}
}

// Server fans frames out to websocket watchers.
// A nil *Server is valid and ignores everything.
type Server struct {
	router   *mux.Router
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener

	mu       sync.Mutex
	watchers map[*watcher]struct{}
	tick     int32
	agents   int

	dropped atomic.Uint64
}

// NewServer creates a server with its routes registered.
func NewServer() *Server {
	s := &Server{
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		watchers: make(map[*watcher]struct{}),
	}
	s.router.HandleFunc("/", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebsocket).Methods("GET")
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.http = &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("viz server stopped", "error", err)
		}
	}()
	slog.Info("viz listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Watchers returns the number of connected watchers.
func (s *Server) Watchers() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

// Dropped returns how many frames were skipped for slow watchers.
func (s *Server) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// Publish encodes f once and queues it for every watcher.
// Watchers that are behind miss the frame; Publish never blocks on the network.
func (s *Server) Publish(f *Frame) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.tick = f.Tick
	s.agents = len(f.Agents)
	if len(s.watchers) == 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	msg, err := json.Marshal(f)
	if err != nil {
		slog.Error("encoding frame", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.watchers {
		if !w.offer(msg) {
			s.dropped.Add(1)
		}
	}
}

// Close stops the listener and disconnects watchers.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	for w := range s.watchers {
		w.conn.Close()
	}
	s.mu.Unlock()
	if s.http != nil {
		return s.http.Close()
	}
	return nil
}

func (s *Server) status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Tick:     s.tick,
		Agents:   s.agents,
		Watchers: len(s.watchers),
		Dropped:  s.dropped.Load(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		slog.Debug("writing status", "error", err)
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	wt := &watcher{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.watchers[wt] = struct{}{}
	s.mu.Unlock()

	done := make(chan struct{})
	go s.writeLoop(wt, done)

	// Reads are only used to notice the watcher going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.watchers, wt)
	s.mu.Unlock()
	close(done)
	conn.Close()
}

func (s *Server) writeLoop(wt *watcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-wt.send:
			wt.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wt.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				wt.conn.Close()
				return
			}
		}
	}
}
