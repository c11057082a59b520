// Package feed streams renderer-visible state over a websocket. The renderer
// is a separate process that draws the face; its only coupling to the core is
// polling these snapshots.
package feed

import (
	"context"
	"encoding/json"
	log "log/slog"
	"net"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"

	"bimo/internal/state"
)

const (
	DefaultInterval = 50 * time.Millisecond // 20 snapshots per second
	writeDeadline   = time.Second
)

type Server struct {
	store    *state.Store
	interval time.Duration
	upgrader ws.Upgrader
}

func NewServer(store *state.Store, interval time.Duration) *Server {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Server{
		store:    store,
		interval: interval,
		upgrader: ws.Upgrader{
			// The feed is read-only local state; any origin may watch it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ListenAndServe serves /ws until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	// BaseContext ties every request, hijacked websockets included, to ctx so
	// handleWS unwinds on shutdown.
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Info("state feed listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleWS pushes snapshots at the tick rate. A slow or gone client is
// dropped; the core never blocks on a renderer.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("feed upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	log.Debug("renderer connected", "remote", conn.RemoteAddr())

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
		}

		payload, err := json.Marshal(s.store.Snapshot())
		if err != nil {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(ws.TextMessage, payload); err != nil {
			log.Debug("renderer dropped", "err", err)
			return
		}
	}
}
