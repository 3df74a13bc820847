package ws

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dstepanov/goalduel/internal/middleware"
)

// ConnHandler serves one accepted connection until it closes. The hub does
// not know about the match; capacity is the session's concern and is
// enforced at join time.
type ConnHandler interface {
	HandleConn(ctx context.Context, conn *Conn)
}

// HubStats holds live server counters for the health endpoint.
type HubStats struct {
	TotalConnections uint64 `json:"totalConnections"`
}

// Hub accepts websocket upgrades, assigns player identity and hands every
// connection to the session.
type Hub struct {
	handler        ConnHandler
	limiter        *middleware.IPRateLimiter
	originPatterns []string
	log            zerolog.Logger

	totalConnections atomic.Uint64
}

func NewHub(handler ConnHandler, limiter *middleware.IPRateLimiter, originPatterns []string, log zerolog.Logger) *Hub {
	return &Hub{
		handler:        handler,
		limiter:        limiter,
		originPatterns: originPatterns,
		log:            log.With().Str("component", "hub").Logger(),
	}
}

// Stats returns a snapshot of hub counters.
func (h *Hub) Stats() HubStats {
	return HubStats{TotalConnections: h.totalConnections.Load()}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ip := middleware.RealIP(r)
	if h.limiter != nil && !h.limiter.ConnectAllowed(ip) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	acceptOpts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		acceptOpts.OriginPatterns = h.originPatterns
	}

	sock, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		if h.limiter != nil {
			h.limiter.Disconnect(ip)
		}
		h.log.Warn().Err(err).Str("ip", ip).Msg("accept failed")
		return
	}

	// Game messages are tiny; anything bigger is garbage.
	sock.SetReadLimit(1024)

	h.totalConnections.Add(1)
	id := uuid.NewString()
	conn := NewConn(sock, id, ip, h.limiter, h.log)
	h.log.Info().Str("conn", id).Str("ip", ip).
		Uint64("total", h.totalConnections.Load()).Msg("connection opened")

	// Background context so the connection outlives the HTTP handler's
	// request context semantics; the write loop stops via conn.Done().
	go conn.WriteLoop(context.Background())

	go func() {
		<-conn.Done()
		if h.limiter != nil {
			h.limiter.Disconnect(ip)
		}
	}()

	// Blocks until the connection closes, keeping the underlying TCP
	// connection open for the websocket.
	h.handler.HandleConn(context.Background(), conn)
	h.log.Info().Str("conn", id).Msg("connection closed")
}
