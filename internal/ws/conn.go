package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/dstepanov/goalduel/internal/middleware"
	"github.com/dstepanov/goalduel/internal/protocol"
)

// Conn wraps a websocket connection with a buffered outbound queue and an
// idempotent close. Sends never block a handler: when the buffer is full
// the message is dropped.
type Conn struct {
	ws      *websocket.Conn
	sendCh  chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *middleware.IPRateLimiter
	log     zerolog.Logger

	ID string
	IP string
}

func NewConn(ws *websocket.Conn, id, ip string, limiter *middleware.IPRateLimiter, log zerolog.Logger) *Conn {
	return &Conn{
		ws:      ws,
		sendCh:  make(chan []byte, 64),
		done:    make(chan struct{}),
		limiter: limiter,
		log:     log.With().Str("conn", id).Logger(),
		ID:      id,
		IP:      ip,
	}
}

// Send queues a protocol message for delivery.
func (c *Conn) Send(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		c.log.Error().Err(err).Str("event", msg.Event).Msg("encode failed")
		return
	}
	select {
	case c.sendCh <- data:
	default:
		c.log.Warn().Str("event", msg.Event).Msg("send buffer full, dropping message")
	}
}

// ReadLoop decodes inbound frames onto a channel. The channel closes when
// the connection drops or the context ends.
func (c *Conn) ReadLoop(ctx context.Context) <-chan protocol.Message {
	ch := make(chan protocol.Message, 64)
	go func() {
		defer close(ch)
		for {
			_, data, err := c.ws.Read(ctx)
			if err != nil {
				c.log.Debug().Err(err).Msg("read loop ended")
				c.Close()
				return
			}
			if c.limiter != nil && !c.limiter.MessageAllowed(c.IP) {
				continue // over the message rate, drop without disconnecting
			}
			msg, err := protocol.Decode(data)
			if err != nil {
				c.log.Debug().Err(err).Msg("dropping malformed frame")
				continue
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// WriteLoop drains the send queue onto the wire until the connection or
// the context ends. Each write gets its own timeout.
func (c *Conn) WriteLoop(ctx context.Context) {
	for {
		select {
		case data := <-c.sendCh:
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.log.Debug().Err(err).Msg("write failed, closing")
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(websocket.StatusNormalClosure, "")
	})
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}
