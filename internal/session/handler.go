package session

import (
	"context"
	"encoding/json"

	"github.com/dstepanov/goalduel/internal/protocol"
	"github.com/dstepanov/goalduel/internal/ws"
)

// HandleConn dispatches one connection's messages into the session until
// the connection closes, then removes the player. Malformed payloads and
// unknown events are dropped; none of the game-logic paths surface errors
// to the client beyond sessionFull.
func (s *Session) HandleConn(ctx context.Context, conn *ws.Conn) {
	defer s.Disconnect(conn.ID)

	for msg := range conn.ReadLoop(ctx) {
		switch msg.Event {
		case protocol.EventJoin:
			var p protocol.JoinPayload
			if json.Unmarshal(msg.Data, &p) != nil {
				continue
			}
			s.Join(conn.ID, conn, p.Name, p.Color)

		case protocol.EventPlayerMove:
			var p protocol.PlayerMovePayload
			if json.Unmarshal(msg.Data, &p) != nil {
				continue
			}
			s.Move(conn.ID, p.X, p.Z)

		case protocol.EventShotResult:
			var p protocol.ShotResultPayload
			if json.Unmarshal(msg.Data, &p) != nil || !p.Result.Valid() {
				continue
			}
			s.ReportShot(conn.ID, p.Result)

		case protocol.EventPlayerReady:
			var p protocol.PlayerReadyPayload
			if json.Unmarshal(msg.Data, &p) != nil {
				continue
			}
			s.SetReady(conn.ID, p.Ready)

		default:
			s.log.Debug().Str("event", msg.Event).Str("player", conn.ID).
				Msg("unknown event dropped")
		}
	}
}
