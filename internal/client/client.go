// Package client is the headless game client: it connects to the match
// server, runs the local shot simulator at a fixed 60 Hz step, reports
// each resolved outcome once, and mirrors the server's roster snapshots.
// All state is owned by the single Run goroutine, which interleaves ticks
// and network messages the way the browser client interleaves its frame
// loop with socket callbacks.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/dstepanov/goalduel/internal/protocol"
	"github.com/dstepanov/goalduel/internal/sim"
	"github.com/dstepanov/goalduel/internal/ws"
)

// Phase is the client-local UI phase, driven entirely by server
// broadcasts once a match is running.
type Phase uint8

const (
	PhaseMenu Phase = iota
	PhasePlaying
	PhaseMatchOver
)

// Controller decides the local player's actions each tick: aiming,
// shooting and blocker movement. It runs inside the client's loop, so it
// may call client methods freely.
type Controller interface {
	Tick(c *Client)
}

// Client is a connected headless player.
type Client struct {
	conn *ws.Conn
	log  zerolog.Logger

	Sim  *sim.Simulator
	Aim  sim.Aim
	team protocol.Team

	selfID  string
	players map[string]protocol.PlayerRecord
	phase   Phase
	tally   Tally
	level   int

	posX, posZ float64

	controller Controller
}

// Dial connects to the server, joins with the given name and color, and
// returns a client ready to Run.
func Dial(ctx context.Context, url, name, color string, log zerolog.Logger) (*Client, error) {
	sock, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	sock.SetReadLimit(1 << 16)

	team := protocol.ParseTeam(color)
	c := &Client{
		conn:    ws.NewConn(sock, name, "", nil, log),
		log:     log.With().Str("component", "client").Str("name", name).Logger(),
		Sim:     sim.New(team),
		Aim:     sim.NewAim(),
		team:    team,
		players: make(map[string]protocol.PlayerRecord),
	}
	go c.conn.WriteLoop(context.Background())

	msg, err := protocol.NewMessage(protocol.EventJoin,
		protocol.JoinPayload{Name: name, Color: color})
	if err != nil {
		return nil, err
	}
	c.conn.Send(msg)
	return c, nil
}

// SetController installs the per-tick decision hook.
func (c *Client) SetController(ctrl Controller) { c.controller = ctrl }

// SelfID is the server-assigned identity, empty until the roster arrives.
func (c *Client) SelfID() string { return c.selfID }

// Team is the local player's team color as confirmed by the server.
func (c *Client) Team() protocol.Team { return c.team }

// CurrentPhase is the client's UI phase.
func (c *Client) CurrentPhase() Phase { return c.phase }

// Tally is the local display score.
func (c *Client) Tally() Tally { return c.tally }

// Scoreboard returns the cached server roster snapshot.
func (c *Client) Scoreboard() map[string]protocol.PlayerRecord {
	out := make(map[string]protocol.PlayerRecord, len(c.players))
	for id, p := range c.players {
		out[id] = p
	}
	return out
}

// Opponent returns the other player's record, if one is connected.
func (c *Client) Opponent() (protocol.PlayerRecord, bool) {
	for id, p := range c.players {
		if id != c.selfID {
			return p, true
		}
	}
	return protocol.PlayerRecord{}, false
}

// Shoot launches a shot along the current aim, if one is permitted.
func (c *Client) Shoot() bool {
	if c.phase != PhasePlaying {
		return false
	}
	return c.Sim.Shoot(c.Aim.Direction())
}

// MoveTo slides the local blocker to lateral position x (clamped between
// the posts) and reports the move to the server.
func (c *Client) MoveTo(x float64) {
	x = clampX(x)
	if x == c.posX {
		return
	}
	c.posX = x
	c.posZ = sim.KeeperZ
	if msg, err := protocol.NewMessage(protocol.EventPlayerMove,
		protocol.PlayerMovePayload{X: c.posX, Z: c.posZ}); err == nil {
		c.conn.Send(msg)
	}
}

// SetReady reports the rematch flag.
func (c *Client) SetReady(ready bool) {
	if msg, err := protocol.NewMessage(protocol.EventPlayerReady,
		protocol.PlayerReadyPayload{Ready: ready}); err == nil {
		c.conn.Send(msg)
	}
}

// Close tears the connection down; the server treats it as a disconnect.
func (c *Client) Close() { c.conn.Close() }

// Run drives the client until the context ends, the connection drops, or
// the session is ended by the server. It owns all client state.
func (c *Client) Run(ctx context.Context) error {
	msgs := c.conn.ReadLoop(ctx)
	ticker := time.NewTicker(time.Second / sim.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tick()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if done := c.handleMessage(msg); done {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) tick() {
	if c.controller != nil {
		c.controller.Tick(c)
	}
	if c.phase != PhasePlaying {
		return
	}

	outcome, resolved := c.Sim.Step(c.blockers())
	if !resolved {
		return
	}

	c.tally.Apply(outcome)
	c.maybeScaleDifficulty()
	c.log.Info().Str("outcome", string(outcome)).
		Int("tally", c.tally.Score).Msg("shot resolved")

	// Fire-and-forget, like every report in this protocol.
	if msg, err := protocol.NewMessage(protocol.EventShotResult,
		protocol.ShotResultPayload{Result: outcome}); err == nil {
		c.conn.Send(msg)
	}
}

// blockers lists the remote players as collidable spheres. The simulator
// filters out same-team entities itself.
func (c *Client) blockers() []sim.Blocker {
	var out []sim.Blocker
	for id, p := range c.players {
		if id == c.selfID {
			continue
		}
		out = append(out, sim.Blocker{X: p.X, Z: p.Z, Team: p.Team})
	}
	return out
}

// maybeScaleDifficulty speeds up the keeper by 20% each time the display
// tally crosses another 10-point tier.
func (c *Client) maybeScaleDifficulty() {
	if lvl := c.tally.Level(); lvl > c.level {
		c.level = lvl
		c.Sim.Keeper.BumpSpeedScale(1.2)
	}
}

func (c *Client) handleMessage(msg protocol.Message) (done bool) {
	switch msg.Event {
	case protocol.EventSessionFull:
		c.log.Warn().Msg("session is full, giving up")
		c.Close()
		return true

	case protocol.EventCurrentPlayers:
		var p protocol.CurrentPlayersPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return false
		}
		c.selfID = p.You
		c.replaceRoster(p.Players)
		if me, ok := c.players[c.selfID]; ok {
			c.team = me.Team // authoritative color from the server
		}
		c.startPlaying()

	case protocol.EventPlayerJoined:
		var rec protocol.PlayerRecord
		if json.Unmarshal(msg.Data, &rec) != nil {
			return false
		}
		c.players[rec.ID] = rec

	case protocol.EventPlayerMoved:
		var p protocol.PlayerMovedPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return false
		}
		if rec, ok := c.players[p.ID]; ok {
			rec.X, rec.Z = p.X, p.Z
			c.players[p.ID] = rec
		}

	case protocol.EventScoreUpdate:
		var p protocol.ScoreUpdatePayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return false
		}
		c.replaceRoster(p.Players)

	case protocol.EventMatchOver:
		var p protocol.MatchOverPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return false
		}
		c.replaceRoster(p.Players)
		c.phase = PhaseMatchOver
		c.log.Info().Bool("won", p.WinnerID == c.selfID).
			Str("reason", string(p.Reason)).Msg("match over")

	case protocol.EventReadyStatus:
		var p protocol.ReadyStatusPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return false
		}
		c.log.Debug().Int("ready", p.ReadyCount).
			Int("players", p.TotalPlayers).Msg("ready status")

	case protocol.EventNewMatchStart:
		var p protocol.NewMatchStartPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return false
		}
		c.replaceRoster(p.Players)
		c.startPlaying()

	case protocol.EventPlayerLeft:
		var p protocol.PlayerLeftPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return false
		}
		delete(c.players, p.ID)

	case protocol.EventSessionOver:
		c.phase = PhaseMenu
		c.log.Info().Msg("session over")
		return true
	}
	return false
}

// replaceRoster swaps the scoreboard cache wholesale: local state never
// survives a server snapshot.
func (c *Client) replaceRoster(players map[string]protocol.PlayerRecord) {
	c.players = make(map[string]protocol.PlayerRecord, len(players))
	for id, p := range players {
		c.players[id] = p
	}
}

// startPlaying resets the simulator and local match state. The reset also
// cancels any hold or respawn pending from an earlier shot, so a timer
// from the previous match can never fire into the new one.
func (c *Client) startPlaying() {
	c.Sim.Reset()
	c.Aim = sim.NewAim()
	c.tally.Reset()
	c.level = 0
	c.phase = PhasePlaying
}

func clampX(x float64) float64 {
	if x < sim.BlockerMinX {
		return sim.BlockerMinX
	}
	if x > sim.BlockerMaxX {
		return sim.BlockerMaxX
	}
	return x
}
