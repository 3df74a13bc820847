// Package protocol defines the message contract between the match server
// and its clients. Every message is a JSON envelope carrying a string event
// name and an event-specific payload. Client-to-server messages are reports
// of locally simulated facts; server-to-client messages are full roster
// snapshots, never deltas. Messages are fire-and-forget: there are no acks,
// retries, or timeouts.
package protocol

import "encoding/json"

// Client -> Server events
const (
	EventJoin        = "join"
	EventPlayerMove  = "playerMove"
	EventShotResult  = "shotResult"
	EventPlayerReady = "playerReady"
)

// Server -> Client events
const (
	EventSessionFull    = "sessionFull"
	EventCurrentPlayers = "currentPlayers"
	EventPlayerJoined   = "playerJoined"
	EventPlayerMoved    = "playerMoved"
	EventScoreUpdate    = "scoreUpdate"
	EventMatchOver      = "matchOver"
	EventReadyStatus    = "readyStatus"
	EventNewMatchStart  = "newMatchStart"
	EventPlayerLeft     = "playerLeft"
	EventSessionOver    = "sessionOver"
)

// Team is a player's chosen color. Anything but an explicit red request
// resolves to blue; the server does not enforce one player per team.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// ParseTeam resolves a requested color to a team.
func ParseTeam(color string) Team {
	if color == "red" {
		return TeamRed
	}
	return TeamBlue
}

// Outcome is the discrete classification of one shot attempt, produced by
// the client-side simulator and consumed once by the match state machine.
type Outcome string

const (
	OutcomeGoal Outcome = "goal"
	OutcomeSave Outcome = "save"
	OutcomeMiss Outcome = "miss"
)

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeGoal || o == OutcomeSave || o == OutcomeMiss
}

// WinReason explains a match result: reaching the points target or handing
// the match to the opponent with three consecutive non-goals.
type WinReason string

const (
	WinByPoints WinReason = "points"
	WinByMisses WinReason = "misses"
)

// PlayerRecord is the server-owned canonical record for one connected
// player. Clients receive it in snapshots and must treat every snapshot as
// replacing their cached copy.
type PlayerRecord struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Team       Team    `json:"color"`
	X          float64 `json:"x"`
	Z          float64 `json:"z"`
	Points     uint    `json:"points"`
	MissStreak uint    `json:"missStreak"`
	Wins       uint    `json:"wins"`
	Ready      bool    `json:"ready"`
}

// Message is the wire envelope.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type PlayerMovePayload struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

type ShotResultPayload struct {
	Result Outcome `json:"result"`
}

type PlayerReadyPayload struct {
	Ready bool `json:"ready"`
}

// CurrentPlayersPayload is sent only to a joiner. You carries the
// server-assigned id of the recipient, since the transport has no ambient
// client identity.
type CurrentPlayersPayload struct {
	You     string                  `json:"you"`
	Players map[string]PlayerRecord `json:"players"`
}

type PlayerMovedPayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Z  float64 `json:"z"`
}

type ScoreUpdatePayload struct {
	Players map[string]PlayerRecord `json:"players"`
}

type MatchOverPayload struct {
	WinnerID string                  `json:"winnerId"`
	LoserID  string                  `json:"loserId"`
	Reason   WinReason               `json:"reason"`
	Players  map[string]PlayerRecord `json:"players"`
}

type ReadyStatusPayload struct {
	ReadyCount   int `json:"readyCount"`
	TotalPlayers int `json:"totalPlayers"`
}

type NewMatchStartPayload struct {
	Players map[string]PlayerRecord `json:"players"`
}

type PlayerLeftPayload struct {
	ID string `json:"id"`
}

// NewMessage builds an envelope around a payload.
func NewMessage(event string, payload any) (Message, error) {
	if payload == nil {
		return Message{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: event, Data: data}, nil
}

// Encode serializes a message for the wire.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode parses a wire frame into an envelope. The payload stays raw until
// the handler for the event unmarshals it.
func Decode(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}
