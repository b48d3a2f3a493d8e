package websocket

import "github.com/prepkit/prepkit-backend/internal/events"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type EventKind string

const (
	EventEngine EventKind = "engine"
	EventError  EventKind = "error"
	EventPong   EventKind = "pong"
)

// EngineMessage wraps one engine event for the monitor stream.
type EngineMessage struct {
	Event   EventKind    `json:"event"`
	Payload events.Event `json:"payload"`
}

type ErrorResponse struct {
	Event EventKind `json:"event"`
	Error string    `json:"error"`
}

type PongResponse struct {
	Event EventKind `json:"event"`
}
