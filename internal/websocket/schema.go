package websocket

import "github.com/examtaker/examtaker-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventUpdate   Event = "update"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// LeaderboardResponse carries the current standings of one exam. Sent as a
// snapshot on connect and as an update whenever the board changes.
type LeaderboardResponse struct {
	Event   Event               `json:"event"`
	ExamID  string              `json:"exam_id"`
	Entries []model.RankedEntry `json:"entries"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
