package store

import "errors"

// ErrSessionNotFound is returned when a session id is not in the store.
var ErrSessionNotFound = errors.New("session not found")

// Session is one recorded playback run.
type Session struct {
	ID         string `json:"id"`
	GroupID    int    `json:"group_id"`
	GroupName  string `json:"group_name"`
	AssetHash  string `json:"asset_hash,omitempty"`
	Owner      string `json:"owner,omitempty"`
	CreatedSeq int64  `json:"created_seq"`

	// EndedBy is "finish", "stop", "restart", or empty while open.
	EndedBy string `json:"ended_by,omitempty"`
}

// Event is one recorded engine event.
type Event struct {
	SessionID  string  `json:"session_id"`
	Idx        int     `json:"idx"`
	Seq        int64   `json:"seq"`
	Type       string  `json:"type"`
	TrackIndex int     `json:"track"`
	ClipIndex  int     `json:"clip"`
	At         float64 `json:"at"`
	Clock      float64 `json:"clock"`
	Progress   float64 `json:"progress"`
}
