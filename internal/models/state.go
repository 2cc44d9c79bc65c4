// Package models defines session state structures for Wchat conversations.
package models

import "time"

// Mode identifies which flow currently owns a user's conversation.
type Mode string

const (
	// ModeUnset means no flow is active; the next free text or button starts one.
	ModeUnset Mode = ""
	// ModeRegistration is the scripted registration flow.
	ModeRegistration Mode = "registration"
	// ModeSupport is the scripted support ticket flow.
	ModeSupport Mode = "support"
	// ModeAssistant is the freeform generative chat flow.
	ModeAssistant Mode = "assistant"
)

// Step identifies a position within the active flow's state machine.
// A step value is meaningful only relative to the session's current mode.
type Step string

// Session represents the conversation state for one user identifier.
type Session struct {
	UserID    string            `json:"user_id"`
	Mode      Mode              `json:"mode"`
	Step      Step              `json:"step,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession creates a session entering the given mode at the given step,
// with an empty field set.
func NewSession(userID string, mode Mode, step Step) Session {
	now := time.Now()
	return Session{
		UserID:    userID,
		Mode:      mode,
		Step:      step,
		Fields:    make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Terminal reports whether the session has left all flows.
func (s Session) Terminal() bool {
	return s.Mode == ModeUnset
}
