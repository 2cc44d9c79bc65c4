// Package models defines the core data structures for Wchat.
//
// It includes inbound event and signal types, outbound message intents,
// and the shared error taxonomy used across modules.
package models

import (
	"errors"
	"strings"
)

// MessageKind identifies the kind of payload carried by an inbound event.
type MessageKind string

const (
	// MessageKindText carries a plain text body.
	MessageKindText MessageKind = "text"
	// MessageKindButton carries the identifier of a pressed interactive button.
	MessageKindButton MessageKind = "interactive-button"
	// MessageKindOther covers payloads the router cannot interpret (media, reactions, ...).
	MessageKindOther MessageKind = "other"
)

// Event represents one raw inbound event as delivered by a transport.
// The transport has already dealt with envelope and signature concerns;
// this is the core's view of what the user sent.
type Event struct {
	From     string      `json:"from"`
	Kind     MessageKind `json:"kind"`
	Text     string      `json:"text,omitempty"`
	ButtonID string      `json:"button_id,omitempty"`
	Time     int64       `json:"time,omitempty"`
}

// SignalKind discriminates the canonical inbound signal union.
type SignalKind string

const (
	// SignalFreeText is trimmed free text typed by the user.
	SignalFreeText SignalKind = "free_text"
	// SignalButton is a button selection carrying the button's identifier.
	SignalButton SignalKind = "button"
	// SignalUnrecognized is an event the normalizer could not interpret as text or button.
	SignalUnrecognized SignalKind = "unrecognized"
)

// Signal is the canonical inbound signal produced by the normalizer.
// Exactly one of Text or ButtonID is meaningful, depending on Kind.
type Signal struct {
	Kind     SignalKind
	Text     string
	ButtonID string
}

// OutboundKind discriminates the outbound message intent union.
type OutboundKind string

const (
	// OutboundText is a plain text message.
	OutboundText OutboundKind = "text"
	// OutboundMenu is a prompt with an ordered list of selectable options.
	OutboundMenu OutboundKind = "menu"
	// OutboundYesNo is a prompt with a yes button and a no button.
	OutboundYesNo OutboundKind = "yes_no"
)

// MenuOption is one selectable option of a menu intent.
type MenuOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Outbound represents a message intent produced by the core and rendered
// by a responder. The core supplies untruncated labels; truncation is a
// rendering concern.
type Outbound struct {
	To      string       `json:"to"`
	Kind    OutboundKind `json:"kind"`
	Body    string       `json:"body,omitempty"`
	Options []MenuOption `json:"options,omitempty"`
	YesID   string       `json:"yes_id,omitempty"`
	NoID    string       `json:"no_id,omitempty"`
}

// Text builds a plain text outbound intent.
func Text(to, body string) Outbound {
	return Outbound{To: to, Kind: OutboundText, Body: body}
}

// Menu builds a menu outbound intent with the given ordered options.
func Menu(to, prompt string, options []MenuOption) Outbound {
	return Outbound{To: to, Kind: OutboundMenu, Body: prompt, Options: options}
}

// YesNo builds a yes/no outbound intent.
func YesNo(to, prompt, yesID, noID string) Outbound {
	return Outbound{To: to, Kind: OutboundYesNo, Body: prompt, YesID: yesID, NoID: noID}
}

// Error variables for better error handling and testability
var (
	// ErrMalformedEvent marks an inbound event with no sender or no usable body.
	ErrMalformedEvent = errors.New("malformed event: missing sender or body")
	// ErrBackendUnavailable marks a failed generative backend call.
	ErrBackendUnavailable = errors.New("generative backend unavailable")
	// ErrEmptyRecipient is returned when an outbound intent has no recipient.
	ErrEmptyRecipient = errors.New("recipient cannot be empty")
)

// Validate checks that an event carries enough information to be dispatched.
func (e Event) Validate() error {
	if strings.TrimSpace(e.From) == "" {
		return ErrMalformedEvent
	}
	switch e.Kind {
	case MessageKindText, MessageKindOther:
		// Empty text is still a deliverable answer (flows re-prompt on it).
		return nil
	case MessageKindButton:
		if strings.TrimSpace(e.ButtonID) == "" {
			return ErrMalformedEvent
		}
		return nil
	default:
		return ErrMalformedEvent
	}
}
