// Package flow implements the conversation state machines and the router
// that dispatches inbound signals to them.
package flow

import (
	"log/slog"
	"strings"

	"github.com/chibbonta/Wchat/internal/models"
)

// ResetKeyword is the literal, case-insensitive token that clears the
// session and re-presents the menu, regardless of the active flow.
const ResetKeyword = "menu"

// Normalize turns a raw inbound event into the sender identifier and a
// canonical signal. It returns models.ErrMalformedEvent when the event
// carries no sender or no usable body of any kind.
func Normalize(evt models.Event) (string, models.Signal, error) {
	if err := evt.Validate(); err != nil {
		slog.Debug("Normalize rejected event", "error", err, "kind", evt.Kind)
		return "", models.Signal{}, err
	}

	userID := strings.TrimSpace(evt.From)
	switch evt.Kind {
	case models.MessageKindText:
		return userID, models.Signal{Kind: models.SignalFreeText, Text: strings.TrimSpace(evt.Text)}, nil
	case models.MessageKindButton:
		return userID, models.Signal{Kind: models.SignalButton, ButtonID: strings.TrimSpace(evt.ButtonID)}, nil
	default:
		return userID, models.Signal{Kind: models.SignalUnrecognized}, nil
	}
}

// IsReset reports whether the signal is the reset keyword. Keyword matching
// takes priority over every other interpretation of the signal.
func IsReset(sig models.Signal) bool {
	return sig.Kind == models.SignalFreeText && strings.EqualFold(strings.TrimSpace(sig.Text), ResetKeyword)
}
