package flow

import (
	"context"

	"github.com/chibbonta/Wchat/internal/models"
)

// Flow defines the behavior of one conversation mode. A flow owns the
// session while its mode is active; the router persists or deletes the
// session after every transition.
type Flow interface {
	// Mode returns the session mode this flow owns.
	Mode() models.Mode

	// Start creates a fresh session entering the flow and returns the
	// flow's opening messages.
	Start(ctx context.Context, userID string) (models.Session, []models.Outbound)

	// Advance applies one inbound signal to the session, mutating it in
	// place, and returns the messages to send. A session left with
	// ModeUnset signals a terminal outcome; the router deletes it.
	Advance(ctx context.Context, sess *models.Session, sig models.Signal) ([]models.Outbound, error)
}
