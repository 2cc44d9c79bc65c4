// Package messaging renders outbound message intents to the wire and feeds
// inbound transport events into the dispatcher.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/chibbonta/Wchat/internal/models"
)

// MaxLabelLength caps menu option labels when rendering. The core supplies
// untruncated intents; truncation happens here.
const MaxLabelLength = 20

// phoneNumberRegex matches everything that is not a digit.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Sender sends one plain text message. Both the whatsmeow client and the
// Twilio client satisfy this.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Responder renders outbound message intents and transmits them. Sends are
// best-effort: the dispatcher logs and swallows failures, it never rolls
// back a committed flow transition.
type Responder interface {
	SendText(ctx context.Context, to, body string) error
	SendMenu(ctx context.Context, to, prompt string, options []models.MenuOption) error
	SendYesNo(ctx context.Context, to, prompt, yesID, noID string) error
}

// TextResponder renders every intent as plain text over a Sender. Menus and
// yes/no prompts become numbered lists the user answers by number or word.
type TextResponder struct {
	sender Sender
}

// NewTextResponder creates a responder over the given transport sender.
func NewTextResponder(sender Sender) *TextResponder {
	return &TextResponder{sender: sender}
}

// ValidateAndCanonicalizeRecipient strips everything but digits from a
// recipient and validates the result.
func ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}
	if recipient != canonical {
		slog.Debug("Responder canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// SendText sends a plain text message.
func (r *TextResponder) SendText(ctx context.Context, to, body string) error {
	canonical, err := ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("Responder SendText validation error", "error", err, "to", to)
		return err
	}
	return r.sender.SendMessage(ctx, canonical, body)
}

// SendMenu renders the menu as a numbered list under the prompt.
func (r *TextResponder) SendMenu(ctx context.Context, to, prompt string, options []models.MenuOption) error {
	canonical, err := ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("Responder SendMenu validation error", "error", err, "to", to)
		return err
	}
	var b strings.Builder
	b.WriteString(prompt)
	for i, opt := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, truncateLabel(opt.Label))
	}
	return r.sender.SendMessage(ctx, canonical, b.String())
}

// SendYesNo renders the yes/no prompt with its two answer affordances.
func (r *TextResponder) SendYesNo(ctx context.Context, to, prompt, yesID, noID string) error {
	canonical, err := ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("Responder SendYesNo validation error", "error", err, "to", to)
		return err
	}
	body := prompt + "\n(Reply with 'yes' or 'no')"
	return r.sender.SendMessage(ctx, canonical, body)
}

// Send dispatches one outbound intent to the matching Responder method.
func Send(ctx context.Context, r Responder, out models.Outbound) error {
	switch out.Kind {
	case models.OutboundText:
		return r.SendText(ctx, out.To, out.Body)
	case models.OutboundMenu:
		return r.SendMenu(ctx, out.To, out.Body, out.Options)
	case models.OutboundYesNo:
		return r.SendYesNo(ctx, out.To, out.Body, out.YesID, out.NoID)
	default:
		return fmt.Errorf("unknown outbound kind %q", out.Kind)
	}
}

// truncateLabel caps a label at MaxLabelLength runes.
func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= MaxLabelLength {
		return label
	}
	return string(runes[:MaxLabelLength])
}
