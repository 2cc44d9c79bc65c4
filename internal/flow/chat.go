package flow

import (
	"context"
	"log/slog"

	"github.com/chibbonta/Wchat/internal/genai"
	"github.com/chibbonta/Wchat/internal/models"
)

// Messages used by the assistant flow.
const (
	// ApologyMessage replaces the reply when the generative backend fails.
	ApologyMessage = "Sorry, I'm having trouble answering right now. 😔 Please try again in a moment."
	// CapabilityFallbackMessage answers signals the assistant cannot interpret.
	CapabilityFallbackMessage = "I can only handle text and buttons here. What would you like to ask?"
)

// AssistantPersona biases the generative backend toward the general assistant role.
const AssistantPersona = "You are Wchat's friendly assistant on WhatsApp. " +
	"Answer briefly and helpfully, in the language the user writes in. " +
	"If the user asks about account registration or support tickets, suggest typing \"menu\"."

// SupportPersona biases the generative backend toward the customer-support role.
// Used when a deployment routes the support option to the assistant flow.
const SupportPersona = "You are Wchat's customer support agent on WhatsApp. " +
	"Help the user troubleshoot their issue patiently and briefly. " +
	"If you cannot resolve it, suggest typing \"menu\" to open a support ticket."

// AssistantFlow forwards every free-text message to the generative backend
// under a fixed persona and replies with the generated text. The flow never
// self-terminates; it persists until the user resets or picks a menu option.
type AssistantFlow struct {
	client   genai.ClientInterface
	mode     models.Mode
	persona  string
	greeting string
}

// NewAssistantFlow creates the generative chat flow with the given persona.
func NewAssistantFlow(client genai.ClientInterface, persona string) *AssistantFlow {
	return &AssistantFlow{
		client:   client,
		mode:     models.ModeAssistant,
		persona:  persona,
		greeting: "You're chatting with our assistant now. 💬 Ask me anything!\n" + MenuHint,
	}
}

// newAssistantFlowForMode is used when a deployment routes another menu
// option (support) to the generative flow under its own persona.
func newAssistantFlowForMode(client genai.ClientInterface, mode models.Mode, persona, greeting string) *AssistantFlow {
	return &AssistantFlow{client: client, mode: mode, persona: persona, greeting: greeting}
}

// NewSupportAssistantFlow creates the generative variant of the support
// option. Exactly one support variant (scripted ticket or this one) is
// active per deployment.
func NewSupportAssistantFlow(client genai.ClientInterface) *AssistantFlow {
	return newAssistantFlowForMode(client, models.ModeSupport, SupportPersona,
		"You're chatting with our support agent now. 💬 Tell me what's going on.\n" + MenuHint)
}

// Mode returns the session mode this flow owns.
func (f *AssistantFlow) Mode() models.Mode {
	return f.mode
}

// Start enters the chat. The flow has no sub-steps, so the session's step
// stays empty for its whole lifetime.
func (f *AssistantFlow) Start(ctx context.Context, userID string) (models.Session, []models.Outbound) {
	sess := models.NewSession(userID, f.mode, "")
	slog.Debug("AssistantFlow Start", "mode", f.mode, "userID", userID)
	return sess, []models.Outbound{models.Text(userID, f.greeting)}
}

// Advance forwards free text to the generative backend. Backend failures
// are mapped to a fixed apology and never surface to the user; the mode is
// left untouched either way.
func (f *AssistantFlow) Advance(ctx context.Context, sess *models.Session, sig models.Signal) ([]models.Outbound, error) {
	if sig.Kind != models.SignalFreeText {
		slog.Debug("AssistantFlow non-text signal", "mode", f.mode, "userID", sess.UserID, "signal", sig.Kind)
		return []models.Outbound{models.Text(sess.UserID, CapabilityFallbackMessage)}, nil
	}

	reply, err := f.client.Generate(ctx, f.persona, sig.Text)
	if err != nil {
		slog.Error("AssistantFlow backend call failed", "error", err, "mode", f.mode, "userID", sess.UserID)
		return []models.Outbound{models.Text(sess.UserID, ApologyMessage)}, nil
	}

	slog.Debug("AssistantFlow reply generated", "mode", f.mode, "userID", sess.UserID, "reply_length", len(reply))
	return []models.Outbound{models.Text(sess.UserID, reply)}, nil
}
