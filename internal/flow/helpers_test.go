package flow

import (
	"context"

	"github.com/chibbonta/Wchat/internal/models"
	"github.com/chibbonta/Wchat/internal/session"
)

// mockGenAI records calls and returns a canned reply or error.
type mockGenAI struct {
	reply    string
	err      error
	calls    int
	persona  string
	lastUser string
}

func (m *mockGenAI) Generate(ctx context.Context, persona, utterance string) (string, error) {
	m.calls++
	m.persona = persona
	m.lastUser = utterance
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// newTestRouter builds a router over an in-memory store with the scripted
// ticket variant of the support flow.
func newTestRouter(client *mockGenAI) (*Router, session.Store) {
	store := session.NewInMemoryStore()
	optionMode := map[string]models.Mode{
		MenuOptionRegistration: models.ModeRegistration,
		MenuOptionSupport:      models.ModeSupport,
		MenuOptionAssistant:    models.ModeAssistant,
	}
	r := NewRouter(store, MainMenu(), MenuPrompt, optionMode,
		NewRegistrationFlow(),
		NewSupportTicketFlow(),
		NewAssistantFlow(client, AssistantPersona),
	)
	return r, store
}

func freeText(text string) models.Signal {
	return models.Signal{Kind: models.SignalFreeText, Text: text}
}

func button(id string) models.Signal {
	return models.Signal{Kind: models.SignalButton, ButtonID: id}
}
