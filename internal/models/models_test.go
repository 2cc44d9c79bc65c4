package models

import (
	"errors"
	"testing"
)

func TestEventValidate(t *testing.T) {
	cases := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"text with body", Event{From: "15551234567", Kind: MessageKindText, Text: "hi"}, false},
		{"empty text is deliverable", Event{From: "15551234567", Kind: MessageKindText}, false},
		{"button with id", Event{From: "15551234567", Kind: MessageKindButton, ButtonID: "opt_a"}, false},
		{"other kind", Event{From: "15551234567", Kind: MessageKindOther}, false},
		{"missing sender", Event{Kind: MessageKindText, Text: "hi"}, true},
		{"blank sender", Event{From: "  ", Kind: MessageKindText, Text: "hi"}, true},
		{"button without id", Event{From: "15551234567", Kind: MessageKindButton}, true},
		{"unknown kind", Event{From: "15551234567", Kind: MessageKind("sticker")}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.event.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, c.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestOutboundConstructors(t *testing.T) {
	txt := Text("15551234567", "hello")
	if txt.Kind != OutboundText || txt.Body != "hello" || txt.To != "15551234567" {
		t.Errorf("unexpected text intent: %+v", txt)
	}

	menu := Menu("15551234567", "pick", []MenuOption{{ID: "a", Label: "A"}})
	if menu.Kind != OutboundMenu || len(menu.Options) != 1 {
		t.Errorf("unexpected menu intent: %+v", menu)
	}

	yn := YesNo("15551234567", "sure?", "y", "n")
	if yn.Kind != OutboundYesNo || yn.YesID != "y" || yn.NoID != "n" {
		t.Errorf("unexpected yes/no intent: %+v", yn)
	}
}

func TestSessionTerminal(t *testing.T) {
	sess := NewSession("15551234567", ModeRegistration, "ask_name")
	if sess.Terminal() {
		t.Error("active session reported terminal")
	}
	sess.Mode = ModeUnset
	if !sess.Terminal() {
		t.Error("unset session not reported terminal")
	}
}
