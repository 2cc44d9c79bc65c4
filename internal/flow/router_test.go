package flow

import (
	"context"
	"testing"

	"github.com/chibbonta/Wchat/internal/models"
)

func TestRouter_ResetKeywordYieldsMenu(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()

	outs, err := r.Route(ctx, "100000001", freeText("menu"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outs) != 1 || outs[0].Kind != models.OutboundMenu {
		t.Fatalf("expected exactly one menu message, got %+v", outs)
	}
	sess, err := store.Get(ctx, "100000001")
	if err != nil {
		t.Fatal(err)
	}
	if sess != nil {
		t.Errorf("expected no session after reset, got %+v", sess)
	}
}

func TestRouter_ResetKeywordIsIdempotent(t *testing.T) {
	r, _ := newTestRouter(&mockGenAI{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		outs, err := r.Route(ctx, "100000001", freeText("MENU"))
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", i, err)
		}
		if len(outs) != 1 || outs[0].Kind != models.OutboundMenu {
			t.Fatalf("round %d: expected menu, got %+v", i, outs)
		}
	}
}

func TestRouter_ResetMidFlowClearsSession(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()
	if _, err := r.Route(ctx, "100000001", button(MenuOptionRegistration)); err != nil {
		t.Fatal(err)
	}

	outs, err := r.Route(ctx, "100000001", freeText("menu"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 || outs[0].Kind != models.OutboundMenu {
		t.Fatalf("expected menu, got %+v", outs)
	}
	sess, _ := store.Get(ctx, "100000001")
	if sess != nil {
		t.Errorf("session survived reset: %+v", sess)
	}
}

func TestRouter_MenuButtonStartsFlow(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()

	outs, err := r.Route(ctx, "100000001", button(MenuOptionRegistration))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 || outs[0].Kind != models.OutboundText {
		t.Fatalf("expected opening prompt, got %+v", outs)
	}
	sess, _ := store.Get(ctx, "100000001")
	if sess == nil || sess.Mode != models.ModeRegistration || sess.Step != StepRegistrationName {
		t.Errorf("unexpected session: %+v", sess)
	}
}

func TestRouter_NumericShortcutEqualsButton(t *testing.T) {
	ctx := context.Background()

	rButton, storeButton := newTestRouter(&mockGenAI{})
	if _, err := rButton.Route(ctx, "100000001", button(MenuOptionSupport)); err != nil {
		t.Fatal(err)
	}
	viaButton, _ := storeButton.Get(ctx, "100000001")

	rShortcut, storeShortcut := newTestRouter(&mockGenAI{})
	if _, err := rShortcut.Route(ctx, "100000001", freeText("2")); err != nil {
		t.Fatal(err)
	}
	viaShortcut, _ := storeShortcut.Get(ctx, "100000001")

	if viaButton == nil || viaShortcut == nil {
		t.Fatal("expected sessions from both paths")
	}
	if viaButton.Mode != viaShortcut.Mode || viaButton.Step != viaShortcut.Step {
		t.Errorf("shortcut session %+v differs from button session %+v", viaShortcut, viaButton)
	}
}

func TestRouter_ShortcutIgnoredMidFlow(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()
	if _, err := r.Route(ctx, "100000001", button(MenuOptionRegistration)); err != nil {
		t.Fatal(err)
	}

	// "2" mid-flow is an answer to the name question, not a shortcut.
	if _, err := r.Route(ctx, "100000001", freeText("2")); err != nil {
		t.Fatal(err)
	}
	sess, _ := store.Get(ctx, "100000001")
	if sess == nil || sess.Mode != models.ModeRegistration {
		t.Fatalf("shortcut hijacked an active flow: %+v", sess)
	}
	if sess.Fields["name"] != "2" {
		t.Errorf("expected %q recorded as the name answer, got %v", "2", sess.Fields)
	}
}

func TestRouter_UnknownTextWithoutSessionShowsMenu(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()

	outs, err := r.Route(ctx, "100000001", freeText("hello there"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 || outs[0].Kind != models.OutboundMenu {
		t.Fatalf("expected menu, got %+v", outs)
	}
	if sess, _ := store.Get(ctx, "100000001"); sess != nil {
		t.Errorf("free text started a flow: %+v", sess)
	}
}

func TestRouter_UnknownButtonWithoutSessionShowsMenu(t *testing.T) {
	r, _ := newTestRouter(&mockGenAI{})
	ctx := context.Background()

	outs, err := r.Route(ctx, "100000001", button("bogus_id"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 || outs[0].Kind != models.OutboundMenu {
		t.Fatalf("expected menu fallback, got %+v", outs)
	}
}

func TestRouter_ScriptedFlowScenario(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()
	userID := "100000001"

	// "1" with no session starts the registration flow.
	outs, err := r.Route(ctx, userID, freeText("1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected one prompt, got %+v", outs)
	}

	// Empty answer re-emits the same field's prompt, state unchanged.
	outs, err = r.Route(ctx, userID, freeText(""))
	if err != nil {
		t.Fatal(err)
	}
	sess, _ := store.Get(ctx, userID)
	if sess.Step != StepRegistrationName {
		t.Errorf("empty answer advanced the step: %v", sess.Step)
	}
	if len(outs) != 1 || outs[0].Kind != models.OutboundText {
		t.Fatalf("expected re-prompt, got %+v", outs)
	}

	// Valid answer advances.
	if _, err = r.Route(ctx, userID, freeText("Ada Lovelace")); err != nil {
		t.Fatal(err)
	}
	sess, _ = store.Get(ctx, userID)
	if sess.Step != StepRegistrationEmail {
		t.Errorf("valid answer did not advance: %v", sess.Step)
	}
}

func TestRouter_TerminalDeletesSession(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()
	userID := "100000002"

	if _, err := r.Route(ctx, userID, button(MenuOptionSupport)); err != nil {
		t.Fatal(err)
	}
	for _, a := range []string{"billing", "double charge"} {
		if _, err := r.Route(ctx, userID, freeText(a)); err != nil {
			t.Fatal(err)
		}
	}
	outs, err := r.Route(ctx, userID, button("support_urgent_no"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected terminal messages, got %+v", outs)
	}
	if sess, _ := store.Get(ctx, userID); sess != nil {
		t.Errorf("session survived terminal: %+v", sess)
	}
}

func TestRouter_AssistantForwardsToBackend(t *testing.T) {
	client := &mockGenAI{reply: "Hi Ada!"}
	r, store := newTestRouter(client)
	ctx := context.Background()
	userID := "100000003"

	if _, err := r.Route(ctx, userID, button(MenuOptionAssistant)); err != nil {
		t.Fatal(err)
	}
	outs, err := r.Route(ctx, userID, freeText("hello"))
	if err != nil {
		t.Fatal(err)
	}

	if client.calls != 1 {
		t.Errorf("expected exactly one backend call, got %d", client.calls)
	}
	if client.lastUser != "hello" || client.persona != AssistantPersona {
		t.Errorf("backend called with (%q, %q)", client.persona, client.lastUser)
	}
	if len(outs) != 1 || outs[0].Body != "Hi Ada!" {
		t.Fatalf("expected the backend reply, got %+v", outs)
	}
	sess, _ := store.Get(ctx, userID)
	if sess == nil || sess.Mode != models.ModeAssistant {
		t.Errorf("assistant session lost: %+v", sess)
	}
}

func TestRouter_AssistantBackendFailureApologizes(t *testing.T) {
	client := &mockGenAI{err: models.ErrBackendUnavailable}
	r, store := newTestRouter(client)
	ctx := context.Background()
	userID := "100000003"

	if _, err := r.Route(ctx, userID, button(MenuOptionAssistant)); err != nil {
		t.Fatal(err)
	}
	outs, err := r.Route(ctx, userID, freeText("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 || outs[0].Body != ApologyMessage {
		t.Fatalf("expected apology, got %+v", outs)
	}
	sess, _ := store.Get(ctx, userID)
	if sess == nil || sess.Mode != models.ModeAssistant {
		t.Errorf("backend failure evicted the session: %+v", sess)
	}
}

func TestRouter_AssistantNonTextFallback(t *testing.T) {
	client := &mockGenAI{reply: "should not be used"}
	r, _ := newTestRouter(client)
	ctx := context.Background()
	userID := "100000003"

	if _, err := r.Route(ctx, userID, button(MenuOptionAssistant)); err != nil {
		t.Fatal(err)
	}
	outs, err := r.Route(ctx, userID, models.Signal{Kind: models.SignalUnrecognized})
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 1 || outs[0].Body != CapabilityFallbackMessage {
		t.Fatalf("expected capability fallback, got %+v", outs)
	}
	if client.calls != 0 {
		t.Errorf("backend called for non-text signal")
	}
}

func TestRouter_MenuButtonOverridesActiveFlow(t *testing.T) {
	r, store := newTestRouter(&mockGenAI{})
	ctx := context.Background()
	userID := "100000004"

	if _, err := r.Route(ctx, userID, button(MenuOptionAssistant)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Route(ctx, userID, button(MenuOptionSupport)); err != nil {
		t.Fatal(err)
	}
	sess, _ := store.Get(ctx, userID)
	if sess == nil || sess.Mode != models.ModeSupport || sess.Step != StepSupportSubject {
		t.Errorf("menu button did not restart flow: %+v", sess)
	}
	if len(sess.Fields) != 0 {
		t.Errorf("restart kept stale fields: %v", sess.Fields)
	}
}
