package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/chibbonta/Wchat/internal/flow"
	"github.com/chibbonta/Wchat/internal/models"
	"github.com/chibbonta/Wchat/internal/session"
)

// recordingResponder captures outbound sends, optionally failing them.
type recordingResponder struct {
	mu    sync.Mutex
	sends []models.Outbound
	err   error
}

func (r *recordingResponder) record(out models.Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sends = append(r.sends, out)
	return nil
}

func (r *recordingResponder) SendText(ctx context.Context, to, body string) error {
	return r.record(models.Text(to, body))
}

func (r *recordingResponder) SendMenu(ctx context.Context, to, prompt string, options []models.MenuOption) error {
	return r.record(models.Menu(to, prompt, options))
}

func (r *recordingResponder) SendYesNo(ctx context.Context, to, prompt, yesID, noID string) error {
	return r.record(models.YesNo(to, prompt, yesID, noID))
}

func (r *recordingResponder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sends)
}

type stubGenAI struct{}

func (stubGenAI) Generate(ctx context.Context, persona, utterance string) (string, error) {
	return "stub reply", nil
}

func newTestDispatcher(responder *recordingResponder) (*Dispatcher, session.Store) {
	store := session.NewInMemoryStore()
	optionMode := map[string]models.Mode{
		flow.MenuOptionRegistration: models.ModeRegistration,
		flow.MenuOptionSupport:      models.ModeSupport,
		flow.MenuOptionAssistant:    models.ModeAssistant,
	}
	router := flow.NewRouter(store, flow.MainMenu(), flow.MenuPrompt, optionMode,
		flow.NewRegistrationFlow(),
		flow.NewSupportTicketFlow(),
		flow.NewAssistantFlow(stubGenAI{}, flow.AssistantPersona),
	)
	return NewDispatcher(router, responder), store
}

func TestDispatch_MalformedEventDropped(t *testing.T) {
	responder := &recordingResponder{}
	d, _ := newTestDispatcher(responder)

	d.Dispatch(context.Background(), models.Event{Kind: models.MessageKindText, Text: "hello"})

	if responder.count() != 0 {
		t.Errorf("malformed event produced %d sends", responder.count())
	}
}

func TestDispatch_ResetKeywordSendsMenu(t *testing.T) {
	responder := &recordingResponder{}
	d, _ := newTestDispatcher(responder)

	d.Dispatch(context.Background(), models.Event{From: "15551234567", Kind: models.MessageKindText, Text: "menu"})

	if responder.count() != 1 {
		t.Fatalf("expected one send, got %d", responder.count())
	}
	if responder.sends[0].Kind != models.OutboundMenu {
		t.Errorf("expected menu, got %+v", responder.sends[0])
	}
}

func TestDispatch_SendFailureDoesNotRollBackState(t *testing.T) {
	responder := &recordingResponder{err: errors.New("transport down")}
	d, store := newTestDispatcher(responder)
	ctx := context.Background()

	d.Dispatch(ctx, models.Event{From: "15551234567", Kind: models.MessageKindButton, ButtonID: flow.MenuOptionRegistration})

	sess, err := store.Get(ctx, "15551234567")
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil || sess.Mode != models.ModeRegistration {
		t.Errorf("state rolled back on send failure: %+v", sess)
	}
}

func TestDispatch_SameUserEventsSerialized(t *testing.T) {
	responder := &recordingResponder{}
	d, store := newTestDispatcher(responder)
	ctx := context.Background()
	userID := "15551234567"

	d.Dispatch(ctx, models.Event{From: userID, Kind: models.MessageKindButton, ButtonID: flow.MenuOptionRegistration})

	// Concurrent answers to the same question: exactly one may advance the
	// step and write the field; the rest must observe the advanced state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(ctx, models.Event{From: userID, Kind: models.MessageKindText, Text: "Ada Lovelace"})
		}()
	}
	wg.Wait()

	sess, err := store.Get(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil {
		t.Fatal("session lost")
	}
	// First answer fills the name, the next ones hit the email question and
	// fail its validator ("Ada Lovelace" is not email-shaped), so the step
	// can only have advanced exactly once.
	if sess.Step != flow.StepRegistrationEmail {
		t.Errorf("serialization violated, step = %v", sess.Step)
	}
	if sess.Fields["name"] != "Ada Lovelace" {
		t.Errorf("name not recorded: %v", sess.Fields)
	}
}

func TestDispatch_AssistantReplyDelivered(t *testing.T) {
	responder := &recordingResponder{}
	d, _ := newTestDispatcher(responder)
	ctx := context.Background()

	d.Dispatch(ctx, models.Event{From: "15551234567", Kind: models.MessageKindButton, ButtonID: flow.MenuOptionAssistant})
	d.Dispatch(ctx, models.Event{From: "15551234567", Kind: models.MessageKindText, Text: "hi"})

	var sawReply bool
	responder.mu.Lock()
	for _, out := range responder.sends {
		if strings.Contains(out.Body, "stub reply") {
			sawReply = true
		}
	}
	responder.mu.Unlock()
	if !sawReply {
		t.Errorf("assistant reply not delivered: %+v", responder.sends)
	}
}
