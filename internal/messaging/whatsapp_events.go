package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/chibbonta/Wchat/internal/models"
	"github.com/chibbonta/Wchat/internal/whatsapp"
	"go.mau.fi/whatsmeow/types/events"
)

// Constants for event source configuration
const (
	// DefaultChannelBufferSize defines the buffer size for the event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the timeout for non-blocking channel sends
	DefaultChannelTimeout = 1 * time.Second
)

// WhatsAppEventSource converts incoming whatsmeow events into inbound
// events for the dispatcher.
type WhatsAppEventSource struct {
	waClient *whatsapp.Client
	events   chan models.Event
	done     chan struct{}
}

// NewWhatsAppEventSource creates an event source over the given client.
func NewWhatsAppEventSource(client *whatsapp.Client) *WhatsAppEventSource {
	return &WhatsAppEventSource{
		waClient: client,
		events:   make(chan models.Event, DefaultChannelBufferSize),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of converted inbound events.
func (s *WhatsAppEventSource) Events() <-chan models.Event {
	return s.events
}

// Start registers the whatsmeow event handler and blocks a goroutine on
// the context. Only message events are converted; receipts and presence
// updates are ignored.
func (s *WhatsAppEventSource) Start(ctx context.Context) error {
	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Debug("WhatsAppEventSource no client available, skipping event handling")
		return nil
	}

	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		if msg, ok := evt.(*events.Message); ok {
			s.handleIncomingMessage(msg)
		}
	})
	slog.Debug("WhatsAppEventSource event handler registered")

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		slog.Debug("WhatsAppEventSource stopping")
	}()
	return nil
}

// Stop stops event processing and closes the event channel.
func (s *WhatsAppEventSource) Stop() error {
	slog.Info("WhatsAppEventSource Stop invoked")
	close(s.done)
	close(s.events)
	return nil
}

// handleIncomingMessage converts one whatsmeow message into an inbound
// event. Text bodies and interactive button replies are supported; every
// other payload becomes MessageKindOther so the router can answer with its
// capability fallback.
func (s *WhatsAppEventSource) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil {
		return
	}

	event := models.Event{
		From: evt.Info.Sender.User,
		Time: evt.Info.Timestamp.Unix(),
	}

	switch {
	case evt.Message.GetConversation() != "":
		event.Kind = models.MessageKindText
		event.Text = evt.Message.GetConversation()
	case evt.Message.GetExtendedTextMessage().GetText() != "":
		event.Kind = models.MessageKindText
		event.Text = evt.Message.GetExtendedTextMessage().GetText()
	case evt.Message.GetButtonsResponseMessage().GetSelectedButtonID() != "":
		event.Kind = models.MessageKindButton
		event.ButtonID = evt.Message.GetButtonsResponseMessage().GetSelectedButtonID()
	case evt.Message.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID() != "":
		event.Kind = models.MessageKindButton
		event.ButtonID = evt.Message.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID()
	default:
		event.Kind = models.MessageKindOther
	}

	slog.Debug("WhatsAppEventSource incoming message", "from", event.From, "kind", event.Kind)

	select {
	case s.events <- event:
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppEventSource events channel blocked, dropping message", "from", event.From, "timeout", DefaultChannelTimeout)
	}
}
