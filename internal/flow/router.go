package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/chibbonta/Wchat/internal/models"
	"github.com/chibbonta/Wchat/internal/session"
)

// Router decides, for every inbound signal, which flow owns the
// conversation and applies that flow's transition. It owns the
// read-modify-write against the session store.
type Router struct {
	store      session.Store
	menu       []models.MenuOption
	menuPrompt string
	flows      map[models.Mode]Flow
	optionMode map[string]models.Mode
}

// NewRouter creates a router over the given store, menu, and flows.
// The i-th menu option must be started by the flow registered for it; the
// menu order also defines the pre-session numeric shortcuts.
func NewRouter(store session.Store, menu []models.MenuOption, menuPrompt string, optionMode map[string]models.Mode, flows ...Flow) *Router {
	r := &Router{
		store:      store,
		menu:       menu,
		menuPrompt: menuPrompt,
		flows:      make(map[models.Mode]Flow, len(flows)),
		optionMode: optionMode,
	}
	for _, fl := range flows {
		r.flows[fl.Mode()] = fl
	}
	return r
}

// Route applies one canonical signal for a user and returns the outbound
// messages to send. All recoverable conditions (unknown buttons, invalid
// answers, backend failures) resolve to a user-visible message; an error
// return means the session store itself failed.
func (r *Router) Route(ctx context.Context, userID string, sig models.Signal) ([]models.Outbound, error) {
	// Reset keyword short-circuits everything, idempotently.
	if IsReset(sig) {
		slog.Debug("Router reset keyword received", "userID", userID)
		if err := r.store.Delete(ctx, userID); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return []models.Outbound{r.menuMessage(userID)}, nil
	}

	// A top-level menu button always (re)starts its flow, even mid-flow.
	if sig.Kind == models.SignalButton {
		if mode, ok := r.optionMode[sig.ButtonID]; ok {
			return r.startFlow(ctx, userID, mode)
		}
	}

	sess, err := r.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess == nil || sess.Mode == models.ModeUnset {
		return r.routeWithoutSession(ctx, userID, sig)
	}

	return r.delegate(ctx, sess, sig)
}

// routeWithoutSession handles signals from users with no active flow:
// numeric shortcuts start a flow, everything else presents the menu.
func (r *Router) routeWithoutSession(ctx context.Context, userID string, sig models.Signal) ([]models.Outbound, error) {
	if sig.Kind == models.SignalFreeText {
		if idx, ok := r.shortcutIndex(sig.Text); ok {
			mode := r.optionMode[r.menu[idx].ID]
			slog.Debug("Router numeric shortcut matched", "userID", userID, "shortcut", sig.Text, "mode", mode)
			return r.startFlow(ctx, userID, mode)
		}
	}

	// Unknown buttons, unmatched text, and unrecognized payloads all fall
	// back to the menu; nothing here may crash the router.
	slog.Debug("Router presenting menu", "userID", userID, "signal", sig.Kind)
	return []models.Outbound{r.menuMessage(userID)}, nil
}

// delegate hands the signal to the active flow and persists the outcome.
func (r *Router) delegate(ctx context.Context, sess *models.Session, sig models.Signal) ([]models.Outbound, error) {
	fl, ok := r.flows[sess.Mode]
	if !ok {
		// A mode with no registered flow means the deployment changed
		// underneath a live session; drop it and show the menu.
		slog.Warn("Router no flow for session mode", "userID", sess.UserID, "mode", sess.Mode)
		if err := r.store.Delete(ctx, sess.UserID); err != nil {
			return nil, fmt.Errorf("clear stale session: %w", err)
		}
		return []models.Outbound{r.menuMessage(sess.UserID)}, nil
	}

	outs, err := fl.Advance(ctx, sess, sig)
	if err != nil {
		return nil, fmt.Errorf("flow %s advance: %w", sess.Mode, err)
	}

	if sess.Terminal() {
		slog.Info("Router flow reached terminal, clearing session", "userID", sess.UserID)
		if err := r.store.Delete(ctx, sess.UserID); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		return outs, nil
	}

	if err := r.store.Set(ctx, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return outs, nil
}

// startFlow starts the flow registered for a mode and persists its fresh session.
func (r *Router) startFlow(ctx context.Context, userID string, mode models.Mode) ([]models.Outbound, error) {
	fl, ok := r.flows[mode]
	if !ok {
		slog.Error("Router menu option has no registered flow", "userID", userID, "mode", mode)
		return []models.Outbound{r.menuMessage(userID)}, nil
	}

	sess, outs := fl.Start(ctx, userID)
	if err := r.store.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	slog.Info("Router flow started", "userID", userID, "mode", mode, "step", sess.Step)
	return outs, nil
}

// shortcutIndex maps single-digit free text positionally onto the menu.
// Shortcuts are honored only before a session exists.
func (r *Router) shortcutIndex(text string) (int, bool) {
	if len(text) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(r.menu) {
		return 0, false
	}
	return n - 1, true
}

func (r *Router) menuMessage(userID string) models.Outbound {
	return models.Menu(userID, r.menuPrompt, r.menu)
}
