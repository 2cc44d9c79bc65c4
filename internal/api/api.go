// Package api exposes the webhook intake surface for Wchat.
//
// The webhook handler acknowledges receipt immediately and hands the event
// to the dispatcher, so a slow flow transition or generative call can never
// make the upstream platform retry the event.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/chibbonta/Wchat/internal/dispatch"
	"github.com/chibbonta/Wchat/internal/models"
)

// DefaultAddr is the default listen address for the intake server.
const DefaultAddr = ":8080"

// Server hosts the webhook intake endpoints.
type Server struct {
	dispatcher *dispatch.Dispatcher
	httpServer *http.Server
}

// NewServer creates the intake server over the given dispatcher.
func NewServer(dispatcher *dispatch.Dispatcher) *Server {
	return &Server{dispatcher: dispatcher}
}

// Start begins serving on addr. It returns when the listener fails or the
// server is shut down.
func (s *Server) Start(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler(ctx))
	mux.HandleFunc("/healthz", s.healthHandler)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	slog.Info("API server listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// webhookHandler parses one inbound event and acknowledges it before
// processing. Events failing basic validation are acknowledged and dropped
// so the platform does not retry them.
func (s *Server) webhookHandler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONResponse(w, http.StatusMethodNotAllowed, Error("method not allowed"))
			return
		}

		var evt models.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			slog.Debug("Server.webhookHandler: invalid payload", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, Error("invalid event payload"))
			return
		}

		// Acknowledge first; the dispatcher finishes the event on its own.
		s.dispatcher.Enqueue(ctx, evt)
		writeJSONResponse(w, http.StatusAccepted, Ok("accepted"))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, Error("method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, Ok("healthy"))
}
