package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chibbonta/Wchat/internal/api"
	"github.com/chibbonta/Wchat/internal/dispatch"
	"github.com/chibbonta/Wchat/internal/flow"
	"github.com/chibbonta/Wchat/internal/genai"
	"github.com/chibbonta/Wchat/internal/messaging"
	"github.com/chibbonta/Wchat/internal/models"
	"github.com/chibbonta/Wchat/internal/session"
	"github.com/chibbonta/Wchat/internal/twiliowhatsapp"
	"github.com/chibbonta/Wchat/internal/util"
	"github.com/chibbonta/Wchat/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Transport selects how messages are sent and received.
const (
	TransportWhatsmeow = "whatsmeow"
	TransportTwilio    = "twilio"
)

// Config holds environment configuration
type Config struct {
	Transport        string
	SessionDSN       string
	WhatsAppDSN      string
	OpenAIKey        string
	APIAddr          string
	SupportAssistant bool
}

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()

	qrOutput := flag.String("qr-output", "", "path to write WhatsApp login QR code")
	numericCode := flag.Bool("numeric-code", false, "use numeric WhatsApp login code instead of QR")
	apiAddr := flag.String("api-addr", config.APIAddr, "listen address for the webhook intake API")
	flag.Parse()
	config.APIAddr = *apiAddr

	if err := run(config, *qrOutput, *numericCode); err != nil {
		slog.Error("Wchat failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Wchat exited successfully")
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("WCHAT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	return Config{
		Transport:        util.GetEnvDefault("WCHAT_TRANSPORT", TransportWhatsmeow),
		SessionDSN:       os.Getenv("SESSION_DB_DSN"),
		WhatsAppDSN:      os.Getenv("WHATSAPP_DB_DSN"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		APIAddr:          util.GetEnvDefault("API_ADDR", api.DefaultAddr),
		SupportAssistant: util.ParseBoolEnv("SUPPORT_ASSISTANT", false),
	}
}

// buildSessionStore selects the session backend from the DSN: none for
// in-memory, otherwise SQLite or PostgreSQL by DSN shape.
func buildSessionStore(cfg Config) (session.Store, error) {
	if cfg.SessionDSN == "" {
		slog.Info("No SESSION_DB_DSN set, using in-memory session store")
		return session.NewInMemoryStore(), nil
	}
	if session.DetectDSNType(cfg.SessionDSN) == "postgres" {
		slog.Info("Using PostgreSQL session store")
		return session.NewPostgresStore(session.WithDSN(cfg.SessionDSN))
	}
	slog.Info("Using SQLite session store")
	return session.NewSQLiteStore(session.WithDSN(cfg.SessionDSN))
}

// buildRouter wires the flows behind the top-level menu. The support menu
// option runs either the scripted ticket flow or the generative support
// agent, depending on SUPPORT_ASSISTANT; exactly one is active.
func buildRouter(store session.Store, genaiClient genai.ClientInterface, supportAssistant bool) *flow.Router {
	optionMode := map[string]models.Mode{
		flow.MenuOptionRegistration: models.ModeRegistration,
		flow.MenuOptionSupport:      models.ModeSupport,
		flow.MenuOptionAssistant:    models.ModeAssistant,
	}

	var support flow.Flow
	if supportAssistant {
		slog.Info("Support option configured as generative assistant")
		support = flow.NewSupportAssistantFlow(genaiClient)
	} else {
		slog.Info("Support option configured as scripted ticket flow")
		support = flow.NewSupportTicketFlow()
	}

	return flow.NewRouter(store, flow.MainMenu(), flow.MenuPrompt, optionMode,
		flow.NewRegistrationFlow(),
		support,
		flow.NewAssistantFlow(genaiClient, flow.AssistantPersona),
	)
}

func run(config Config, qrOutput string, numericCode bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildSessionStore(config)
	if err != nil {
		return err
	}

	genaiClient, err := genai.NewClient(genai.WithAPIKey(config.OpenAIKey))
	if err != nil {
		return err
	}

	router := buildRouter(store, genaiClient, config.SupportAssistant)

	var sender messaging.Sender
	var eventSource *messaging.WhatsAppEventSource
	switch config.Transport {
	case TransportTwilio:
		twilioClient, err := twiliowhatsapp.NewClient()
		if err != nil {
			return err
		}
		sender = twilioClient
	default:
		waOpts := []whatsapp.Option{whatsapp.WithDBDSN(config.WhatsAppDSN)}
		if qrOutput != "" {
			waOpts = append(waOpts, whatsapp.WithQRCodeOutput(qrOutput))
		}
		if numericCode {
			waOpts = append(waOpts, whatsapp.WithNumericCode())
		}
		waClient, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return err
		}
		sender = waClient
		eventSource = messaging.NewWhatsAppEventSource(waClient)
	}

	responder := messaging.NewTextResponder(sender)
	dispatcher := dispatch.NewDispatcher(router, responder)

	if eventSource != nil {
		if err := eventSource.Start(ctx); err != nil {
			return err
		}
		defer eventSource.Stop()
		go dispatcher.Run(ctx, eventSource.Events())
	}

	server := api.NewServer(dispatcher)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, config.APIAddr)
	}()

	slog.Info("Wchat running", "transport", config.Transport, "api_addr", config.APIAddr)
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		return server.Stop()
	case err := <-errCh:
		return err
	}
}
