package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/joho/godotenv/autoload"

	"github.com/telecrm/helpdesk-sso/internal/http/handlers"
	mw "github.com/telecrm/helpdesk-sso/internal/http/middleware"
	"github.com/telecrm/helpdesk-sso/internal/platform/auth"
	"github.com/telecrm/helpdesk-sso/internal/platform/mailer"
	"github.com/telecrm/helpdesk-sso/internal/store"
	"github.com/telecrm/helpdesk-sso/internal/verification"
	"github.com/telecrm/helpdesk-sso/internal/zendesk"
	"github.com/telecrm/helpdesk-sso/pkg/config"
	"github.com/telecrm/helpdesk-sso/pkg/events"
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := newStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var eventBus events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		eventBus = bus
	}

	var mail mailer.Service = mailer.NewDevMailer()
	if !cfg.Email.DevMode && cfg.Email.MailerSendKey != "" {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	ledger := verification.New(st, cfg.Auth.Verifiers, cfg.Auth.VerificationTTL, eventBus)
	sessions := auth.NewSessions(st, cfg.Auth.SessionTTL, !cfg.DevMode, cfg.Auth.AllowUnverifiedEmail)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Zendesk.SSOURL, cfg.Auth.TokenTTL)
	tickets := zendesk.NewClient(cfg.Zendesk.APIURL, cfg.Zendesk.Email, cfg.Zendesk.APIToken)

	h := handlers.New(cfg, ledger, sessions, issuer, tickets, mail)

	limiter := mw.NewRateLimiter(st, mw.RateLimitConfig{
		Requests: 30,
		Window:   time.Minute,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("helpdesk-sso"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.With(limiter.Middleware()).Get("/public/ticket/{ticketId}", h.TicketPreview)
		r.With(limiter.Middleware()).Post("/request-access", h.RequestAccess)
		r.Get("/verify", h.Verify)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAdminKey(cfg.Admin.KeyHash))
			r.Get("/pending", h.ListPending)
			r.Get("/verified", h.ListVerified)
			r.Delete("/verified/{email}", h.RevokeVerified)
			r.Get("/diagnostics/jwt", h.Diagnostics)
		})
	})

	r.Route("/zendesk", func(r chi.Router) {
		r.Get("/sso", h.SSO)
		r.Post("/authenticate", h.Authenticate)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting helpdesk-sso", "port", cfg.Server.Port, "store", cfg.Store.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedis(cfg.Store.RedisURL, cfg.Store.RedisPass, cfg.Store.RedisDB,
			cfg.Auth.VerificationTTL, cfg.Auth.SessionTTL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.PostgresURL)
	default:
		return store.NewMemory(), nil
	}
}
