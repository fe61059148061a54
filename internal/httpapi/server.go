package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/calliope-studio/portal/internal/service"
	"github.com/go-chi/chi/v5"
)

// Server owns the REST surface over the trigger-adapter services.
type Server struct {
	projects     service.ProjectService
	requirements service.RequirementService
	forms        service.FormService
	webhooks     service.PaymentWebhookService

	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
	log           *slog.Logger
}

// Config carries the server's non-service inputs. WebhookSecret is required:
// an unverifiable payment endpoint must never come up.
type Config struct {
	WebhookSecret      string
	SignatureTolerance time.Duration
	Logger             *slog.Logger
}

func NewServer(
	cfg Config,
	projects service.ProjectService,
	requirements service.RequirementService,
	forms service.FormService,
	webhooks service.PaymentWebhookService,
) (*Server, error) {
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("webhook signing secret is required")
	}
	if cfg.SignatureTolerance <= 0 {
		cfg.SignatureTolerance = DefaultSignatureTolerance
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		projects:      projects,
		requirements:  requirements,
		forms:         forms,
		webhooks:      webhooks,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     cfg.SignatureTolerance,
		now:           func() time.Time { return time.Now().UTC() },
		log:           cfg.Logger,
	}, nil
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(WithActor)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/projects", func(api chi.Router) {
		api.Post("/", s.handleCreateProject)
		api.Get("/", s.handleListProjects)
		api.Get("/{id}", s.handleGetProject)
		api.Post("/{id}/archive", s.handleArchiveProject)
		api.Get("/{id}/phases", s.handleGetPhaseState)
		api.Get("/{id}/requirements", s.handleProjectRequirements)
		api.Get("/{id}/forms", s.handleListForms)
		api.Post("/{id}/phases/check-advancement", s.handleCheckAdvancement)
	})

	r.Route("/phases", func(api chi.Router) {
		api.Get("/requirements/{phaseKey}", s.handlePhaseRequirements)
		api.Post("/projects/{id}/requirements/{reqId}", s.handleToggleRequirement)
	})

	r.Post("/forms/submit", s.handleFormSubmit)
	r.Post("/webhooks/payment", s.handlePaymentWebhook)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}
