package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type RegistrationHandler interface {
	Start(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	UpdateField(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	Resend(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	Abandon(w http.ResponseWriter, r *http.Request)
	PasswordCheck(w http.ResponseWriter, r *http.Request)
}

type SessionHandler interface {
	Session(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type ConfigCheckHandler interface {
	ConfigCheck(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	RequestIDMW func(http.Handler) http.Handler
	MetricsMW   func(http.Handler) http.Handler

	Health       HealthHandler
	Registration RegistrationHandler
	Session      SessionHandler
	ConfigCheck  ConfigCheckHandler

	// Metrics serves /metrics; omitted when nil.
	Metrics http.Handler

	// Rate limits; nil means unlimited.
	RLStart  func(http.Handler) http.Handler
	RLSubmit func(http.Handler) http.Handler
	RLResend func(http.Handler) http.Handler
	RLVerify func(http.Handler) http.Handler
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Registration == nil {
		return nil, fmt.Errorf("nil Registration handler")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("nil Session handler")
	}
	if deps.ConfigCheck == nil {
		return nil, fmt.Errorf("nil ConfigCheck handler")
	}

	r := chi.NewRouter()
	if deps.RequestIDMW != nil {
		r.Use(deps.RequestIDMW)
	}
	if deps.MetricsMW != nil {
		r.Use(deps.MetricsMW)
	}
	r.Use(chimw.Recoverer)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/admin/v1", func(r chi.Router) {
		// --- Registration workflow ---
		r.With(optional(deps.RLStart)...).Post("/registrations", deps.Registration.Start)
		r.Route("/registrations/{id}", func(r chi.Router) {
			r.Get("/", deps.Registration.Get)
			r.Delete("/", deps.Registration.Abandon)
			r.Patch("/fields", deps.Registration.UpdateField)
			r.With(optional(deps.RLSubmit)...).Post("/submit", deps.Registration.Submit)
			r.With(optional(deps.RLResend)...).Post("/resend", deps.Registration.Resend)
			r.With(optional(deps.RLVerify)...).Post("/verify", deps.Registration.Verify)
		})

		r.Post("/password/check", deps.Registration.PasswordCheck)

		// --- Session (dashboard guard) ---
		r.Get("/session", deps.Session.Session)
		r.Post("/logout", deps.Session.Logout)

		r.Get("/config/check", deps.ConfigCheck.ConfigCheck)
	})

	return r, nil
}

func optional(mws ...func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}
