package http_handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/infrastructure/security"
	"github.com/baechuer/admin-portal/internal/logger"
	"github.com/baechuer/admin-portal/internal/transport/http/dto"
	"github.com/baechuer/admin-portal/internal/transport/http/response"
)

type RegistrationHandler struct {
	svc           *registration.Service
	sessionTTL    time.Duration
	secureCookies bool
}

func NewRegistrationHandler(svc *registration.Service, sessionTTL time.Duration, secureCookies bool) *RegistrationHandler {
	return &RegistrationHandler{
		svc:           svc,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Start(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.NewRegistrationView(v))
}

func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewRegistrationView(v))
}

func (h *RegistrationHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateFieldRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.UpdateField(r.Context(), chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewFieldUpdateView(u))
}

func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitRequest
	// an empty body submits the fields stored so far
	if r.ContentLength != 0 {
		if err := response.DecodeJSON(w, r, &req); err != nil {
			response.WriteError(w, r, err)
			return
		}
	}

	id := chi.URLParam(r, "id")
	v, err := h.svc.Submit(r.Context(), id, req.Fields())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("registration_id", id).
		Str("state", string(v.State)).
		Bool("delivery_warning", v.DeliveryWarning != "").
		Msg("registration_submitted")

	response.OK(w, dto.NewRegistrationView(v))
}

func (h *RegistrationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Resend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewRegistrationView(v))
}

func (h *RegistrationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Verify(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("registration_id", res.View.ID).
		Str("account_id", res.Account.ID).
		Msg("admin_registered")

	security.SetSession(w, res.Session.ID, h.sessionTTL, h.secureCookies)

	response.OK(w, dto.VerifyView{
		Registration: dto.NewRegistrationView(res.View),
		Session:      dto.NewSessionView(res.Session),
	})
}

func (h *RegistrationHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}

// PasswordCheck is the live strength checklist; nothing is stored.
func (h *RegistrationHandler) PasswordCheck(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordCheckRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	c := registration.CheckPassword(req.Password)
	response.OK(w, dto.PasswordCheckView{Checklist: c, OK: c.OK()})
}
