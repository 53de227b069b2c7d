package http_handlers

import (
	"net/http"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/domain"
	"github.com/baechuer/admin-portal/internal/infrastructure/security"
	"github.com/baechuer/admin-portal/internal/transport/http/dto"
	"github.com/baechuer/admin-portal/internal/transport/http/response"
)

type SessionHandler struct {
	svc           *registration.Service
	secureCookies bool
}

func NewSessionHandler(svc *registration.Service, secureCookies bool) *SessionHandler {
	return &SessionHandler{svc: svc, secureCookies: secureCookies}
}

// Session handles GET /admin/v1/session, the dashboard access guard.
func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	id, err := security.ReadSession(r)
	if err != nil || id == "" {
		response.WriteError(w, r, domain.ErrSessionNotFound())
		return
	}

	m, err := h.svc.Session(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewSessionView(m))
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := security.ReadSession(r)
	if err := h.svc.Logout(r.Context(), id); err != nil {
		response.WriteError(w, r, err)
		return
	}
	security.ClearSession(w, h.secureCookies)
	response.NoContent(w)
}
