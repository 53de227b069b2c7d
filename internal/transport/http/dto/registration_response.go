package dto

import (
	"time"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/domain"
)

type RegistrationView struct {
	ID               string       `json:"id"`
	State            string       `json:"state"`
	FullName         string       `json:"fullName,omitempty"`
	Company          string       `json:"company,omitempty"`
	Email            string       `json:"email,omitempty"`
	ExpiresAt        *time.Time   `json:"expiresAt,omitempty"`
	ExpiresInSeconds int64        `json:"expiresInSeconds"`
	Notice           string       `json:"notice,omitempty"`
	DeliveryWarning  string       `json:"deliveryWarning,omitempty"`
	Account          *AccountView `json:"account,omitempty"`
}

type AccountView struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Company    string    `json:"company"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewAccountView(a domain.AccountRecord) AccountView {
	return AccountView{
		ID:         a.ID,
		FullName:   a.FullName,
		Company:    a.Company,
		Email:      a.Email,
		Role:       string(a.Role),
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt,
	}
}

func NewRegistrationView(v registration.View) RegistrationView {
	out := RegistrationView{
		ID:               v.ID,
		State:            string(v.State),
		FullName:         v.FullName,
		Company:          v.Company,
		Email:            v.Email,
		ExpiresAt:        v.ExpiresAt,
		ExpiresInSeconds: v.ExpiresInSeconds,
		Notice:           v.Notice,
		DeliveryWarning:  v.DeliveryWarning,
	}
	if v.Account != nil {
		a := NewAccountView(*v.Account)
		out.Account = &a
	}
	return out
}

type FieldUpdateView struct {
	Field     string                          `json:"field"`
	Value     string                          `json:"value,omitempty"`
	Error     string                          `json:"error,omitempty"`
	Checklist *registration.PasswordChecklist `json:"checklist,omitempty"`
}

func NewFieldUpdateView(u registration.FieldUpdate) FieldUpdateView {
	return FieldUpdateView{Field: u.Field, Value: u.Value, Error: u.Error, Checklist: u.Checklist}
}

type PasswordCheckView struct {
	Checklist registration.PasswordChecklist `json:"checklist"`
	OK        bool                           `json:"ok"`
}

type SessionView struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	AdminUser       AccountView `json:"adminUser"`
}

func NewSessionView(m domain.SessionMarker) SessionView {
	return SessionView{IsAuthenticated: m.Authenticated, AdminUser: NewAccountView(m.Account)}
}

type VerifyView struct {
	Registration RegistrationView `json:"registration"`
	Session      SessionView      `json:"session"`
}
