package dto

import (
	"strings"

	"github.com/baechuer/admin-portal/internal/domain"
)

type UpdateFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (r *UpdateFieldRequest) Validate() error {
	r.Field = strings.TrimSpace(r.Field)
	if r.Field == "" {
		return domain.ErrMissingField("field")
	}
	return nil
}

// SubmitRequest may be empty, in which case the fields stored through
// UpdateField are submitted as they are.
type SubmitRequest struct {
	FullName        *string `json:"fullName,omitempty"`
	Company         *string `json:"company,omitempty"`
	Email           *string `json:"email,omitempty"`
	Password        *string `json:"password,omitempty"`
	ConfirmPassword *string `json:"confirmPassword,omitempty"`
}

// Fields returns only the fields present in the body, keyed by form field
// name. Absent fields keep their stored values.
func (r *SubmitRequest) Fields() map[string]string {
	out := map[string]string{}
	for name, v := range map[string]*string{
		domain.FieldFullName:        r.FullName,
		domain.FieldCompany:         r.Company,
		domain.FieldEmail:           r.Email,
		domain.FieldPassword:        r.Password,
		domain.FieldConfirmPassword: r.ConfirmPassword,
	} {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

type VerifyRequest struct {
	Code string `json:"code"`
}

type PasswordCheckRequest struct {
	Password string `json:"password"`
}
