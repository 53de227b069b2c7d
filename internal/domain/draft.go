package domain

import "strings"

// Draft field names as used by the registration form.
const (
	FieldFullName        = "fullName"
	FieldCompany         = "company"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// DraftFields lists the form fields in display order.
var DraftFields = []string{FieldFullName, FieldCompany, FieldEmail, FieldPassword, FieldConfirmPassword}

// RegistrationDraft is the form being filled in. It lives only as long as the
// registration it belongs to.
type RegistrationDraft struct {
	FullName        string `json:"fullName"`
	Company         string `json:"company"`
	Email           string `json:"email"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// Sanitize strips angle brackets and surrounding whitespace.
func Sanitize(v string) string {
	v = strings.NewReplacer("<", "", ">", "").Replace(v)
	return strings.TrimSpace(v)
}

// IsDraftField reports whether name is one of the form fields.
func IsDraftField(name string) bool {
	for _, f := range DraftFields {
		if f == name {
			return true
		}
	}
	return false
}

// Set sanitizes value and stores it under field. It returns the stored value.
func (d *RegistrationDraft) Set(field, value string) (string, error) {
	clean := Sanitize(value)
	switch field {
	case FieldFullName:
		d.FullName = clean
	case FieldCompany:
		d.Company = clean
	case FieldEmail:
		d.Email = clean
	case FieldPassword:
		d.Password = clean
	case FieldConfirmPassword:
		d.ConfirmPassword = clean
	default:
		return "", ErrInvalidField(field, "unknown field")
	}
	return clean, nil
}

// Get returns the stored value of field.
func (d RegistrationDraft) Get(field string) string {
	switch field {
	case FieldFullName:
		return d.FullName
	case FieldCompany:
		return d.Company
	case FieldEmail:
		return d.Email
	case FieldPassword:
		return d.Password
	case FieldConfirmPassword:
		return d.ConfirmPassword
	}
	return ""
}

// ForgetSecrets clears the clear-text password fields once they have been hashed.
func (d *RegistrationDraft) ForgetSecrets() {
	d.Password = ""
	d.ConfirmPassword = ""
}

// NormalizeEmail is the canonical form used for uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
