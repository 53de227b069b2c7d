package registration

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/admin-portal/internal/domain"
)

// ErrorMap maps a form field to the message shown next to it.
// An empty map means the draft is valid.
type ErrorMap map[string]string

// MinPasswordLength is the minimum password length in characters.
const MinPasswordLength = 8

// PasswordSymbols is the punctuation set that satisfies the symbol rule.
const PasswordSymbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report json names so errors key by form field
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
		return CheckPassword(fl.Field().String()).OK()
	})
}

type draftRules struct {
	FullName        string `json:"fullName" validate:"required"`
	Company         string `json:"company" validate:"required"`
	Email           string `json:"email" validate:"required,email_shape"`
	Password        string `json:"password" validate:"required,password_policy"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

var requiredMessages = map[string]string{
	domain.FieldFullName:        "Full name is required",
	domain.FieldCompany:         "Company is required",
	domain.FieldEmail:           "Email is required",
	domain.FieldPassword:        "Password is required",
	domain.FieldConfirmPassword: "Please confirm your password",
}

// Validate checks presence, email shape, password strength and confirmation.
// It has no side effects.
func Validate(d domain.RegistrationDraft) ErrorMap {
	errs := ErrorMap{}

	err := validate.Struct(draftRules{
		FullName:        d.FullName,
		Company:         d.Company,
		Email:           d.Email,
		Password:        d.Password,
		ConfirmPassword: d.ConfirmPassword,
	})
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["form"] = "invalid form"
		return errs
	}

	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = messageFor(field, fe.Tag())
	}
	return errs
}

func messageFor(field, tag string) string {
	switch tag {
	case "required":
		return requiredMessages[field]
	case "email_shape":
		return "invalid email"
	case "password_policy":
		return "password does not meet requirements"
	case "eqfield":
		return "passwords do not match"
	default:
		return field + " is invalid"
	}
}

// PasswordChecklist is the per-rule state of a password, for live feedback.
type PasswordChecklist struct {
	MinLength bool `json:"minLength"`
	Uppercase bool `json:"uppercase"`
	Lowercase bool `json:"lowercase"`
	Digit     bool `json:"digit"`
	Symbol    bool `json:"symbol"`
}

// OK reports whether every rule passes.
func (c PasswordChecklist) OK() bool {
	return c.MinLength && c.Uppercase && c.Lowercase && c.Digit && c.Symbol
}

// CheckPassword evaluates each strength rule independently.
func CheckPassword(pw string) PasswordChecklist {
	c := PasswordChecklist{MinLength: utf8.RuneCountInString(pw) >= MinPasswordLength}
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			c.Uppercase = true
		case r >= 'a' && r <= 'z':
			c.Lowercase = true
		case r >= '0' && r <= '9':
			c.Digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			c.Symbol = true
		}
	}
	return c
}
