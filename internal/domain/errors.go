package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindDelivery       ErrKind = "delivery"       // 502
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients (avoid leaking sensitive details)
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Field returns the form field the error is scoped to, if any.
func (e *Error) Field() string {
	if e == nil || e.Meta == nil {
		return ""
	}
	return e.Meta["field"]
}

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// KindOf returns the kind of a domain error, or KindInternal for anything else.
func KindOf(err error) ErrKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

// ErrValidationFailed carries the whole field -> message map in Meta.
func ErrValidationFailed(fields map[string]string) *Error {
	meta := make(map[string]string, len(fields))
	for k, v := range fields {
		meta[k] = v
	}
	return WithMeta(New(KindValidation, "validation_failed", "please correct the highlighted fields"), meta)
}

func ErrCodeMismatch() *Error {
	return WithMeta(New(KindValidation, "code_mismatch", "verification code does not match"), map[string]string{
		"field": "code",
	})
}

func ErrCodeExpired() *Error {
	return WithMeta(New(KindValidation, "code_expired", "verification code has expired, request a new one"), map[string]string{
		"field": "code",
	})
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrRegistrationNotFound() *Error {
	return New(KindNotFound, "registration_not_found", "registration not found or expired")
}

func ErrSessionNotFound() *Error {
	return New(KindNotFound, "session_not_found", "session not found")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrEmailAlreadyExists() *Error {
	return WithMeta(New(KindConflict, "email_already_exists", "an account with this email already exists"), map[string]string{
		"field": "email",
	})
}

func ErrTransitionInFlight() *Error {
	return New(KindConflict, "transition_in_flight", "another request for this registration is in progress")
}

func ErrInvalidState(state WorkflowState, action string) *Error {
	return WithMeta(New(KindConflict, "invalid_state", "action not allowed in current state"), map[string]string{
		"state":  string(state),
		"action": action,
	})
}

func ErrWorkflowCompleted() *Error {
	return New(KindConflict, "workflow_completed", "registration already completed")
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Delivery (502)
// ----------------------

// Send error codes. The set mirrors the failure classes the email relay reports.
const (
	CodeSendConfigurationMissing = "send_configuration_missing"
	CodeSendTemplateMismatch     = "send_template_mismatch"
	CodeSendInvalidRequest       = "send_invalid_request"
	CodeSendUnauthorized         = "send_unauthorized"
	CodeSendPaymentRequired      = "send_payment_required"
	CodeSendNetworkError         = "send_network_error"
	CodeSendUnknown              = "send_unknown"
)

var sendMessages = map[string]string{
	CodeSendConfigurationMissing: "email relay is not configured",
	CodeSendTemplateMismatch:     "email template parameters do not match the relay template",
	CodeSendInvalidRequest:       "email relay rejected the request parameters",
	CodeSendUnauthorized:         "email relay rejected the credentials",
	CodeSendPaymentRequired:      "email relay account requires payment",
	CodeSendNetworkError:         "email relay could not be reached",
	CodeSendUnknown:              "failed to send verification email, please try again later",
}

// ErrSend builds a classified delivery error. Unknown codes collapse to send_unknown.
func ErrSend(code string, cause error) *Error {
	msg, ok := sendMessages[code]
	if !ok {
		code = CodeSendUnknown
		msg = sendMessages[CodeSendUnknown]
	}
	return Wrap(KindDelivery, code, msg, cause)
}

// IsSendError reports whether err is a classified delivery error.
func IsSendError(err error) bool {
	return KindOf(err) == KindDelivery
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrStoreUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "store_unavailable", "account store unavailable, please retry", cause)
}

// ErrStoreConstraint is a store-level integrity rejection other than the email
// uniqueness rule. It is terminal for the submission.
func ErrStoreConstraint(constraint string, cause error) *Error {
	return WithMeta(
		Wrap(KindConflict, "store_constraint_violation", "account could not be created", cause),
		map[string]string{"constraint": constraint},
	)
}

func ErrSessionStoreUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "session_store_unavailable", "session store unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
