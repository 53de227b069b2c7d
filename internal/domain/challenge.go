package domain

import "time"

// VerificationChallenge is the outstanding one-time code of a registration.
// Only one is live per registration; issuing a new one replaces it.
type VerificationChallenge struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired compares against the stored absolute instant so a resend resets the window.
func (c VerificationChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Remaining is the time left before expiry, never negative.
func (c VerificationChallenge) Remaining(now time.Time) time.Duration {
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type WorkflowState string

const (
	StateEditing      WorkflowState = "editing"
	StateAwaitingCode WorkflowState = "awaiting_code"
	StateVerifying    WorkflowState = "verifying"
	StateCompleted    WorkflowState = "completed"
)

// Snapshot is the persisted state of one registration workflow.
type Snapshot struct {
	ID           string                 `json:"id"`
	State        WorkflowState          `json:"state"`
	Draft        RegistrationDraft      `json:"draft"`
	PasswordHash string                 `json:"passwordHash,omitempty"`
	Challenge    *VerificationChallenge `json:"challenge,omitempty"`
	Account      *AccountRecord         `json:"account,omitempty"`
	SessionID    string                 `json:"sessionId,omitempty"`
	DeliveryWarn string                 `json:"deliveryWarning,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}
