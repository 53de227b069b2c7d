package registration

import (
	"fmt"
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

// View is what callers get back after each transition.
type View struct {
	ID               string
	State            domain.WorkflowState
	FullName         string
	Company          string
	Email            string
	ExpiresAt        *time.Time
	ExpiresInSeconds int64
	Notice           string
	DeliveryWarning  string
	Account          *domain.AccountRecord
}

func (s *Service) view(snap domain.Snapshot) View {
	v := View{
		ID:              snap.ID,
		State:           snap.State,
		FullName:        snap.Draft.FullName,
		Company:         snap.Draft.Company,
		Email:           snap.Draft.Email,
		DeliveryWarning: snap.DeliveryWarn,
		Account:         snap.Account,
	}
	if snap.Challenge != nil && snap.State != domain.StateCompleted {
		exp := snap.Challenge.ExpiresAt
		v.ExpiresAt = &exp
		v.ExpiresInSeconds = int64(snap.Challenge.Remaining(s.now()) / time.Second)
		v.Notice = fmt.Sprintf("We sent a %d-digit code to %s. It expires in %d minutes.",
			CodeLength, snap.Draft.Email, int(s.codes.TTL()/time.Minute))
	}
	return v
}

// FieldUpdate is the live feedback for one keystroke-level change.
type FieldUpdate struct {
	Field     string
	Value     string
	Error     string
	Checklist *PasswordChecklist
}
