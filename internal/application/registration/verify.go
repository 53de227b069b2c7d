package registration

import (
	"context"
	"crypto/subtle"

	"github.com/baechuer/admin-portal/internal/domain"
)

// Resend replaces the outstanding challenge with a new one. The previous
// code stops working immediately, whether or not it had expired. A strict
// send failure stays in awaiting_code with no live code; the draft was
// already accepted, so the user only needs to resend again.
func (s *Service) Resend(ctx context.Context, id string) (View, error) {
	snap, err := s.transition(ctx, id, func(snap *domain.Snapshot) error {
		if err := requireState(snap, domain.StateAwaitingCode, "resend"); err != nil {
			return err
		}
		if snap.Draft.Email == "" {
			return domain.ErrInvalidState(snap.State, "resend")
		}

		snap.Challenge = nil
		snap.DeliveryWarn = ""

		ch, warning, err := s.issueAndNotify(ctx, snap, true)
		if err != nil {
			return err
		}
		snap.Challenge = &ch
		snap.DeliveryWarn = warning
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return s.view(snap), nil
}

// VerifyResult is the outcome of a successful code redemption.
type VerifyResult struct {
	View    View
	Account domain.AccountRecord
	Session domain.SessionMarker
}

// Verify redeems a candidate code. Expiry is checked before the match; a
// mismatch keeps the challenge so the user can retry until it expires.
func (s *Service) Verify(ctx context.Context, id, candidate string) (VerifyResult, error) {
	code := NormalizeCode(candidate)

	var res VerifyResult
	snap, err := s.transition(ctx, id, func(snap *domain.Snapshot) error {
		// account exists but the session marker was never written
		if snap.State == domain.StateCompleted && snap.Account != nil && snap.SessionID == "" {
			return s.finish(ctx, snap, *snap.Account, &res)
		}
		if err := requireState(snap, domain.StateAwaitingCode, "verify"); err != nil {
			return err
		}
		if code == "" {
			return domain.ErrMissingField("code")
		}

		ch := snap.Challenge
		if ch == nil || ch.Expired(s.now()) {
			s.audit("registration.verify_failed", map[string]string{"registration_id": snap.ID, "reason": "code_expired"})
			return domain.ErrCodeExpired()
		}
		if subtle.ConstantTimeCompare([]byte(code), []byte(ch.Code)) != 1 {
			s.audit("registration.verify_failed", map[string]string{"registration_id": snap.ID, "reason": "code_mismatch"})
			return domain.ErrCodeMismatch()
		}

		snap.State = domain.StateVerifying
		if err := s.checkpoint(ctx, snap); err != nil {
			snap.State = domain.StateAwaitingCode
			return err
		}

		if err := s.accounts.Ping(ctx); err != nil {
			snap.State = domain.StateAwaitingCode
			return domain.ErrStoreUnavailable(err)
		}

		created, err := s.accounts.Insert(ctx, domain.AccountRecord{
			ID:           s.newID(),
			FullName:     snap.Draft.FullName,
			Company:      snap.Draft.Company,
			Email:        domain.NormalizeEmail(snap.Draft.Email),
			PasswordHash: snap.PasswordHash,
			IsVerified:   true,
			Role:         domain.RoleAdmin,
			CreatedAt:    s.now().UTC(),
		})
		if err != nil {
			err = storeErr(err)
			if domain.Is(err, "email_already_exists") {
				// the address was taken after the uniqueness check; start over from the form
				snap.State = domain.StateEditing
				snap.Challenge = nil
				snap.PasswordHash = ""
				s.audit("registration.verify_failed", map[string]string{"registration_id": snap.ID, "reason": "email_already_exists"})
				return err
			}
			snap.State = domain.StateAwaitingCode
			s.audit("registration.verify_failed", map[string]string{"registration_id": snap.ID, "reason": domainCode(err)})
			return err
		}

		created.PasswordHash = ""
		snap.Account = &created
		snap.State = domain.StateCompleted
		snap.Challenge = nil
		snap.PasswordHash = ""
		snap.DeliveryWarn = ""
		snap.Draft = domain.RegistrationDraft{}
		s.audit("registration.completed", map[string]string{"registration_id": snap.ID, "account_id": created.ID})

		return s.finish(ctx, snap, created, &res)
	})
	if err != nil {
		return VerifyResult{}, err
	}
	res.View = s.view(snap)
	return res, nil
}

// finish opens the session marker for a freshly created account.
func (s *Service) finish(ctx context.Context, snap *domain.Snapshot, acct domain.AccountRecord, res *VerifyResult) error {
	marker, err := s.OpenSession(ctx, acct)
	if err != nil {
		return err
	}
	snap.SessionID = marker.ID
	res.Account = acct
	res.Session = marker
	return nil
}
