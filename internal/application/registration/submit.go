package registration

import (
	"context"
	"errors"

	"github.com/baechuer/admin-portal/internal/domain"
)

// Submit moves a valid, unique draft to code entry. Fields in the map are
// applied (sanitized) over the stored draft before validation; fields not
// in it keep what UpdateField stored.
func (s *Service) Submit(ctx context.Context, id string, fields map[string]string) (View, error) {
	snap, err := s.transition(ctx, id, func(snap *domain.Snapshot) error {
		if err := requireState(snap, domain.StateEditing, "submit"); err != nil {
			return err
		}
		for f := range fields {
			if !domain.IsDraftField(f) {
				return domain.ErrInvalidField(f, "unknown field")
			}
		}
		for _, f := range domain.DraftFields {
			if v, ok := fields[f]; ok {
				_, _ = snap.Draft.Set(f, v)
			}
		}

		if errs := Validate(snap.Draft); len(errs) > 0 {
			s.audit("registration.submit_rejected", map[string]string{
				"registration_id": snap.ID,
				"reason":          "validation_failed",
			})
			return domain.ErrValidationFailed(errs)
		}

		email := domain.NormalizeEmail(snap.Draft.Email)
		existing, err := s.accounts.FindByEmail(ctx, email)
		if err != nil {
			return storeErr(err)
		}
		if len(existing) > 0 {
			s.audit("registration.submit_rejected", map[string]string{
				"registration_id": snap.ID,
				"reason":          "email_already_exists",
			})
			return domain.ErrEmailAlreadyExists()
		}

		hash, err := s.hasher.Hash(snap.Draft.Password)
		if err != nil {
			return asDomain(err, domain.ErrHashFailed)
		}

		ch, warning, err := s.issueAndNotify(ctx, snap, false)
		if err != nil {
			return err
		}

		snap.Draft.Email = email
		snap.Draft.ForgetSecrets()
		snap.PasswordHash = hash
		snap.Challenge = &ch
		snap.DeliveryWarn = warning
		snap.State = domain.StateAwaitingCode
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return s.view(snap), nil
}

// issueAndNotify creates a challenge and hands it to the notifier. Under the
// lenient policy a send failure comes back as a warning; under the strict
// policy it is returned as the error and the challenge must not be kept.
func (s *Service) issueAndNotify(ctx context.Context, snap *domain.Snapshot, resend bool) (domain.VerificationChallenge, string, error) {
	ch, err := s.codes.Issue()
	if err != nil {
		return domain.VerificationChallenge{}, "", err
	}

	resendFlag := "false"
	if resend {
		resendFlag = "true"
	}
	s.audit("registration.code_issued", map[string]string{
		"registration_id": snap.ID,
		"resend":          resendFlag,
	})

	sendErr := s.notifier.Send(ctx, Notification{
		To:        domain.NormalizeEmail(snap.Draft.Email),
		UserName:  snap.Draft.FullName,
		Company:   snap.Draft.Company,
		Code:      ch.Code,
		ExpiresIn: s.codes.TTL(),
	})
	if sendErr == nil {
		s.audit("registration.notification_sent", map[string]string{"registration_id": snap.ID})
		return ch, "", nil
	}

	var de *domain.Error
	if !errors.As(sendErr, &de) || de.Kind != domain.KindDelivery {
		de = domain.ErrSend(domain.CodeSendUnknown, sendErr)
	}
	s.audit("registration.notification_failed", map[string]string{
		"registration_id": snap.ID,
		"class":           de.Code,
		"policy":          string(s.policy),
		"error":           de.Error(),
	})

	if s.policy == PolicyStrict {
		return domain.VerificationChallenge{}, "", de
	}
	return ch, de.Message, nil
}
