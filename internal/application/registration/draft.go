package registration

import (
	"context"

	"github.com/baechuer/admin-portal/internal/domain"
)

// Start opens a new registration in the editing state.
func (s *Service) Start(ctx context.Context) (View, error) {
	now := s.now()
	snap := domain.Snapshot{
		ID:        s.newID(),
		State:     domain.StateEditing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.workflows.Save(ctx, snap, s.workflowTTL); err != nil {
		return View{}, err
	}
	s.audit("registration.started", map[string]string{"registration_id": snap.ID})
	return s.view(snap), nil
}

// Get returns the current state without taking the lock.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	snap, err := s.workflows.Load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(snap), nil
}

// UpdateField stores one sanitized field and returns live feedback for it.
func (s *Service) UpdateField(ctx context.Context, id, field, value string) (FieldUpdate, error) {
	if !domain.IsDraftField(field) {
		return FieldUpdate{}, domain.ErrInvalidField(field, "unknown field")
	}

	var out FieldUpdate
	_, err := s.transition(ctx, id, func(snap *domain.Snapshot) error {
		if err := requireState(snap, domain.StateEditing, "update_field"); err != nil {
			return err
		}
		clean, err := snap.Draft.Set(field, value)
		if err != nil {
			return err
		}

		out = FieldUpdate{Field: field, Value: clean}
		if clean != "" {
			out.Error = Validate(snap.Draft)[field]
		}
		switch field {
		case domain.FieldPassword:
			c := CheckPassword(clean)
			out.Checklist = &c
			out.Value = ""
		case domain.FieldConfirmPassword:
			out.Value = ""
		}
		return nil
	})
	if err != nil {
		return FieldUpdate{}, err
	}
	return out, nil
}

// Abandon discards the draft and any outstanding challenge.
func (s *Service) Abandon(ctx context.Context, id string) error {
	release, err := s.locks.TryLock(ctx, lockKey(id), s.lockTTL)
	if err != nil {
		return err
	}
	defer release()

	if err := s.workflows.Delete(ctx, id); err != nil {
		return err
	}
	s.audit("registration.abandoned", map[string]string{"registration_id": id})
	return nil
}
