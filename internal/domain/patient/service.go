package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/validation"
)

var (
	ErrNotFound   = errors.New("patient not found")
	ErrEmailTaken = errors.New("A patient with this email already exists.")
)

type Service struct {
	repo PatientRepository
}

func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo}
}

// Create validates in and stores a patient owned by owner.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in Input) (*Patient, error) {
	p := &Patient{CreatedBy: owner}
	if err := s.validate(ctx, p, in, false); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, uniqueToField(err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, owner, id)
}

// Update applies in to the caller's patient. partial allows absent fields.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, in Input, partial bool) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, p, in, partial); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, uniqueToField(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return s.repo.Delete(ctx, owner, id)
}

func (s *Service) List(ctx context.Context, owner uuid.UUID, f ListFilter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, owner, f, limit, offset)
}

func (s *Service) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	return s.repo.Count(ctx, owner)
}

// Recent returns the owner's n newest patients.
func (s *Service) Recent(ctx context.Context, owner uuid.UUID, n int) ([]*Patient, error) {
	items, _, err := s.repo.List(ctx, owner, ListFilter{}, n, 0)
	return items, err
}

func (s *Service) validate(ctx context.Context, p *Patient, in Input, partial bool) error {
	errs := in.Apply(p, partial)
	if in.Email != nil && !errs.Has("email") {
		taken, err := s.repo.EmailTaken(ctx, p.Email, p.ID)
		if err != nil {
			return fmt.Errorf("check patient email: %w", err)
		}
		if taken {
			errs.Add("email", ErrEmailTaken.Error())
		}
	}
	return errs.Err()
}

// uniqueToField reports a constraint violation that slipped past the
// pre-check the same way the pre-check would have.
func uniqueToField(err error) error {
	if errors.Is(err, ErrEmailTaken) {
		return validation.Field("email", ErrEmailTaken.Error())
	}
	return err
}
