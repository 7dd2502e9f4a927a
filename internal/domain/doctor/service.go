package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/validation"
)

var (
	ErrNotFound     = errors.New("doctor not found")
	ErrEmailTaken   = errors.New("A doctor with this email already exists.")
	ErrLicenseTaken = errors.New("A doctor with this license number already exists.")
)

type Service struct {
	repo DoctorRepository
}

func NewService(repo DoctorRepository) *Service {
	return &Service{repo: repo}
}

// Create validates in and stores a doctor owned by owner. Availability
// defaults to true.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in Input) (*Doctor, error) {
	d := &Doctor{CreatedBy: owner, IsAvailable: true}
	if err := s.validate(ctx, d, in, false); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, uniqueToField(err)
	}
	return d, nil
}

// Get returns any doctor by id; the directory is readable by every user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOwned returns the doctor only when owner created it.
func (s *Service) GetOwned(ctx context.Context, owner, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.CreatedBy != owner {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, in Input, partial bool) (*Doctor, error) {
	d, err := s.GetOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, d, in, partial); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, uniqueToField(err)
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return s.repo.Delete(ctx, owner, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Public lists available doctors only.
func (s *Service) Public(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	available := true
	return s.repo.List(ctx, ListFilter{Available: &available}, limit, offset)
}

// Count returns how many doctors owner created.
func (s *Service) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	_, total, err := s.repo.List(ctx, ListFilter{CreatedBy: &owner}, 1, 0)
	return total, err
}

// Recent returns the n newest doctors created by owner.
func (s *Service) Recent(ctx context.Context, owner uuid.UUID, n int) ([]*Doctor, error) {
	items, _, err := s.repo.List(ctx, ListFilter{CreatedBy: &owner}, n, 0)
	return items, err
}

func (s *Service) validate(ctx context.Context, d *Doctor, in Input, partial bool) error {
	errs := in.Apply(d, partial)
	if in.Email != nil && !errs.Has("email") {
		taken, err := s.repo.EmailTaken(ctx, d.Email, d.ID)
		if err != nil {
			return fmt.Errorf("check doctor email: %w", err)
		}
		if taken {
			errs.Add("email", ErrEmailTaken.Error())
		}
	}
	if in.LicenseNumber != nil && !errs.Has("license_number") {
		taken, err := s.repo.LicenseTaken(ctx, d.LicenseNumber, d.ID)
		if err != nil {
			return fmt.Errorf("check doctor license: %w", err)
		}
		if taken {
			errs.Add("license_number", ErrLicenseTaken.Error())
		}
	}
	return errs.Err()
}

func uniqueToField(err error) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return validation.Field("email", ErrEmailTaken.Error())
	case errors.Is(err, ErrLicenseTaken):
		return validation.Field("license_number", ErrLicenseTaken.Error())
	}
	return err
}
