package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/validation"
)

var (
	ErrNotFound        = errors.New("mapping not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrAlreadyAssigned = errors.New("This patient is already assigned to this doctor.")
)

const (
	msgNotYourPatient = "You can only assign your own patients to doctors."
	msgDoctorNotFound = "Doctor not found."
)

// PatientLookup resolves a patient only when owner created it.
type PatientLookup interface {
	Get(ctx context.Context, owner, id uuid.UUID) (*patient.Patient, error)
}

// DoctorLookup resolves any doctor.
type DoctorLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo     MappingRepository
	patients PatientLookup
	doctors  DoctorLookup
	tx       TxRunner
	logger   zerolog.Logger
}

func NewService(repo MappingRepository, patients PatientLookup, doctors DoctorLookup, tx TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		tx:       tx,
		logger:   logger.With().Str("component", "mapping").Logger(),
	}
}

// Create assigns a patient to a doctor. The patient must belong to owner,
// the doctor must exist, and the pair must not already be assigned by
// anyone. Checks and insert share one transaction; the unique constraint
// on the pair settles concurrent creates.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in CreateInput) (*Mapping, error) {
	errs := validation.Errors{}
	m := &Mapping{CreatedBy: owner, Status: StatusActive}

	patientID := parseRef(errs, "patient", in.Patient, msgNotYourPatient)
	doctorID := parseRef(errs, "doctor", in.Doctor, msgDoctorNotFound)
	(&UpdateInput{Status: in.Status, Notes: in.Notes}).apply(m, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	m.PatientID, m.DoctorID = patientID, doctorID

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.Get(ctx, owner, patientID)
		switch {
		case errors.Is(err, patient.ErrNotFound):
			errs.Add("patient", msgNotYourPatient)
		case err != nil:
			return fmt.Errorf("resolve patient: %w", err)
		}

		d, err := s.doctors.Get(ctx, doctorID)
		switch {
		case errors.Is(err, doctor.ErrNotFound):
			errs.Add("doctor", msgDoctorNotFound)
		case err != nil:
			return fmt.Errorf("resolve doctor: %w", err)
		}
		if err := errs.Err(); err != nil {
			return err
		}

		exists, err := s.repo.Exists(ctx, patientID, doctorID)
		if err != nil {
			return fmt.Errorf("check mapping: %w", err)
		}
		if exists {
			return ErrAlreadyAssigned
		}

		m.PatientName = p.FullName()
		m.DoctorName = d.FullName()
		m.DoctorSpecialization = d.Specialization
		m.DoctorClinic = d.ClinicName
		m.DoctorPhone = d.PhoneNumber
		return s.repo.Create(ctx, m)
	})
	switch {
	case errors.Is(err, ErrAlreadyAssigned):
		s.logger.Info().Str("patient_id", patientID.String()).Str("doctor_id", doctorID.String()).
			Msg("mapping rejected: already assigned")
		return nil, validation.Field(validation.NonField, ErrAlreadyAssigned.Error())
	case errors.Is(err, ErrPatientNotFound):
		return nil, validation.Field("patient", msgNotYourPatient)
	case errors.Is(err, ErrDoctorNotFound):
		return nil, validation.Field("doctor", msgDoctorNotFound)
	case err != nil:
		return nil, err
	}

	s.logger.Info().Str("mapping_id", m.ID.String()).Str("patient_id", patientID.String()).
		Str("doctor_id", doctorID.String()).Str("user_id", owner.String()).Msg("patient assigned to doctor")
	return m, nil
}

// parseRef reads a required id field. A malformed id cannot name a visible
// record, so it gets the same message as a missing one.
func parseRef(errs validation.Errors, field string, v *string, notFoundMsg string) uuid.UUID {
	if v == nil {
		errs.Add(field, validation.MsgRequired)
		return uuid.Nil
	}
	raw := strings.TrimSpace(*v)
	if raw == "" {
		errs.Add(field, validation.MsgBlank)
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		errs.Add(field, notFoundMsg)
		return uuid.Nil
	}
	return id
}

func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*Mapping, error) {
	return s.repo.GetByID(ctx, owner, id)
}

// Update changes status and notes of a mapping owned by owner.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, in UpdateInput) (*Mapping, error) {
	m, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	errs := validation.Errors{}
	in.apply(m, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a mapping owned by owner and returns it as it was.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) (*Mapping, error) {
	m, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return nil, err
	}
	s.logger.Info().Str("mapping_id", id.String()).Str("user_id", owner.String()).Msg("mapping removed")
	return m, nil
}

// List returns owner's mappings, newest first, optionally by status.
func (s *Service) List(ctx context.Context, owner uuid.UUID, status string, limit, offset int) ([]*Mapping, int, error) {
	return s.repo.List(ctx, ListFilter{Owner: owner, Status: status}, limit, offset)
}

// ListForPatient returns the patient and the mappings owner made for it.
// A patient owner cannot see yields ErrPatientNotFound.
func (s *Service) ListForPatient(ctx context.Context, owner, patientID uuid.UUID) (*patient.Patient, []*Mapping, error) {
	p, err := s.patients.Get(ctx, owner, patientID)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, nil, ErrPatientNotFound
		}
		return nil, nil, err
	}
	items, _, err := s.repo.List(ctx, ListFilter{Owner: owner, PatientID: &patientID}, maxPerPatient, 0)
	if err != nil {
		return nil, nil, err
	}
	return p, items, nil
}

const maxPerPatient = 1000

// CountActive counts owner's ACTIVE mappings.
func (s *Service) CountActive(ctx context.Context, owner uuid.UUID) (int, error) {
	_, total, err := s.repo.List(ctx, ListFilter{Owner: owner, Status: StatusActive}, 1, 0)
	return total, err
}

func (s *Service) Recent(ctx context.Context, owner uuid.UUID, n int) ([]*Mapping, error) {
	items, _, err := s.repo.List(ctx, ListFilter{Owner: owner}, n, 0)
	return items, err
}
