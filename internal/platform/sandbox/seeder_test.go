package sandbox

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
)

// ---------------------------------------------------------------------------
// DataGenerator tests
// ---------------------------------------------------------------------------

func TestDataGenerator_PatientIsValid(t *testing.T) {
	gen := NewDataGenerator(42)
	for i := 0; i < 50; i++ {
		in := gen.Patient()
		if errs := in.Apply(&patient.Patient{}, false); len(errs) > 0 {
			t.Fatalf("generated patient %d is invalid: %v", i, errs)
		}
	}
}

func TestDataGenerator_DoctorIsValid(t *testing.T) {
	gen := NewDataGenerator(42)
	for i := 0; i < 50; i++ {
		in := gen.Doctor()
		if errs := in.Apply(&doctor.Doctor{}, false); len(errs) > 0 {
			t.Fatalf("generated doctor %d is invalid: %v", i, errs)
		}
	}
}

func TestDataGenerator_Deterministic(t *testing.T) {
	a := NewDataGenerator(7).Patient()
	b := NewDataGenerator(7).Patient()
	if *a.Email != *b.Email || *a.DateOfBirth != *b.DateOfBirth {
		t.Errorf("same seed should give same data: %s vs %s", *a.Email, *b.Email)
	}
}

func TestDataGenerator_UniqueKeys(t *testing.T) {
	gen := NewDataGenerator(1)
	emails := map[string]bool{}
	licenses := map[string]bool{}
	for i := 0; i < 200; i++ {
		p := gen.Patient()
		if emails[*p.Email] {
			t.Fatalf("duplicate patient email %s", *p.Email)
		}
		emails[*p.Email] = true

		d := gen.Doctor()
		if licenses[*d.LicenseNumber] {
			t.Fatalf("duplicate license %s", *d.LicenseNumber)
		}
		licenses[*d.LicenseNumber] = true
	}
}

func TestDataGenerator_AssignmentStatus(t *testing.T) {
	gen := NewDataGenerator(3)
	for i := 0; i < 50; i++ {
		in := gen.Assignment(uuid.New(), uuid.New())
		valid := false
		for _, s := range mapping.Statuses {
			if *in.Status == s {
				valid = true
			}
		}
		if !valid {
			t.Fatalf("unexpected status %q", *in.Status)
		}
	}
}

// ---------------------------------------------------------------------------
// Seeder tests
// ---------------------------------------------------------------------------

type recorder struct {
	patients int
	doctors  int
	pairs    map[string]bool
}

type patientSink struct{ r *recorder }

func (s patientSink) Create(_ context.Context, owner uuid.UUID, in patient.Input) (*patient.Patient, error) {
	s.r.patients++
	return &patient.Patient{ID: uuid.New(), CreatedBy: owner}, nil
}

type doctorSink struct{ r *recorder }

func (s doctorSink) Create(_ context.Context, owner uuid.UUID, in doctor.Input) (*doctor.Doctor, error) {
	s.r.doctors++
	return &doctor.Doctor{ID: uuid.New(), CreatedBy: owner}, nil
}

type mappingSink struct{ r *recorder }

func (s mappingSink) Create(_ context.Context, owner uuid.UUID, in mapping.CreateInput) (*mapping.Mapping, error) {
	key := *in.Patient + "/" + *in.Doctor
	if s.r.pairs[key] {
		return nil, mapping.ErrAlreadyAssigned
	}
	s.r.pairs[key] = true
	return &mapping.Mapping{ID: uuid.New(), CreatedBy: owner}, nil
}

func TestSeeder_Run(t *testing.T) {
	r := &recorder{pairs: map[string]bool{}}
	cfg := SeedConfig{PatientCount: 10, DoctorCount: 1, AssignmentsPerPatient: 2, Seed: 5}
	s := NewSeeder(cfg, patientSink{r}, doctorSink{r}, mappingSink{r}, zerolog.Nop())

	result, err := s.Run(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Patients != 10 || result.Doctors != 1 {
		t.Errorf("unexpected counts: %+v", result)
	}
	// One doctor means the second assignment of each patient is a repeat.
	if result.Assignments != 10 || result.Skipped != 10 {
		t.Errorf("expected 10 assignments and 10 skipped, got %+v", result)
	}
}

type failingDoctors struct{}

func (failingDoctors) Create(context.Context, uuid.UUID, doctor.Input) (*doctor.Doctor, error) {
	return nil, errors.New("db down")
}

func TestSeeder_RunStopsOnError(t *testing.T) {
	r := &recorder{pairs: map[string]bool{}}
	s := NewSeeder(DefaultSeedConfig(), patientSink{r}, failingDoctors{}, mappingSink{r}, zerolog.Nop())

	if _, err := s.Run(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error from doctor creation")
	}
	if r.patients != 0 {
		t.Errorf("no patients should be created after a failure, got %d", r.patients)
	}
}
