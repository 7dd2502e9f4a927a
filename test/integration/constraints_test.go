//go:build integration

package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/domain/account"
	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
)

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	alice := createTestUser(t, ctx, "alice")
	bob := createTestUser(t, ctx, "bob")

	t.Run("PatientEmail", func(t *testing.T) {
		repo := patient.NewPatientRepoPG(globalPool)
		first := createTestPatient(t, ctx, alice)

		dup := newTestPatient(bob)
		dup.Email = first.Email
		if err := repo.Create(ctx, dup); !errors.Is(err, patient.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken on create, got %v", err)
		}

		second := createTestPatient(t, ctx, alice)
		second.Email = first.Email
		if err := repo.Update(ctx, second); !errors.Is(err, patient.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken on update, got %v", err)
		}
	})

	t.Run("PatientEmailCaseSensitive", func(t *testing.T) {
		first := createTestPatient(t, ctx, alice)
		other := newTestPatient(alice)
		other.Email = strings.ToUpper(first.Email)
		if err := patient.NewPatientRepoPG(globalPool).Create(ctx, other); err != nil {
			t.Fatalf("email differing only in case should be accepted: %v", err)
		}
	})

	t.Run("DoctorEmail", func(t *testing.T) {
		first := createTestDoctor(t, ctx, alice)
		dup := newTestDoctor(bob)
		dup.Email = first.Email
		if err := doctor.NewDoctorRepoPG(globalPool).Create(ctx, dup); !errors.Is(err, doctor.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("DoctorLicense", func(t *testing.T) {
		repo := doctor.NewDoctorRepoPG(globalPool)
		first := createTestDoctor(t, ctx, alice)

		dup := newTestDoctor(bob)
		dup.LicenseNumber = first.LicenseNumber
		if err := repo.Create(ctx, dup); !errors.Is(err, doctor.ErrLicenseTaken) {
			t.Fatalf("expected ErrLicenseTaken on create, got %v", err)
		}

		second := createTestDoctor(t, ctx, alice)
		second.LicenseNumber = first.LicenseNumber
		if err := repo.Update(ctx, second); !errors.Is(err, doctor.ErrLicenseTaken) {
			t.Fatalf("expected ErrLicenseTaken on update, got %v", err)
		}
	})

	t.Run("MappingPair", func(t *testing.T) {
		p := createTestPatient(t, ctx, alice)
		d := createTestDoctor(t, ctx, bob)
		createTestMapping(t, ctx, alice, p.ID, d.ID)

		dup := &mapping.Mapping{CreatedBy: alice, PatientID: p.ID, DoctorID: d.ID, Status: mapping.StatusInactive}
		if err := mapping.NewMappingRepoPG(globalPool).Create(ctx, dup); !errors.Is(err, mapping.ErrAlreadyAssigned) {
			t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
		}
	})

	t.Run("Username", func(t *testing.T) {
		repo := account.NewUserRepoPG(globalPool)
		u := &account.User{Username: "dup_" + uniqueSuffix(), PasswordHash: "x", IsActive: true}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		again := &account.User{Username: u.Username, PasswordHash: "x", IsActive: true}
		if err := repo.Create(ctx, again); !errors.Is(err, account.ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
	})
}

func TestMappingRepo_MissingReferences(t *testing.T) {
	ctx := context.Background()
	repo := mapping.NewMappingRepoPG(globalPool)
	owner := createTestUser(t, ctx, "owner")
	p := createTestPatient(t, ctx, owner)
	d := createTestDoctor(t, ctx, owner)

	missingDoctor := &mapping.Mapping{CreatedBy: owner, PatientID: p.ID, DoctorID: uuid.New(), Status: mapping.StatusActive}
	if err := repo.Create(ctx, missingDoctor); !errors.Is(err, mapping.ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}

	missingPatient := &mapping.Mapping{CreatedBy: owner, PatientID: uuid.New(), DoctorID: d.ID, Status: mapping.StatusActive}
	if err := repo.Create(ctx, missingPatient); !errors.Is(err, mapping.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestMappingStatusCheck(t *testing.T) {
	ctx := context.Background()
	owner := createTestUser(t, ctx, "owner")
	p := createTestPatient(t, ctx, owner)
	d := createTestDoctor(t, ctx, owner)

	bad := &mapping.Mapping{CreatedBy: owner, PatientID: p.ID, DoctorID: d.ID, Status: "PAUSED"}
	if err := mapping.NewMappingRepoPG(globalPool).Create(ctx, bad); err == nil {
		t.Fatal("expected the status check constraint to reject PAUSED")
	}
}
