//go:build integration

// Package integration runs the Postgres repositories, migrations and token
// blacklist against a real database. Set MEDLINK_TEST_DATABASE_URL to use an
// existing server; otherwise a throwaway container is started with Docker.
//
//	go test -tags integration ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlink/medlink/internal/domain/account"
	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/db"
	"github.com/medlink/medlink/migrations"
)

var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pool, cleanup, err := setupDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up database: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupDatabase(ctx context.Context) (*pgxpool.Pool, func(), error) {
	connStr := os.Getenv("MEDLINK_TEST_DATABASE_URL")
	stop := func() {}
	if connStr == "" {
		var err error
		connStr, stop, err = startPostgresContainer(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("start postgres container: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, connStr, 5, 1)
	if err != nil {
		stop()
		return nil, nil, err
	}

	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx); err != nil {
		pool.Close()
		stop()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return pool, func() {
		pool.Close()
		stop()
	}, nil
}

// uniqueSuffix keeps emails, usernames and licenses apart between tests
// sharing one database.
func uniqueSuffix() string {
	return strings.ReplaceAll(uuid.New().String()[:8], "-", "")
}

func createTestUser(t *testing.T, ctx context.Context, prefix string) uuid.UUID {
	t.Helper()
	u := &account.User{
		Username:     prefix + "_" + uniqueSuffix(),
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	if err := account.NewUserRepoPG(globalPool).Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func newTestPatient(owner uuid.UUID) *patient.Patient {
	return &patient.Patient{
		CreatedBy:   owner,
		FirstName:   "Jo",
		LastName:    "Doe",
		Email:       "jo." + uniqueSuffix() + "@example.com",
		PhoneNumber: "5551234",
		DateOfBirth: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:      "F",
		Address:     "1 Main St",
		City:        "Springfield",
		State:       "IL",
		ZipCode:     "62701",
		BloodType:   "O+",
	}
}

func createTestPatient(t *testing.T, ctx context.Context, owner uuid.UUID) *patient.Patient {
	t.Helper()
	p := newTestPatient(owner)
	if err := patient.NewPatientRepoPG(globalPool).Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func newTestDoctor(owner uuid.UUID) *doctor.Doctor {
	suffix := uniqueSuffix()
	return &doctor.Doctor{
		CreatedBy:         owner,
		FirstName:         "Ann",
		LastName:          "Lee",
		Email:             "ann." + suffix + "@clinic.example.com",
		PhoneNumber:       "5550000",
		Specialization:    "CARDIOLOGY",
		LicenseNumber:     "LIC-" + suffix,
		YearsOfExperience: 12,
		Qualification:     "MD",
		ClinicName:        "Heart Clinic",
		ClinicAddress:     "2 Side St",
		City:              "Springfield",
		State:             "IL",
		ZipCode:           "62701",
		ConsultationFee:   "150.00",
		IsAvailable:       true,
	}
}

func createTestDoctor(t *testing.T, ctx context.Context, owner uuid.UUID) *doctor.Doctor {
	t.Helper()
	d := newTestDoctor(owner)
	if err := doctor.NewDoctorRepoPG(globalPool).Create(ctx, d); err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d
}

func createTestMapping(t *testing.T, ctx context.Context, owner, patientID, doctorID uuid.UUID) *mapping.Mapping {
	t.Helper()
	m := &mapping.Mapping{
		CreatedBy: owner,
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    mapping.StatusActive,
	}
	if err := mapping.NewMappingRepoPG(globalPool).Create(ctx, m); err != nil {
		t.Fatalf("create mapping: %v", err)
	}
	return m
}

func countRows(t *testing.T, ctx context.Context, sql string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := globalPool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
