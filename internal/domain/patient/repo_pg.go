package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlink/medlink/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientFrom = `patients p JOIN users u ON u.id = p.created_by`

const patientCols = `p.id, p.created_by, u.username, p.first_name, p.last_name, p.email,
	p.phone_number, p.date_of_birth, p.gender, p.address, p.city, p.state, p.zip_code,
	p.blood_type, p.allergies, p.medical_history, p.created_at, p.updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.CreatedBy, &p.CreatedByUsername, &p.FirstName, &p.LastName, &p.Email,
		&p.PhoneNumber, &p.DateOfBirth, &p.Gender, &p.Address, &p.City, &p.State, &p.ZipCode,
		&p.BloodType, &p.Allergies, &p.MedicalHistory, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (id, created_by, first_name, last_name, email, phone_number,
			date_of_birth, gender, address, city, state, zip_code,
			blood_type, allergies, medical_history)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at,
			(SELECT username FROM users WHERE id = $2)`,
		p.ID, p.CreatedBy, p.FirstName, p.LastName, p.Email, p.PhoneNumber,
		p.DateOfBirth, p.Gender, p.Address, p.City, p.State, p.ZipCode,
		p.BloodType, p.Allergies, p.MedicalHistory,
	).Scan(&p.CreatedAt, &p.UpdatedAt, &p.CreatedByUsername)
	if err != nil {
		if db.IsUniqueViolation(err, "patients_email_key") {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, owner, id uuid.UUID) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM `+patientFrom+` WHERE p.id = $1 AND p.created_by = $2`, id, owner))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET first_name=$3, last_name=$4, email=$5, phone_number=$6,
			date_of_birth=$7, gender=$8, address=$9, city=$10, state=$11, zip_code=$12,
			blood_type=$13, allergies=$14, medical_history=$15, updated_at=NOW()
		WHERE id = $1 AND created_by = $2
		RETURNING updated_at`,
		p.ID, p.CreatedBy, p.FirstName, p.LastName, p.Email, p.PhoneNumber,
		p.DateOfBirth, p.Gender, p.Address, p.City, p.State, p.ZipCode,
		p.BloodType, p.Allergies, p.MedicalHistory,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		if db.IsUniqueViolation(err, "patients_email_key") {
			return ErrEmailTaken
		}
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

// Delete removes the patient; its mappings go with it through ON DELETE CASCADE.
func (r *patientRepoPG) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM patients WHERE id = $1 AND created_by = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, owner uuid.UUID, f ListFilter, limit, offset int) ([]*Patient, int, error) {
	qb := db.NewSearchQuery(patientFrom, patientCols)
	qb.Eq("p.created_by", owner)
	if f.Search != "" {
		qb.Contains(f.Search, "p.first_name", "p.last_name", "p.email", "p.phone_number")
	}
	if f.Gender != "" {
		qb.Eq("p.gender", f.Gender)
	}
	if f.City != "" {
		qb.Contains(f.City, "p.city")
	}
	if f.BloodType != "" {
		qb.Contains(f.BloodType, "p.blood_type")
	}
	qb.OrderBy("p.created_at DESC")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := conn.Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE created_by = $1`, owner).Scan(&n)
	return n, err
}

func (r *patientRepoPG) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1 AND id <> $2)`, email, exclude,
	).Scan(&exists)
	return exists, err
}
