package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlink/medlink/internal/platform/db"
)

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorFrom = `doctors d JOIN users u ON u.id = d.created_by`

const doctorCols = `d.id, d.created_by, u.username, d.first_name, d.last_name, d.email,
	d.phone_number, d.specialization, d.license_number, d.years_of_experience,
	d.qualification, d.clinic_name, d.clinic_address, d.city, d.state, d.zip_code,
	d.consultation_fee::text, d.is_available, d.created_at, d.updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.CreatedBy, &d.CreatedByUsername, &d.FirstName, &d.LastName, &d.Email,
		&d.PhoneNumber, &d.Specialization, &d.LicenseNumber, &d.YearsOfExperience,
		&d.Qualification, &d.ClinicName, &d.ClinicAddress, &d.City, &d.State, &d.ZipCode,
		&d.ConsultationFee, &d.IsAvailable, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func uniqueError(err error) error {
	switch {
	case db.IsUniqueViolation(err, "doctors_email_key"):
		return ErrEmailTaken
	case db.IsUniqueViolation(err, "doctors_license_number_key"):
		return ErrLicenseTaken
	}
	return nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (id, created_by, first_name, last_name, email, phone_number,
			specialization, license_number, years_of_experience, qualification,
			clinic_name, clinic_address, city, state, zip_code, consultation_fee, is_available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16::numeric,$17)
		RETURNING created_at, updated_at,
			(SELECT username FROM users WHERE id = $2)`,
		d.ID, d.CreatedBy, d.FirstName, d.LastName, d.Email, d.PhoneNumber,
		d.Specialization, d.LicenseNumber, d.YearsOfExperience, d.Qualification,
		d.ClinicName, d.ClinicAddress, d.City, d.State, d.ZipCode, d.ConsultationFee, d.IsAvailable,
	).Scan(&d.CreatedAt, &d.UpdatedAt, &d.CreatedByUsername)
	if err != nil {
		if uerr := uniqueError(err); uerr != nil {
			return uerr
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM `+doctorFrom+` WHERE d.id = $1`, id))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE doctors SET first_name=$3, last_name=$4, email=$5, phone_number=$6,
			specialization=$7, license_number=$8, years_of_experience=$9, qualification=$10,
			clinic_name=$11, clinic_address=$12, city=$13, state=$14, zip_code=$15,
			consultation_fee=$16::numeric, is_available=$17, updated_at=NOW()
		WHERE id = $1 AND created_by = $2
		RETURNING updated_at`,
		d.ID, d.CreatedBy, d.FirstName, d.LastName, d.Email, d.PhoneNumber,
		d.Specialization, d.LicenseNumber, d.YearsOfExperience, d.Qualification,
		d.ClinicName, d.ClinicAddress, d.City, d.State, d.ZipCode, d.ConsultationFee, d.IsAvailable,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		if uerr := uniqueError(err); uerr != nil {
			return uerr
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	return nil
}

// Delete removes the doctor; mappings referencing it cascade.
func (r *doctorRepoPG) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM doctors WHERE id = $1 AND created_by = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Doctor, int, error) {
	qb := db.NewSearchQuery(doctorFrom, doctorCols)
	if f.CreatedBy != nil {
		qb.Eq("d.created_by", *f.CreatedBy)
	}
	if f.Search != "" {
		qb.Contains(f.Search, "d.first_name", "d.last_name", "d.specialization", "d.clinic_name")
	}
	if f.Specialization != "" {
		qb.Eq("d.specialization", f.Specialization)
	}
	if f.Available != nil {
		qb.Eq("d.is_available", *f.Available)
	}
	qb.OrderBy("d.created_at DESC")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	rows, err := conn.Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *doctorRepoPG) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE email = $1 AND id <> $2)`, email, exclude)
}

func (r *doctorRepoPG) LicenseTaken(ctx context.Context, license string, exclude uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE license_number = $1 AND id <> $2)`, license, exclude)
}

func (r *doctorRepoPG) exists(ctx context.Context, sql string, args ...interface{}) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&ok)
	return ok, err
}
