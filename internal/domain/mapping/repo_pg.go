package mapping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlink/medlink/internal/platform/db"
)

type mappingRepoPG struct{ pool *pgxpool.Pool }

func NewMappingRepoPG(pool *pgxpool.Pool) MappingRepository {
	return &mappingRepoPG{pool: pool}
}

const mappingFrom = `patient_doctor_mappings m
	JOIN patients p ON p.id = m.patient_id
	JOIN doctors d ON d.id = m.doctor_id
	JOIN users u ON u.id = m.created_by`

const mappingCols = `m.id, m.patient_id, m.doctor_id, m.created_by, u.username,
	p.first_name || ' ' || p.last_name, 'Dr. ' || d.first_name || ' ' || d.last_name,
	d.specialization, d.clinic_name, d.phone_number,
	m.assigned_date, m.status, m.notes, m.created_at, m.updated_at`

func scanMapping(row pgx.Row) (*Mapping, error) {
	var m Mapping
	err := row.Scan(&m.ID, &m.PatientID, &m.DoctorID, &m.CreatedBy, &m.CreatedByUsername,
		&m.PatientName, &m.DoctorName,
		&m.DoctorSpecialization, &m.DoctorClinic, &m.DoctorPhone,
		&m.AssignedDate, &m.Status, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts m and reloads it with the joined display fields. The
// (patient_id, doctor_id) constraint turns a lost race into ErrAlreadyAssigned;
// a patient or doctor deleted after the service checked it surfaces as
// ErrPatientNotFound or ErrDoctorNotFound.
func (r *mappingRepoPG) Create(ctx context.Context, m *Mapping) error {
	m.ID = uuid.New()
	conn := db.Conn(ctx, r.pool)
	_, err := conn.Exec(ctx, `
		INSERT INTO patient_doctor_mappings (id, patient_id, doctor_id, created_by, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.PatientID, m.DoctorID, m.CreatedBy, m.Status, m.Notes)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "mappings_patient_doctor_key"):
			return ErrAlreadyAssigned
		case db.IsForeignKeyViolation(err, "mappings_patient_id_fkey"):
			return ErrPatientNotFound
		case db.IsForeignKeyViolation(err, "mappings_doctor_id_fkey"):
			return ErrDoctorNotFound
		}
		return fmt.Errorf("insert mapping: %w", err)
	}

	saved, err := scanMapping(conn.QueryRow(ctx,
		`SELECT `+mappingCols+` FROM `+mappingFrom+` WHERE m.id = $1`, m.ID))
	if err != nil {
		return fmt.Errorf("reload mapping: %w", err)
	}
	*m = *saved
	return nil
}

func (r *mappingRepoPG) GetByID(ctx context.Context, owner, id uuid.UUID) (*Mapping, error) {
	return scanMapping(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+mappingCols+` FROM `+mappingFrom+` WHERE m.id = $1 AND m.created_by = $2`, id, owner))
}

// Update writes status and notes; the pair and assigned_date never change.
func (r *mappingRepoPG) Update(ctx context.Context, m *Mapping) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patient_doctor_mappings SET status = $3, notes = $4, updated_at = NOW()
		WHERE id = $1 AND created_by = $2
		RETURNING updated_at`,
		m.ID, m.CreatedBy, m.Status, m.Notes,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update mapping: %w", err)
	}
	return nil
}

func (r *mappingRepoPG) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM patient_doctor_mappings WHERE id = $1 AND created_by = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mappingRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Mapping, int, error) {
	qb := db.NewSearchQuery(mappingFrom, mappingCols)
	qb.Eq("m.created_by", f.Owner)
	if f.Status != "" {
		qb.Eq("m.status", f.Status)
	}
	if f.PatientID != nil {
		qb.Eq("m.patient_id", *f.PatientID)
	}
	qb.OrderBy("m.created_at DESC")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count mappings: %w", err)
	}

	rows, err := conn.Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()
	var items []*Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *mappingRepoPG) Exists(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient_doctor_mappings WHERE patient_id = $1 AND doctor_id = $2)`,
		patientID, doctorID,
	).Scan(&ok)
	return ok, err
}
