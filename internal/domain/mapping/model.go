package mapping

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/validation"
)

const (
	StatusActive    = "ACTIVE"
	StatusInactive  = "INACTIVE"
	StatusCompleted = "COMPLETED"
)

var Statuses = []string{StatusActive, StatusInactive, StatusCompleted}

var StatusNames = map[string]string{
	StatusActive:    "Active",
	StatusInactive:  "Inactive",
	StatusCompleted: "Completed",
}

// Mapping assigns one patient to one doctor. Patient and doctor display
// fields are joined in by the repository.
type Mapping struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	PatientID            uuid.UUID `db:"patient_id" json:"patient"`
	DoctorID             uuid.UUID `db:"doctor_id" json:"doctor"`
	CreatedBy            uuid.UUID `db:"created_by" json:"-"`
	CreatedByUsername    string    `json:"created_by_username"`
	PatientName          string    `json:"patient_name"`
	DoctorName           string    `json:"doctor_name"`
	DoctorSpecialization string    `json:"doctor_specialization"`
	DoctorClinic         string    `json:"-"`
	DoctorPhone          string    `json:"-"`
	AssignedDate         time.Time `db:"assigned_date" json:"assigned_date"`
	Status               string    `db:"status" json:"status"`
	Notes                string    `db:"notes" json:"notes"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

func (m *Mapping) StatusDisplay() string {
	if n, ok := StatusNames[m.Status]; ok {
		return n
	}
	return m.Status
}

// AssignedDoctor is a mapping seen from its patient.
type AssignedDoctor struct {
	ID                   uuid.UUID `json:"id"`
	Doctor               uuid.UUID `json:"doctor"`
	DoctorName           string    `json:"doctor_name"`
	DoctorSpecialization string    `json:"doctor_specialization"`
	DoctorClinic         string    `json:"doctor_clinic"`
	DoctorPhone          string    `json:"doctor_phone"`
	AssignedDate         time.Time `json:"assigned_date"`
	Status               string    `json:"status"`
	Notes                string    `json:"notes"`
}

func (m *Mapping) AssignedDoctor() AssignedDoctor {
	return AssignedDoctor{
		ID:                   m.ID,
		Doctor:               m.DoctorID,
		DoctorName:           m.DoctorName,
		DoctorSpecialization: m.DoctorSpecialization,
		DoctorClinic:         m.DoctorClinic,
		DoctorPhone:          m.DoctorPhone,
		AssignedDate:         m.AssignedDate,
		Status:               m.Status,
		Notes:                m.Notes,
	}
}

// CreateInput carries ids as strings so malformed values surface as field
// errors instead of bind failures.
type CreateInput struct {
	Patient *string `json:"patient"`
	Doctor  *string `json:"doctor"`
	Status  *string `json:"status"`
	Notes   *string `json:"notes"`
}

// UpdateInput is everything a mapping allows to change after creation.
type UpdateInput struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (in *UpdateInput) apply(m *Mapping, errs validation.Errors) {
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		if status == "" {
			errs.Add("status", `"" is not a valid choice.`)
		} else {
			errs.Choice("status", status, Statuses...)
		}
		if !errs.Has("status") {
			m.Status = status
		}
	}
	if in.Notes != nil {
		m.Notes = *in.Notes
	}
}

// ListFilter narrows List results. Owner is always applied.
type ListFilter struct {
	Owner     uuid.UUID
	Status    string
	PatientID *uuid.UUID
}
