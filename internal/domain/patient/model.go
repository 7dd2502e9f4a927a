package patient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/validation"
)

var Genders = []string{"M", "F", "O"}

var GenderNames = map[string]string{"M": "Male", "F": "Female", "O": "Other"}

var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Patient maps to the patients table. CreatedByUsername is joined from users.
type Patient struct {
	ID                uuid.UUID `db:"id" json:"id"`
	CreatedBy         uuid.UUID `db:"created_by" json:"-"`
	CreatedByUsername string    `json:"created_by_username"`
	FirstName         string    `db:"first_name" json:"first_name"`
	LastName          string    `db:"last_name" json:"last_name"`
	Email             string    `db:"email" json:"email"`
	PhoneNumber       string    `db:"phone_number" json:"phone_number"`
	DateOfBirth       time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender            string    `db:"gender" json:"gender"`
	Address           string    `db:"address" json:"address"`
	City              string    `db:"city" json:"city"`
	State             string    `db:"state" json:"state"`
	ZipCode           string    `db:"zip_code" json:"zip_code"`
	BloodType         string    `db:"blood_type" json:"blood_type"`
	Allergies         string    `db:"allergies" json:"allergies"`
	MedicalHistory    string    `db:"medical_history" json:"medical_history"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

func (p *Patient) GenderDisplay() string {
	if n, ok := GenderNames[p.Gender]; ok {
		return n
	}
	return p.Gender
}

// MarshalJSON adds full_name and renders date_of_birth as YYYY-MM-DD.
func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		alias
		FullName    string `json:"full_name"`
		DateOfBirth string `json:"date_of_birth"`
	}{
		alias:       alias(p),
		FullName:    p.FullName(),
		DateOfBirth: p.DateOfBirth.Format(time.DateOnly),
	})
}

// Input is the writable subset of a patient. Nil fields are absent from the
// request; id, created_by and timestamps are not part of it.
type Input struct {
	FirstName      *string `json:"first_name" form:"first_name"`
	LastName       *string `json:"last_name" form:"last_name"`
	Email          *string `json:"email" form:"email"`
	PhoneNumber    *string `json:"phone_number" form:"phone_number"`
	DateOfBirth    *string `json:"date_of_birth" form:"date_of_birth"`
	Gender         *string `json:"gender" form:"gender"`
	Address        *string `json:"address" form:"address"`
	City           *string `json:"city" form:"city"`
	State          *string `json:"state" form:"state"`
	ZipCode        *string `json:"zip_code" form:"zip_code"`
	BloodType      *string `json:"blood_type" form:"blood_type"`
	Allergies      *string `json:"allergies" form:"allergies"`
	MedicalHistory *string `json:"medical_history" form:"medical_history"`
}

// Apply validates the input and copies present fields onto p. With partial
// false every required field must be present.
func (in *Input) Apply(p *Patient, partial bool) validation.Errors {
	errs := validation.Errors{}

	text := func(field string, v *string, dst *string, required bool, max int) {
		if v == nil {
			if required && !partial {
				errs.Add(field, validation.MsgRequired)
			}
			return
		}
		val := strings.TrimSpace(*v)
		if required {
			errs.Required(field, val)
		}
		if max > 0 {
			errs.MaxLength(field, val, max)
		}
		*dst = val
	}

	text("first_name", in.FirstName, &p.FirstName, true, 100)
	text("last_name", in.LastName, &p.LastName, true, 100)
	text("email", in.Email, &p.Email, true, 254)
	text("phone_number", in.PhoneNumber, &p.PhoneNumber, true, 15)
	text("gender", in.Gender, &p.Gender, true, 1)
	text("address", in.Address, &p.Address, true, 0)
	text("city", in.City, &p.City, true, 100)
	text("state", in.State, &p.State, true, 100)
	text("zip_code", in.ZipCode, &p.ZipCode, true, 10)
	text("blood_type", in.BloodType, &p.BloodType, false, 3)
	text("allergies", in.Allergies, &p.Allergies, false, 0)
	text("medical_history", in.MedicalHistory, &p.MedicalHistory, false, 0)

	if in.Email != nil {
		errs.Email("email", p.Email)
	}
	if in.Gender != nil && !errs.Has("gender") {
		errs.Choice("gender", p.Gender, Genders...)
	}
	if in.BloodType != nil && !errs.Has("blood_type") {
		errs.Choice("blood_type", p.BloodType, BloodTypes...)
	}

	switch {
	case in.DateOfBirth != nil:
		if d := errs.ParseDate("date_of_birth", strings.TrimSpace(*in.DateOfBirth)); !d.IsZero() {
			p.DateOfBirth = d
		}
	case !partial:
		errs.Add("date_of_birth", validation.MsgRequired)
	}

	return errs
}

// ListFilter narrows List results.
type ListFilter struct {
	Search    string
	Gender    string
	City      string
	BloodType string
}
