package doctor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlink/medlink/internal/platform/validation"
)

// Specializations in display order.
var Specializations = []string{
	"CARDIOLOGY", "DERMATOLOGY", "EMERGENCY", "ENDOCRINOLOGY", "GASTROENTEROLOGY",
	"GENERAL", "NEUROLOGY", "ONCOLOGY", "ORTHOPEDICS", "PEDIATRICS",
	"PSYCHIATRY", "RADIOLOGY", "SURGERY", "UROLOGY", "OTHER",
}

var SpecializationNames = map[string]string{
	"CARDIOLOGY":       "Cardiology",
	"DERMATOLOGY":      "Dermatology",
	"EMERGENCY":        "Emergency Medicine",
	"ENDOCRINOLOGY":    "Endocrinology",
	"GASTROENTEROLOGY": "Gastroenterology",
	"GENERAL":          "General Medicine",
	"NEUROLOGY":        "Neurology",
	"ONCOLOGY":         "Oncology",
	"ORTHOPEDICS":      "Orthopedics",
	"PEDIATRICS":       "Pediatrics",
	"PSYCHIATRY":       "Psychiatry",
	"RADIOLOGY":        "Radiology",
	"SURGERY":          "Surgery",
	"UROLOGY":          "Urology",
	"OTHER":            "Other",
}

// Doctor maps to the doctors table. ConsultationFee holds the NUMERIC(10,2)
// value in its canonical text form, e.g. "150.00".
type Doctor struct {
	ID                uuid.UUID `db:"id" json:"id"`
	CreatedBy         uuid.UUID `db:"created_by" json:"-"`
	CreatedByUsername string    `json:"created_by_username"`
	FirstName         string    `db:"first_name" json:"first_name"`
	LastName          string    `db:"last_name" json:"last_name"`
	Email             string    `db:"email" json:"email"`
	PhoneNumber       string    `db:"phone_number" json:"phone_number"`
	Specialization    string    `db:"specialization" json:"specialization"`
	LicenseNumber     string    `db:"license_number" json:"license_number"`
	YearsOfExperience int       `db:"years_of_experience" json:"years_of_experience"`
	Qualification     string    `db:"qualification" json:"qualification"`
	ClinicName        string    `db:"clinic_name" json:"clinic_name"`
	ClinicAddress     string    `db:"clinic_address" json:"clinic_address"`
	City              string    `db:"city" json:"city"`
	State             string    `db:"state" json:"state"`
	ZipCode           string    `db:"zip_code" json:"zip_code"`
	ConsultationFee   string    `db:"consultation_fee" json:"consultation_fee"`
	IsAvailable       bool      `db:"is_available" json:"is_available"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

func (d *Doctor) FullName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

func (d *Doctor) SpecializationDisplay() string {
	if n, ok := SpecializationNames[d.Specialization]; ok {
		return n
	}
	return d.Specialization
}

func (d Doctor) MarshalJSON() ([]byte, error) {
	type alias Doctor
	return json.Marshal(struct {
		alias
		FullName              string `json:"full_name"`
		SpecializationDisplay string `json:"specialization_display"`
	}{
		alias:                 alias(d),
		FullName:              d.FullName(),
		SpecializationDisplay: d.SpecializationDisplay(),
	})
}

// ListItem is the compact representation served by the public directory.
type ListItem struct {
	ID                uuid.UUID `json:"id"`
	FullName          string    `json:"full_name"`
	Specialization    string    `json:"specialization"`
	YearsOfExperience int       `json:"years_of_experience"`
	Qualification     string    `json:"qualification"`
	ClinicName        string    `json:"clinic_name"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	ConsultationFee   string    `json:"consultation_fee"`
	IsAvailable       bool      `json:"is_available"`
}

func (d *Doctor) ListItem() ListItem {
	return ListItem{
		ID:                d.ID,
		FullName:          d.FullName(),
		Specialization:    d.Specialization,
		YearsOfExperience: d.YearsOfExperience,
		Qualification:     d.Qualification,
		ClinicName:        d.ClinicName,
		City:              d.City,
		State:             d.State,
		ConsultationFee:   d.ConsultationFee,
		IsAvailable:       d.IsAvailable,
	}
}

// Input is the writable subset of a doctor. Numbers are accepted either as
// JSON numbers or numeric strings.
type Input struct {
	FirstName         *string      `json:"first_name"`
	LastName          *string      `json:"last_name"`
	Email             *string      `json:"email"`
	PhoneNumber       *string      `json:"phone_number"`
	Specialization    *string      `json:"specialization"`
	LicenseNumber     *string      `json:"license_number"`
	YearsOfExperience *json.Number `json:"years_of_experience"`
	Qualification     *string      `json:"qualification"`
	ClinicName        *string      `json:"clinic_name"`
	ClinicAddress     *string      `json:"clinic_address"`
	City              *string      `json:"city"`
	State             *string      `json:"state"`
	ZipCode           *string      `json:"zip_code"`
	ConsultationFee   *json.Number `json:"consultation_fee"`
	IsAvailable       *bool        `json:"is_available"`
}

const (
	msgInteger   = "A valid integer is required."
	msgNumber    = "A valid number is required."
	msgNegative  = "Ensure this value is greater than or equal to 0."
	maxFeeDigits = 8
)

// Apply validates the input and copies present fields onto d. With partial
// false every required field must be present.
func (in *Input) Apply(d *Doctor, partial bool) validation.Errors {
	errs := validation.Errors{}

	text := func(field string, v *string, dst *string, max int) {
		if v == nil {
			if !partial {
				errs.Add(field, validation.MsgRequired)
			}
			return
		}
		val := strings.TrimSpace(*v)
		errs.Required(field, val)
		if max > 0 {
			errs.MaxLength(field, val, max)
		}
		*dst = val
	}

	text("first_name", in.FirstName, &d.FirstName, 100)
	text("last_name", in.LastName, &d.LastName, 100)
	text("email", in.Email, &d.Email, 254)
	text("phone_number", in.PhoneNumber, &d.PhoneNumber, 15)
	text("specialization", in.Specialization, &d.Specialization, 20)
	text("license_number", in.LicenseNumber, &d.LicenseNumber, 50)
	text("qualification", in.Qualification, &d.Qualification, 200)
	text("clinic_name", in.ClinicName, &d.ClinicName, 200)
	text("clinic_address", in.ClinicAddress, &d.ClinicAddress, 0)
	text("city", in.City, &d.City, 100)
	text("state", in.State, &d.State, 100)
	text("zip_code", in.ZipCode, &d.ZipCode, 10)

	if in.Email != nil {
		errs.Email("email", d.Email)
	}
	if in.Specialization != nil && !errs.Has("specialization") {
		errs.Choice("specialization", d.Specialization, Specializations...)
	}

	switch {
	case in.YearsOfExperience != nil:
		if years, ok := parseYears(errs, *in.YearsOfExperience); ok {
			d.YearsOfExperience = years
		}
	case !partial:
		errs.Add("years_of_experience", validation.MsgRequired)
	}

	switch {
	case in.ConsultationFee != nil:
		if fee, ok := parseFee(errs, *in.ConsultationFee); ok {
			d.ConsultationFee = fee
		}
	case !partial:
		errs.Add("consultation_fee", validation.MsgRequired)
	}

	if in.IsAvailable != nil {
		d.IsAvailable = *in.IsAvailable
	}

	return errs
}

func parseYears(errs validation.Errors, n json.Number) (int, bool) {
	years, err := strconv.Atoi(strings.TrimSpace(string(n)))
	if err != nil {
		errs.Add("years_of_experience", msgInteger)
		return 0, false
	}
	if years < 0 {
		errs.Add("years_of_experience", msgNegative)
		return 0, false
	}
	return years, true
}

var decimalPattern = regexp.MustCompile(`^([0-9]*)(?:\.([0-9]*))?$`)

// parseFee checks a non-negative decimal with at most 8 integer digits and 2
// decimal places and returns it formatted with exactly 2 places.
func parseFee(errs validation.Errors, n json.Number) (string, bool) {
	raw := strings.TrimSpace(string(n))
	negative := strings.HasPrefix(raw, "-")
	m := decimalPattern.FindStringSubmatch(strings.TrimLeft(raw, "+-"))
	if m == nil || m[1]+m[2] == "" {
		errs.Add("consultation_fee", msgNumber)
		return "", false
	}
	whole, frac := strings.TrimLeft(m[1], "0"), m[2]
	if negative && strings.Trim(whole+frac, "0") != "" {
		errs.Add("consultation_fee", msgNegative)
		return "", false
	}
	if len(frac) > 2 {
		errs.Add("consultation_fee", "Ensure that there are no more than 2 decimal places.")
		return "", false
	}
	if len(whole) > maxFeeDigits {
		errs.Add("consultation_fee", fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxFeeDigits))
		return "", false
	}
	if whole == "" {
		whole = "0"
	}
	return whole + "." + (frac + "00")[:2], true
}

// ListFilter narrows List results. A nil CreatedBy matches every owner.
type ListFilter struct {
	Search         string
	Specialization string
	Available      *bool
	CreatedBy      *uuid.UUID
}
