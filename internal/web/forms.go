package web

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/patient"
)

var patientFields = []string{
	"first_name", "last_name", "email", "phone_number", "date_of_birth", "gender",
	"address", "city", "state", "zip_code", "blood_type", "allergies", "medical_history",
}

var doctorFields = []string{
	"first_name", "last_name", "email", "phone_number", "specialization", "license_number",
	"years_of_experience", "qualification", "clinic_name", "clinic_address", "city", "state",
	"zip_code", "consultation_fee",
}

// readForm collects the named fields. HTML forms submit every field, so a
// missing key reads as an empty value.
func readForm(c echo.Context, fields []string) map[string]string {
	form := make(map[string]string, len(fields))
	for _, f := range fields {
		form[f] = c.FormValue(f)
	}
	return form
}

func strp(form map[string]string, key string) *string {
	v := form[key]
	return &v
}

func nump(form map[string]string, key string) *json.Number {
	n := json.Number(strings.TrimSpace(form[key]))
	return &n
}

func patientInput(form map[string]string) patient.Input {
	return patient.Input{
		FirstName:      strp(form, "first_name"),
		LastName:       strp(form, "last_name"),
		Email:          strp(form, "email"),
		PhoneNumber:    strp(form, "phone_number"),
		DateOfBirth:    strp(form, "date_of_birth"),
		Gender:         strp(form, "gender"),
		Address:        strp(form, "address"),
		City:           strp(form, "city"),
		State:          strp(form, "state"),
		ZipCode:        strp(form, "zip_code"),
		BloodType:      strp(form, "blood_type"),
		Allergies:      strp(form, "allergies"),
		MedicalHistory: strp(form, "medical_history"),
	}
}

func patientForm(p *patient.Patient) map[string]string {
	return map[string]string{
		"first_name":      p.FirstName,
		"last_name":       p.LastName,
		"email":           p.Email,
		"phone_number":    p.PhoneNumber,
		"date_of_birth":   p.DateOfBirth.Format(time.DateOnly),
		"gender":          p.Gender,
		"address":         p.Address,
		"city":            p.City,
		"state":           p.State,
		"zip_code":        p.ZipCode,
		"blood_type":      p.BloodType,
		"allergies":       p.Allergies,
		"medical_history": p.MedicalHistory,
	}
}

// doctorInput maps the form onto an Input. An unchecked is_available box is
// absent from the submission and means false.
func doctorInput(form map[string]string, available bool) doctor.Input {
	return doctor.Input{
		FirstName:         strp(form, "first_name"),
		LastName:          strp(form, "last_name"),
		Email:             strp(form, "email"),
		PhoneNumber:       strp(form, "phone_number"),
		Specialization:    strp(form, "specialization"),
		LicenseNumber:     strp(form, "license_number"),
		YearsOfExperience: nump(form, "years_of_experience"),
		Qualification:     strp(form, "qualification"),
		ClinicName:        strp(form, "clinic_name"),
		ClinicAddress:     strp(form, "clinic_address"),
		City:              strp(form, "city"),
		State:             strp(form, "state"),
		ZipCode:           strp(form, "zip_code"),
		ConsultationFee:   nump(form, "consultation_fee"),
		IsAvailable:       &available,
	}
}

func doctorForm(d *doctor.Doctor) map[string]string {
	available := ""
	if d.IsAvailable {
		available = "on"
	}
	return map[string]string{
		"first_name":          d.FirstName,
		"last_name":           d.LastName,
		"email":               d.Email,
		"phone_number":        d.PhoneNumber,
		"specialization":      d.Specialization,
		"license_number":      d.LicenseNumber,
		"years_of_experience": strconv.Itoa(d.YearsOfExperience),
		"qualification":       d.Qualification,
		"clinic_name":         d.ClinicName,
		"clinic_address":      d.ClinicAddress,
		"city":                d.City,
		"state":               d.State,
		"zip_code":            d.ZipCode,
		"consultation_fee":    d.ConsultationFee,
		"is_available":        available,
	}
}
