// Package sandbox generates reproducible demo data: patients, doctors and
// the assignments between them. It is used by the seed command to populate
// a fresh database for development and UI demos.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SeedConfig controls the volume of generated data.
type SeedConfig struct {
	PatientCount          int
	DoctorCount           int
	AssignmentsPerPatient int
	Seed                  int64
}

// DefaultSeedConfig returns a small data set that fills a couple of list pages.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		PatientCount:          25,
		DoctorCount:           15,
		AssignmentsPerPatient: 2,
	}
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Patients    int           `json:"patients"`
	Doctors     int           `json:"doctors"`
	Assignments int           `json:"assignments"`
	Skipped     int           `json:"skipped"`
	Duration    time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Name and address pools
// ---------------------------------------------------------------------------

var (
	firstNamesMale = []string{
		"James", "John", "Robert", "Michael", "William", "David", "Richard",
		"Joseph", "Thomas", "Christopher", "Charles", "Daniel", "Matthew",
		"Anthony", "Mark", "Steven", "Paul", "Andrew", "Joshua", "Kevin",
	}
	firstNamesFemale = []string{
		"Mary", "Patricia", "Jennifer", "Linda", "Barbara", "Elizabeth",
		"Susan", "Jessica", "Sarah", "Karen", "Lisa", "Nancy", "Emily",
		"Michelle", "Amanda", "Laura", "Rachel", "Anna", "Helen", "Maria",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
		"Miller", "Davis", "Rodriguez", "Martinez", "Wilson", "Anderson",
		"Taylor", "Moore", "Jackson", "Martin", "Lee", "Thompson", "White",
		"Harris", "Clark", "Lewis", "Walker", "Young", "King", "Nguyen",
	}

	streets = []string{
		"123 Main St", "456 Oak Ave", "789 Elm St", "321 Pine Rd",
		"654 Maple Dr", "987 Cedar Ln", "147 Birch Blvd", "258 Walnut Way",
	}
	places = []struct{ City, State, Zip string }{
		{"New York", "NY", "10001"},
		{"Los Angeles", "CA", "90001"},
		{"Chicago", "IL", "60601"},
		{"Houston", "TX", "77001"},
		{"Phoenix", "AZ", "85001"},
		{"Philadelphia", "PA", "19101"},
		{"Columbus", "OH", "43201"},
		{"Charlotte", "NC", "28201"},
	}

	allergies = []string{"", "", "Penicillin", "Peanuts", "Latex", "Shellfish", "Pollen"}
	histories = []string{"", "Hypertension", "Type 2 diabetes", "Asthma", "Appendectomy (2015)"}

	qualifications  = []string{"MD", "MD, PhD", "DO", "MBBS", "MD, FACC"}
	clinicSuffixes  = []string{"Medical Center", "Clinic", "Health Partners", "Family Practice", "Specialty Care"}
	assignmentNotes = []string{"", "Initial consultation", "Referred for follow-up", "Annual checkup"}
)

// ---------------------------------------------------------------------------
// DataGenerator
// ---------------------------------------------------------------------------

// DataGenerator produces deterministic patient and doctor inputs. Emails and
// license numbers carry a run tag and a counter so repeated runs do not
// collide with earlier data.
type DataGenerator struct {
	rng     *rand.Rand
	tag     string
	counter int
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed is
// 0 a time-based seed is chosen.
func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return &DataGenerator{rng: rng, tag: fmt.Sprintf("%06x", rng.Intn(1<<24))}
}

func (g *DataGenerator) next() int {
	g.counter++
	return g.counter
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) randomDate(minYear, maxYear int) string {
	y := minYear + g.rng.Intn(maxYear-minYear+1)
	m := 1 + g.rng.Intn(12)
	d := 1 + g.rng.Intn(28)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func (g *DataGenerator) randomPhone() string {
	return fmt.Sprintf("(%03d) %03d-%04d",
		200+g.rng.Intn(800),
		200+g.rng.Intn(800),
		g.rng.Intn(10000),
	)
}

func (g *DataGenerator) person() (first, last, gender string) {
	switch g.rng.Intn(2) {
	case 0:
		first, gender = g.pick(firstNamesMale), "M"
	default:
		first, gender = g.pick(firstNamesFemale), "F"
	}
	return first, g.pick(lastNames), gender
}

func str(s string) *string { return &s }

// Patient produces a valid patient input.
func (g *DataGenerator) Patient() patient.Input {
	first, last, gender := g.person()
	place := places[g.rng.Intn(len(places))]
	email := fmt.Sprintf("%s.%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), g.tag, g.next())

	bloodType := ""
	if g.rng.Intn(4) > 0 {
		bloodType = g.pick(patient.BloodTypes)
	}

	return patient.Input{
		FirstName:      str(first),
		LastName:       str(last),
		Email:          str(email),
		PhoneNumber:    str(g.randomPhone()),
		DateOfBirth:    str(g.randomDate(1940, 2015)),
		Gender:         str(gender),
		Address:        str(g.pick(streets)),
		City:           str(place.City),
		State:          str(place.State),
		ZipCode:        str(place.Zip),
		BloodType:      str(bloodType),
		Allergies:      str(g.pick(allergies)),
		MedicalHistory: str(g.pick(histories)),
	}
}

// Doctor produces a valid doctor input. Roughly one doctor in six is
// unavailable.
func (g *DataGenerator) Doctor() doctor.Input {
	first, last, _ := g.person()
	place := places[g.rng.Intn(len(places))]
	n := g.next()

	years := json.Number(fmt.Sprint(1 + g.rng.Intn(35)))
	fee := json.Number(fmt.Sprintf("%d.%02d", 50+g.rng.Intn(450), 5*g.rng.Intn(20)))
	available := g.rng.Intn(6) > 0

	return doctor.Input{
		FirstName:         str(first),
		LastName:          str(last),
		Email:             str(fmt.Sprintf("dr.%s.%s%d@example.com", strings.ToLower(last), g.tag, n)),
		PhoneNumber:       str(g.randomPhone()),
		Specialization:    str(g.pick(doctor.Specializations)),
		LicenseNumber:     str(fmt.Sprintf("LIC-%s-%05d", g.tag, n)),
		YearsOfExperience: &years,
		Qualification:     str(g.pick(qualifications)),
		ClinicName:        str(last + " " + g.pick(clinicSuffixes)),
		ClinicAddress:     str(g.pick(streets)),
		City:              str(place.City),
		State:             str(place.State),
		ZipCode:           str(place.Zip),
		ConsultationFee:   &fee,
		IsAvailable:       &available,
	}
}

// Assignment pairs a patient with a doctor.
func (g *DataGenerator) Assignment(patientID, doctorID uuid.UUID) mapping.CreateInput {
	status := mapping.StatusActive
	if g.rng.Intn(5) == 0 {
		status = g.pick(mapping.Statuses)
	}
	return mapping.CreateInput{
		Patient: str(patientID.String()),
		Doctor:  str(doctorID.String()),
		Status:  str(status),
		Notes:   str(g.pick(assignmentNotes)),
	}
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

type PatientCreator interface {
	Create(ctx context.Context, owner uuid.UUID, in patient.Input) (*patient.Patient, error)
}

type DoctorCreator interface {
	Create(ctx context.Context, owner uuid.UUID, in doctor.Input) (*doctor.Doctor, error)
}

type MappingCreator interface {
	Create(ctx context.Context, owner uuid.UUID, in mapping.CreateInput) (*mapping.Mapping, error)
}

// Seeder writes generated records through the domain services, so every
// record passes the same validation as user input.
type Seeder struct {
	generator *DataGenerator
	config    SeedConfig
	patients  PatientCreator
	doctors   DoctorCreator
	mappings  MappingCreator
	logger    zerolog.Logger
}

func NewSeeder(config SeedConfig, patients PatientCreator, doctors DoctorCreator, mappings MappingCreator, logger zerolog.Logger) *Seeder {
	return &Seeder{
		generator: NewDataGenerator(config.Seed),
		config:    config,
		patients:  patients,
		doctors:   doctors,
		mappings:  mappings,
		logger:    logger.With().Str("component", "sandbox").Logger(),
	}
}

// Run creates the configured records for owner. Assignments that the
// services reject (a pair drawn twice) are counted as skipped.
func (s *Seeder) Run(ctx context.Context, owner uuid.UUID) (*SeedResult, error) {
	start := time.Now()
	result := &SeedResult{}

	doctorIDs := make([]uuid.UUID, 0, s.config.DoctorCount)
	for i := 0; i < s.config.DoctorCount; i++ {
		d, err := s.doctors.Create(ctx, owner, s.generator.Doctor())
		if err != nil {
			return result, fmt.Errorf("create doctor %d: %w", i+1, err)
		}
		doctorIDs = append(doctorIDs, d.ID)
		result.Doctors++
	}

	for i := 0; i < s.config.PatientCount; i++ {
		p, err := s.patients.Create(ctx, owner, s.generator.Patient())
		if err != nil {
			return result, fmt.Errorf("create patient %d: %w", i+1, err)
		}
		result.Patients++

		if len(doctorIDs) == 0 {
			continue
		}
		for j := 0; j < s.config.AssignmentsPerPatient; j++ {
			doctorID := doctorIDs[s.generator.rng.Intn(len(doctorIDs))]
			if _, err := s.mappings.Create(ctx, owner, s.generator.Assignment(p.ID, doctorID)); err != nil {
				s.logger.Debug().Err(err).Str("patient_id", p.ID.String()).Msg("assignment skipped")
				result.Skipped++
				continue
			}
			result.Assignments++
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info().
		Int("patients", result.Patients).
		Int("doctors", result.Doctors).
		Int("assignments", result.Assignments).
		Dur("took", result.Duration).
		Msg("seed finished")
	return result, nil
}
