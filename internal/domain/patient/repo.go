package patient

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository reads and writes patients. Every lookup takes the owning
// user and never returns another user's rows.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
	List(ctx context.Context, owner uuid.UUID, f ListFilter, limit, offset int) ([]*Patient, int, error)
	Count(ctx context.Context, owner uuid.UUID) (int, error)
	// EmailTaken checks all patients regardless of owner, skipping exclude.
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
}
