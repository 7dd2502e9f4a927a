package doctor

import (
	"context"

	"github.com/google/uuid"
)

// DoctorRepository reads and writes doctors. Reads are global; Update and
// Delete only touch rows created by the given owner.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Doctor, int, error)
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	LicenseTaken(ctx context.Context, license string, exclude uuid.UUID) (bool, error)
}
