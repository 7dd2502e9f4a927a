package mapping

import (
	"context"

	"github.com/google/uuid"
)

type MappingRepository interface {
	Create(ctx context.Context, m *Mapping) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*Mapping, error)
	Update(ctx context.Context, m *Mapping) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Mapping, int, error)
	// Exists checks the pair across every owner.
	Exists(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
}
