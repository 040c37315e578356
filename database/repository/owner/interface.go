package ownerRepo

import (
	"context"

	"vetbook/models"
)

// OwnerRepository provides access to pet-owner records.
type OwnerRepository interface {
	List(ctx context.Context) ([]models.PetOwner, error)
	GetByID(ctx context.Context, id string) (*models.PetOwner, error)
	Create(ctx context.Context, owner *models.PetOwner) error
	Update(ctx context.Context, owner *models.PetOwner) error
	Delete(ctx context.Context, id string) error
}
