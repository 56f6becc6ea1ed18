package repository

import (
	"context"

	"gym-membership-backend/internal/domain/model"
)

// MembershipTypeRepository is the port for the plan catalog.
type MembershipTypeRepository interface {
	Save(ctx context.Context, tx Tx, mt *model.MembershipType) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MembershipType, error)
	FindByTitle(ctx context.Context, tx Tx, title model.MembershipTitle) (*model.MembershipType, error)
	// ListAll returns the full catalog sorted ascending by price.
	ListAll(ctx context.Context, tx Tx) ([]*model.MembershipType, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.MembershipType, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
