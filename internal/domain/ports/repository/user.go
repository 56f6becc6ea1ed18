package repository

import (
	"context"

	"gym-membership-backend/internal/domain/model"
)

// UserRepository is the minimal port into the member directory owned by the
// account-management service. This core only reads, plus Save for seeding.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}
