package repository

import (
	"context"
	"time"

	"gym-membership-backend/internal/domain/model"
)

// MembershipRepository is the port for membership records.
type MembershipRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Membership) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Membership, error)
	// FindActiveByUser returns the membership with is_active=true and
	// end_date >= now, or ErrNotFound. Backs the one-active-membership
	// uniqueness check.
	FindActiveByUser(ctx context.Context, tx Tx, userID string, now time.Time) (*model.Membership, error)
	// CountActive counts memberships with is_active=true and end_date >= now.
	CountActive(ctx context.Context, tx Tx, now time.Time) (int, error)
	// DeactivateExpired clears is_active on the user's rows whose window
	// has elapsed. Expiry is otherwise corrected lazily on reads, so every
	// activation must sweep first or the one-active unique index can
	// reject the new row because of a stale unread one.
	DeactivateExpired(ctx context.Context, tx Tx, userID string, now time.Time) error
	Delete(ctx context.Context, tx Tx, id string) error

	// Read-side joined projections.
	FindDetailByID(ctx context.Context, tx Tx, id string) (*model.MembershipDetail, error)
	ListDetailsByUser(ctx context.Context, tx Tx, userID string) ([]*model.MembershipDetail, error)
	ListDetails(ctx context.Context, tx Tx, onlyActive bool, offset, limit int) ([]*model.MembershipDetail, int, error)
}
