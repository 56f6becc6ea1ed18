package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
)

// Compile-time check
var _ MembershipUseCase = (*membershipUC)(nil)

// ActiveStatus answers "does this user currently have access".
type ActiveStatus struct {
	HasActive     bool
	Membership    *model.MembershipDetail
	DaysRemaining int
}

// UpdateMembershipParams is a partial patch for an admin-side correction.
type UpdateMembershipParams struct {
	TypeID        *string
	StartDate     *time.Time
	PaymentStatus *model.MembershipPaymentStatus
	IsActive      *bool
}

type MembershipUseCase interface {
	// Create records a membership directly, bypassing the gateway flow.
	// Used for cash/comp signups; paid means activate immediately.
	Create(ctx context.Context, userID, typeID string, paid bool) (*model.Membership, error)
	Get(ctx context.Context, id string) (*model.MembershipDetail, error)
	ListByUser(ctx context.Context, userID string) ([]*model.MembershipDetail, error)
	List(ctx context.Context, onlyActive bool, offset, limit int) ([]*model.MembershipDetail, int, error)
	Update(ctx context.Context, id string, patch UpdateMembershipParams) (*model.Membership, error)
	// Delete removes a membership record; refuses when a payment is linked.
	Delete(ctx context.Context, id string) error
	// CheckActive reports the user's current entitlement, applying expiry
	// lazily: an elapsed window is persisted as inactive on the spot.
	CheckActive(ctx context.Context, userID string) (*ActiveStatus, error)
}

type membershipUC struct {
	memberships repository.MembershipRepository
	types       repository.MembershipTypeRepository
	users       repository.UserRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewMembershipUseCase(
	memberships repository.MembershipRepository,
	types repository.MembershipTypeRepository,
	users repository.UserRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *membershipUC {
	return &membershipUC{memberships: memberships, types: types, users: users, tm: tm, log: logger}
}

func (u *membershipUC) Create(ctx context.Context, userID, typeID string, paid bool) (*model.Membership, error) {
	if _, err := u.users.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	mt, err := u.types.FindByID(ctx, nil, typeID)
	if err != nil {
		return nil, err
	}

	var m *model.Membership
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := u.memberships.DeactivateExpired(ctx, tx, userID, time.Now()); err != nil {
			return err
		}
		if _, err := u.memberships.FindActiveByUser(ctx, tx, userID, time.Now()); err == nil {
			return domain.ErrConflict
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		m, err = model.NewPendingMembership(uuid.NewString(), userID, mt)
		if err != nil {
			return err
		}
		if paid {
			m.Activate(mt.Duration, time.Now())
		}
		return u.memberships.Save(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}
	if paid {
		metrics.IncMembershipEvent("activated")
	}
	u.log.Info().Str("membership_id", m.ID).Str("user_id", userID).Bool("paid", paid).Msg("membership created")
	return m, nil
}

func (u *membershipUC) Get(ctx context.Context, id string) (*model.MembershipDetail, error) {
	d, err := u.memberships.FindDetailByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	u.applyExpiry(ctx, &d.Membership)
	return d, nil
}

func (u *membershipUC) ListByUser(ctx context.Context, userID string) ([]*model.MembershipDetail, error) {
	items, err := u.memberships.ListDetailsByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	for _, d := range items {
		u.applyExpiry(ctx, &d.Membership)
	}
	return items, nil
}

func (u *membershipUC) List(ctx context.Context, onlyActive bool, offset, limit int) ([]*model.MembershipDetail, int, error) {
	items, total, err := u.memberships.ListDetails(ctx, nil, onlyActive, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for _, d := range items {
		u.applyExpiry(ctx, &d.Membership)
	}
	return items, total, nil
}

func (u *membershipUC) Update(ctx context.Context, id string, patch UpdateMembershipParams) (*model.Membership, error) {
	var m *model.Membership
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		m, err = u.memberships.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		now := time.Now()

		if patch.TypeID != nil && *patch.TypeID != m.TypeID {
			mt, err := u.types.FindByID(ctx, tx, *patch.TypeID)
			if err != nil {
				return err
			}
			// Plan change keeps the original start and re-derives the end.
			m.TypeID = mt.ID
			m.EndDate = mt.Duration.EndFrom(m.StartDate)
		}
		if patch.StartDate != nil {
			mt, err := u.types.FindByID(ctx, tx, m.TypeID)
			if err != nil {
				return err
			}
			m.StartDate = *patch.StartDate
			m.EndDate = mt.Duration.EndFrom(m.StartDate)
		}
		if patch.PaymentStatus != nil {
			m.PaymentStatus = *patch.PaymentStatus
			// Completed turns the record on; anything else turns it off.
			m.IsActive = *patch.PaymentStatus == model.MembershipCompleted
		}
		if patch.IsActive != nil {
			if *patch.IsActive && m.PaymentStatus != model.MembershipCompleted {
				return domain.ErrInvalidState
			}
			m.IsActive = *patch.IsActive
		}
		m.RecomputeExpiry(now)
		m.UpdatedAt = now
		if m.IsActive {
			if err := u.memberships.DeactivateExpired(ctx, tx, m.UserID, now); err != nil {
				return err
			}
		}
		return u.memberships.Save(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (u *membershipUC) Delete(ctx context.Context, id string) error {
	m, err := u.memberships.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if m.PaymentID != nil {
		return domain.ErrConflict
	}
	return u.memberships.Delete(ctx, nil, id)
}

func (u *membershipUC) CheckActive(ctx context.Context, userID string) (*ActiveStatus, error) {
	if _, err := u.users.FindByID(ctx, nil, userID); err != nil {
		return nil, err
	}
	now := time.Now()
	m, err := u.memberships.FindActiveByUser(ctx, nil, userID, now)
	if errors.Is(err, domain.ErrNotFound) {
		return &ActiveStatus{}, nil
	}
	if err != nil {
		return nil, err
	}
	u.applyExpiry(ctx, m)
	if !m.CurrentlyActive(now) {
		return &ActiveStatus{}, nil
	}
	d, err := u.memberships.FindDetailByID(ctx, nil, m.ID)
	if err != nil {
		return nil, err
	}
	return &ActiveStatus{
		HasActive:     true,
		Membership:    d,
		DaysRemaining: m.DaysRemaining(now),
	}, nil
}

// applyExpiry persists the lazily-detected expiry so reads stay consistent
// with the partial unique index. Persist failures are logged, not returned:
// the caller still gets the corrected view.
func (u *membershipUC) applyExpiry(ctx context.Context, m *model.Membership) {
	now := time.Now()
	if !m.IsActive || !m.EndDate.Before(now) {
		return
	}
	m.RecomputeExpiry(now)
	m.UpdatedAt = now
	if err := u.memberships.Save(ctx, nil, m); err != nil {
		u.log.Warn().Err(err).Str("membership_id", m.ID).Msg("failed to persist expiry")
		return
	}
	metrics.IncMembershipEvent("expired")
}
