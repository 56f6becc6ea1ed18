package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ MembershipTypeUseCase = (*membershipTypeUC)(nil)

// UpdateMembershipTypeParams is a partial patch; nil fields are left as-is.
type UpdateMembershipTypeParams struct {
	Title       *model.MembershipTitle
	PriceNPR    *int64
	Duration    *model.Duration
	AccessStart *string
	AccessEnd   *string
	IsActive    *bool
	Description *string
}

type MembershipTypeUseCase interface {
	Create(ctx context.Context, title model.MembershipTitle, priceNPR int64, dur model.Duration, description string) (*model.MembershipType, error)
	Get(ctx context.Context, id string) (*model.MembershipType, error)
	// List returns the whole catalog sorted ascending by price.
	List(ctx context.Context) ([]*model.MembershipType, error)
	ListActive(ctx context.Context) ([]*model.MembershipType, error)
	Update(ctx context.Context, id string, patch UpdateMembershipTypeParams) (*model.MembershipType, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) (*model.MembershipType, error)
}

type membershipTypeUC struct {
	types repository.MembershipTypeRepository
	log   *zerolog.Logger
}

func NewMembershipTypeUseCase(types repository.MembershipTypeRepository, logger *zerolog.Logger) *membershipTypeUC {
	return &membershipTypeUC{types: types, log: logger}
}

func (u *membershipTypeUC) Create(ctx context.Context, title model.MembershipTitle, priceNPR int64, dur model.Duration, description string) (*model.MembershipType, error) {
	mt, err := model.NewMembershipType(uuid.NewString(), title, priceNPR, dur)
	if err != nil {
		return nil, err
	}
	mt.Description = description

	if _, err := u.types.FindByTitle(ctx, nil, title); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if err := u.types.Save(ctx, nil, mt); err != nil {
		return nil, err
	}
	u.log.Info().Str("type_id", mt.ID).Str("title", string(mt.Title)).Msg("membership type created")
	return mt, nil
}

func (u *membershipTypeUC) Get(ctx context.Context, id string) (*model.MembershipType, error) {
	return u.types.FindByID(ctx, nil, id)
}

func (u *membershipTypeUC) List(ctx context.Context) ([]*model.MembershipType, error) {
	return u.types.ListAll(ctx, nil)
}

func (u *membershipTypeUC) ListActive(ctx context.Context) ([]*model.MembershipType, error) {
	return u.types.ListActive(ctx, nil)
}

func (u *membershipTypeUC) Update(ctx context.Context, id string, patch UpdateMembershipTypeParams) (*model.MembershipType, error) {
	mt, err := u.types.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil && *patch.Title != mt.Title {
		if !patch.Title.Valid() {
			return nil, domain.ErrInvalidArgument
		}
		if other, err := u.types.FindByTitle(ctx, nil, *patch.Title); err == nil && other.ID != id {
			return nil, domain.ErrConflict
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		mt.Title = *patch.Title
	}
	if patch.PriceNPR != nil {
		if *patch.PriceNPR <= 0 {
			return nil, domain.ErrInvalidArgument
		}
		mt.PriceNPR = *patch.PriceNPR
	}
	if patch.Duration != nil {
		if !patch.Duration.Valid() {
			return nil, domain.ErrInvalidArgument
		}
		mt.Duration = *patch.Duration
	}
	if patch.AccessStart != nil {
		mt.AccessStart = *patch.AccessStart
	}
	if patch.AccessEnd != nil {
		mt.AccessEnd = *patch.AccessEnd
	}
	if patch.IsActive != nil {
		mt.IsActive = *patch.IsActive
	}
	if patch.Description != nil {
		mt.Description = *patch.Description
	}

	if err := u.types.Save(ctx, nil, mt); err != nil {
		return nil, err
	}
	return mt, nil
}

func (u *membershipTypeUC) Delete(ctx context.Context, id string) error {
	return u.types.Delete(ctx, nil, id)
}

func (u *membershipTypeUC) SetActive(ctx context.Context, id string, active bool) (*model.MembershipType, error) {
	return u.Update(ctx, id, UpdateMembershipTypeParams{IsActive: &active})
}
