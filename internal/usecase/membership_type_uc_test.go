//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/usecase"
)

func TestMembershipTypeUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a plan with door-window defaults", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())

		mt, err := uc.Create(ctx, model.TitleMonthly, 2000, model.Months(1), "standard plan")

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if mt.AccessStart != "05:00" || mt.AccessEnd != "20:30" {
			t.Errorf("expected default access window, got %s-%s", mt.AccessStart, mt.AccessEnd)
		}
		if !mt.IsActive {
			t.Error("a new plan should be purchasable")
		}
	})

	t.Run("should reject a duplicate title", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())
		if _, err := uc.Create(ctx, model.TitleMonthly, 2000, model.Months(1), ""); err != nil {
			t.Fatalf("first create failed: %v", err)
		}

		_, err := uc.Create(ctx, model.TitleMonthly, 2500, model.Months(1), "")

		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("should reject invalid input", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())

		cases := []struct {
			name  string
			title model.MembershipTitle
			price int64
			dur   model.Duration
		}{
			{"unknown title", "Platinum", 2000, model.Months(1)},
			{"zero price", model.TitleMonthly, 0, model.Months(1)},
			{"negative price", model.TitleMonthly, -5, model.Months(1)},
			{"zero duration", model.TitleMonthly, 2000, model.Days(0)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := uc.Create(ctx, tc.title, tc.price, tc.dur, ""); !errors.Is(err, domain.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			})
		}
	})

	t.Run("should accept a lifetime plan", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())

		mt, err := uc.Create(ctx, model.TitleLifetime, 100000, model.Lifetime(), "")

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !mt.Duration.EndFrom(mt.CreatedAt).Equal(model.LifetimeEndDate) {
			t.Error("a lifetime plan should expire at the sentinel date")
		}
	})
}

func TestMembershipTypeUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply a partial patch", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())
		created, _ := uc.Create(ctx, model.TitleMonthly, 2000, model.Months(1), "")

		price := int64(2500)
		mt, err := uc.Update(ctx, created.ID, usecase.UpdateMembershipTypeParams{PriceNPR: &price})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if mt.PriceNPR != 2500 {
			t.Errorf("expected price 2500, got %d", mt.PriceNPR)
		}
		if mt.Title != model.TitleMonthly {
			t.Errorf("untouched fields must survive, got title %s", mt.Title)
		}
	})

	t.Run("should reject a rename onto an existing title", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())
		uc.Create(ctx, model.TitleMonthly, 2000, model.Months(1), "")
		created, _ := uc.Create(ctx, model.TitleYearly, 18000, model.Months(12), "")

		title := model.TitleMonthly
		_, err := uc.Update(ctx, created.ID, usecase.UpdateMembershipTypeParams{Title: &title})

		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("should retire and restore a plan", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())
		created, _ := uc.Create(ctx, model.TitleMonthly, 2000, model.Months(1), "")

		mt, err := uc.SetActive(ctx, created.ID, false)
		if err != nil {
			t.Fatalf("retire failed: %v", err)
		}
		if mt.IsActive {
			t.Error("expected the plan retired")
		}

		active, err := uc.ListActive(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(active) != 0 {
			t.Errorf("a retired plan must not be purchasable, got %d active", len(active))
		}
	})

	t.Run("should report an unknown plan", func(t *testing.T) {
		repo := NewMockMembershipTypeRepo()
		uc := usecase.NewMembershipTypeUseCase(repo, newTestLogger())

		if _, err := uc.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := uc.Delete(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
