package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"

	"gym-membership-backend/internal/config"
	"gym-membership-backend/internal/domain/model"
	pg "gym-membership-backend/internal/infra/db/postgres"
	"gym-membership-backend/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := zerolog.Nop()
	typeRepo := pg.NewMembershipTypeRepo(pool)
	typeUC := usecase.NewMembershipTypeUseCase(typeRepo, &logger)

	// If the catalog already has plans, do nothing.
	existing, err := typeUC.List(ctx)
	if err != nil {
		log.Fatalf("list membership types: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d membership types already present. No changes.\n", len(existing))
		for _, mt := range existing {
			fmt.Printf("  - %s (NPR %d)\n", mt.Title, mt.PriceNPR)
		}
		return
	}

	seed := []struct {
		Title model.MembershipTitle
		Price int64
		Dur   model.Duration
		Desc  string
	}{
		{model.TitleDaily, 150, model.Days(1), "Single day pass"},
		{model.TitleMonthly, 2_000, model.Months(1), "Standard monthly plan"},
		{model.TitleQuarterly, 5_500, model.Months(3), "Three months, small discount"},
		{model.TitleHalfYearly, 10_000, model.Months(6), "Six months"},
		{model.TitleYearly, 18_000, model.Months(12), "Full year"},
		{model.TitleThreeYear, 48_000, model.Months(36), "Three years"},
		{model.TitleFiveYear, 75_000, model.Months(60), "Five years"},
		{model.TitleTenYear, 130_000, model.Months(120), "Ten years"},
		{model.TitleLifetime, 200_000, model.Lifetime(), "Lifetime access"},
	}

	for _, s := range seed {
		mt, err := typeUC.Create(ctx, s.Title, s.Price, s.Dur, s.Desc)
		if err != nil {
			log.Fatalf("create %s: %v", s.Title, err)
		}
		fmt.Printf("created %s (id=%s, NPR %d)\n", mt.Title, mt.ID, mt.PriceNPR)
	}
	fmt.Println("catalog seeded.")
}
