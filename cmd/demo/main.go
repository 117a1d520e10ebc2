// Package main provides the entry point for the seeding and report runner.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	appConfig "github.com/festy23/datajpa/internal/config"
	dbConfig "github.com/festy23/datajpa/internal/database/config"
	"github.com/festy23/datajpa/internal/database/database"
	"github.com/festy23/datajpa/internal/database/gormzap"
	"github.com/festy23/datajpa/internal/database/migrate"
	"github.com/festy23/datajpa/internal/fixture"
	memberRepository "github.com/festy23/datajpa/internal/member/repository"
	memberService "github.com/festy23/datajpa/internal/member/service"
	"github.com/festy23/datajpa/internal/member/sqlstore"
	"github.com/festy23/datajpa/internal/pagination"
	teamRepository "github.com/festy23/datajpa/internal/team/repository"
	teamService "github.com/festy23/datajpa/internal/team/service"
	"github.com/festy23/datajpa/pkg/logger"
)

// reportAge is the age whose members are paged in the report.
const reportAge = 10

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("demo failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg := appConfig.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	sqlLevel, err := gormzap.ParseLevel(cfg.Logger.SQLLevel)
	if err != nil {
		return err
	}

	db, err := database.NewWithConfig(dbConfig.LoadConfigFromEnv(), appLogger, database.Options{
		SQLLevel:           sqlLevel,
		SlowQueryThreshold: cfg.Logger.SlowQueryThreshold,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLogger.Warnw("failed to close database", "error", err)
		}
	}()

	if err := database.HealthCheck(ctx, db); err != nil {
		return err
	}

	if cfg.Migrate {
		if err := migrate.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		version, _, err := migrate.Version(db)
		if err != nil {
			return err
		}
		appLogger.Infow("schema ready", "version", version)
	}

	teams := teamRepository.New(db, appLogger)
	members := memberRepository.New(db, appLogger)

	if err := seed(ctx, db, appLogger, teams, cfg.FixturePath); err != nil {
		return err
	}

	return report(
		ctx, db, appLogger,
		teamService.New(teams, db, appLogger),
		memberService.New(members, db, appLogger),
		cfg.PageSize,
	)
}

// seed applies the fixture once. A database that already has teams is left alone.
func seed(
	ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger, teams teamRepository.Repository, path string,
) error {
	if path == "" {
		return nil
	}

	count, err := teams.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Infow("fixture skipped, database already seeded", "teams", count)
		return nil
	}

	f, err := fixture.Load(path)
	if err != nil {
		return err
	}
	_, err = fixture.Seed(ctx, db, logger, f)
	return err
}

func report(
	ctx context.Context,
	db *gorm.DB,
	logger *zap.SugaredLogger,
	teams teamService.Service,
	members memberService.Service,
	pageSize int,
) error {
	directory, err := members.Directory(ctx)
	if err != nil {
		return err
	}
	for _, dto := range directory {
		logger.Infow("member", "member_id", dto.ID, "username", dto.Username, "team", dto.TeamNameOrEmpty())
	}

	all, err := teams.List(ctx)
	if err != nil {
		return err
	}
	for _, t := range all {
		team, err := teams.Get(ctx, t.Name)
		if err != nil {
			return err
		}
		logger.Infow("team", "team_id", team.ID, "name", team.Name, "members", len(team.Members))
	}

	page, err := members.Page(ctx, reportAge, pagination.Of(0, pageSize, pagination.ByDesc("username")))
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	total, err := sqlstore.New(sqlDB, logger).TotalCount(ctx, reportAge)
	if err != nil {
		return err
	}

	logger.Infow("member page",
		"age", reportAge,
		"content", len(page.Content),
		"total_elements", page.TotalElements,
		"total_pages", page.TotalPages(),
		"has_next", page.HasNext(),
		"sql_total", total,
	)
	return nil
}
