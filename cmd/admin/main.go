package main

import (
	"context"
	"errors"
	"os"

	appMigrations "github.com/yigit/mentorhub/internal/app/migrations"
	appRepos "github.com/yigit/mentorhub/internal/app/repositories"
	appServices "github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/bootstrap"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/logger"
)

func main() {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		os.Exit(1)
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		os.Exit(1)
	}
	defer database.Close()

	repos := appRepos.NewRepositories(database.Pool)
	// the CLI reads and writes PostgreSQL only; the leaderboard cache is rebuilt lazily by the API
	leaderboard := appServices.NewLeaderboardService(repos.LedgerRepository, repos.PeriodRepository, repos.UserRepository, nil, lgr)
	ledger := appServices.NewLedgerService(
		repos.LedgerRepository,
		repos.PeriodRepository,
		repos.PointReasonRepository,
		repos.UserRepository,
		nil,
		leaderboard,
		lgr,
	)

	cli := &commandLine{
		migrate:   appMigrations.NewMigrator(database.Pool, appMigrations.Files(), lgr).Up,
		reconcile: ledger.Reconcile,
		users:     repos.UserRepository,
		out:       os.Stdout,
	}

	if err := cli.run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logger.Error().Err(err).Msg("Command failed")
		}
		database.Close()
		os.Exit(1)
	}
}
