// Command migrate applies the SQL migrations in migrations/ with the atlas CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"stayhub/internal/pkg/config"

	"ariga.io/atlas-go-sdk/atlasexec"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func main() {
	dir := flag.String("dir", "migrations", "migration directory")
	bin := flag.String("atlas", "atlas", "atlas binary")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	// Only the database settings are needed; the server's required variables may be absent here.
	var dbCfg config.DBConfig
	if err := envconfig.Process("", &dbCfg); err != nil {
		logger.Error("failed to process env config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, logger, *dir, *bin, dbCfg.BuildDSN()); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dir, bin, dsn string) error {
	wd, err := atlasexec.NewWorkingDir(atlasexec.WithMigrations(os.DirFS(dir)))
	if err != nil {
		return err
	}
	defer wd.Close()

	client, err := atlasexec.NewClient(wd.Path(), bin)
	if err != nil {
		return err
	}

	res, err := client.MigrateApply(ctx, &atlasexec.MigrateApplyParams{URL: dsn})
	if err != nil {
		return err
	}

	logger.Info("migrations applied",
		slog.Int("applied", len(res.Applied)),
		slog.String("current", res.Current),
		slog.String("target", res.Target),
	)
	return nil
}
