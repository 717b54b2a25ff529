package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/cmd/util"
	"github.com/mpapenbr/racepredict/pkg/config"
	dbmigrate "github.com/mpapenbr/racepredict/pkg/db/migrate"
	"github.com/mpapenbr/racepredict/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := util.SetupLoggers(cmd.ErrOrStderr()); err != nil {
				return err
			}
			if err := util.WaitForServices(cmd.Context(),
				utils.ExtractFromDBURL(config.DB)); err != nil {
				return fmt.Errorf("database not ready: %w", err)
			}
			return startMigration()
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (default: migrations built into the binary)")

	return cmd
}

func startMigration() error {
	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		return dbmigrate.MigrateDb(prepareURLForDB(config.DB))
	}

	log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	m, err := migrate.New(config.MigrationSourceURL, prepareURLForDB(config.DB))
	if err != nil {
		return fmt.Errorf("could not create migration: %w", err)
	}
	defer m.Close()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No Migration required")
		return nil
	}
	return err
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
