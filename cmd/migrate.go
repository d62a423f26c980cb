package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shootle/txtcoin/internal/app"
	"github.com/Shootle/txtcoin/internal/db"
	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/migrations"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skipClickHouse bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MySQL and ClickHouse schema (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.Setup(cfgPath)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		mysqlDB, err := db.OpenMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open mysql: %w", err)
		}
		defer mysqlDB.Close()
		if err := apply(ctx, mysqlDB, "mysql"); err != nil {
			return err
		}

		if skipClickHouse || strings.TrimSpace(cfg.ClickHouse.DSN) == "" {
			logger.Log.Info("migrate: clickhouse skipped")
			return nil
		}
		chDB, err := db.OpenClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("open clickhouse: %w", err)
		}
		defer chDB.Close()
		return apply(ctx, chDB, "clickhouse")
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&skipClickHouse, "skip-clickhouse", false, "only migrate MySQL")
}

func apply(ctx context.Context, conn *sqlx.DB, dir string) error {
	stmts, err := migrations.Statements(dir)
	if err != nil {
		return fmt.Errorf("read %s migrations: %w", dir, err)
	}
	for i, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migration statement %d: %w", dir, i+1, err)
		}
	}
	logger.Log.Info("migrate: complete", zap.String("store", dir), zap.Int("statements", len(stmts)))
	return nil
}
