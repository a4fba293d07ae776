package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"github.com/padraicbc/rungroop/config"
	"github.com/padraicbc/rungroop/models"
)

// Setup opens a database connection for the configured driver.
func Setup(cfg *config.Config) *bun.DB {
	var db *bun.DB
	switch cfg.DBDriver {
	case config.DriverMySQL:
		sqldb, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal("failed to open mysql:", err)
		}
		db = bun.NewDB(sqldb, mysqldialect.New())
	default:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
		db = bun.NewDB(sqldb, pgdialect.New())
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// CreateTables creates all tables and indexes if they do not exist.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Race)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		name   string
		column string
	}{
		{"races_app_user_id_idx", "app_user_id"},
		{"races_address_city_idx", "address_city"},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model((*models.Race)(nil)).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; an existing index is not fatal.
			zap.L().Warn("create index", zap.String("index", idx.name), zap.Error(err))
		}
	}

	return nil
}
