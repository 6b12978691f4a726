package persistent

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

const testDsnEnv = "PGDB_DSN"

func PgOpen(ctx context.Context, pgDsn string, verbose bool) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgDsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping pg database: %w", err)
	}

	bdb := bun.NewDB(sqldb, pgdialect.New())
	if verbose {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return bdb, nil
}

// Running integration tests requires real pg db instance, but we
// don't have enough time to start db for every test so we start db once
// (see cmd/testenv) and then pass datasource to as many tests as we want.

func PgOpenTest(ctx context.Context) (*bun.DB, error) {
	db, err := PgOpen(ctx, TestEnvDsn(), os.Getenv("DB_VERBOSE") == "true")
	if err != nil {
		return nil, err
	}
	if err := CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func TestEnvDsn() string {
	return os.Getenv(testDsnEnv)
}

func SetTestEnvDsn(dsn string) {
	os.Setenv(testDsnEnv, dsn)
}

// CreateSchema creates missing tables and indexes.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []interface{}{
		(*User)(nil),
		(*Profile)(nil),
		(*FieldChange)(nil),
	}
	for _, model := range models {
		modelType := reflect.TypeOf(model)
		logrus.WithField("model", modelType).Debugln("Creating table.")
		_, err := db.NewCreateTable().IfNotExists().Model(model).Exec(ctx)
		if err != nil {
			return fmt.Errorf("create table %s: %w", modelType, err)
		}
	}

	_, err := db.NewCreateIndex().
		IfNotExists().
		Model((*FieldChange)(nil)).
		Index("profile_change_user_id_id_idx").
		Column("user_id", "id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create profile_change index: %w", err)
	}
	return nil
}
