package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rpupo63/fieldlens-backend/fixtures"
	"github.com/rpupo63/fieldlens-backend/models"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and tunes the relational backend
type Options struct {
	Driver          string
	DSN             string
	ReadReplicaDSNs []string
	SlowThreshold   time.Duration
	LogLevel        logger.LogLevel
}

// Open connects to the configured relational database. The memory driver has no connection
// and is handled by NewMemory instead.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  opts.DSN,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}

	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = 10 * time.Second
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if len(opts.ReadReplicaDSNs) > 0 {
		if opts.Driver != DriverPostgres {
			return nil, fmt.Errorf("read replicas are only supported for %s", DriverPostgres)
		}
		replicas := make([]gorm.Dialector, 0, len(opts.ReadReplicaDSNs))
		for _, dsn := range opts.ReadReplicaDSNs {
			replicas = append(replicas, postgres.Open(dsn))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("error registering read replicas: %w", err)
		}
		zlog.Info().Int("replicas", len(replicas)).Msg("Registered read replicas")
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("error testing database connection: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the tables of every model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("error during models migration: %w", err)
	}
	return nil
}

// Seed fills empty tables with the fixture records. Tables that already hold rows are left alone.
func Seed(ctx context.Context, db *gorm.DB, seed fixtures.Seed) error {
	if err := seedTable(ctx, db, "projects", seed.Projects); err != nil {
		return err
	}
	if err := seedTable(ctx, db, "photos", seed.Photos); err != nil {
		return err
	}
	return seedTable(ctx, db, "team_members", seed.TeamMembers)
}

func seedTable[T any](ctx context.Context, db *gorm.DB, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(new(T)).Count(&count).Error; err != nil {
		return fmt.Errorf("error counting %s: %w", table, err)
	}
	if count > 0 {
		zlog.Debug().Str("table", table).Int64("rows", count).Msg("Skipping seed for non-empty table")
		return nil
	}

	if err := db.WithContext(ctx).CreateInBatches(&rows, 100).Error; err != nil {
		return fmt.Errorf("error seeding %s: %w", table, err)
	}

	// explicit ids do not advance postgres sequences
	if db.Dialector.Name() == DriverPostgres {
		stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT MAX(id) FROM %s))", table, table)
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("error advancing %s id sequence: %w", table, err)
		}
	}

	zlog.Info().Str("table", table).Int("rows", len(rows)).Msg("Seeded table")
	return nil
}
