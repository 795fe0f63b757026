// Package database opens the SQL store backing the repositories and runs
// their migrations. SQLite (modernc) and PostgreSQL (pgx) are supported.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/collabgames/internal/infra/logging"
)

// Driver names a database/sql driver.
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverPgx    Driver = "pgx"
)

// ErrUnsupportedDriver is returned for a driver other than sqlite or pgx.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// pgUniqueViolation is the SQLSTATE of unique_violation.
const pgUniqueViolation = "23505"

const sqliteDefaultPragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

// Config holds connection parameters.
type Config struct {
	// Driver is "sqlite" or "pgx"
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	// DSN is a file path for sqlite or a connection URL for pgx
	DSN string `env:"DSN" envDefault:"var/storage/authsvc.db"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DB is a connection pool bound to its driver.
type DB struct {
	*sql.DB
	Driver Driver
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver := Driver(strings.ToLower(cfg.Driver))

	dsn := cfg.DSN

	switch driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "_pragma=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}

			dsn += sep + sqliteDefaultPragmas
		}
	case DriverPgx:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	sqlDB, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	logging.GetLogger("infra.database").DebugContext(ctx, "database opened", "driver", driver)

	return &DB{DB: sqlDB, Driver: driver}, nil
}

// Wrap binds an existing pool to a driver. Used with mocked pools in tests.
func Wrap(db *sql.DB, driver Driver) *DB {
	return &DB{DB: db, Driver: driver}
}

// Migrate applies all pending goose migrations found in migrations/<driver>.
func (db *DB) Migrate(ctx context.Context, migrations fs.FS) error {
	var dialect goose.Dialect

	switch db.Driver {
	case DriverSQLite:
		dialect = goose.DialectSQLite3
	case DriverPgx:
		dialect = goose.DialectPostgres
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, db.Driver)
	}

	dir, err := fs.Sub(migrations, string(db.Driver))
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db.DB, dir)
	if err != nil {
		return fmt.Errorf("new migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	log := logging.GetLogger("infra.database")
	for _, res := range results {
		log.DebugContext(ctx, "migration applied",
			"version", res.Source.Version,
			"path", res.Source.Path,
			"duration", res.Duration,
		)
	}

	return nil
}

// Rebind rewrites "?" placeholders into the driver's bind syntax.
func (db *DB) Rebind(query string) string {
	return Rebind(db.Driver, query)
}

// Rebind rewrites "?" placeholders into "$1", "$2", ... for pgx.
// Queries must not contain literal question marks.
func Rebind(driver Driver, query string) string {
	if driver != DriverPgx {
		return query
	}

	var (
		sb strings.Builder
		n  int
	)

	sb.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)

			continue
		}

		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}

	return sb.String()
}

// IsUniqueViolation reports whether err is a unique or primary key constraint violation.
func IsUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return false
}
