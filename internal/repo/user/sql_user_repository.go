package user

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/mkrupp/collabgames/internal/domain"
	"github.com/mkrupp/collabgames/internal/infra/database"
	"github.com/mkrupp/collabgames/internal/infra/logging"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrations holds the goose migrations for each supported driver.
//
//nolint:gochecknoglobals
var Migrations, _ = fs.Sub(migrationsFS, "migrations")

const userColumns = "id, name, password_hash, categories, point_total, last_login_at, created_at"

// SQLUserStoreConfig holds configuration for the SQL user store.
type SQLUserStoreConfig struct {
	Database database.Config `envPrefix:"DATABASE_"`
}

// SQLUserStore implements Store on top of a database/sql pool.
type SQLUserStore struct {
	db  *database.DB
	log logging.Logger
}

var _ Store = (*SQLUserStore)(nil)

// SQLUserStoreFactory creates a factory function that returns a new SQLUserStore.
// The factory function implements the StoreFactory type.
func SQLUserStoreFactory(cfg SQLUserStoreConfig) StoreFactory {
	return func(ctx context.Context) (Store, error) {
		return NewSQLUserStore(ctx, cfg)
	}
}

// NewSQLUserStore opens the configured database and migrates the schema.
func NewSQLUserStore(ctx context.Context, cfg SQLUserStoreConfig) (*SQLUserStore, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	store, err := NewSQLUserStoreWithDB(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return store, nil
}

// NewSQLUserStoreWithDB wraps an already opened database and migrates the schema.
func NewSQLUserStoreWithDB(ctx context.Context, db *database.DB) (*SQLUserStore, error) {
	if err := db.Migrate(ctx, Migrations); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store := &SQLUserStore{
		db:  db,
		log: logging.GetLogger("repo.user.sql_user_store").With(logging.Group("db", "driver", db.Driver)),
	}

	store.log.DebugContext(ctx, "user store ready")

	return store, nil
}

// Open implements Store.Open by reserving a dedicated connection from the pool.
func (s *SQLUserStore) Open(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}

	return NewSQLSession(conn, s.db.Driver), nil
}

// Close implements Store.Close by closing the connection pool.
func (s *SQLUserStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

type sqlSession struct {
	queries

	conn *sql.Conn
}

var _ Session = (*sqlSession)(nil)

// NewSQLSession wraps a reserved connection. Closing the session releases it.
func NewSQLSession(conn *sql.Conn, driver database.Driver) Session {
	return &sqlSession{
		queries: queries{db: conn, driver: driver},
		conn:    conn,
	}
}

func (s *sqlSession) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	//nolint:wrapcheck
	return database.WithTx(ctx, s.conn, nil, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, queries{db: tx, driver: s.driver})
	})
}

func (s *sqlSession) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("release conn: %w", err)
	}

	return nil
}

// queries implements Repository over any DBTX.
type queries struct {
	db     database.DBTX
	driver database.Driver
}

var _ Repository = queries{}

func (q queries) CreateUser(ctx context.Context, user *domain.User) error {
	var lastLoginAt sql.NullInt64
	if user.LastLoginAt != nil {
		lastLoginAt = sql.NullInt64{Int64: user.LastLoginAt.Unix(), Valid: true}
	}

	err := q.db.QueryRowContext(ctx, database.Rebind(q.driver,
		`INSERT INTO users (name, password_hash, categories, point_total, last_login_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		user.Name,
		user.PasswordHash,
		domain.EncodeCategories(user.Categories),
		user.PointTotal,
		lastLoginAt,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			err = errors.Join(domain.ErrDuplicateName, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (q queries) GetUserByName(ctx context.Context, name string) (*domain.User, bool, error) {
	return q.getUser(ctx, "name", name)
}

func (q queries) GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	return q.getUser(ctx, "id", id)
}

func (q queries) getUser(ctx context.Context, column string, value any) (*domain.User, bool, error) {
	var (
		user        domain.User
		categories  string
		lastLoginAt sql.NullInt64
	)

	err := q.db.QueryRowContext(ctx, database.Rebind(q.driver,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ?"),
		value,
	).Scan(
		&user.ID,
		&user.Name,
		&user.PasswordHash,
		&categories,
		&user.PointTotal,
		&lastLoginAt,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user by %s: %w", column, err)
	}

	user.Categories = domain.DecodeCategories(categories)

	if lastLoginAt.Valid {
		at := time.Unix(lastLoginAt.Int64, 0).UTC()
		user.LastLoginAt = &at
	}

	return &user, true, nil
}

func (q queries) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := q.db.ExecContext(ctx, database.Rebind(q.driver,
		"UPDATE users SET last_login_at = ? WHERE id = ?"),
		at.Unix(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
