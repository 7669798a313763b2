package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/finsight/finsight-backend/internal/models"
)

// ErrUsernameTaken is returned when the username unique constraint fails.
var ErrUsernameTaken = errors.New("username already exists")

// UserRepository handles user data access
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and returns its id. A duplicate username
// yields ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, username, passwordHash, time.Now().UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetByUsername retrieves a user by username. Returns sql.ErrNoRows if
// no such user exists.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?`

	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = ?`

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
