package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserModel is the persisted user record.
type UserModel struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	createUserSQL = `INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, password_hash, role, created_at, updated_at`

	getUserByEmailSQL = `SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1`

	getUserByIDSQL = `SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1`
)

// PGStore implements user persistence backed by PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

// CreateUser inserts a new user row.
func (s *PGStore) CreateUser(ctx context.Context, name, email, passwordHash, role string) (UserModel, error) {
	rows, err := s.Pool.Query(ctx, createUserSQL, uuid.New(), name, email, passwordHash, role)
	if err != nil {
		return UserModel{}, fmt.Errorf("create user: %w", err)
	}
	return pgx.CollectExactlyOneRow(rows, scanUser)
}

// GetUserByEmail fetches a user by normalized email.
func (s *PGStore) GetUserByEmail(ctx context.Context, email string) (UserModel, error) {
	rows, err := s.Pool.Query(ctx, getUserByEmailSQL, email)
	if err != nil {
		return UserModel{}, fmt.Errorf("get user by email: %w", err)
	}
	return pgx.CollectExactlyOneRow(rows, scanUser)
}

// GetUserByID fetches a user by id.
func (s *PGStore) GetUserByID(ctx context.Context, id uuid.UUID) (UserModel, error) {
	rows, err := s.Pool.Query(ctx, getUserByIDSQL, id)
	if err != nil {
		return UserModel{}, fmt.Errorf("get user by id: %w", err)
	}
	return pgx.CollectExactlyOneRow(rows, scanUser)
}

func scanUser(row pgx.CollectableRow) (UserModel, error) {
	var u UserModel
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
