package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/types"
)

// User is the owner of bookmarks and tags. Authentication itself lives
// outside this service; rows exist so ownership and uniqueness
// constraints have something to hang off.
type User struct {
	ID    types.UserId
	Email string
}

type UserModel struct {
	Pool *pgxpool.Pool
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *UserModel) Create(ctx context.Context, email string) (*User, error) {
	user := User{
		Email: normalizeEmail(email),
	}
	row := m.Pool.QueryRow(ctx, `
		INSERT INTO users (email)
		VALUES ($1)
		RETURNING id`, user.Email)
	err := row.Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, errors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (m *UserModel) GetById(ctx context.Context, id types.UserId) (*User, error) {
	user := User{ID: id}
	row := m.Pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, id)
	err := row.Scan(&user.Email)
	if err != nil {
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &user, nil
}
