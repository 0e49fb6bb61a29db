package models

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebhs/linkhive/internal/errors"
	"github.com/calebhs/linkhive/internal/rand"
	"github.com/calebhs/linkhive/internal/types"
)

const ApiTokenBytes = 32

type ApiToken struct {
	ID         int
	UserId     types.UserId
	TokenHash  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

type GeneratedApiToken struct {
	ApiToken
	Token string
}

type TokenModel struct {
	Pool *pgxpool.Pool
}

func (m *TokenModel) Create(ctx context.Context, userId types.UserId) (*GeneratedApiToken, error) {
	token, err := rand.String(ApiTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("api token: %w", err)
	}

	apiToken := GeneratedApiToken{
		ApiToken: ApiToken{
			UserId:    userId,
			TokenHash: m.hash(token),
		},
		Token: token,
	}
	row := m.Pool.QueryRow(ctx, `
		INSERT INTO api_tokens (user_id, token_hash)
		VALUES ($1, $2)
		RETURNING id`, userId, apiToken.TokenHash)
	err = row.Scan(&apiToken.ID)
	if err != nil {
		return nil, fmt.Errorf("api token create: %w", err)
	}
	return &apiToken, nil
}

func (m *TokenModel) Delete(ctx context.Context, userId types.UserId, tokenId int) error {
	_, err := m.Pool.Exec(ctx, `
		DELETE FROM api_tokens
		WHERE user_id = $1 AND id = $2`, userId, tokenId)
	if err != nil {
		return fmt.Errorf("api token delete: %w", err)
	}
	return nil
}

// User resolves a bearer token to its owner and touches the token's
// last-used timestamp.
func (m *TokenModel) User(ctx context.Context, token string) (*User, error) {
	tokenHash := m.hash(token)
	var user User

	row := m.Pool.QueryRow(ctx, `
		SELECT users.id, users.email
		FROM users
		JOIN api_tokens ON users.id = api_tokens.user_id
		WHERE api_tokens.token_hash = $1`, tokenHash)

	err := row.Scan(&user.ID, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("api user: %w", err)
	}

	_, err = m.Pool.Exec(ctx, `
		UPDATE api_tokens
		SET last_used_at = $1
		WHERE token_hash = $2`, time.Now(), tokenHash)
	if err != nil {
		return nil, fmt.Errorf("api token update last used: %w", err)
	}
	return &user, nil
}

func (m *TokenModel) hash(token string) string {
	tokenHash := sha256.Sum256([]byte(token))
	return base64.URLEncoding.EncodeToString(tokenHash[:])
}
