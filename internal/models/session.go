package models

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Session struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	// Token is only set when creating a new session. When looking up a session
	// this will be left empty, as we only store the hash of a session token
	// in our database and we cannot reverse it into a raw token.
	Token     string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

const (
	// MinBytesPerToken is the minimum number of bytes for a session token
	MinBytesPerToken = 32
	// DefaultTokenLength is the default token length (32 bytes = 256 bits)
	DefaultTokenLength = 32
	// DefaultSessionDuration is how long a session lasts (24 hours)
	DefaultSessionDuration = 24 * time.Hour
)

type SessionService struct {
	pool *pgxpool.Pool

	BytesPerToken   int
	SessionDuration time.Duration
}

func NewSessionService(pool *pgxpool.Pool) *SessionService {
	return &SessionService{
		pool:            pool,
		BytesPerToken:   DefaultTokenLength,
		SessionDuration: DefaultSessionDuration,
	}
}

// Create issues a new session for the user. One session per user: a repeated
// signin replaces the stored token hash instead of stacking rows.
func (ss *SessionService) Create(ctx context.Context, userID int64) (*Session, error) {
	bytesPerToken := ss.BytesPerToken
	if bytesPerToken < MinBytesPerToken {
		bytesPerToken = MinBytesPerToken
	}
	token, err := generateToken(bytesPerToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	session := Session{
		UserID:    userID,
		Token:     token,
		TokenHash: hashToken(token),
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := ss.pool.QueryRow(ctx, `
	INSERT INTO sessions (user_id, token_hash, created_at, expires_at)
	VALUES ($1, $2, NOW(), NOW() + $3::interval)
	ON CONFLICT (user_id)
	DO UPDATE
	SET token_hash = $2, created_at = NOW(), expires_at = NOW() + $3::interval
	RETURNING id, created_at, expires_at
	`, session.UserID, session.TokenHash, ss.SessionDuration.String())

	err = row.Scan(&session.ID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

// User resolves a raw session token to the user it belongs to.
// Expired or unknown tokens return ErrSessionNotFound.
func (ss *SessionService) User(ctx context.Context, token string) (*User, error) {
	tokenHash := hashToken(token)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user User
	row := ss.pool.QueryRow(ctx, `
	SELECT users.id,
		users.name,
		users.email,
		users.password_hash
	FROM sessions
	JOIN users ON users.id = sessions.user_id
	WHERE sessions.token_hash = $1 AND sessions.expires_at > NOW()
	`, tokenHash)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	return &user, nil
}

// Delete removes the session for the given raw token (logout).
func (ss *SessionService) Delete(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := ss.pool.Exec(ctx, `
	DELETE FROM sessions
	WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func generateToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to read random: %w", err)
	}
	// Encode to base64 for URL-safe string
	return base64.URLEncoding.EncodeToString(b), nil
}

// hashToken is what gets stored; the raw token only ever lives in the cookie.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.URLEncoding.EncodeToString(hash[:])
}
