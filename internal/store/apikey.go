package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/cropline/internal/repository"
)

// ErrUnknownKey indicates the bearer token matches no stored key.
var ErrUnknownKey = errors.New("unauthorized: invalid token")

// APIKeyRepository maps bearer tokens to tenants. Only token hashes are
// stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Add registers token for tenantID.
func (r *APIKeyRepository) Add(ctx context.Context, tenantID, token, description string) error {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(token) == "" {
		return repository.ErrInvalidInput
	}
	_, err := r.db.conn().exec(ctx, `
		INSERT INTO api_keys (key_hash, tenant_id, description, created_at)
		VALUES (?, ?, ?, ?)
	`, HashToken(token), tenantID, description, formatTime(time.Now()))
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// ResolveTenant returns the tenant owning token and records its use.
func (r *APIKeyRepository) ResolveTenant(ctx context.Context, token string) (string, error) {
	hash := HashToken(token)
	c := r.db.conn()

	var tenantID string
	err := c.queryRow(ctx, `SELECT tenant_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&tenantID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && tenantID == "") {
		return "", ErrUnknownKey
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	_, _ = c.exec(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, formatTime(time.Now()), hash)
	return tenantID, nil
}

// HashToken returns the hex SHA-256 of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
