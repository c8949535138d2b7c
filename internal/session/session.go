package session

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

// UserRecord mirrors the user document the login flow stores client-side.
type UserRecord struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// accessClaims is the subset of token claims the client cares about.
type accessClaims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager resolves the signed-in identity from durable storage. The stored
// user record is authoritative; the access token's claims are a fallback
// for sessions persisted before the record was written.
type Manager struct {
	store  storage.Store
	logger *logger.Logger
}

func NewManager(store storage.Store, logg *logger.Logger) *Manager {
	return &Manager{store: store, logger: logg}
}

// Token returns the stored bearer token, or empty when nobody is signed in.
// Anonymous browsing is legal; only checkout demands an identity.
func (m *Manager) Token(ctx context.Context) (string, error) {
	token, _, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "reading stored token")
	}
	return strings.TrimSpace(token), nil
}

// UserID resolves the payer identity for payment initiation. Its absence in
// an authenticated flow points at a session-consistency bug upstream, so
// the error message tells the user to sign in again rather than pretending
// the input was wrong.
func (m *Manager) UserID(ctx context.Context) (string, error) {
	var record UserRecord
	if storage.DecodeJSON(ctx, m.store, storage.KeyUser, &record, m.logger) && record.ID != "" {
		return record.ID, nil
	}

	if id := m.userIDFromToken(ctx); id != "" {
		return id, nil
	}

	return "", pkgerrors.New(pkgerrors.CodeValidation, "user id not found, please log in again")
}

// userIDFromToken extracts the subject from the stored JWT without
// verifying the signature. The client holds no signing secret; the server
// re-authenticates every call, so the claims are only a local hint.
func (m *Manager) userIDFromToken(ctx context.Context) string {
	token, err := m.Token(ctx)
	if err != nil || token == "" {
		return ""
	}

	claims := &accessClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		if m.logger != nil {
			m.logger.Warn(ctx, "stored token is not a parseable jwt")
		}
		return ""
	}
	if claims.UserID != "" {
		return claims.UserID
	}
	return claims.Subject
}
