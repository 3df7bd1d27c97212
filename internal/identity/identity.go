// Package identity provides email/password registration, login, and
// cookie-backed session management.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinylog/vinylog/internal/db"
)

const sessionTTL = 24 * time.Hour

// Common errors.
var (
	// ErrInvalidCredentials is returned for a wrong email/password pair. The
	// same error covers an unknown email so login responses do not leak which
	// accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrWeakPassword is returned when the password is shorter than six
	// characters.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrInvalidEmail is returned when the email address is malformed.
	ErrInvalidEmail = errors.New("invalid email address")
)

// UserStore is the slice of the user repository the manager needs.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	Get(ctx context.Context, id string) (*db.User, error)
	GetByEmail(ctx context.Context, email string) (*db.User, error)
}

// SessionStore persists sessions.
type SessionStore interface {
	Create(ctx context.Context, session *db.Session) error
	Get(ctx context.Context, id string) (*db.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Manager implements registration, login, and session lookup.
type Manager struct {
	users    UserStore
	sessions SessionStore
	logger   zerolog.Logger
}

// New creates an identity manager.
func New(users UserStore, sessions SessionStore, logger zerolog.Logger) *Manager {
	return &Manager{
		users:    users,
		sessions: sessions,
		logger:   logger.With().Str("component", "identity").Logger(),
	}
}

// Register creates a user account and an initial session. The email is
// lowercased before the uniqueness check so casing variants cannot create
// duplicate accounts.
func (m *Manager) Register(ctx context.Context, email, password string) (*db.User, *db.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, nil, ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, nil, ErrWeakPassword
	}

	if _, err := m.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &db.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		// Default nickname is the email local part, editable later.
		Nickname: email[:strings.IndexByte(email, '@')],
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("creating user: %w", err)
	}

	session, err := m.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	m.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return user, session, nil
}

// Login verifies the credentials and creates a session.
func (m *Manager) Login(ctx context.Context, email, password string) (*db.User, *db.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := m.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("fetching user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := m.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout deletes the session.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Resolve maps a session ID to its user. A missing or expired session and a
// missing user both resolve to db.ErrNotFound.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (*db.User, error) {
	session, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.users.Get(ctx, session.UserID)
}

// Sweep removes expired sessions. Intended to run periodically from the
// server loop.
func (m *Manager) Sweep(ctx context.Context) {
	removed, err := m.sessions.DeleteExpired(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("session sweep failed")
		return
	}
	if removed > 0 {
		m.logger.Debug().Int64("removed", removed).Msg("expired sessions swept")
	}
}

func (m *Manager) startSession(ctx context.Context, userID string) (*db.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now()
	session := &db.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validEmail is a structural check, not RFC validation: one @ with something
// on both sides and a dot in the domain.
func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
