// Package session keeps per-analyst state between requests: a signed
// cookie carries the session ID, and the session itself stays in memory.
package session

import (
	"context"
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/models"
)

// CookieName is the name of the session cookie.
const CookieName = "deal-assistant-session"

// cookieKeyID is the cookie value key holding the session ID.
const cookieKeyID = "sid"

type contextKey struct{}

// Manager binds browser cookies to sessions in a Store.
type Manager struct {
	cookies *sessions.CookieStore
	store   *Store
	logger  *zap.Logger
}

// NewManager creates a Manager.
//
// The secret parameter is used to sign session cookies. It can be any
// passphrase - it will be SHA-256 hashed to derive a 32-byte key.
//
// Security settings:
// - HttpOnly: true (inaccessible to JavaScript)
// - Secure: only when served over TLS
// - SameSite: Strict (prevents CSRF)
func NewManager(secret string, maxAge time.Duration, secure bool, store *Store, logger *zap.Logger) *Manager {
	key := sha256.Sum256([]byte(secret))

	cookies := sessions.NewCookieStore(key[:])
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}

	return &Manager{
		cookies: cookies,
		store:   store,
		logger:  logger.Named("session"),
	}
}

// Store returns the backing session store.
func (m *Manager) Store() *Store {
	return m.store
}

// Middleware resolves the caller's session, creating one when the cookie
// is missing, tampered with or points at an expired session, and puts the
// session ID in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.resolve(w, r)
		if err != nil {
			m.logger.Error("Failed to establish session", zap.Error(err))
			http.Error(w, "failed to establish session", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

func (m *Manager) resolve(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	// A decode error means a bad signature or a rotated secret. Get still
	// returns a usable new cookie session in that case.
	cs, err := m.cookies.Get(r, CookieName)
	if err != nil {
		m.logger.Debug("Discarding unreadable session cookie", zap.Error(err))
	}

	if raw, ok := cs.Values[cookieKeyID].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			if _, err := m.store.Get(id); err == nil {
				return id, nil
			}
		}
	}

	sess := m.store.Create()
	cs.Values[cookieKeyID] = sess.ID.String()
	if err := cs.Save(r, w); err != nil {
		m.store.Delete(sess.ID)
		return uuid.Nil, err
	}
	m.logger.Debug("Created session", zap.String("session_id", sess.ID.String()))
	return sess.ID, nil
}

// Reset drops the caller's session and starts a fresh one.
func (m *Manager) Reset(w http.ResponseWriter, r *http.Request) (models.Session, error) {
	if id, ok := IDFromContext(r.Context()); ok {
		m.store.Delete(id)
	}

	cs, _ := m.cookies.Get(r, CookieName)
	sess := m.store.Create()
	cs.Values[cookieKeyID] = sess.ID.String()
	if err := cs.Save(r, w); err != nil {
		m.store.Delete(sess.ID)
		return models.Session{}, err
	}
	return sess, nil
}

// WithID stores a session ID in ctx.
func WithID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session ID set by Middleware.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
