// Package dbsession tracks the business database connections clients have
// opened. A session holds only the validated credentials; every use opens a
// fresh connection so a stale pool never leaks across requests.
package dbsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aibes/standsight/internal/config"
	"github.com/aibes/standsight/pkg/db"
)

var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrTooManySessions = errors.New("too_many_sessions")
	ErrConnectFailed   = errors.New("connect_failed")
)

type credentials struct {
	driver    string
	dsn       string
	createdAt time.Time
}

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]credentials
	max      int
	log      *zap.Logger
}

// New builds the manager. When the environment carries default database
// credentials a session is registered for them up front so single-database
// deployments work without an explicit connect call.
func New(p Params) *Manager {
	m := &Manager{
		sessions: make(map[string]credentials),
		max:      p.Cfg.SessionMax,
		log:      p.Log.Named("dbsession.manager"),
	}

	if p.Cfg.DefaultDBDriver != "" && p.Cfg.DefaultDBDSN != "" {
		// The token is a credential, only its existence is logged.
		if _, err := m.Connect(context.Background(), p.Cfg.DefaultDBDriver, p.Cfg.DefaultDBDSN); err != nil {
			m.log.Warn("default database unreachable", zap.String("driver", p.Cfg.DefaultDBDriver), zap.Error(err))
		} else {
			m.log.Info("default database session registered", zap.String("driver", p.Cfg.DefaultDBDriver))
		}
	}

	return m
}

// Connect validates the credentials with a live ping and returns the
// session token on success. Nothing is stored for credentials that fail.
func (m *Manager) Connect(ctx context.Context, driver, dsn string) (string, error) {
	conn, err := db.Open(driver, dsn)
	if err != nil {
		return "", errors.Join(ErrConnectFailed, err)
	}
	defer db.Close(conn)

	sqlDB, err := conn.DB()
	if err != nil {
		return "", errors.Join(ErrConnectFailed, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "", errors.Join(ErrConnectFailed, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return "", ErrTooManySessions
	}

	token := uuid.NewString()
	m.sessions[token] = credentials{
		driver:    driver,
		dsn:       dsn,
		createdAt: time.Now().UTC(),
	}
	m.log.Info("database session opened", zap.String("driver", driver))
	return token, nil
}

// Open returns a fresh connection for the session. The caller must invoke
// the returned closer when done with the connection.
func (m *Manager) Open(token string) (*gorm.DB, func(), error) {
	m.mu.Lock()
	creds, ok := m.sessions[token]
	m.mu.Unlock()
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	conn, err := db.Open(creds.driver, creds.dsn)
	if err != nil {
		return nil, nil, errors.Join(ErrConnectFailed, err)
	}
	return conn, func() { db.Close(conn) }, nil
}

// Driver reports the dialect behind a session.
func (m *Manager) Driver(token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}
	return creds.driver, nil
}

// Disconnect forgets the session. Unknown tokens are a no-op.
func (m *Manager) Disconnect(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

var Module = fx.Module("dbsession.manager",
	fx.Provide(New),
)
