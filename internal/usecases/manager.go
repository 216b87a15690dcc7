package usecases

import (
	"strings"
	"sync"

	"github.com/hanoi-speedrapp/main/internal/domain"
)

// SessionManager はセッションの生成・取得・破棄を担うユースケース実装。
// ソルバとスコアブックを全セッションで共有する。
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*GameSession

	solver *domain.Solver
	scores *ScoreBook
	repo   ScoreRepository
	clock  Clock
	ids    IDGenerator

	defaults GameConfig
}

// SessionManagerOption は SessionManager のオプション設定を表す。
type SessionManagerOption func(*SessionManager)

// WithClock は時刻取得を差し替えるオプション。
func WithClock(clock Clock) SessionManagerOption {
	return func(manager *SessionManager) {
		if clock != nil {
			manager.clock = clock
		}
	}
}

// WithIDGenerator は識別子生成器を差し替えるオプション。
func WithIDGenerator(generator IDGenerator) SessionManagerOption {
	return func(manager *SessionManager) {
		if generator != nil {
			manager.ids = generator
		}
	}
}

// WithDefaultConfig は新規セッションの既定設定を差し替えるオプション。
func WithDefaultConfig(cfg GameConfig) SessionManagerOption {
	return func(manager *SessionManager) {
		manager.defaults = cfg
	}
}

// NewSessionManager はセッション管理のユースケース実装を生成する。
// repo は nil でも良く、その場合スコアはメモリ上にのみ残る。
func NewSessionManager(solver *domain.Solver, scores *ScoreBook, repo ScoreRepository, opts ...SessionManagerOption) *SessionManager {
	manager := &SessionManager{
		sessions: make(map[string]*GameSession),
		solver:   solver,
		scores:   scores,
		repo:     repo,
		clock:    systemClock{},
		ids:      defaultIDGenerator{},
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// Create は設定を検証してセッションを生成する。設定のゼロ値フィールドは
// マネージャの既定設定、それも無ければ組み込みの既定値で埋める。
func (m *SessionManager) Create(cfg GameConfig) (*GameSession, error) {
	cfg = m.mergeDefaults(cfg)

	session, err := newGameSession(m.ids.NewID(), cfg, m.solver, m.scores, m.repo, m.clock)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID()] = session
	return session, nil
}

// Get は識別子でセッションを取得する。
func (m *SessionManager) Get(id string) (*GameSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrValidationFailed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete はセッションを破棄する。
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Defaults は現在の既定セッション設定を返す。
func (m *SessionManager) Defaults() GameConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaults
}

// SetDefaults は既定セッション設定を入れ替える。スナップショット復元用。
func (m *SessionManager) SetDefaults(cfg GameConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = cfg
}

func (m *SessionManager) mergeDefaults(cfg GameConfig) GameConfig {
	m.mu.Lock()
	defaults := m.defaults
	m.mu.Unlock()

	if cfg.Poles == 0 {
		cfg.Poles = defaults.Poles
	}
	if cfg.Disks == 0 {
		cfg.Disks = defaults.Disks
	}
	if cfg.StartPole == 0 {
		cfg.StartPole = defaults.StartPole
	}
	if cfg.EndPole == 0 {
		cfg.EndPole = defaults.EndPole
	}
	if cfg.Modes == nil {
		cfg.Modes = defaults.Modes
	}
	return cfg
}
