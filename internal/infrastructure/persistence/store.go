package persistence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"dungeon-dash-server/pkg/utils"
)

// ErrNotFound - пользователь не найден.
var ErrNotFound = errors.New("user not found")

// Stats - накопленная статистика пользователя.
type Stats struct {
	GamesPlayed   int     `json:"gamesPlayed"`
	Wins          int     `json:"wins"`
	Objectives    int     `json:"objectives"`
	Progress      int     `json:"progress"`
	FloorsCleared int     `json:"floorsCleared"`
	Dashes        int     `json:"dashes"`
	Distance      float64 `json:"distance"`
}

// StatsDelta - прирост статистики за одну игру.
type StatsDelta = Stats

// User - зарегистрированный игрок.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	Stats       Stats     `json:"stats"`
}

// Store - хранилище пользователей. Игровое ядро вызывает его только при
// входе и выходе игрока.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, email, displayName string) (*User, error)
	UpdatePlayerStats(ctx context.Context, userID string, delta StatsDelta) error
}

// MemoryStore - Store в памяти процесса.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, email, displayName string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := normalizeEmail(email)
	if key == "" {
		return nil, errors.New("email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byEmail[key]; ok {
		u := *s.byID[id]
		return &u, nil
	}
	u := &User{
		ID:          utils.GenerateID(),
		Email:       key,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}
	s.byID[u.ID] = u
	s.byEmail[key] = u.ID
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpdatePlayerStats(ctx context.Context, userID string, delta StatsDelta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.Stats.GamesPlayed += delta.GamesPlayed
	u.Stats.Wins += delta.Wins
	u.Stats.Objectives += delta.Objectives
	u.Stats.Progress += delta.Progress
	u.Stats.FloorsCleared += delta.FloorsCleared
	u.Stats.Dashes += delta.Dashes
	u.Stats.Distance += delta.Distance
	return nil
}

// FindOrCreate возвращает пользователя по email, создавая его при первом входе.
func FindOrCreate(ctx context.Context, s Store, email, displayName string) (*User, error) {
	u, err := s.FindUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.CreateUser(ctx, email, displayName)
}
