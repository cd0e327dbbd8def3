package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/utils"

	"github.com/sirupsen/logrus"
)

// TransportFactory создает доставку сообщений для новой комнаты.
type TransportFactory func(roomID string) Transport

// GameService - реестр комнат и подбор комнаты для нового игрока.
type GameService struct {
	cfg          Config
	deps         Deps
	newTransport TransportFactory

	mu      sync.RWMutex
	rooms   map[string]*Room
	clients map[string]*Room // clientID -> комната

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGameService проверяет конфиг и создает пустой реестр.
func NewGameService(cfg Config, deps Deps, factory TransportFactory) (*GameService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errors.New("transport factory is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &GameService{
		cfg:          cfg,
		deps:         deps,
		newTransport: factory,
		rooms:        make(map[string]*Room),
		clients:      make(map[string]*Room),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// FindOrCreateRoom возвращает комнату для входа. Пустой roomID - подбор:
// сначала лобби с местами, иначе новая комната. Для явного roomID
// комната создается, если ее нет.
func (s *GameService) FindOrCreateRoom(roomID string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roomID != "" {
		if r, ok := s.rooms[roomID]; ok {
			if !r.Joinable() {
				return nil, ErrRoomLocked
			}
			return r, nil
		}
		return s.createRoomLocked(roomID)
	}

	var candidates []*Room
	for _, r := range s.rooms {
		if r.Joinable() && r.Info().Phase == PhaseLobby {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) > 0 {
		// Самое заполненное лобби стартует быстрее.
		sort.Slice(candidates, func(i, j int) bool {
			a, b := candidates[i].Info(), candidates[j].Info()
			if a.Players != b.Players {
				return a.Players > b.Players
			}
			return a.ID < b.ID
		})
		return candidates[0], nil
	}
	return s.createRoomLocked(utils.ShortID())
}

func (s *GameService) createRoomLocked(id string) (*Room, error) {
	deps := s.deps
	deps.Transport = s.newTransport(id)
	r, err := NewRoom(id, s.cfg, deps)
	if err != nil {
		return nil, err
	}
	r.OnDispose(s.removeRoom)
	s.rooms[id] = r

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		r.Run(s.ctx)
	}()
	return r, nil
}

// removeRoom вызывается горутиной комнаты при Dispose.
func (s *GameService) removeRoom(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[r.ID] == r {
		delete(s.rooms, r.ID)
	}
	for clientID, cr := range s.clients {
		if cr == r {
			delete(s.clients, clientID)
		}
	}
}

// Join подбирает комнату и добавляет игрока. Если подобранная комната
// успела закрыться или заполниться, пробует другую.
func (s *GameService) Join(ctx context.Context, clientID, name, roomID string, ident *Identity) (*Room, string, error) {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		r, err := s.FindOrCreateRoom(roomID)
		if err != nil {
			return nil, "", err
		}
		playerID, err := r.SubmitJoin(ctx, clientID, name, ident)
		if err == nil {
			s.mu.Lock()
			s.clients[clientID] = r
			s.mu.Unlock()
			return r, playerID, nil
		}
		lastErr = err
		if roomID != "" || !(errors.Is(err, ErrRoomLocked) || errors.Is(err, ErrRoomFull)) {
			break
		}
		logger.Log.WithFields(logrus.Fields{
			"component": "game_service",
			"room":      r.ID,
			"client":    clientID,
		}).WithError(err).Debug("room rejected join, retrying")
	}
	return nil, "", lastErr
}

// Leave сообщает комнате клиента об уходе.
func (s *GameService) Leave(clientID string) {
	s.mu.Lock()
	r, ok := s.clients[clientID]
	delete(s.clients, clientID)
	s.mu.Unlock()
	if ok {
		r.SubmitLeave(clientID)
	}
}

// Handle передает сообщение клиента в его комнату.
func (s *GameService) Handle(clientID string, env api.Envelope) bool {
	s.mu.RLock()
	r, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return r.SubmitMessage(clientID, env)
}

// Room ищет комнату по ID.
func (s *GameService) Room(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Rooms - снимки всех комнат, по ID.
func (s *GameService) Rooms() []RoomInfo {
	s.mu.RLock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Info())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown останавливает все комнаты и ждет их горутины.
func (s *GameService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
