package network

import (
	"sync"

	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/logger"

	"github.com/zyedidia/generic/mapset"
)

// Broadcaster занимается только рассылкой сообщений подписчикам
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: ClientID -> Личный канал
	subscribers map[string]chan api.Envelope
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.Envelope),
	}
}

// Register создает личный канал для клиента
func (b *Broadcaster) Register(clientID string) chan api.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал был, закрываем
	if old, ok := b.subscribers[clientID]; ok {
		close(old)
	}

	ch := make(chan api.Envelope, 256)
	b.subscribers[clientID] = ch
	return ch
}

// Unregister удаляет подписчика и закрывает его канал. Повторный вызов
// ничего не делает.
func (b *Broadcaster) Unregister(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[clientID]; ok {
		close(ch)
		delete(b.subscribers, clientID)
	}
}

// SendTo отправляет сообщение конкретному клиенту (Unicast).
// Полный канал - сообщение отбрасывается.
func (b *Broadcaster) SendTo(clientID string, msg api.Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[clientID]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.WithField("client", clientID).Warn("hub: channel full, message dropped")
		}
	}
}

// Broadcast отправляет всем подписчикам
func (b *Broadcaster) Broadcast(msg api.Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// HasSubscriber проверяет, подключен ли клиент
func (b *Broadcaster) HasSubscriber(clientID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[clientID]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Group - рассылка в пределах одной комнаты поверх общего Broadcaster.
type Group struct {
	hub     *Broadcaster
	name    string
	mu      sync.RWMutex
	members mapset.Set[string]
}

// Group создает группу рассылки.
func (b *Broadcaster) Group(name string) *Group {
	return &Group{hub: b, name: name, members: mapset.New[string]()}
}

func (g *Group) Attach(clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members.Put(clientID)
}

func (g *Group) Detach(clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members.Remove(clientID)
}

// Size - число участников.
func (g *Group) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.members.Size()
}

// Send кодирует событие и отправляет одному клиенту.
func (g *Group) Send(clientID, event string, payload any) {
	env, ok := g.encode(event, payload)
	if !ok {
		return
	}
	g.hub.SendTo(clientID, env)
}

// BroadcastAll кодирует событие один раз и рассылает всем участникам,
// кроме except.
func (g *Group) BroadcastAll(event string, payload any, except ...string) {
	env, ok := g.encode(event, payload)
	if !ok {
		return
	}
	skip := mapset.New[string]()
	for _, id := range except {
		skip.Put(id)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	g.members.Each(func(id string) {
		if !skip.Has(id) {
			g.hub.SendTo(id, env)
		}
	})
}

// Disconnect закрывает канал клиента; writePump закроет соединение.
func (g *Group) Disconnect(clientID string) {
	g.Detach(clientID)
	g.hub.Unregister(clientID)
}

func (g *Group) encode(event string, payload any) (api.Envelope, bool) {
	env, err := api.NewEnvelope(event, payload)
	if err != nil {
		logger.Log.WithField("group", g.name).WithField("event", event).WithError(err).Error("hub: failed to encode event")
		return api.Envelope{}, false
	}
	return env, true
}
