package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"dungeon-dash-server/pkg/logger"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Publisher - шина событий комнат (смена фазы, конец игры, глобальные события).
type Publisher interface {
	Publish(subject string, payload any) error
}

// Nop - шина, которая ничего не делает.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }

// Bus - встроенный NATS-сервер и клиентское соединение к нему.
type Bus struct {
	ns   *server.Server
	conn *nats.Conn

	startupTimeout time.Duration
	host           string
	port           int
}

// Option настраивает Bus.
type Option func(*Bus)

// WithPort задает порт. server.RANDOM_PORT (-1) выбирает свободный.
func WithPort(port int) Option {
	return func(b *Bus) { b.port = port }
}

// WithHost задает адрес прослушивания.
func WithHost(host string) Option {
	return func(b *Bus) { b.host = host }
}

// WithStartupTimeout - сколько ждать готовности сервера.
func WithStartupTimeout(d time.Duration) Option {
	return func(b *Bus) { b.startupTimeout = d }
}

// NewBus создает встроенный сервер. Сеть не открывается до Start.
func NewBus(opts ...Option) (*Bus, error) {
	b := &Bus{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		port:           server.RANDOM_PORT,
	}
	for _, opt := range opts {
		opt(b)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   b.host,
		Port:   b.port,
		NoSigs: true, // сигналы обрабатывает main
		NoLog:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	b.ns = ns
	return b, nil
}

// Start запускает сервер и подключает внутреннего клиента.
func (b *Bus) Start() error {
	b.ns.Start()

	if !b.ns.ReadyForConnections(b.startupTimeout) {
		return fmt.Errorf("nats server not ready for connections")
	}

	conn, err := nats.Connect(b.ns.ClientURL())
	if err != nil {
		return fmt.Errorf("creating nats client connection: %w", err)
	}
	b.conn = conn

	logger.Log.WithField("addr", b.ns.ClientURL()).Info("event bus listening")
	return nil
}

// URL - адрес для внешних подписчиков.
func (b *Bus) URL() string {
	return b.ns.ClientURL()
}

// Publish кодирует payload в JSON и отправляет в subject.
func (b *Bus) Publish(subject string, payload any) error {
	if b.conn == nil {
		return fmt.Errorf("event bus not started")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", subject, err)
	}
	return b.conn.Publish(subject, data)
}

// Subscribe подписывается на subject (допускаются wildcard "*" и ">").
// Возвращает функцию отписки.
func (b *Bus) Subscribe(subject string, handler func(subject string, data []byte)) (func(), error) {
	if b.conn == nil {
		return nil, fmt.Errorf("event bus not started")
	}
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close сбрасывает буфер клиента и останавливает сервер.
func (b *Bus) Close() {
	if b.conn != nil {
		_ = b.conn.Drain()
		b.conn.Close()
	}
	b.ns.Shutdown()
	b.ns.WaitForShutdown()
}
