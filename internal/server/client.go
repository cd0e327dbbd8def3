package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dungeon-dash-server/internal/engine"
	"dungeon-dash-server/internal/infrastructure/persistence"
	"dungeon-dash-server/internal/network"
	"dungeon-dash-server/pkg/api"
	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024 // пачка из 64 команд
	joinTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и GameService
type Client struct {
	ID    string
	Game  *engine.GameService
	Hub   *network.Broadcaster
	Store persistence.Store
	Conn  *websocket.Conn
	Send  chan api.Envelope

	log *logrus.Entry
}

// NewClient регистрирует клиента в хабе: личный канал нужен writePump
// до рукопожатия, чтобы ошибка входа дошла до клиента.
func NewClient(game *engine.GameService, hub *network.Broadcaster, store persistence.Store, conn *websocket.Conn) *Client {
	id := utils.GenerateID()
	return &Client{
		ID:    id,
		Game:  game,
		Hub:   hub,
		Store: store,
		Conn:  conn,
		Send:  hub.Register(id),
		log:   logger.Log.WithField("client", id),
	}
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		c.Game.Leave(c.ID)
		c.Hub.Unregister(c.ID)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
		c.log.Info("Client disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	// 1. HANDSHAKE (JOIN)
	if err := c.handshake(); err != nil {
		c.log.WithError(err).Warn("Handshake failed")
		c.Hub.SendTo(c.ID, errorEnvelope(err))
		return
	}

	// 2. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var env api.Envelope
		if err := c.Conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Error("WS Error")
			}
			break
		}
		if env.Type == api.EventJoin {
			c.Hub.SendTo(c.ID, errorEnvelope(errors.New("already joined")))
			continue
		}
		if !c.Game.Handle(c.ID, env) {
			c.log.WithField("event", env.Type).Debug("message dropped")
		}
	}
}

// handshake ждет join, находит пользователя по email и сажает игрока в
// комнату. welcome и mapData приходят через хаб.
func (c *Client) handshake() error {
	var env api.Envelope
	if err := c.Conn.ReadJSON(&env); err != nil {
		return err
	}
	if env.Type != api.EventJoin {
		return errors.New("first message must be join")
	}
	var join api.JoinPayload
	if err := decodePayload(env, &join); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	var ident *engine.Identity
	if join.Email != "" && c.Store != nil {
		user, err := persistence.FindOrCreate(ctx, c.Store, join.Email, join.Name)
		if err != nil {
			// Без хранилища игра продолжается гостем.
			c.log.WithError(err).Warn("user lookup failed, joining as guest")
		} else {
			ident = &engine.Identity{UserID: user.ID, DisplayName: user.DisplayName}
		}
	}

	room, playerID, err := c.Game.Join(ctx, c.ID, strings.TrimSpace(join.Name), join.Room, ident)
	if err != nil {
		return err
	}
	c.log = c.log.WithFields(logrus.Fields{"room": room.ID, "player": playerID})
	c.log.Info("Client joined")
	return nil
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

func decodePayload(env api.Envelope, v api.Validator) error {
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, v); err != nil {
			return err
		}
	}
	return v.Validate()
}

func errorEnvelope(err error) api.Envelope {
	env, _ := api.NewEnvelope(api.EventError, api.ErrorPayload{Message: err.Error()})
	return env
}
