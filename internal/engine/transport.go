package engine

import (
	"errors"

	"dungeon-dash-server/internal/domain"
)

var (
	// ErrRoomLocked - комната в RESULTS или уже закрыта.
	ErrRoomLocked = errors.New("room is locked")
	// ErrRoomFull - достигнут MaxPlayers.
	ErrRoomFull = errors.New("room is full")
	// ErrUnknownPlayer - сообщение от клиента, которого нет в комнате.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrAlreadyJoined - клиент уже в комнате.
	ErrAlreadyJoined = errors.New("client already joined")
)

// Transport - доставка событий клиентам комнаты. Отправка отсутствующему
// клиенту ничего не делает.
type Transport interface {
	// Attach добавляет клиента в рассылку комнаты.
	Attach(clientID string)
	// Detach убирает клиента из рассылки.
	Detach(clientID string)
	Send(clientID, event string, payload any)
	BroadcastAll(event string, payload any, except ...string)
	// Disconnect закрывает соединение клиента.
	Disconnect(clientID string)
}

// Identity - проверенный пользователь; nil для гостя.
type Identity = domain.Identity
