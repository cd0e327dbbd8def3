package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HandlerFunc - это контракт для любой команды клиента (ready, playerInput, ...).
// C - контекст, который передает движок (комната и отправитель).
type HandlerFunc[C any] func(ctx C, payload json.RawMessage) error

// ErrUnknownCommand - для команды не зарегистрирован хендлер.
var ErrUnknownCommand = errors.New("unknown command")

// Registry сопоставляет имя события с хендлером.
type Registry[C any] struct {
	handlers map[string]HandlerFunc[C]
}

// NewRegistry создает пустой реестр.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{handlers: make(map[string]HandlerFunc[C])}
}

// Register добавляет хендлер. Повторная регистрация заменяет старый.
func (r *Registry[C]) Register(event string, h HandlerFunc[C]) {
	r.handlers[event] = h
}

// Has проверяет, известна ли команда.
func (r *Registry[C]) Has(event string) bool {
	_, ok := r.handlers[event]
	return ok
}

// Dispatch вызывает хендлер для события.
func (r *Registry[C]) Dispatch(ctx C, event string, payload json.RawMessage) error {
	h, ok := r.handlers[event]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, event)
	}
	return h(ctx, payload)
}
