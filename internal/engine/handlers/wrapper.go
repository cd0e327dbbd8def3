package handlers

import (
	"encoding/json"
	"fmt"

	"dungeon-dash-server/pkg/api"
)

// TypedHandlerFunc - это "чистый" хендлер, который работает с готовой структурой T
type TypedHandlerFunc[C, T any] func(ctx C, payload T) error

// EmptyHandlerFunc - хендлер, которому НЕ нужны данные (ready, mapLoaded)
type EmptyHandlerFunc[C any] func(ctx C) error

// WithPayload берет "чистый" хендлер и превращает его в стандартный HandlerFunc.
// Она берет на себя Unmarshal и Validate.
func WithPayload[C, T any](handler TypedHandlerFunc[C, T]) HandlerFunc[C] {
	return func(ctx C, raw json.RawMessage) error {
		var payload T

		// 1. Распаковка JSON
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("invalid payload format: %w", err)
			}
		}

		// 2. Автоматическая валидация
		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
		}

		// 3. Вызов чистой логики
		return handler(ctx, payload)
	}
}

// WithEmptyPayload - обертка для команд без данных
func WithEmptyPayload[C any](handler EmptyHandlerFunc[C]) HandlerFunc[C] {
	return func(ctx C, _ json.RawMessage) error {
		return handler(ctx)
	}
}
