package engine

import "time"

// Clock - источник времени комнаты. Тесты подставляют ручные часы.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock - настоящее время.
var SystemClock Clock = systemClock{}
