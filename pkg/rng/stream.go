// Package rng содержит детерминированный генератор случайных чисел.
//
// Все решения генератора подземелий и комнаты (направление разреза, выбор
// шаблона, форма коридора, факелы, победители гаунтлета) берутся из одного
// явно переданного Stream. Глобальный math/rand здесь не используется:
// один и тот же сид обязан воспроизводить этаж байт-в-байт.
package rng

import "math"

// Параметры LCG (Numerical Recipes), модуль 2^32.
const (
	lcgA = 1664525
	lcgC = 1013904223

	// zeroState подставляется, если хеш сида оказался нулевым.
	zeroState uint32 = 0x9E3779B9
)

// Stream - детерминированный поток псевдослучайных чисел.
type Stream struct {
	seed  string
	state uint32
}

// New создает поток из строкового сида.
func New(seed string) *Stream {
	h := HashSeed(seed)
	if h == 0 {
		h = zeroState
	}
	return &Stream{seed: seed, state: h}
}

// HashSeed - полиномиальный rolling hash (основание 31) с переполнением
// в 32 бита: hash = hash*31 + char.
func HashSeed(seed string) uint32 {
	var h uint32
	for _, r := range seed {
		h = h*31 + uint32(r)
	}
	return h
}

// Seed возвращает исходный сид.
func (s *Stream) Seed() string { return s.seed }

// State возвращает внутреннее состояние (для отладки и тестов).
func (s *Stream) State() uint32 { return s.state }

// Next возвращает число в [0, 1).
func (s *Stream) Next() float64 {
	s.state = lcgA*s.state + lcgC
	return float64(s.state) / 4294967296.0
}

// Int возвращает целое в [min, max] включительно.
func (s *Stream) Int(min, max int) int {
	if max < min {
		min, max = max, min
	}
	span := max - min + 1
	return min + int(math.Floor(s.Next()*float64(span)))
}

// Float возвращает число в [min, max).
func (s *Stream) Float(min, max float64) float64 {
	return min + s.Next()*(max-min)
}

// Probability возвращает true с вероятностью p.
func (s *Stream) Probability(p float64) bool {
	return s.Next() < p
}

// Derive создает независимый дочерний поток (например, на этаж или комнату).
// Родительский поток при этом не сдвигается.
func (s *Stream) Derive(label string) *Stream {
	return New(s.seed + "/" + label)
}

// Choice возвращает случайный элемент списка. Для пустого списка - нулевое
// значение и false.
func Choice[T any](s *Stream, list []T) (T, bool) {
	var zero T
	if len(list) == 0 {
		return zero, false
	}
	return list[s.Int(0, len(list)-1)], true
}

// WeightedChoice выбирает значение пропорционально весам (выборка по
// накопленной сумме). Веса <= 0 никогда не выбираются.
func WeightedChoice[T any](s *Stream, weights []float64, values []T) (T, bool) {
	var zero T
	n := min(len(weights), len(values))
	total := 0.0
	for i := 0; i < n; i++ {
		if weights[i] > 0 {
			total += weights[i]
		}
	}
	if total <= 0 {
		return zero, false
	}

	target := s.Next() * total
	cumulative := 0.0
	last := -1
	for i := 0; i < n; i++ {
		if weights[i] <= 0 {
			continue
		}
		cumulative += weights[i]
		last = i
		if target < cumulative {
			return values[i], true
		}
	}
	// Погрешность float: возвращаем последний допустимый элемент.
	return values[last], true
}

// Shuffle перемешивает срез на месте (Fisher-Yates).
func Shuffle[T any](s *Stream, list []T) {
	for i := len(list) - 1; i > 0; i-- {
		j := s.Int(0, i)
		list[i], list[j] = list[j], list[i]
	}
}
