package api

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"
)

// MaxChatRunes - длина сообщения чата после обрезки.
const MaxChatRunes = 200

// MaxBatchSize - сколько команд принимается в одной пачке.
const MaxBatchSize = 64

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p JoinPayload) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(name) > 32 {
		return errors.New("name too long")
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return errors.New("invalid email")
	}
	return nil
}

func (p InputPayload) Validate() error {
	if p.Seq == 0 {
		return errors.New("seq is required")
	}
	if p.IsDash() {
		if p.Direction == nil {
			return errors.New("dash direction is required")
		}
		if p.Direction.X == 0 && p.Direction.Y == 0 {
			return errors.New("dash direction cannot be zero")
		}
		if math.IsNaN(p.Direction.X) || math.IsNaN(p.Direction.Y) {
			return errors.New("dash direction is not a number")
		}
		return nil
	}
	if p.Type != "" {
		return errors.New("unknown input type")
	}
	if p.Delta < 0 || math.IsNaN(p.Delta) {
		return errors.New("delta must not be negative")
	}
	return nil
}

func (p InputBatchPayload) Validate() error {
	if len(p.Inputs) == 0 {
		return errors.New("inputs are required")
	}
	if len(p.Inputs) > MaxBatchSize {
		return errors.New("too many inputs in batch")
	}
	for _, in := range p.Inputs {
		if err := in.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p ChatPayload) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

func (p InteractionPayload) Validate() error {
	if p.Type == "" {
		return errors.New("type is required")
	}
	if p.TileX < 0 || p.TileY < 0 {
		return errors.New("tile out of range")
	}
	return nil
}

// TrimChat обрезает пробелы и ограничивает длину сообщения.
func TrimChat(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxChatRunes {
		return text
	}
	return string([]rune(text)[:MaxChatRunes])
}
