package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID создает уникальный ID для клиента/игрока/комнаты.
func GenerateID() string {
	return uuid.NewString()
}

// ShortID возвращает компактный ID (первые 8 hex-символов UUID).
// Используется для имен комнат, которые видит игрок.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// DeterministicID строит UUID из сида (SHA1 namespace). Одинаковое имя
// всегда дает одинаковый ID, поэтому архивы этажей можно сопоставлять
// между запусками.
func DeterministicID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
