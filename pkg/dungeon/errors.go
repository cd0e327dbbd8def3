package dungeon

import "errors"

// Ошибки конфигурации фатальны для конкретной попытки генерации:
// этаж без обязательной комнаты (boss/entrance/heal/treasure) не отдается.
var (
	ErrNoTemplate          = errors.New("no template for room type")
	ErrNoContainer         = errors.New("no free container for room type")
	ErrRequiredRoomMissing = errors.New("required room could not be placed")
	ErrUnmappedMask        = errors.New("wall mask has no sprite")
	ErrSpawnCapacity       = errors.New("not enough space for spawn rooms")
	ErrSpawnOverlap        = errors.New("spawn room overlaps another room")
	ErrInvalidConfig       = errors.New("invalid generator config")
)
