package dungeon

// Биты соседей для маски стены.
const (
	maskN  = 1
	maskNE = 2
	maskE  = 4
	maskSE = 8
	maskS  = 16
	maskSW = 32
	maskW  = 64
	maskNW = 128
)

// wallSprites - таблица маска -> индекс спрайта стены (blob-тайлсет из 47
// спрайтов). Клиентские ассеты завязаны на эти номера, менять нельзя.
var wallSprites = map[uint8]int{
	1: 1, 4: 2, 5: 3, 7: 4, 16: 5, 17: 6, 20: 7, 21: 8, 23: 9, 28: 10,
	29: 11, 31: 12, 64: 13, 65: 14, 68: 15, 69: 16, 71: 17, 80: 18, 81: 19, 84: 20,
	85: 21, 87: 22, 92: 23, 93: 24, 95: 25, 112: 26, 113: 27, 116: 28, 117: 29, 119: 30,
	124: 31, 125: 32, 127: 33, 193: 34, 197: 35, 199: 36, 209: 37, 213: 38, 215: 39, 221: 40,
	223: 41, 241: 42, 245: 43, 247: 44, 253: 45, 255: 46,
	0: 47,
}

// Спрайты, рядом с которыми ставятся факелы: лицевая стена и ее концы
// (стена сверху, пол снизу).
const (
	SpriteWallFront = 36 // N|NE|E|W|NW
	SpriteWallLeft  = 4  // N|NE|E
	SpriteWallRight = 34 // N|W|NW
	SpriteIsolated  = 47
)

// Спрайты дыр.
const (
	HoleTop   = -1 // над дырой пол
	HoleShaft = -2 // над дырой тоже дыра
)

// WallSprite возвращает спрайт для маски; false - маски нет в таблице.
func WallSprite(mask uint8) (int, bool) {
	s, ok := wallSprites[mask]
	return s, ok
}

// WallMasks возвращает копию всех допустимых масок (для тестов и клиентов).
func WallMasks() map[uint8]int {
	out := make(map[uint8]int, len(wallSprites))
	for k, v := range wallSprites {
		out[k] = v
	}
	return out
}

// WallMask считает 8-битную маску стены в (x, y). Сосед "сплошной", если он
// вне сетки или сам стена (> 0). Диагональ учитывается, только если обе
// смежные стороны сплошные.
func WallMask(tiles *Grid, x, y int) uint8 {
	solid := func(dx, dy int) bool {
		v, ok := tiles.Get(x+dx, y+dy)
		return !ok || v > 0
	}

	var m uint8
	n, e, s, w := solid(0, -1), solid(1, 0), solid(0, 1), solid(-1, 0)
	if n {
		m |= maskN
	}
	if e {
		m |= maskE
	}
	if s {
		m |= maskS
	}
	if w {
		m |= maskW
	}
	if n && e && solid(1, -1) {
		m |= maskNE
	}
	if s && e && solid(1, 1) {
		m |= maskSE
	}
	if s && w && solid(-1, 1) {
		m |= maskSW
	}
	if n && w && solid(-1, -1) {
		m |= maskNW
	}
	return m
}
