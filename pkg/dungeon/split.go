package dungeon

import (
	"dungeon-dash-server/pkg/logger"
	"dungeon-dash-server/pkg/rng"

	"github.com/sirupsen/logrus"
)

// Split делит прямоугольник на две части.
//
// Ось выбирается случайно, если одна сторона не превышает другую в
// AxisRatioThreshold раз (тогда режем поперек большей). Смещение разреза -
// равномерно в [MinLeafSize, dim-MinLeafSize], сужено к центру на
// SplitVariance. Обе половины обязаны держать ContainerMinimumRatio,
// иначе пробуем снова, до SplitRetries раз.
//
// ok=false - это не ошибка: контейнер просто остается одним листом.
func Split(r Rect, s *rng.Stream, cfg Config) (left, right Rect, ok bool) {
	for attempt := 0; attempt <= cfg.SplitRetries; attempt++ {
		// vertical - разрез вертикальной линией (дети слева и справа)
		vertical := s.Probability(0.5)
		if cfg.AxisRatioThreshold > 0 {
			if float64(r.W) >= float64(r.H)*cfg.AxisRatioThreshold {
				vertical = true
			} else if float64(r.H) >= float64(r.W)*cfg.AxisRatioThreshold {
				vertical = false
			}
		}

		dim := r.H
		if vertical {
			dim = r.W
		}

		lo, hi := cfg.MinLeafSize, dim-cfg.MinLeafSize
		if cfg.SplitVariance > 0 {
			mid := dim / 2
			spread := int(float64(dim) * cfg.SplitVariance)
			lo = max(lo, mid-spread)
			hi = min(hi, mid+spread)
		}
		if hi < lo {
			continue
		}
		pos := s.Int(lo, hi)

		if vertical {
			left = Rect{X: r.X, Y: r.Y, W: pos, H: r.H}
			right = Rect{X: r.X + pos, Y: r.Y, W: r.W - pos, H: r.H}
		} else {
			left = Rect{X: r.X, Y: r.Y, W: r.W, H: pos}
			right = Rect{X: r.X, Y: r.Y + pos, W: r.W, H: r.H - pos}
		}

		if left.Ratio() >= cfg.ContainerMinimumRatio && right.Ratio() >= cfg.ContainerMinimumRatio {
			return left, right, true
		}
	}
	return Rect{}, Rect{}, false
}

// splitTree рекурсивно строит дерево разбиения. Каждый Split-узел сразу
// получает коридор между центрами своих детей.
func splitTree(c *Container, iterations int, s *rng.Stream, cfg Config, ids *idGen) *Node {
	if iterations <= 0 || (c.W < 2*cfg.MinLeafSize && c.H < 2*cfg.MinLeafSize) {
		return NewLeaf(c)
	}

	lr, rr, ok := Split(c.Rect, s, cfg)
	if !ok {
		logger.Log.WithFields(logrus.Fields{
			"component": "bsp",
			"container": c.ID,
			"w":         c.W,
			"h":         c.H,
		}).Debug("split retries exhausted, keeping leaf")
		return NewLeaf(c)
	}

	left := splitTree(ids.container(lr), iterations-1, s, cfg, ids)
	right := splitTree(ids.container(rr), iterations-1, s, cfg, ids)

	c.Corridor = SiblingCorridor(left.Container, right.Container, cfg.CorridorWidth, s)
	return NewSplit(c, left, right)
}
