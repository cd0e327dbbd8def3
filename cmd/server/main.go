package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dungeon-dash-server/internal/agent"
	"dungeon-dash-server/internal/engine"
	"dungeon-dash-server/internal/infrastructure/persistence"
	"dungeon-dash-server/internal/infrastructure/storage"
	"dungeon-dash-server/internal/messaging"
	"dungeon-dash-server/internal/network"
	"dungeon-dash-server/internal/server"
	"dungeon-dash-server/internal/version"
	"dungeon-dash-server/pkg/dungeon"
	"dungeon-dash-server/pkg/logger"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/sirupsen/logrus"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var (
		seed        string
		addr        string
		strategy    string
		minPlayers  int
		inspectPath string
		bots        int
		showVersion bool
	)
	flag.StringVar(&seed, "seed", "", "Master seed (empty for random)")
	flag.StringVar(&addr, "addr", "", "Listen address (default :$DD_PORT or :8080)")
	flag.StringVar(&strategy, "strategy", "perimeter", "Spawn strategy: perimeter, buffer, circular")
	flag.IntVar(&minPlayers, "min-players", 0, "Players required to start (0 keeps the default)")
	flag.StringVar(&inspectPath, "inspect", "", "Path to a .cdfl floor archive to print and exit")
	flag.IntVar(&bots, "bots", 0, "Headless bots to put into the \"practice\" room")
	flag.BoolVar(&showVersion, "version", false, "Print build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}

	logger.Log.WithFields(version.Info().Fields()).Info("Starting Dungeon Dash...")

	// РЕЖИМ ПРОСМОТРА АРХИВА
	if inspectPath != "" {
		if err := inspect(inspectPath); err != nil {
			logger.Log.WithError(err).Fatal("Failed to inspect floor archive")
		}
		return
	}

	// Формируем конфиг
	cfg := engine.NewConfig()
	if seed != "" {
		cfg.Seed = seed
		logger.Log.Infof("Using explicit Master Seed: %s", seed)
	} else {
		logger.Log.Infof("Using random Master Seed: %s", cfg.Seed)
	}
	st, err := dungeon.ParseSpawnStrategy(strategy)
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid spawn strategy")
	}
	cfg.Dungeon.Strategy = st
	if minPlayers > 0 {
		cfg.MinPlayers = minPlayers
	}

	if addr == "" {
		port := os.Getenv("DD_PORT")
		if port == "" {
			port = "8080"
		}
		addr = ":" + port
	}

	// 2. Инфраструктура: шина, хранилище, архив этажей
	bus, err := messaging.NewBus(messaging.WithPort(envInt("DD_NATS_PORT", natsserver.RANDOM_PORT)))
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to create event bus")
	}
	if err := bus.Start(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to start event bus")
	}
	defer bus.Close()
	logger.Log.WithField("url", bus.URL()).Info("Event bus ready")

	deps := engine.Deps{
		Store: persistence.NewMemoryStore(),
		Bus:   bus,
	}
	if dir := os.Getenv("DD_ARCHIVE_DIR"); dir != "" {
		archive, err := storage.NewFloorArchive(dir)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to open floor archive")
		}
		deps.Archive = archive
		logger.Log.WithField("dir", dir).Info("Archiving generated floors")
	}

	// 3. Ядро и транспорт
	hub := network.NewBroadcaster()
	gameService, err := engine.NewGameService(cfg, deps, func(roomID string) engine.Transport {
		return hub.Group(roomID)
	})
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid engine config")
	}

	// Боты для локальной игры
	botCtx, stopBots := context.WithCancel(context.Background())
	defer stopBots()
	for i := 0; i < bots; i++ {
		bot := agent.NewBot(fmt.Sprintf("bot-%d", i+1), cfg.Seed, gameService, hub)
		go func() {
			if err := bot.Run(botCtx, "practice"); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.WithField("bot", bot.Name).WithError(err).Warn("Bot stopped")
			}
		}()
	}

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 4. Запуск сервера
	srv := server.New(gameService, hub, deps.Store, addr)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.WithError(err).Fatal("Server start error")
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	stopBots()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Warn("HTTP shutdown failed")
	}
	gameService.Shutdown()

	logger.Log.Info("Done.")
}

// inspect печатает заголовок и карту сохраненного этажа.
func inspect(path string) error {
	floor, header, err := storage.Load(path)
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"version":   header.Version,
		"saved_at":  time.Unix(header.Timestamp, 0).UTC(),
		"seed_hash": header.SeedHash,
	}).Info("Floor archive header")

	fmt.Println(floor.Summary())
	for _, line := range asciiRows(floor.Layers.Tiles) {
		fmt.Println(line)
	}
	return nil
}

// asciiRows рисует тайлы: дыры (любое отрицательное значение) - пробел,
// пол - точка, стены - решетка.
func asciiRows(tiles *dungeon.Grid) []string {
	rows := tiles.Rows()
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		line := make([]byte, len(row))
		for i, v := range row {
			switch {
			case v < 0:
				line[i] = ' '
			case v == dungeon.TileFloor:
				line[i] = '.'
			default:
				line[i] = '#'
			}
		}
		out = append(out, string(line))
	}
	return out
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Log.WithField("key", key).WithError(err).Warn("Ignoring invalid integer env")
		return def
	}
	return n
}
