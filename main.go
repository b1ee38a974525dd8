package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sin-tan/Doodle-What/config"
	"github.com/sin-tan/Doodle-What/game"
	"github.com/sin-tan/Doodle-What/logger"
	"github.com/sin-tan/Doodle-What/migrations"
	"github.com/sin-tan/Doodle-What/storage"
)

func CreateServer(allowedOrigins []string, status gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })
	r.GET("/", status)

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

// newRouter mounts the game endpoints on top of CreateServer.
func newRouter(allowedOrigins []string, handler *game.GameHandler) *gin.Engine {
	r := CreateServer(allowedOrigins, handler.StatusHandler)
	r.GET("/ws", handler.WebsocketHandler)
	return r
}

// loadWords returns the word pool from postgres when configured, otherwise
// the built-in one.
func loadWords(ctx context.Context, pgurl string, log zerolog.Logger) ([]string, error) {
	if pgurl == "" {
		log.Info().Msg("using built-in word pool")
		return game.DefaultWords, nil
	}

	if err := migrations.Migrate(pgurl); err != nil {
		return nil, err
	}
	log.Info().Msg("migrations applied")

	repo, err := storage.NewPostgresRepo(ctx, pgurl)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	words, err := repo.Words(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("loaded word pool from postgres")
	return words, nil
}

func main() {
	configPath := flag.String("config", "", "path to env file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// logger setup
	appLogger := logger.New(os.Stdout, cfg.Debug, cfg.PrettyLogs)
	log.Logger = appLogger
	gin.SetMode(cfg.GinMode)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	words, err := loadWords(startupCtx, cfg.PostgresURL, appLogger)
	cancelStartup()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to load word pool")
	}

	// Dependencies
	wordBank := game.NewWordBank(words, rand.New(rand.NewSource(time.Now().UnixNano())))
	appLogger.Info().Int("words", wordBank.Size()).Msg("word bank ready")
	clock := game.NewTickerGen()
	hub := game.NewHub(appLogger)

	settings := game.DefaultRoomSettings()
	settings.RoundDuration = cfg.RoundDuration
	settings.DefaultRounds = cfg.DefaultRounds

	registry := game.NewRegistry(func(id string) *game.Room {
		return game.NewRoom(id, wordBank, clock, hub, settings, appLogger)
	})
	service := game.NewService(registry, hub, appLogger)
	gameHandler := game.NewGameHandler(service, hub, cfg.Origins(), appLogger)

	r := newRouter(cfg.Origins(), gameHandler)

	pingerCtx, stopPinger := context.WithCancel(context.Background())
	go hub.RunPinger(pingerCtx, clock)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("server stopped")
		}
	}()
	appLogger.Info().Str("port", cfg.Port).Strs("origins", cfg.Origins()).Msg("server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	sig := <-sigCh
	appLogger.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("http shutdown")
	}
	stopPinger()
	registry.Shutdown()
	appLogger.Info().Int("connections", hub.Count()).Msg("closing connections")
	hub.CloseAll()
	appLogger.Info().Msg("server closed")
}
