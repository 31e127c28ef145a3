package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"roomchat/internal/chat"
	"roomchat/internal/config"
	"roomchat/internal/db"
	"roomchat/internal/logger"
	"roomchat/internal/metrics"
	authmw "roomchat/internal/middleware"
	"roomchat/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("dev")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg.Env)

	// The gateway must not accept connections before the message store
	// is reachable and migrated; NewDatabase retries until it is.
	database, err := db.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Msg("connected to postgres")

	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("database schema initialized")

	// Redis being down at startup is not fatal: the server runs with
	// local-only fan-out and the subscriber reconnects on its own.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, starting with local-only fan-out")
		metrics.BackplaneDegraded.Set(1)
	} else {
		log.Info().Msg("connected to redis")
	}
	cancel()

	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	chatRepo := chat.NewRepository(database.Conn)
	backplane := chat.NewRedisBackplane(redisClient)
	gateway := chat.NewGateway(uuid.New().String(), chat.NewRegistry(), chatRepo, backplane)
	chatHandler := chat.NewHandler(gateway, chatRepo, cfg.HistoryLimit)

	go backplane.Run(context.Background(), gateway.HandleRemote)

	authMiddleware := authmw.NewAuthMiddleware(userService)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Get("/ws", chatHandler.ServeWs)
		r.Get("/rooms/{room}/messages", chatHandler.GetHistory)
	})

	log.Info().Str("addr", cfg.Addr).Msg("server starting")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
