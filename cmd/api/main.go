// cmd/api/main.go
// Bootstraps the discovery API: config, storage, cache, routing.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amoryn-app/amoryn-backend/internal/auth"
	"github.com/amoryn-app/amoryn-backend/internal/common/database"
	"github.com/amoryn-app/amoryn-backend/internal/common/utils"
	"github.com/amoryn-app/amoryn-backend/internal/config"
	"github.com/amoryn-app/amoryn-backend/internal/discovery"
	"github.com/amoryn-app/amoryn-backend/internal/entitlement"
	"github.com/amoryn-app/amoryn-backend/internal/logger"
	"github.com/amoryn-app/amoryn-backend/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Running from plain environment variables is fine
	}

	cfg := config.Load()

	logger.Init(&logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.Format(cfg.LogFormat),
		Component: "discovery-api",
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to postgres")

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("connected to redis")

	if err := runMigrations(db); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// Wire the discovery core
	repo := discovery.NewPostgresRepository(db)
	cache := discovery.NewRedisCache(redisClient)
	entitlements := entitlement.NewPostgresResolver(db)
	dispatcher := notify.LogDispatcher{}

	svc := discovery.NewService(repo, cache, entitlements, dispatcher, discovery.Config{
		Quota: discovery.QuotaConfig{
			FreeQuota:         cfg.FreeQuota,
			PremiumExtraQuota: cfg.PremiumExtraQuota,
			UnlockCost:        cfg.UnlockCost,
		},
		SuperLikeDailyCap:    cfg.SuperLikeDailyCap,
		RewindWindow:         cfg.RewindWindow,
		CandidatePoolSize:    cfg.CandidatePoolSize,
		TopPicksSize:         cfg.TopPicksSize,
		TopPicksFreeLimit:    cfg.TopPicksFreeLimit,
		TopPicksPremiumLimit: cfg.TopPicksPremiumLimit,
	})

	handler := discovery.NewHandler(svc)
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	router := mux.NewRouter()
	discovery.RegisterRoutes(router, handler, authMiddleware)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited gracefully")
}

// runMigrations creates the tables this core owns or reads. Profile
// and subscription content is written by their owning services; the
// schemas here carry the uniqueness constraints the discovery core
// relies on for idempotency.
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id BIGSERIAL PRIMARY KEY,
			display_name VARCHAR(100) NOT NULL,
			birth_date DATE NOT NULL,
			gender VARCHAR(20) NOT NULL,
			bio TEXT,
			city VARCHAR(100),
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			passport_city VARCHAR(100),
			passport_latitude DOUBLE PRECISION,
			passport_longitude DOUBLE PRECISION,
			passport_expires_at TIMESTAMPTZ,
			height INTEGER,
			religion VARCHAR(50),
			education VARCHAR(50),
			drinking VARCHAR(50),
			smoking VARCHAR(50),
			exercise VARCHAR(50),
			diet VARCHAR(50),
			wants_kids VARCHAR(50),
			relationship_goal VARCHAR(50),
			interests TEXT[] NOT NULL DEFAULT '{}',
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			photo_count INTEGER NOT NULL DEFAULT 0,
			completion_score INTEGER NOT NULL DEFAULT 0,
			skill_rating INTEGER NOT NULL DEFAULT 1500,
			last_active TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_profiles_gender_birth
			ON profiles (gender, birth_date)`,

		`CREATE TABLE IF NOT EXISTS preferences (
			user_id BIGINT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
			min_age INTEGER NOT NULL DEFAULT 18,
			max_age INTEGER NOT NULL DEFAULT 100,
			max_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
			genders TEXT[] NOT NULL DEFAULT '{}',
			min_height INTEGER,
			max_height INTEGER,
			relationship_goals TEXT[] NOT NULL DEFAULT '{}',
			religions TEXT[] NOT NULL DEFAULT '{}',
			educations TEXT[] NOT NULL DEFAULT '{}',
			drinking TEXT[] NOT NULL DEFAULT '{}',
			smoking TEXT[] NOT NULL DEFAULT '{}',
			exercise TEXT[] NOT NULL DEFAULT '{}',
			diet TEXT[] NOT NULL DEFAULT '{}',
			verified_only BOOLEAN NOT NULL DEFAULT FALSE,
			has_photos BOOLEAN NOT NULL DEFAULT FALSE,
			has_bio BOOLEAN NOT NULL DEFAULT FALSE,
			active_recently BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS likes (
			id BIGSERIAL PRIMARY KEY,
			actor_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			target_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			is_super BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (actor_id, target_id)
		)`,

		`CREATE TABLE IF NOT EXISTS passes (
			id BIGSERIAL PRIMARY KEY,
			actor_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			target_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (actor_id, target_id)
		)`,

		`CREATE TABLE IF NOT EXISTS blocks (
			id BIGSERIAL PRIMARY KEY,
			blocker_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			blocked_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (blocker_id, blocked_id)
		)`,

		`CREATE TABLE IF NOT EXISTS matches (
			id UUID PRIMARY KEY,
			user1_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			user2_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			user1_unread INTEGER NOT NULL DEFAULT 0,
			user2_unread INTEGER NOT NULL DEFAULT 0,
			last_message_at TIMESTAMPTZ,
			matched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user1_id, user2_id),
			CHECK (user1_id < user2_id)
		)`,

		`CREATE TABLE IF NOT EXISTS item_unlocks (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			item_type VARCHAR(20) NOT NULL,
			target_id BIGINT NOT NULL,
			method VARCHAR(30) NOT NULL,
			payment_ref VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, item_type, target_id)
		)`,

		`CREATE TABLE IF NOT EXISTS swipe_actions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			target_id BIGINT NOT NULL,
			action VARCHAR(20) NOT NULL,
			match_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
