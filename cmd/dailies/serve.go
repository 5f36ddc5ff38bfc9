package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/config"
	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/logger"
	"github.com/dailies-app/dailies/internal/store"
	"github.com/dailies-app/dailies/internal/web"
	"github.com/dailies-app/dailies/internal/web/auth"
	"github.com/dailies-app/dailies/internal/web/cache"
)

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override the configured server port")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  "Load configuration, connect to the database, and serve the field system API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		log, err := logger.New(cfg.Environment)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer log.Sync()

		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is not configured (set DATABASE_URL)")
		}
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

		pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		optionCache, err := buildCache(cfg)
		if err != nil {
			return fmt.Errorf("build cache: %w", err)
		}

		var authService *auth.Service
		if cfg.Auth.JWTSecret != "" {
			authService = auth.NewService(cfg.Auth.JWTSecret, 24*time.Hour)
		}

		st := store.New(db, log)
		api := web.NewAPI(
			st,
			catalog.NewStaticCatalogue(),
			formula.DefaultEngine(),
			optionCache,
			cfg.Cache.TTL,
			log,
		)
		handler := web.NewRouter(api, web.RouterConfig{
			APIPrefix:   cfg.Server.APIPrefix,
			AuthService: authService,
		}, log)

		color.Green("Dailies API listening on http://%s%s", cfg.Server.Addr(), cfg.Server.APIPrefix)
		if authService == nil {
			color.Yellow("Bearer auth disabled (auth.jwt_secret not set)")
		}

		server := web.NewServer(cfg.Server.Addr(), handler, cfg.Server.ShutdownTimeout, log)
		if err := server.Run(cmd.Context()); err != nil {
			log.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

// buildCache constructs the configured option cache backend.
func buildCache(cfg *config.Config) (cache.Cache, error) {
	common := cache.Config{
		DefaultTTL: cfg.Cache.TTL,
		Prefix:     "dailies:",
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCacheWithConfig(cache.RedisConfig{
			Addr:        cfg.Cache.Redis.Addr,
			Password:    cfg.Cache.Redis.Password,
			DB:          cfg.Cache.Redis.DB,
			CacheConfig: common,
		})
	}
	return cache.NewMemoryCacheWithConfig(common), nil
}
