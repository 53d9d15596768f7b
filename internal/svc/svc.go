// Package svc carries the boot sequence every HTTP binary shares: gin
// engine, cors, database, keycloak and graceful shutdown.
package svc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
	"kyri56xcaesar/clubs-proj/internal/conf"
	"kyri56xcaesar/clubs-proj/internal/logger"
)

const APIVersion = "/api/v1"

// NewEngine builds the gin engine with recovery, request logging and cors.
func NewEngine(cfg conf.Config, log *slog.Logger) *gin.Engine {
	setGinMode(cfg.ApiGinMode)
	apperr.SetupValidation()

	engine := gin.New()
	engine.Use(gin.Recovery(), logger.Middleware(log))

	corsconfig := cors.DefaultConfig()
	corsconfig.AllowOrigins = cfg.AllowedOrigins
	corsconfig.AllowMethods = cfg.AllowedMethods
	corsconfig.AllowHeaders = cfg.AllowedHeaders
	corsconfig.ExposeHeaders = []string{logger.RequestIDHeader, "Content-Disposition"}
	engine.Use(cors.New(corsconfig))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	engine.NoRoute(func(c *gin.Context) {
		apperr.Respond(c, apperr.NotFound("route"))
	})

	return engine
}

// OpenDB connects, pings and applies the init script (when there is one).
func OpenDB(ctx context.Context, cfg conf.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping the db: %w", err)
	}

	if cfg.InitSQLPath == "" {
		return pool, nil
	}
	b, err := os.ReadFile(cfg.InitSQLPath)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to open and read the init sql file: %w", err)
	}

	slog.Info("executing initialization script", "path", cfg.InitSQLPath)
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to execute init sql: %w", err)
	}
	return pool, nil
}

// MustKeycloakAuth builds the jwt middleware for the configured realm.
func MustKeycloakAuth(cfg conf.Config) *auth.KeycloakAuth {
	a, err := auth.NewKeycloakAuth(cfg.JWKSURL(), cfg.RealmIssuer(), cfg.Audience, cfg.ClientID)
	if err != nil {
		panic(err)
	}
	return a
}

// KeycloakAdmin returns nil when no client secret is configured.
func KeycloakAdmin(ctx context.Context, cfg conf.Config) *auth.Service {
	if cfg.ClientSecret == "" {
		slog.Warn("no keycloak client secret, user lookups disabled")
		return nil
	}
	kc := auth.NewService(cfg.AuthAddress, cfg.Realm, cfg.ClientID, cfg.ClientSecret)
	if err := kc.SelfTest(ctx); err != nil {
		slog.Warn("keycloak self test failed", "error", err)
	}
	return kc
}

// Serve runs the engine until SIGINT/SIGTERM, then calls cleanup and
// shuts the server down.
func Serve(cfg conf.Config, engine *gin.Engine, cleanup func()) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           engine,
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		slog.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	stop()
	slog.Info("shutting down gracefully, press Ctrl+C again to force")

	if cleanup != nil {
		cleanup()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exiting")
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "envgin":
		gin.SetMode(gin.EnvGinMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
