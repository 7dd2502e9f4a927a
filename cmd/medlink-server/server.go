package main

import (
	"context"
	crypto_rand "crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/config"
	"github.com/medlink/medlink/internal/domain/account"
	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/db"
	"github.com/medlink/medlink/internal/platform/jobs"
	"github.com/medlink/medlink/internal/platform/middleware"
	"github.com/medlink/medlink/internal/web"
)

const version = "1.0"

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Tokens
	signingKey, generated, err := resolveSigningKey(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve signing key")
	}
	if generated {
		logger.Warn().Msg("using a random JWT signing key; sessions end on restart")
	}

	bl, err := newBlacklist(cfg, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up token blacklist")
	}
	defer bl.close()
	logger.Info().Str("backend", cfg.BlacklistBackend).Msg("token blacklist ready")

	tokens := auth.NewTokenIssuer(auth.TokenConfig{
		SigningKey: signingKey,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, bl.store)

	// Jobs
	scheduler := jobs.NewScheduler(logger)
	if bl.purger != nil {
		if err := scheduler.AddBlacklistPurge(cfg.BlacklistPurgeSchedule, bl.purger); err != nil {
			logger.Fatal().Err(err).Msg("failed to schedule blacklist purge")
		}
	}
	scheduler.Start()

	// Services
	txm := db.NewTxManager(pool)
	accountSvc := account.NewService(account.NewUserRepoPG(pool), tokens, logger)
	patientSvc := patient.NewService(patient.NewPatientRepoPG(pool))
	doctorSvc := doctor.NewService(doctor.NewDoctorRepoPG(pool))
	mappingSvc := mapping.NewService(mapping.NewMappingRepoPG(pool), patientSvc, doctorSvc, txm, logger)

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = middleware.ErrorHandler(logger, renderer.ErrorPage)

	// Global middleware
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, bl.checks...))

	// API
	api := e.Group("/api", auth.JWTMiddleware(auth.JWTConfig{
		Tokens:     tokens,
		CookieName: web.AccessCookie,
		Skipper:    auth.AuthSkipper,
	}))
	api.GET("", apiIndex)

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	account.NewHandler(accountSvc).RegisterRoutes(api, middleware.RateLimit(rateLimitCfg))
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	doctor.NewHandler(doctorSvc).RegisterRoutes(api)
	mapping.NewHandler(mappingSvc).RegisterRoutes(api)

	// Pages
	web.NewHandler(web.Deps{
		Accounts: accountSvc,
		Patients: patientSvc,
		Doctors:  doctorSvc,
		Mappings: mappingSvc,
		Tokens:   tokens,
		Config: web.Config{
			CookieSecure: cfg.CookieSecure,
			AccessTTL:    cfg.AccessTokenTTL,
			RefreshTTL:   cfg.RefreshTokenTTL,
		},
		Logger: logger,
	}).RegisterRoutes(e)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	scheduler.Stop(ctx)
	logger.Info().Msg("server stopped")
	return nil
}

// resolveSigningKey returns JWT_SIGNING_KEY, or a random 32-byte key when it
// is unset. The second return value is true when the key was generated.
func resolveSigningKey(cfg *config.Config) ([]byte, bool, error) {
	key, err := cfg.SigningKey()
	if err != nil {
		return nil, false, err
	}
	if key != nil {
		return key, false, nil
	}
	key = make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate signing key: %w", err)
	}
	return key, true, nil
}

// blacklist bundles the configured revocation store with what the rest of
// the server needs from it.
type blacklist struct {
	store  auth.Blacklist
	purger jobs.Purger
	checks []db.Check
	close  func()
}

func newBlacklist(cfg *config.Config, pool *pgxpool.Pool) (*blacklist, error) {
	switch cfg.BlacklistBackend {
	case config.BlacklistMemory:
		s := auth.NewTokenRevocationStore()
		return &blacklist{store: s, close: s.Close}, nil
	case config.BlacklistRedis:
		s, err := auth.NewRedisBlacklist(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &blacklist{
			store:  s,
			checks: []db.Check{{Name: "redis", Probe: s.Ping}},
			close:  func() { _ = s.Close() },
		}, nil
	case config.BlacklistPostgres:
		s := auth.NewPGBlacklist(pool)
		return &blacklist{store: s, purger: s, close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unknown blacklist backend %q", cfg.BlacklistBackend)
	}
}

// apiIndex lists the API endpoints.
func apiIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Healthcare Backend API",
		"version": version,
		"endpoints": map[string]map[string]string{
			"authentication": {
				"register":      "/api/auth/register/",
				"login":         "/api/auth/login/",
				"logout":        "/api/auth/logout/",
				"profile":       "/api/auth/profile/",
				"token_refresh": "/api/auth/token/refresh/",
			},
			"patients": {
				"list_create": "/api/patients/",
				"detail":      "/api/patients/<id>/",
			},
			"doctors": {
				"list":   "/api/doctors/",
				"public": "/api/doctors/public/",
				"create": "/api/doctors/create/",
				"detail": "/api/doctors/<id>/",
				"update": "/api/doctors/<id>/update/",
				"delete": "/api/doctors/<id>/delete/",
			},
			"mappings": {
				"list_create":     "/api/mappings/",
				"delete":          "/api/mappings/<id>/",
				"update":          "/api/mappings/<id>/update/",
				"patient_doctors": "/api/mappings/patient/<patient_id>/",
			},
		},
	})
}
