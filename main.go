package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/config"
	"github.com/snap-point/social-api/metrics"
	"github.com/snap-point/social-api/middleware"
	"github.com/snap-point/social-api/routes"
	"github.com/snap-point/social-api/services"
	"github.com/snap-point/social-api/storage"
	"github.com/snap-point/social-api/store/sqlstore"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config-path", "config.toml", "path to the TOML config file")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Error loading config")
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Error configuring logger")
	}

	// Initialize database
	db, err := config.InitDB(cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error connecting to database")
	}
	st := sqlstore.New(db)

	var (
		avatars  storage.Store
		mediaDir string
	)
	switch cfg.Storage.Driver {
	case "r2":
		avatars = storage.NewR2Store(cfg.Storage.R2)
	default:
		avatars = storage.NewLocalStore(cfg.Storage.MediaDir)
		mediaDir = cfg.Storage.MediaDir
	}

	views := services.NewProfileViewBuilder(st, avatars, logger)
	accounts := services.NewAccountService(st, avatars, services.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.TokenTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, logger)
	deps := routes.Deps{
		Relations:   services.NewRelationshipService(st, logger),
		Suggestions: services.NewSuggestionService(st, logger),
		Profiles:    services.NewProfileService(st, views, logger),
		Views:       views,
		Accounts:    accounts,
		JWTSecret:   cfg.JWTSecret,
		MediaDir:    mediaDir,
		Registry:    metrics.GetRegistry(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Metrics())

	routes.SetupRoutes(r, deps)

	logger.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"storage": cfg.Storage.Driver,
	}).Info("Starting server")
	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors(r),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}
