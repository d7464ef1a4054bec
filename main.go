package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/kochbuch-be/internal/api"
	"github.com/isdelr/kochbuch-be/internal/auth"
	"github.com/isdelr/kochbuch-be/internal/config"
	"github.com/isdelr/kochbuch-be/internal/database"
	"github.com/isdelr/kochbuch-be/internal/housekeeping"
	"github.com/isdelr/kochbuch-be/internal/logger"
	"github.com/isdelr/kochbuch-be/internal/services"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Optional YAML config file; environment variables override it",
		EnvVars: []string{"KOCHBUCH_CONFIG"},
	}

	app := &cli.App{
		Name:   "kochbuch",
		Usage:  "Recipe sharing backend",
		Flags:  []cli.Flag{configFlag},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Action: migrate,
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, os.Args)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogPretty); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrate(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return errors.Wrap(err, "initialize database")
	}
	defer db.Close()

	return database.Migrate(c.Context, db)
}

func serve(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return errors.Wrap(err, "initialize database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	// Set up auth
	denyList, err := auth.NewDenyList(ctx)
	if err != nil {
		return err
	}
	defer denyList.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, auth.WithRevocationChecker(denyList))
	if err != nil {
		return err
	}
	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	// Set up services
	eventService := services.NewEventService(db, cfg.StoreTimeout)
	svc := api.Services{
		Users:      services.NewUserService(db, cfg.StoreTimeout, hasher, eventService),
		Events:     eventService,
		Recipes:    services.NewRecipeService(db, cfg.StoreTimeout),
		Comments:   services.NewCommentService(db, cfg.StoreTimeout),
		Favorites:  services.NewFavoriteService(db, cfg.StoreTimeout),
		Categories: services.NewCategoryService(db, cfg.StoreTimeout),
	}

	// Set up and run the housekeeping scheduler
	scheduler, err := housekeeping.NewScheduler(eventService, cfg.HousekeepingSchedule, cfg.EventRetention)
	if err != nil {
		return err
	}
	scheduler.Run()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(svc, tokens, denyList, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
	return nil
}
