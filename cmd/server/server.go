package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Haidepptrai/yoga-client/api"
	"github.com/Haidepptrai/yoga-client/config"
	"github.com/Haidepptrai/yoga-client/core/auth"
	"github.com/Haidepptrai/yoga-client/docstore"
	"github.com/Haidepptrai/yoga-client/rate"
	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	// Optional local .env; the environment always wins.
	_ = godotenv.Load()

	const prefix = "YOGA"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	store, cleanup, err := openStore(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer cleanup()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour

	limiter := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.ExpiryMins, cfg.Rate.LimitPerSec)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Oauth.DiscoveryTimeout)
	defer cancel()
	google := cfg.Oauth.Google
	oauthProvs, err := auth.MakeProviders(ctx, []auth.ProviderConfig{
		{Name: "google", Client: google.Client, Secret: google.Secret, URL: google.URL, RedirectURL: google.RedirectURL},
	})
	if err != nil {
		return fmt.Errorf("failed to discover oauth providers: %w", err)
	}

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:       cfg.Cors.Origin,
		Log:              logger,
		Store:            store,
		Session:          sessionManager,
		Limiter:          limiter,
		Providers:        oauthProvs,
		LoginRedirectURL: cfg.Oauth.LoginRedirectURL,
	})

	srv := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

func openStore(cfg config.DB) (docstore.Store, func(), error) {
	if cfg.Driver == "memory" {
		return docstore.NewMemory(), func() {}, nil
	}

	pg, err := docstore.OpenPostgres(docstore.PostgresConfig{
		User:       cfg.User,
		Password:   cfg.Password,
		Host:       cfg.Host,
		Name:       cfg.Name,
		DisableTLS: cfg.DisableTLS,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := pg.Migrate(); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("migrating schema: %w", err)
	}

	return pg, func() { pg.Close() }, nil
}
