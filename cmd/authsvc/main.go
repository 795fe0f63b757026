package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/collabgames/internal/infra/config"
	"github.com/mkrupp/collabgames/internal/infra/logging"
	http_ "github.com/mkrupp/collabgames/internal/infra/transport/http"
	"github.com/mkrupp/collabgames/internal/repo/user"
	"github.com/mkrupp/collabgames/internal/svc/authsvc"
	"github.com/mkrupp/collabgames/internal/svc/usersvc"
)

const (
	appName = "collabgames"
	svcName = "authsvc"
)

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig        `envPrefix:"LOG_"`
	Auth authsvc.AuthConfig          `envPrefix:"AUTH_"`
	HTTP authsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	User user.SQLUserStoreConfig     `envPrefix:"USER_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	if err := logging.Configure(ctx, cfg.Log, loggerName); err != nil {
		panic(err)
	}

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.authsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	authSvc, err := authsvc.NewAuthService(ctx, user.SQLUserStoreFactory(cfg.User), cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}
	defer authSvc.Close()

	mux := http.NewServeMux()
	authTransport := authsvc.NewHTTPTransport(authSvc, cfg.HTTP)

	mux.Handle("/auth/", authTransport)
	mux.Handle("POST /token", authTransport)
	mux.Handle("/users/", usersvc.NewHTTPTransport(authSvc))
	mux.Handle("GET /{$}", http_.WelcomeHandler(appName))

	if err := http_.ListenAndServe(ctx, mux, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
