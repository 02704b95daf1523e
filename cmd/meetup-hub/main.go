// Command meetup-hub runs the meetup scheduling API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bissquit/meetup-hub/internal/app"
	"github.com/bissquit/meetup-hub/internal/config"
	"github.com/bissquit/meetup-hub/internal/identity/jwt"
	"github.com/bissquit/meetup-hub/internal/pkg/postgres"
	"github.com/bissquit/meetup-hub/internal/version"
	"github.com/bissquit/meetup-hub/migrations"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	issueToken := flag.String("issue-token", "", "print an access token for the given user id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	if *migrateOnly {
		if err := postgres.Migrate(migrations.FS, cfg.Database.URL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		slog.Info("migrations applied")
		return nil
	}

	if *issueToken != "" {
		token, err := jwt.NewAuthenticator(jwt.Config{
			SecretKey: cfg.JWT.SecretKey,
			Issuer:    cfg.JWT.Issuer,
		}).IssueAccessToken(*issueToken, *tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(token)
		return nil
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		slog.Info("received signal", "signal", sig.String())
	case runErr = <-errCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return errors.Join(runErr, application.Shutdown(ctx))
}
