package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagetrail/internal/auth"
	"pagetrail/internal/catalog"
	"pagetrail/internal/config"
	"pagetrail/internal/logging"
	"pagetrail/internal/remote"
	"pagetrail/internal/service"
	"pagetrail/internal/store"
)

// app holds everything a command needs; it is built once per invocation
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
	remote remote.Backend
	engine *service.Engine

	signInErr error
}

var idToken string

func main() {
	rootCmd := &cobra.Command{
		Use:           "pagetrail",
		Short:         "Track reading and listening engagement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&idToken, "id-token", os.Getenv("PAGETRAIL_ID_TOKEN"), "Identity token; when set the profile is synced before the command runs")

	rootCmd.AddCommand(
		newOpenCmd(),
		newProgressCmd(),
		newResumeCmd(),
		newStatsCmd(),
		newBadgesCmd(),
		newFavoriteCmd(),
		newCollectionCmd(),
		newSettingsCmd(),
		newSyncCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newApp loads configuration and wires the engine with its adapters
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	s, err := store.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	backend, err := remote.Open(ctx, cfg.Remote, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open remote: %w", err)
	}

	emailService, err := service.NewEmailService(ctx, cfg.Email, logger.Named("email"))
	if err != nil {
		logger.Warn("Badge e-mails disabled", zap.Error(err))
		emailService = nil
	}
	sinks := service.MultiSink{service.LogSink{Logger: logger.Named("badges")}}
	if emailService != nil && emailService.IsEnabled() {
		sinks = append(sinks, emailService)
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithSink(sinks),
		service.WithTimeUnit(cfg.TimeUnit),
	}
	if backend != nil {
		opts = append(opts, service.WithRemote(backend))
	}
	if cfg.CatalogPath != "" {
		c, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			logger.Warn("Catalog unavailable, genres will not be recorded", zap.Error(err))
		} else {
			opts = append(opts, service.WithCatalog(c))
		}
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  s,
		remote: backend,
		engine: service.NewEngine(s, opts...),
	}

	if idToken != "" {
		if a.signInErr = a.signIn(ctx, idToken); a.signInErr != nil {
			a.logger.Warn("Continuing with local state only", zap.Error(a.signInErr))
		}
	}
	return a, nil
}

// signIn verifies token and runs the sign-in sync
func (a *app) signIn(ctx context.Context, token string) error {
	verifier := auth.NewVerifier(a.cfg.IDToken)
	if !verifier.Enabled() {
		return fmt.Errorf("identity token verification is not configured")
	}
	principal, err := verifier.Verify(ctx, token)
	if err != nil {
		return err
	}
	return a.engine.SignIn(ctx, principal, time.Now())
}

func (a *app) Close() {
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.logger.Warn("Failed to close remote", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp adapts a command body that needs a wired app
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
