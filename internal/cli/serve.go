package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvintake/internal/config"
	"github.com/JonMunkholm/csvintake/internal/store"
	"github.com/JonMunkholm/csvintake/internal/web"
)

func (a *App) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API over HTTP",
		Long: "Serve the validation API over HTTP. The import endpoint is enabled\n" +
			"when DATABASE_URL is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *App) runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	var importer web.Importer
	if cfg.Database.URL != "" {
		if err := cfg.ValidateDatabase(); err != nil {
			return err
		}
		db, closeDB, err := a.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer closeDB()

		imp := store.NewImporter(db, a.logger)
		if err := imp.EnsureSchema(ctx); err != nil {
			return err
		}
		importer = imp
		a.logger.Info("import endpoint enabled")
	}

	server := web.NewServer(cfg, importer)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
