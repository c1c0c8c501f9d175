package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/unifit/internal/httpapi"
	"github.com/spigell/unifit/internal/logger"
	"github.com/spigell/unifit/internal/matcher"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve match searches over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().Bool("watch", false, "reload the catalog when the data files change")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.watch", serveCmd.Flags().Lookup("watch"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	validation := config.Validate()
	for _, w := range validation.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}
	if err := validation.Err(); err != nil {
		logger.Fatal("validating config", zap.Strings("errors", validation.Errors))
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	store := matcher.NewStore(nil)
	engine := matcher.New(store, config.engineOptions(logger)...)

	reloader := matcher.NewReloader(store, config.Sources(), logger)
	reloader.OnSwap = func(*matcher.Snapshot) { engine.Purge() }

	if _, err := reloader.Reload(ctx); err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           httpapi.New(engine, config.Server.AllowedOrigins, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if config.Server.Watch {
		g.Go(func() error {
			return reloader.Watch(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
