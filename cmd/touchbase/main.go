package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emilianohg/touchbase/internal/api"
	"github.com/emilianohg/touchbase/internal/cache"
	"github.com/emilianohg/touchbase/internal/config"
	"github.com/emilianohg/touchbase/internal/db"
	"github.com/emilianohg/touchbase/internal/logging"
	"github.com/emilianohg/touchbase/internal/service"
	"github.com/emilianohg/touchbase/internal/tui"
)

// env is what every command needs: config, logger and a tracker over the
// migrated database.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	tracker *service.Tracker
	redis   *redis.Client
}

// setup loads the config and opens the database. Logs go to logOutput, or
// to ~/.touchbase/touchbase.log when it is empty so the TUI is not drawn over.
func setup(logOutput string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if logOutput == "" {
		if logOutput, err = config.LogPath(); err != nil {
			return nil, err
		}
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOutput)
	if err != nil {
		return nil, fmt.Errorf("error creating logger: %w", err)
	}

	e := &env{cfg: cfg, logger: logger}

	dbPath, err := cfg.ResolvedDatabasePath()
	if err != nil {
		e.close()
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		e.close()
		return nil, err
	}
	conn, err := db.OpenAndMigrate(dbPath)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	ttl, err := cfg.CacheTTL()
	if err != nil {
		e.close()
		return nil, err
	}

	var kv cache.KVStore
	if cfg.Cache.RedisAddr != "" {
		e.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		kv = cache.NewRedisKVStore(e.redis)
		logger.Info("using redis company cache", zap.String("addr", cfg.Cache.RedisAddr))
	}

	e.tracker = service.New(conn, kv, service.Options{
		HistoryCount:  cfg.Schedule.HistoryCount,
		UpcomingCount: cfg.Schedule.UpcomingCount,
		CacheTTL:      ttl,
	}, logger)

	logger.Debug("database ready", zap.String("path", dbPath))
	return e, nil
}

// close releases whatever setup managed to open.
func (e *env) close() {
	if e.redis != nil {
		e.redis.Close()
	}
	db.Close()
	_ = e.logger.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "touchbase",
	Short: "Track communications with companies and when the next one is due",
	Long: `Touchbase keeps a ledger of the communications you have with each company
and projects the next due dates from each company's periodicity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		if err := tui.Run(e.tracker); err != nil {
			e.logger.Error("tui exited", zap.Error(err))
			return err
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup("stdout")
		if err != nil {
			return err
		}
		defer e.close()

		apiCfg := &api.Config{Host: e.cfg.Server.Host, Port: e.cfg.Server.Port}
		if cmd.Flags().Changed("host") {
			apiCfg.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			apiCfg.Port, _ = cmd.Flags().GetInt("port")
		}

		server, err := api.NewServer(e.tracker, e.logger, apiCfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				e.logger.Error("server failed", zap.Error(err))
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			e.logger.Error("shutdown failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("host", "", "Host to listen on (default from config)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(companiesCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	// Commands return their errors so deferred cleanup runs before exit.
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
