package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"jobscout/internal/api"
	"jobscout/internal/config"
	"jobscout/internal/notify"
	"jobscout/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server and the scheduled search loop",
	Run: func(cmd *cobra.Command, _ []string) {
		runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "listen host (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command) {
	cfg, zlog := setup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg, zlog)
	defer store.Close()

	if err := store.CreateTables(); err != nil {
		zlog.Fatal("creating tables", zap.Error(err))
	}

	an := newAnalyzer(ctx, cfg, zlog)
	ag := buildAgentWith(cfg, store, an, zlog)

	var janalyzer api.JobAnalyzer
	if an != nil {
		janalyzer = an
	}
	handler := api.NewHandler(ag, store, janalyzer, zlog)

	host, _ := cmd.Flags().GetString("host")
	if host == "" {
		host = cfg.Server.Host
	}
	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Schedule.Enabled {
		sched := scheduler.New(ag, buildNotifier(cfg, zlog), cfg.Schedule, zlog)
		g.Go(func() error {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}

// buildNotifier 组装通知链：日志通知始终开启，邮件通知按配置启用。
func buildNotifier(cfg *config.Config, zlog *zap.Logger) notify.Notifier {
	notifiers := notify.Multi{notify.NewLogNotifier(zlog)}

	email := cfg.Notify.Email
	if email.Enabled {
		if email.Host == "" || email.From == "" || len(email.To) == 0 {
			zlog.Warn("email notifier disabled: missing host/from/to")
		} else {
			notifiers = append(notifiers, notify.NewEmailNotifier(email, nil))
		}
	}
	return notifiers
}
