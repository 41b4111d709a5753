package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/attendance-agent-go/internal/config"
	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	appHTTP "github.com/cmlabs-hris/attendance-agent-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/connectivity"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/jwt"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command, the agent's long-running
// mode: local HTTP API, connectivity watcher, and sync scheduler.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent daemon",
		Long: `Start the attendance agent daemon.

The daemon serves the kiosk UI API on the configured port, watches
backend connectivity, and drains the offline queue when connectivity
returns, on a periodic schedule, or on manual request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parentCtx context.Context, cfg *config.Config) error {
	application, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer application.close()

	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	watcher := connectivity.NewWatcher(application.client, cfg.Sync.ProbeInterval)
	go watcher.Run(ctx)

	// Replay queued punches as soon as the backend becomes reachable
	// again. A pass already in flight absorbs the trigger.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher.Restored():
				count, err := application.attendanceService.UnsyncedCount(ctx)
				if err != nil {
					slog.Error("Failed to count unsynced punches", "error", err)
					continue
				}
				if count == 0 {
					continue
				}
				slog.Info("Connectivity restored, starting sync", "unsynced", count)
				if _, err := application.engine.SyncNow(ctx); err != nil && !errors.Is(err, punch.ErrSyncInProgress) {
					slog.Error("Connectivity-triggered sync failed", "error", err)
				}
			}
		}
	}()

	scheduler := cron.NewScheduler()
	scheduler.AddConstrainedJob(
		"periodic_sync",
		cfg.Sync.Interval,
		func() bool { return watcher.Online() && !connectivity.BatteryLow() },
		func(jobCtx context.Context) error {
			_, err := application.engine.SyncNow(jobCtx)
			if errors.Is(err, punch.ErrSyncInProgress) {
				return nil
			}
			return err
		},
	)
	retention := cron.NewRetentionJobs(
		application.queue,
		application.states,
		cfg.Sync.PunchRetentionDays,
		cfg.Sync.DayStateRetentionDays,
	)
	retention.RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	jwtService := jwt.NewJWTService(cfg.Device.JWTSecret)
	attendanceHandler := appHTTP.NewAttendanceHandler(
		application.attendanceService,
		application.engine,
		cfg.Device.SupervisorPINHash,
	)
	eventHandler := appHTTP.NewEventHandler(application.hub)
	router := appHTTP.NewRouter(cfg, jwtService, attendanceHandler, eventHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Agent API listening", "addr", server.Addr, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("Agent stopped")
	return nil
}
