package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/config"
	"github.com/Avflux/Av-sub001/internal/daily"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/Avflux/Av-sub001/internal/idle"
	"github.com/Avflux/Av-sub001/internal/mcp"
	"github.com/Avflux/Av-sub001/internal/metrics"
	"github.com/Avflux/Av-sub001/internal/observer"
	"github.com/Avflux/Av-sub001/internal/platform"
	"github.com/Avflux/Av-sub001/internal/sqlite"
	"github.com/Avflux/Av-sub001/internal/timer"
	"github.com/Avflux/Av-sub001/internal/tracker"
	"github.com/Avflux/Av-sub001/internal/transport"
)

var version = "dev"

// journalBuffer bounds how many lifecycle events may wait for the journal
// writer before new ones are dropped.
const journalBuffer = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if len(os.Args) > 1 && os.Args[1] == "create-api-key" {
		if err := createAPIKey(cfg, os.Args[2:], os.Stdout); err != nil {
			logger.Error("failed to create api key", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	hours, err := cfg.Calendar.Hours()
	if err != nil {
		return err
	}
	cal, err := calendar.New(hours)
	if err != nil {
		return err
	}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	activityRepo := sqlite.NewActivityRepository(db, logger)
	journalRepo := sqlite.NewJournalRepository(db)
	dailyRepo := sqlite.NewDailyRepository(db, logger)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	activitySvc := activity.NewService(activityRepo, logger)
	journalSvc := journal.NewService(journalRepo, logger)

	// Observers. The journal writes to the database, so it runs behind a
	// queue and outlives the other workers to record the final pause.
	collector := metrics.NewCollector()
	recorder := observer.NewAsync(journal.NewRecorder(journalSvc), journalBuffer, logger)
	bus := observer.NewBus(logger)
	bus.Subscribe(observer.NewLogSink(logger))
	bus.Subscribe(collector)
	bus.Subscribe(recorder)

	journalCtx, stopJournal := context.WithCancel(context.Background())
	go recorder.Run(journalCtx)
	defer func() {
		stopJournal()
		<-recorder.Done()
	}()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	engine := timer.NewEngine(activityRepo, bus, logger, timer.Config{
		TickInterval: cfg.Timer.TickInterval,
		SaveInterval: cfg.Timer.SaveInterval,
	})

	acc := daily.New(cal, dailyRepo, bus, logger, daily.Config{
		UserID:       cfg.User.DefaultID,
		TickInterval: cfg.Timer.TickInterval,
		SaveInterval: cfg.Timer.SaveInterval,
	})
	if err := acc.Restore(workerCtx); err != nil {
		logger.Warn("failed to restore daily total", "error", err)
	}
	dailyDone := make(chan struct{})
	go func() {
		defer close(dailyDone)
		acc.Run(workerCtx)
	}()

	var idleSource tracker.IdleSource
	if cfg.Idle.Enabled {
		cursor, keyboard := platform.Sources()
		monitor := idle.NewMonitor(cursor, keyboard, bus, logger, idle.Config{
			MouseThreshold:    cfg.Idle.MouseThreshold,
			KeyboardThreshold: cfg.Idle.KeyboardThreshold,
			PollInterval:      cfg.Idle.PollInterval,
			EvalInterval:      cfg.Idle.EvalInterval,
		}, idle.BreakTime(cal.IsBreak))
		monitor.SetLoginWindow(true)
		bus.Subscribe(idle.NewLoginWatcher(monitor))
		if err := monitor.Start(workerCtx); err != nil {
			return fmt.Errorf("start idle monitor: %w", err)
		}
		defer monitor.Stop()
		idleSource = monitor
	}

	tr := tracker.New(tracker.Config{
		Activities: activitySvc,
		Engine:     engine,
		Daily:      acc,
		Idle:       idleSource,
		Logger:     logger,
	})
	if info, err := tr.RestoreActive(workerCtx, cfg.User.DefaultID); err != nil {
		logger.Warn("failed to restore running activity", "error", err)
	} else if info != nil {
		logger.Info("resumed activity left running", "activity_id", info.ID, "name", info.Name)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tr.Shutdown(ctx)
		stopWorkers()
		<-dailyDone
	}()

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Activities: activitySvc,
			Tracker:    tr,
			Journal:    journalSvc,
		},
		Resolver:      apiKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		DefaultUser:   cfg.User.DefaultID,
		Version:       version,
		Logger:        logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer)
	}

	var auth func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(apiKeys)
	}
	router := transport.NewRouter(transport.RouterConfig{
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		),
		Auth:       auth,
		Metrics:    collector.Handler(),
		Instrument: collector.Middleware,
		Health: func() map[string]any {
			st := tr.Status()
			return map[string]any{"version": version, "phase": st.Phase, "daily": st.DailyDisplay}
		},
		Logger: logger,
	})
	return runHTTPMode(ctx, logger, router, cfg.Server.Host, cfg.Server.Port)
}

func openDB(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(ctx, logger, httpServer, errCh)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(ctx context.Context, logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
