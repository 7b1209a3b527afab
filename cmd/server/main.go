package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidfetch-go/api"
	"github.com/yourusername/vidfetch-go/api/handlers"
	"github.com/yourusername/vidfetch-go/internal/app"
	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/internal/i18n"
	"github.com/yourusername/vidfetch-go/internal/infrastructure"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath = flag.String("config", "", "Path to config file (default: search ./configs, ~/.vidfetch, /etc/vidfetch)")
	daemon     = flag.Bool("daemon", false, "Detach and run the server in the background")
)

func main() {
	flag.Parse()

	if *daemon {
		startAsDaemon()
		return
	}

	if err := runServer(); err != nil {
		fmt.Fprintf(os.Stderr, "vidfetch-server: %v\n", err)
		os.Exit(1)
	}
}

// startAsDaemon re-executes the binary without -daemon, detached from the
// terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	detach(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
}

func runServer() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize category logs: %w", err)
	}
	defer multiLog.Close()

	log.Info("Starting vidfetch server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("base_dir", config.Download.BaseDir),
		zap.String("ytdlp", config.Download.YTDLPBinary),
		zap.Int("concurrent_limit", config.Download.ConcurrentLimit))

	if err := createDirectories(config); err != nil {
		return err
	}

	repo, err := infrastructure.NewSQLiteSessionRepository(config.Queue.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	// sessions left running by a previous process never finished
	if n, err := repo.RequeueRunning(); err != nil {
		log.Warn("Failed to requeue interrupted sessions", zap.Error(err))
	} else if n > 0 {
		log.Info("Requeued interrupted sessions", zap.Int64("count", n))
	}

	catalog, err := i18n.NewCatalog(config.Locale)
	if err != nil {
		return err
	}

	backend := infrastructure.NewYTDLPBackend(config.Download.YTDLPBinary, log.Named("ytdlp"))
	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	sessionMgr := app.NewSessionManager(repo, backend, notifier, &config.Download, catalog, multiLog, log)
	queueMgr := app.NewQueueManager(repo, sessionMgr, &config.Queue, multiLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queueExited := make(chan struct{})
	if config.Download.AutoStartWorkers {
		if err := queueMgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start queue manager: %w", err)
		}
		if config.Queue.AutoExitOnEmpty {
			go func() {
				queueMgr.Wait()
				close(queueExited)
			}()
		}
	}

	router := api.SetupRouter(api.RouterDeps{
		QueueMgr:    queueMgr,
		SessionMgr:  sessionMgr,
		Defaults:    &config.Download,
		Backend:     backend.Name(),
		Logger:      log,
		MultiLogger: multiLog,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case <-queueExited:
		log.Info("Queue manager exited after staying empty")
	case err := <-serveErr:
		log.Error("HTTP server failed", zap.Error(err))
		sessionMgr.AbortAll()
		return err
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// running sessions keep what they already downloaded
	sessionMgr.AbortAll()
	if queueMgr.IsRunning() {
		if err := queueMgr.Stop(); err != nil {
			log.Error("Error stopping queue manager", zap.Error(err))
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		config.Download.ConfigDir(),
		config.Download.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
