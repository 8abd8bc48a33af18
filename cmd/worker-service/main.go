package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/24p11/predict-api/internal/classifier"
	"github.com/24p11/predict-api/internal/config"
	"github.com/24p11/predict-api/internal/queue"
	"github.com/24p11/predict-api/internal/worker"
	"github.com/24p11/predict-api/internal/worker/storage"
	"github.com/24p11/predict-api/shared/logger"
	"github.com/24p11/predict-api/shared/postgresql"
)

type flags struct {
	configPath   string
	classifier   string
	labels       []string
	queue        string
	timeoutMS    int
	maxBatchSize int
	concurrency  int
	logLevel     string
}

func main() {
	if err := newRootCmd(&flags{}).Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd(f *flags) *cobra.Command {
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "worker-service",
		Short: "Batching document classification worker",
		Long: `Consumes classification jobs from a work queue, classifies them in batches
and writes every outcome to the result store or to its prediction record.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", defaultConfigPath, "Path to configuration file")
	cmd.Flags().StringVar(&f.classifier, "classifier", "", "Classifier kind: static, http or routed")
	cmd.Flags().StringSliceVar(&f.labels, "labels", nil, "Labels answered by the static classifier")
	cmd.Flags().StringVarP(&f.queue, "queue", "q", "", "Name of the queue to consume")
	cmd.Flags().IntVarP(&f.timeoutMS, "timeout", "t", 100, "Milliseconds a batch stays open while the queue is empty")
	cmd.Flags().IntVarP(&f.maxBatchSize, "max-batch-size", "b", worker.DefaultMaxBatchSize, "Maximum number of jobs per batch")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 1, "Number of worker loops")
	cmd.Flags().StringVarP(&f.logLevel, "loglevel", "l", "", "Log level: debug, info, warn or error")

	return cmd
}

// applyFlags lets explicitly set flags override the configuration file
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("classifier") {
		cfg.Worker.Classifier.Kind = f.classifier
	}
	if changed("labels") {
		cfg.Worker.Classifier.Labels = f.labels
	}
	if changed("queue") {
		cfg.Worker.QueueName = f.queue
	}
	if changed("timeout") {
		cfg.Worker.TimeoutMS = f.timeoutMS
	}
	if changed("max-batch-size") {
		cfg.Worker.MaxBatchSize = f.maxBatchSize
	}
	if changed("concurrency") {
		cfg.Worker.Concurrency = f.concurrency
	}
	if changed("loglevel") {
		cfg.Logging.Level = f.logLevel
	}
}

func run(cmd *cobra.Command, f *flags) error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, f, cfg)

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("queue", cfg.Worker.QueueName),
		slog.String("broker", cfg.Broker.Driver),
		slog.String("classifier", cfg.Worker.Classifier.Kind),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := initPostgreSQL(&cfg.Database, cfg.App.Name, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	broker, err := queue.Open(ctx, cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}
	defer broker.Close()

	model, err := classifier.New(cfg.Worker.Classifier, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	sink := worker.NewSink(&worker.SinkConfig{
		Logger:          appLogger.Logger,
		Results:         broker.Results,
		Records:         storage.NewStorage(dbClient.GetDB(), appLogger.Logger),
		DeadLetter:      broker.Queue,
		DeadLetterQueue: cfg.Worker.DeadLetterQueue,
	})

	pool := worker.NewPool(&worker.Config{
		Logger:        appLogger.Logger,
		Queue:         broker.Queue,
		Sink:          sink,
		Classifier:    model,
		WorkerID:      workerID(),
		QueueName:     cfg.Worker.QueueName,
		MaxBatchSize:  cfg.Worker.MaxBatchSize,
		Timeout:       cfg.Worker.Timeout(),
		DrainInterval: cfg.Worker.DrainInterval,
		PingInterval:  cfg.Worker.ReconnectInterval,
	}, cfg.Worker.Concurrency)

	errChan := make(chan error, 1)
	go func() {
		errChan <- pool.Run(ctx)
	}()

	appLogger.Info("Worker service started successfully")

	select {
	case <-ctx.Done():
		appLogger.Info("Received signal, shutting down gracefully")
	case err := <-errChan:
		if err != nil {
			appLogger.Error("Worker error", slog.Any("error", err))
		}
		return err
	}

	// The batch in flight is dispatched before the pool returns
	select {
	case err := <-errChan:
		if err != nil {
			appLogger.Error("Worker error", slog.Any("error", err))
		}
		appLogger.Info("Worker stopped gracefully")
	case <-time.After(cfg.Worker.ShutdownTimeout):
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		Rotation: logger.RotationConfig{
			Enable:     cfg.Rotation.Enable,
			MaxSizeMB:  cfg.Rotation.MaxSizeMB,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAgeDays: cfg.Rotation.MaxAgeDays,
			Compress:   cfg.Rotation.Compress,
		},
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, appName string, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		ApplicationName: appName,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}
