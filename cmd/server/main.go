package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/OldStager01/healthcare-records/api"
	"github.com/OldStager01/healthcare-records/internal/auth"
	"github.com/OldStager01/healthcare-records/internal/dataset"
	"github.com/OldStager01/healthcare-records/internal/events"
	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/internal/prediction"
	"github.com/OldStager01/healthcare-records/pkg/config"
	"github.com/OldStager01/healthcare-records/pkg/database"
	"github.com/OldStager01/healthcare-records/pkg/database/queries"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "healthrec",
	Short:         "Patient records and stroke risk prediction service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Manage the database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(args[0])
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the bundled dataset into an empty patients table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env, the config and the logger, then connects to the database.
func setup() (*config.Config, *database.DB, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Database connection established")

	return cfg, db, nil
}

func migrateUp(cfg *config.Config, db *database.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.MigrationTimeout)
	defer cancel()

	if err := database.NewMigrator(db).Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Migrations completed successfully")
	return nil
}

func runMigrate(direction string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "up":
		return migrateUp(cfg, db)
	case "down":
		if err := database.NewMigrator(db).Down(); err != nil {
			return err
		}
		logger.Info("Migrations rolled back")
	case "version":
		version, dirty, err := database.NewMigrator(db).Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
	}
	return nil
}

func runSeed() error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrateUp(cfg, db); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := dataset.NewSeeder(queries.NewPatientRepository(db.DB), cfg.Dataset.Path, nil).Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("inserted %d patients\n", n)
	return nil
}

func runServe() error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.Get()
	m.RegisterDB(db.DB, cfg.Database.Name)

	if err := migrateUp(cfg, db); err != nil {
		return err
	}

	users := queries.NewUserRepository(db.DB)
	patients := queries.NewPatientRepository(db.DB)
	audit := queries.NewAuditRepository(db.DB)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer startupCancel()

	if _, err := auth.EnsureDefaultAdmin(startupCtx, users, auth.DefaultAdmin{
		Username: cfg.Auth.DefaultAdminUsername,
		Email:    cfg.Auth.DefaultAdminEmail,
		Password: cfg.Auth.DefaultAdminPassword,
	}, cfg.Auth.BcryptCost); err != nil {
		return err
	}

	if cfg.Dataset.SeedOnStart {
		if _, err := dataset.NewSeeder(patients, cfg.Dataset.Path, m).Seed(startupCtx); err != nil {
			logger.Errorf("Dataset seeding failed: %v", err)
		}
	}

	predictor := prediction.NewService(prediction.Paths{
		Classifier: cfg.Model.ClassifierPath,
		Scaler:     cfg.Model.ScalerPath,
		Encoders:   cfg.Model.EncodersPath,
	}, prediction.WithMetrics(m))
	if cfg.Model.LoadOnStart {
		if err := predictor.Init(startupCtx); err != nil {
			logger.Warnf("Prediction model not loaded, will retry on first request: %v", err)
		}
	}
	defer predictor.Close()

	bus := events.NewEventBus(cfg.Events.BufferSize, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventLogger := events.NewEventLogger(audit, bus.SubscribeAll())
	eventLogger.Start(ctx)

	var kafkaSink *events.KafkaSink
	if cfg.Events.Kafka.Enabled {
		writer, err := events.NewKafkaWriter(cfg.Events.Kafka)
		if err != nil {
			return fmt.Errorf("failed to configure kafka: %w", err)
		}
		kafkaSink = events.NewKafkaSink(writer, bus.SubscribeAll(), cfg.Events.Kafka, m)
		kafkaSink.Start(ctx)
		logger.Infof("Streaming events to Kafka topic %s", cfg.Events.Kafka.Topic)
	}

	server := api.NewServer(cfg, api.Dependencies{
		DB:        db,
		Users:     users,
		Patients:  patients,
		Audit:     audit,
		Predictor: predictor,
		Bus:       bus,
		Metrics:   m,
	})

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var runErr error
	select {
	case err := <-errChan:
		runErr = fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown error: %w", err)
	}

	// Closing the bus ends the workers' input; they drain the rest within
	// the shutdown timeout.
	bus.Close()
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer drainCancel()

	if err := eventLogger.Stop(drainCtx); err != nil {
		logger.Warnf("Audit logger stopped early: %v", err)
	}
	if kafkaSink != nil {
		if err := kafkaSink.Stop(drainCtx); err != nil {
			logger.Warnf("Kafka sink stopped early: %v", err)
		}
	}

	if runErr == nil {
		logger.Info("Server stopped gracefully")
	}
	return runErr
}
