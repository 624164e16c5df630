package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goodtune/fieldtrack/internal/api"
	"github.com/goodtune/fieldtrack/internal/audit"
	"github.com/goodtune/fieldtrack/internal/config"
	"github.com/goodtune/fieldtrack/internal/logbook"
	"github.com/goodtune/fieldtrack/internal/metrics"
	"github.com/goodtune/fieldtrack/internal/rules"
	"github.com/goodtune/fieldtrack/internal/systemd"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start Fieldtrack server",
	Long:  `Start the Fieldtrack server with the session API and metrics endpoints.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting Fieldtrack")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get systemd listeners")
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	// Initialize ruleset loader
	loader, err := rules.NewLoader(cfg.Rules.File, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize ruleset loader: %w", err)
	}

	defaultMode, err := rules.ParseMode(cfg.Rules.DefaultMode)
	if err != nil {
		return err
	}

	// Initialize auditor and logbook
	auditor := audit.New(cfg.Audit.MaxSessionHours)
	lb := logbook.New(store, auditor, loader, logger)

	logger.Info().
		Float64("max_session_hours", cfg.Audit.MaxSessionHours).
		Str("rules_file", cfg.Rules.File).
		Str("default_version", cfg.Rules.DefaultVersion).
		Msg("Logbook initialized")

	// Initialize API server
	apiConfig := api.Config{
		ListenAddr:  fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort),
		DefaultVer:  cfg.Rules.DefaultVersion,
		DefaultMode: defaultMode,
	}

	apiServer := api.NewServer(apiConfig, lb, loader, logger)
	if sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	logger.Info().
		Str("addr", apiConfig.ListenAddr).
		Msg("API server started")

	// Initialize metrics server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)
	if sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	logger.Info().
		Str("addr", metricsAddr).
		Msg("Metrics server started")

	// Notify systemd that startup is complete
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd readiness")
	}

	logger.Info().Msg("Fieldtrack startup complete")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd stopping")
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("Fieldtrack stopped")

	return nil
}
