package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	// Import built-in indexers to register them
	_ "github.com/goran-ethernal/SwapIndexor/indexers/physicalswap"
	"github.com/goran-ethernal/SwapIndexor/internal/common"
	"github.com/goran-ethernal/SwapIndexor/internal/config"
	"github.com/goran-ethernal/SwapIndexor/internal/db"
	"github.com/goran-ethernal/SwapIndexor/internal/downloader"
	downloadermig "github.com/goran-ethernal/SwapIndexor/internal/downloader/migrations"
	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/internal/metrics"
	"github.com/goran-ethernal/SwapIndexor/internal/rpc"
	pkgconfig "github.com/goran-ethernal/SwapIndexor/pkg/config"
	"github.com/goran-ethernal/SwapIndexor/pkg/indexer"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║            SwapIndexor v%s             ║
║   PhysicalSwap escrow event projector     ║
╚═══════════════════════════════════════════╝
`
	sentryFlushTimeout = 2 * time.Second
)

var (
	configPath string
	envPath    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "SwapIndexor - PhysicalSwap escrow event indexer",
	Long: `SwapIndexor follows PhysicalSwap escrow contracts and projects their events
into a SQLite store of charges, payments, products, users and NFTs.
Every event refreshes the affected records from the contract state at the
event block.`,
	Version: version,
	RunE:    runIndexer,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available indexer types",
	Long:  `List all registered indexer types (contract revisions) that can be used in the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available indexer types:")
		types := indexer.ListRegistered()
		if len(types) == 0 {
			fmt.Println("  (no indexers registered)")
			return
		}
		for _, t := range types {
			fmt.Printf("  - %s\n", t)
		}
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := jsonschema.Reflect(&pkgconfig.Config{})

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}

		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.Flags().StringVar(&envPath, "env", "", "optional .env file loaded before the configuration")
	rootCmd.AddCommand(listCmd, schemaCmd)
}

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	// Stop on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, configPath, envPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rootLog, err := logger.NewLogger(cfg.Logging.GetDefaultLevel(), cfg.Logging.IsDevelopment())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetDefaultLogger(rootLog)
	defer rootLog.Close() //nolint:errcheck

	log := logger.NewComponentLoggerFromConfig(common.ComponentDownloader, cfg.Logging)

	if cfg.ErrorReporting.Enabled() {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.ErrorReporting.SentryDSN,
			Environment: cfg.ErrorReporting.Environment,
			Release:     "swapindexor@" + version,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(sentryFlushTimeout)
		log.Info("Error reporting enabled")
	}

	if err := run(ctx, cfg, log); err != nil {
		if !errors.Is(err, context.Canceled) && cfg.ErrorReporting.Enabled() {
			sentry.CaptureException(err)
		}
		return err
	}

	return nil
}

func run(ctx context.Context, cfg *pkgconfig.Config, log *logger.Logger) error {
	// Initialize RPC client
	log.Info("Connecting to Ethereum node...")
	ethClient, err := rpc.NewClient(ctx, cfg.Downloader.RPCURL, cfg.Downloader.Retry)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer ethClient.Close()
	log.Infof("Connected to Ethereum node: %s", cfg.Downloader.RPCURL)

	// Initialize metrics server if enabled
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, log)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Stop(stopCtx); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
		log.Infof("Metrics server started on %s%s", metricsServer.Addr(), cfg.Metrics.Path)
	}

	// Run downloader migrations
	log.Info("Running database migrations...")
	if err := downloadermig.RunMigrations(cfg.Downloader.DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.Downloader.DB)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	syncManager := downloader.NewSyncManager(
		database,
		logger.NewComponentLoggerFromConfig(common.ComponentSyncManager, cfg.Logging),
	)

	dl, err := downloader.New(
		cfg.Downloader,
		ethClient,
		syncManager,
		logger.NewComponentLoggerFromConfig(common.ComponentDownloader, cfg.Logging),
	)
	if err != nil {
		syncManager.Close() //nolint:errcheck
		return fmt.Errorf("failed to create downloader: %w", err)
	}
	defer func() {
		if err := dl.Close(); err != nil {
			log.Warnf("Failed to close downloader: %v", err)
		}
	}()

	// Register indexers from configuration
	log.Infof("Registering %d indexer(s)...", len(cfg.Indexers))
	projectorLog := logger.NewComponentLoggerFromConfig(common.ComponentProjector, cfg.Logging)

	for _, idxCfg := range cfg.Indexers {
		log.Infof("Creating indexer: %s (type: %s)", idxCfg.Name, idxCfg.Type)

		idx, err := indexer.Create(idxCfg, ethClient, projectorLog.WithFields("indexer", idxCfg.Name))
		if err != nil {
			return fmt.Errorf("failed to create indexer %s: %w", idxCfg.Name, err)
		}

		dl.RegisterIndexer(idx)
		log.Infof("✓ Registered indexer: %s", idxCfg.Name)
	}

	// Start indexing
	log.Info("Starting SwapIndexor...")

	if err := dl.Download(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("Shutting down gracefully...")
			return nil
		}
		return fmt.Errorf("downloader failed: %w", err)
	}

	log.Info("SwapIndexor stopped successfully")
	return nil
}
