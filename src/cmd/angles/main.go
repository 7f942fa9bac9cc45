// Package main provides the angles CLI: it imports JUnit reports into an
// Angles reporting service, lists reference data and serves the reporting
// session over MCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"angles-reporter/src/config"
	"angles-reporter/src/logger"
	"angles-reporter/src/metrics"
	"angles-reporter/src/pipeline"
	"angles-reporter/src/reporter"
	"angles-reporter/src/transport"
)

var (
	// Application configuration
	appConfig *config.Config
	// Transport stack shared by every command
	appPipeline *pipeline.Pipeline
	log         logger.Logger = logger.NewSilentLogger()
	// Serves /metrics when a metrics address is configured
	metricsServer *http.Server

	configPath  string
	dryRun      bool
	metricsAddr string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "angles",
	Short: "angles - report test results to an Angles dashboard",
	Long: `angles sends builds, test executions, actions, steps and screenshots
to an Angles test-reporting service.

Configuration comes from --config (YAML), a .env file and the environment:
  ANGLES_BASE_URL      REST root (default http://127.0.0.1:3000/rest/api/v1.0/)
  ANGLES_API_TOKEN     bearer token
  ANGLES_TIMEOUT       request timeout (default 10s)
  ANGLES_LOG_LEVEL     debug, info, warn or error
  ANGLES_LOG_FORMAT    console, json or plain
  REDPANDA_BROKERS     comma separated brokers; mirrors every report when set
  ANGLES_METRICS_ADDR  serve Prometheus metrics on this address`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appConfig, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		log, err = logger.New(appConfig.LogLevel, appConfig.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		if metricsAddr != "" {
			appConfig.MetricsAddr = metricsAddr
		}

		opts := pipeline.Options{DryRun: dryRun}
		if appConfig.MetricsAddr != "" {
			opts.Metrics = metrics.NewCollector()
			if metricsServer, _, err = serveMetrics(appConfig.MetricsAddr, opts.Metrics); err != nil {
				return err
			}
		}

		appPipeline, err = pipeline.Build(appConfig, opts, log)
		if err != nil {
			return err
		}
		log.Debug("Using %s pipeline against %s", appPipeline.Mode, appConfig.BaseURL)

		if _, err := reporter.Init(appPipeline.Transport, reporter.WithLogger(log)); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Keep reports in memory and print them instead of sending")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")

	rootCmd.AddCommand(junitCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(environmentsCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(tailCmd)
}

// serveMetrics listens on addr and serves the collector in the background.
// It returns the bound address, which differs from addr when addr uses port 0.
func serveMetrics(addr string, c *metrics.Collector) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("[Metrics] Server on %s stopped: %v", ln.Addr(), err)
		}
	}()
	log.Info("[Metrics] Serving on %s/metrics", ln.Addr())
	return srv, ln.Addr().String(), nil
}

// teardown releases what PersistentPreRunE set up. It runs after every
// command, including failed ones, for which cobra skips post-run hooks.
func teardown() {
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		metricsServer.Shutdown(ctx)
		cancel()
		metricsServer = nil
	}
	if appPipeline != nil {
		if err := appPipeline.Close(); err != nil {
			log.Warn("Failed to close pipeline: %v", err)
		}
		appPipeline = nil
	}
	logger.Sync(log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", transport.WrapError(err))
		stop()
		os.Exit(1)
	}
}
