// Command da-pipeline runs the data availability pipeline: three poll loops
// (IPFS publish, Mintlayer anchor, retention cleanup) behind a small
// urfave/cli/v2 entrypoint, mirroring cmd/geth's flag-package pattern at a
// fraction of the size.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"github.com/zk-thunder/da-pipeline/internal/config"
	"github.com/zk-thunder/da-pipeline/internal/da/dal"
	"github.com/zk-thunder/da-pipeline/internal/da/mintlayer"
	"github.com/zk-thunder/da-pipeline/internal/da/objectstore"
	"github.com/zk-thunder/da-pipeline/internal/da/worker"
	"github.com/zk-thunder/da-pipeline/internal/log"
	"github.com/zk-thunder/da-pipeline/internal/metrics"
	promexport "github.com/zk-thunder/da-pipeline/internal/metrics/prometheus"
)

var (
	configFlag    = &cli.StringFlag{Name: "config", Usage: "path to a TOML config file"}
	logLevelFlag  = &cli.StringFlag{Name: "log.level", Usage: "trace|debug|info|warn|error|crit", Value: "info"}
	logFormatFlag = &cli.StringFlag{Name: "log.format", Usage: "terminal|json", Value: "terminal"}
	logFileFlag   = &cli.StringFlag{Name: "log.file", Usage: "rotate logs to this path instead of stderr"}
)

func main() {
	app := &cli.App{
		Name:     "da-pipeline",
		Usage:    "rollup data availability pipeline",
		Commands: []*cli.Command{runCommand},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var runCommand = &cli.Command{
	Name:   "run",
	Usage:  "run the IPFS/Mintlayer/cleanup worker loops",
	Flags:  []cli.Flag{configFlag, logLevelFlag, logFormatFlag, logFileFlag},
	Action: runAction,
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("log.level"); v != "" && c.IsSet("log.level") {
		cfg.LogLevel = v
	}
	if v := c.String("log.format"); v != "" && c.IsSet("log.format") {
		cfg.LogFormat = v
	}
	if v := c.String("log.file"); v != "" {
		cfg.LogFile = v
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	log.SetRoot(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := dal.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	objects, err := objectstore.New(ctx, objectstore.Options{
		Endpoint:  cfg.ObjectStoreEndpoint,
		Region:    cfg.ObjectStoreRegion,
		APIKey:    cfg.ObjectStoreAPIKey,
		SecretKey: cfg.ObjectStoreSecretKey,
		Bucket:    cfg.ObjectStoreBucket,
	})
	if err != nil {
		return err
	}

	mlClient := mintlayer.New(cfg.MintlayerRPCURL, cfg.MintlayerRPCUsername, cfg.MintlayerRPCPassword)
	bootstrap := mlClient.BootstrapWallet(ctx, "da-pipeline-wallet.dat", cfg.MintlayerMnemonic)
	if bootstrap.WalletCreateErr != nil {
		logger.Warn("wallet_create failed during bootstrap", "err", bootstrap.WalletCreateErr)
	}
	if bootstrap.WalletOpenErr != nil {
		logger.Warn("wallet_open failed during bootstrap", "err", bootstrap.WalletOpenErr)
	}
	if bootstrap.AddressNewErr != nil {
		logger.Warn("address_new failed during bootstrap", "err", bootstrap.AddressNewErr)
	}
	logger.Info("mintlayer wallet bootstrap complete", "address", bootstrap.Address)

	reg := metrics.NewRegistry()
	m := worker.NewMetrics(reg)

	ipfsWorker := worker.NewIPFSWorker(store, objects, m, worker.IPFSWorkerConfig{
		PollInterval:       cfg.PollInterval,
		BatchSize:          int(cfg.MaxBatchSizeRows),
		RetryBaseDelay:     cfg.RetryBaseDelay,
		RetryMaxDelay:      cfg.RetryMaxDelay,
		FailureThreshold:   cfg.CircuitBreakerFailureThreshold,
		ResetTimeout:       cfg.CircuitBreakerResetTimeout,
		MintlayerBatchSize: cfg.MintlayerBatchSize,
		RateLimitPerSecond: cfg.IPFSRateLimitPerSecond,
	})
	mintlayerWorker := worker.NewMintlayerWorker(store, mlClient, m, worker.MintlayerWorkerConfig{
		PollInterval:       cfg.PollInterval,
		BatchSize:          int(cfg.MaxBatchSizeRows),
		BatchFullSize:      cfg.MintlayerBatchSize,
		RetryBaseDelay:     cfg.RetryBaseDelay,
		RetryMaxDelay:      cfg.RetryMaxDelay,
		FailureThreshold:   cfg.CircuitBreakerFailureThreshold,
		ResetTimeout:       cfg.CircuitBreakerResetTimeout,
		RateLimitPerSecond: cfg.MintlayerRateLimitPerSecond,
	})
	cleanupWorker := worker.NewCleanupWorker(store, m, worker.CleanupWorkerConfig{
		Interval:      cfg.CleanupInterval,
		DaysThreshold: cfg.CleanupDaysThreshold,
	})

	srv := newMetricsServer(cfg.MetricsAddr, reg)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	defer srv.Close()

	sup := worker.NewSupervisor(ipfsWorker, mintlayerWorker, cleanupWorker)
	return sup.Run(ctx)
}

func newMetricsServer(addr string, reg *metrics.Registry) *http.Server {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(promexport.NewCollector(reg))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

// setupLogging builds the root Logger per cfg, returning a cleanup func that
// flushes/closes any file sink.
func setupLogging(cfg config.Config) (log.Logger, func(), error) {
	minLevel, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = colorable.NewColorable(os.Stderr)
	closeFn := func() {}
	useColor := cfg.LogFormat != "json" && log.DetectColor(os.Stderr.Fd())

	if cfg.LogFile != "" {
		afw := log.NewAsyncFileWriter(cfg.LogFile, 100, 7, 5)
		out = afw
		closeFn = func() { _ = afw.Close() }
		useColor = false
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: minLevel})
	} else {
		handler = log.NewTerminalHandler(out, useColor).WithMinLevel(minLevel)
	}

	return log.NewWithHandler(handler), closeFn, nil
}
