package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	explorer "github.com/perpx/explorer"
	"github.com/perpx/explorer/assets"
	"github.com/perpx/explorer/blockdownloader"
	blockdownloadermigrations "github.com/perpx/explorer/blockdownloader/migrations"
	"github.com/perpx/explorer/common"
	"github.com/perpx/explorer/config"
	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/kvstore"
	kvstoremigrations "github.com/perpx/explorer/kvstore/migrations"
	"github.com/perpx/explorer/log"
	"github.com/perpx/explorer/metrics"
	"github.com/perpx/explorer/preprocessing"
	preprocessingmigrations "github.com/perpx/explorer/preprocessing/migrations"
	"github.com/perpx/explorer/statesync"
	statesyncmigrations "github.com/perpx/explorer/statesync/migrations"
	"github.com/perpx/explorer/status"
	chainsync "github.com/perpx/explorer/sync"
	"github.com/perpx/explorer/syncstatus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func start(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	log.Init(c.Log)

	if c.Log.Environment == log.EnvironmentDevelopment {
		explorer.PrintVersion(os.Stdout)
		log.Info("Starting application")
	} else if c.Log.Environment == log.EnvironmentProduction {
		logVersion()
	}

	components := cliCtx.StringSlice(config.FlagComponents)
	if err := common.ValidateComponents(components); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()

	database, err := openDatabase(c.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("error creating metrics: %w", err)
	}
	statusService := status.NewService()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		waitSignal(gctx, cancel)
		return nil
	})

	var scheduler *chainsync.Scheduler
	if common.IsNeeded([]string{common.SYNC, common.PREPROCESSOR}, components) {
		scheduler, err = runSync(gctx, g, c, components, database, m, statusService)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}

	if common.IsNeeded([]string{common.METRICS}, components) && c.Metrics.Enabled {
		runMetricsServer(gctx, g, c.Metrics, reg, statusService)
	}

	err = g.Wait()
	if scheduler != nil {
		scheduler.Stop()
	}
	log.Info("application stopped")
	return err
}

// openDatabase applies the migrations of every store sharing the database
// file, in a single run, and opens it
func openDatabase(cfg db.Config) (*sql.DB, error) {
	migrations := slices.Concat(
		kvstoremigrations.Migrations,
		blockdownloadermigrations.Migrations,
		statesyncmigrations.Migrations,
		preprocessingmigrations.Migrations,
	)
	if err := db.RunMigrations(cfg.Path, migrations); err != nil {
		return nil, fmt.Errorf("error running migrations on %s: %w", cfg.Path, err)
	}
	database, err := db.NewSQLiteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening database %s: %w", cfg.Path, err)
	}
	return database, nil
}

func runSync(
	ctx context.Context,
	g *errgroup.Group,
	c *config.Config,
	components []string,
	database *sql.DB,
	m *metrics.Metrics,
	statusService *status.Service,
) (*chainsync.Scheduler, error) {
	l1Client, err := newL1Client(ctx, c.Common)
	if err != nil {
		return nil, err
	}

	store, err := kvstore.New(ctx, c.KVStore, database)
	if err != nil {
		return nil, fmt.Errorf("error creating key value store: %w", err)
	}

	downloader := blockdownloader.New(l1Client, database, c.BlockDownloader, c.Sync.EarliestBlock, m)
	collector, err := statesync.NewEVMCollector(l1Client, c.StateSync, c.Common.TradingMode)
	if err != nil {
		return nil, fmt.Errorf("error creating state update collector: %w", err)
	}
	stateSync := statesync.New(database, collector, m)

	var preprocessor chainsync.Preprocessor = noopPreprocessor{}
	if common.IsNeeded([]string{common.PREPROCESSOR}, components) {
		p, reporter := newPreprocessor(c.Common.TradingMode, database, stateSync.Storage(), m)
		preprocessor = p
		statusService.Register("preprocessing", reporter)
	}

	scheduler := chainsync.NewScheduler(
		c.Sync,
		syncstatus.NewRepository(store),
		downloader,
		stateSync,
		preprocessor,
		m,
	)
	statusService.Register("blockDownloader", status.ReporterFunc(func() any { return downloader.GetStatus() }))
	statusService.Register("sync", status.ReporterFunc(func() any { return scheduler.GetStatus() }))

	// the scheduler subscribes to the downloader, so it must start first
	if err := scheduler.Start(ctx); err != nil {
		return nil, fmt.Errorf("error starting sync scheduler: %w", err)
	}
	g.Go(func() error {
		downloader.Start(ctx)
		return nil
	})
	return scheduler, nil
}

func newL1Client(ctx context.Context, cfg common.Config) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.L1URL)
	if err != nil {
		return nil, fmt.Errorf("error dialing %s: %w", cfg.L1URL, err)
	}
	if cfg.ChainID == 0 {
		return client, nil
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("error getting chain id from %s: %w", cfg.L1URL, err)
	}
	if chainID.Uint64() != cfg.ChainID {
		client.Close()
		return nil, fmt.Errorf("chain id mismatch: configured %d, node reports %s", cfg.ChainID, chainID)
	}
	return client, nil
}

func newPreprocessor(
	tradingMode string,
	database *sql.DB,
	stateUpdates preprocessing.StateUpdateReader,
	m *metrics.Metrics,
) (chainsync.Preprocessor, status.Reporter) {
	if tradingMode == assets.TradingModeSpot {
		p := preprocessing.New[assets.Hash](database, stateUpdates, m)
		return p, status.ReporterFunc(func() any { return p.GetStatus() })
	}
	p := preprocessing.New[assets.ID](database, stateUpdates, m)
	return p, status.ReporterFunc(func() any { return p.GetStatus() })
}

func runMetricsServer(
	ctx context.Context,
	g *errgroup.Group,
	cfg metrics.Config,
	gatherer prometheus.Gatherer,
	statusService *status.Service,
) {
	server := metrics.NewServer(cfg.Addr(), gatherer, statusService)
	errCh := server.Start()
	log.Infof("metrics server listening on %s", cfg.Addr())
	g.Go(func() error {
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	})
}

type noopPreprocessor struct{}

func (noopPreprocessor) Sync(context.Context) error { return nil }

func logVersion() {
	log.GetDefaultLogger().Infow("Starting application",
		// version is already logged by default
		"gitRevision", explorer.GitRev,
		"gitBranch", explorer.GitBranch,
		"goVersion", explorer.GetVersion().GoVersion,
		"built", explorer.BuildDate,
		"os/arch", fmt.Sprintf("%s/%s", explorer.GetVersion().OS, explorer.GetVersion().Arch),
	)
}

func waitSignal(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		log.Infof("received %s, terminating application gracefully...", sig)
		cancel()
	case <-ctx.Done():
	}
}
