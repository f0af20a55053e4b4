package app

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	async_indexer "github.com/code-payments/charity-server/pkg/code/async/indexer"
	"github.com/code-payments/charity-server/pkg/code/blink"
	"github.com/code-payments/charity-server/pkg/code/charity"
	code_data "github.com/code-payments/charity-server/pkg/code/data"
	"github.com/code-payments/charity-server/pkg/code/event"
	etcd_lock "github.com/code-payments/charity-server/pkg/lock/etcd"
	metrics_util "github.com/code-payments/charity-server/pkg/metrics"
)

const reconcileLockTimeout = time.Second

// App is the charity ledger with its collaborators wired together. The
// lifecycle of the App is tied to the process.
type App struct {
	log    *logrus.Entry
	config *BaseConfig

	metricsProvider *newrelic.Application

	Data      code_data.Provider
	Bus       *event.Bus
	Processor *charity.Processor
	Indexer   async_indexer.Service
	Builder   *blink.Builder

	lockManager *etcd_lock.LockManager
	closers     []func()
}

// New builds the App. Nothing runs until Run is called, but the processor and
// builder are usable immediately.
func New(ctx context.Context, config *BaseConfig, metricsProvider *newrelic.Application) (*App, error) {
	a := &App{
		log:             logrus.StandardLogger().WithField("type", "app"),
		config:          config,
		metricsProvider: metricsProvider,
	}

	data, err := newDataProvider(ctx, config)
	if err != nil {
		return nil, err
	}
	a.Data = data
	a.closers = append(a.closers, func() {
		if err := data.Close(); err != nil {
			a.log.WithError(err).Warn("failure closing data provider")
		}
	})

	locker, lockManager, closeLocker, err := newAccountLocker(config)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.lockManager = lockManager
	a.closers = append(a.closers, closeLocker)

	rent := charity.NewDefaultRentCalculator()
	if config.UseRpcRent {
		rent, err = charity.NewRPCRentCalculator(ctx, data)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Bus = event.NewBus()
	a.Processor = charity.NewProcessor(data, a.Bus, locker, rent, time.Now, charity.WithEnvConfigs())
	a.Indexer = async_indexer.New(data, a.Bus, async_indexer.WithEnvConfigs())
	a.Builder = blink.NewBuilder(blink.NewLedgerAccountReader(data), blink.WithEnvConfigs())

	return a, nil
}

// Run starts the indexer and scheduled reconciliation, and blocks until ctx is
// done, a termination signal is received or the indexer stops.
func (a *App) Run(ctx context.Context) error {
	if a.metricsProvider != nil {
		ctx = metrics_util.NewContext(ctx, a.metricsProvider)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	indexerCh := make(chan error, 1)
	go func() {
		indexerCh <- a.Indexer.Start(ctx)
	}()

	if len(a.config.ReconcileSchedule) > 0 {
		cronJob := cron.New(cron.WithLocation(time.Local))
		_, err := cronJob.AddFunc(a.config.ReconcileSchedule, func() {
			a.scheduledReconcile(ctx)
		})
		if err != nil {
			return errors.Wrap(err, "failed to initialize reconcile cron")
		}
		cronJob.Start()
		defer cronJob.Stop()
	}

	var indexerErr error
	indexerStopped := false

	select {
	case <-sigCh:
		a.log.Info("interrupt received, shutting down")
	case <-ctx.Done():
		a.log.Info("context done, shutting down")
	case indexerErr = <-indexerCh:
		indexerStopped = true
		a.log.WithError(indexerErr).Warn("indexer stopped")
	}

	cancel()

	if !indexerStopped {
		select {
		case <-indexerCh:
		case <-time.After(a.config.ShutdownGracePeriod):
			return errors.Errorf("failed to stop the application within %v", a.config.ShutdownGracePeriod)
		}
	}

	if indexerErr != nil && !errors.Is(indexerErr, context.Canceled) && !errors.Is(indexerErr, context.DeadlineExceeded) {
		return indexerErr
	}
	return nil
}

// scheduledReconcile runs a full reconciliation. With etcd configured, only
// one process reconciles at a time and the others skip the run.
func (a *App) scheduledReconcile(ctx context.Context) {
	log := a.log.WithField("method", "scheduledReconcile")

	if a.lockManager != nil {
		distributedLock, err := a.lockManager.Create(ctx, reconcileLockKey)
		if err != nil {
			log.WithError(err).Warn("failure creating reconcile lock")
			return
		}

		// The lock lives as long as lockCtx, so the timeout only bounds
		// acquisition
		lockCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		timeout := time.AfterFunc(reconcileLockTimeout, cancel)

		lost, err := distributedLock.Acquire(lockCtx)
		if !timeout.Stop() || err != nil {
			log.WithError(err).Debug("reconcile lock held elsewhere, skipping")
			_ = distributedLock.Unlock(context.Background())
			return
		}
		defer func() {
			if err := distributedLock.Unlock(context.Background()); err != nil {
				log.WithError(err).Warn("failure releasing reconcile lock")
			}
		}()

		// Stop early if ownership is lost mid run
		var stop context.CancelFunc
		ctx, stop = context.WithCancel(ctx)
		defer stop()
		go func() {
			select {
			case <-lost:
				stop()
			case <-ctx.Done():
			}
		}()
	}

	if err := a.Indexer.Reconcile(ctx); err != nil && err != context.Canceled {
		log.WithError(err).Warn("failure reconciling indexes")
	}
}

// Close releases every resource held by the App. Close is idempotent.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Main loads config from configPath and the environment, then builds and runs
// the App until shutdown
func Main(ctx context.Context, configPath string) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}
	}

	configureLogger(config, metricsProvider)

	a, err := New(ctx, config, metricsProvider)
	if err != nil {
		return errors.Wrap(err, "failed to initialize application")
	}
	defer a.Close()

	return a.Run(ctx)
}

func configureLogger(config *BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics_util.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
