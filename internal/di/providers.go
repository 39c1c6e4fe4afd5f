package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/handler/api"
	internalrepo "SignalDesk/internal/repository"
	icache "SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/services/regime"
	"SignalDesk/internal/services/strategy"
	"SignalDesk/internal/usecase"
	pkgcache "SignalDesk/pkg/cache"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	"SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvidePrometheusRegistry creates a registry with Go runtime and process collectors.
func ProvidePrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideCache creates the state store backend selected by store.backend.
func ProvideCache(cfg *config.Config, l *logger.Logger) (pkgcache.Service, func(), error) {
	sc := cfg.Store
	var (
		svc pkgcache.Service
		err error
	)
	switch sc.Backend {
	case "redis", "layered":
		var rc *pkgcache.RedisCache
		rc, err = pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(sc.Redis.Host),
			pkgcache.WithRedisPort(sc.Redis.Port),
			pkgcache.WithRedisPassword(sc.Redis.Password),
			pkgcache.WithRedisDB(sc.Redis.DB),
			pkgcache.WithRedisPool(sc.Redis.PoolSize, 2, 30*time.Second),
			pkgcache.WithRedisPrefix(sc.Prefix),
			pkgcache.WithRedisBreaker(pkgcache.BreakerConfig{
				ConsecutiveFailures: sc.Breaker.ConsecutiveFailures,
				OpenTimeout:         sc.Breaker.OpenTimeout,
				Interval:            sc.Breaker.Interval,
			}),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis state store: %w", err)
		}
		svc = rc
		if sc.Backend == "layered" {
			svc = pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(sc.MemoryMaxSize))
		}
	default:
		svc = pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(sc.MemoryMaxSize))
	}

	l.Info("state store ready", logger.String("backend", sc.Backend))
	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("state store close error", logger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideStateStore adapts the cache backend to the detector's persistence contract.
func ProvideStateStore(svc pkgcache.Service) repository.StateStore {
	return icache.NewStateStore(svc)
}

// ProvideDetector creates the regime detector and loads its persisted state.
func ProvideDetector(store repository.StateStore, m repository.Metrics, l *logger.Logger) *regime.Detector {
	return regime.NewDetector(store,
		regime.WithLogger(l.With(logger.String("component", "regime"))),
		regime.WithMetrics(m),
	)
}

// ProvideStrategyRegistry builds the strategy set; dynamic stop-loss reads the detector.
func ProvideStrategyRegistry(det *regime.Detector) *strategy.Registry {
	return strategy.NewRegistry(det)
}

// ProvideClickHouseClient creates a ClickHouse client and, when enabled, initializes the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	cc := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(cc.Host),
		pkgch.WithPort(cc.Port),
		pkgch.WithDatabase(cc.Database),
		pkgch.WithCredentials(cc.User, cc.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cc.UseHTTP),
		pkgch.WithTimeouts(cc.DialTimeout, cc.ReadTimeout, 0),
		pkgch.WithMaxExecutionTime(cc.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cc.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stmts := pkgch.SchemaStatements(cc.Database, pkgch.Tables{
			Bars:      cc.BarsTable,
			Snapshots: cc.SnapshotsTable,
			Signals:   cc.SignalsTable,
		})
		if err := client.InitSchema(ctx, stmts); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}

	return client, func() { _ = client.Close() }, nil
}

// ProvideBarSource creates the ClickHouse bar and snapshot reader.
func ProvideBarSource(ch *pkgch.Client, cfg *config.Config, l *logger.Logger) repository.BarSource {
	store := internalrepo.NewCHBarStore(ch, cfg.ClickHouse.BarsTable, cfg.ClickHouse.SnapshotsTable)
	store.SetLogger(l.With(logger.String("component", "clickhouse")))
	return store
}

// ProvideSignalJournal creates the ClickHouse signal journal.
func ProvideSignalJournal(ch *pkgch.Client, cfg *config.Config) repository.SignalJournal {
	return internalrepo.NewCHSignalJournal(ch, cfg.ClickHouse.SignalsTable)
}

// ProvideEngineSettings maps config onto the engine knobs.
func ProvideEngineSettings(cfg *config.Config) usecase.EngineSettings {
	instruments := make([]string, 0, len(cfg.Engine.Instruments))
	for _, inst := range cfg.Engine.Instruments {
		instruments = append(instruments, strings.ToUpper(strings.TrimSpace(inst)))
	}
	return usecase.EngineSettings{
		Strategy:      cfg.Engine.Strategy,
		Instruments:   instruments,
		Timeframe:     repository.NormalizeTimeframe(cfg.Engine.Timeframe),
		BarLimit:      cfg.Engine.BarLimit,
		SnapshotLimit: cfg.Engine.SnapshotLimit,
		TickTimeout:   cfg.Engine.TickTimeout,
		Risk: models.RiskConfig{
			Level:       models.RiskLevel(cfg.Risk.Level),
			MaxNotional: cfg.Risk.MaxNotional,
		},
	}
}

// ProvideSignalEngine creates the signal evaluation use case.
func ProvideSignalEngine(
	settings usecase.EngineSettings,
	bars repository.BarSource,
	journal repository.SignalJournal,
	det *regime.Detector,
	registry *strategy.Registry,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.SignalEngine {
	return usecase.NewSignalEngine(bars, det, registry, settings,
		usecase.WithJournal(journal),
		usecase.WithEngineMetrics(m),
		usecase.WithEngineLogger(l.With(logger.String("component", "engine"))),
	)
}

// ProvideStatusHandler creates the ops API handler.
func ProvideStatusHandler(
	det *regime.Detector,
	engine *usecase.SignalEngine,
	registry *strategy.Registry,
	ch *pkgch.Client,
	l *logger.Logger,
) *api.StatusHandler {
	h := api.NewStatusHandler(l.With(logger.String("component", "api")), det, engine.StrategyID(), registry.List())
	h.AddCheck("clickhouse", ch)
	h.SetLimiter(ratelimit.New(5, 0.2))
	return h
}

// ProvideHTTPServer creates the ops server, nil when metrics.enabled is false.
func ProvideHTTPServer(cfg *config.Config, h *api.StatusHandler, reg *prometheus.Registry, l *logger.Logger) *xhttp.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return xhttp.NewServer(h,
		xhttp.WithAddr(cfg.Metrics.Addr),
		xhttp.WithMetricsPath(cfg.Metrics.Path),
		xhttp.WithTimeouts(10*time.Second, 10*time.Second, cfg.Metrics.ShutdownTimeout),
		xhttp.WithRegistry(reg),
		xhttp.WithLogger(l.With(logger.String("component", "http"))),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, engine *usecase.SignalEngine, srv *xhttp.Server, l *logger.Logger) *server.App {
	return server.New(engine, server.Intervals{
		Tick:   cfg.Engine.TickInterval,
		Report: cfg.Engine.ReportInterval,
	}, srv, l)
}
