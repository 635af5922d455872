package di

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/calibration"
	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/internal/handler/api"
	internalrepo "github.com/Abdr007/prism-ai-sub001/internal/repository"
	"github.com/Abdr007/prism-ai-sub001/internal/risk"
	"github.com/Abdr007/prism-ai-sub001/internal/service/aggregate"
	"github.com/Abdr007/prism-ai-sub001/internal/service/exchange"
	"github.com/Abdr007/prism-ai-sub001/internal/service/riskcache"
	"github.com/Abdr007/prism-ai-sub001/internal/usecase"
	"github.com/Abdr007/prism-ai-sub001/internal/validation"
	"github.com/Abdr007/prism-ai-sub001/pkg/cache"
	pkgch "github.com/Abdr007/prism-ai-sub001/pkg/clickhouse"
	"github.com/Abdr007/prism-ai-sub001/pkg/config"
	xhttp "github.com/Abdr007/prism-ai-sub001/pkg/http"
	pkgkafka "github.com/Abdr007/prism-ai-sub001/pkg/kafka"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
	"github.com/Abdr007/prism-ai-sub001/pkg/metrics"
	"github.com/Abdr007/prism-ai-sub001/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	level := "info"
	if cfg.Environment == "development" {
		format = "console"
		level = "debug"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideEventStore creates the ClickHouse event store and ensures schema.
func ProvideEventStore(client *pkgch.Client) (domrepo.EventStore, error) {
	store := internalrepo.NewClickHouseEventStore(client.DB())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("event store schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRiskPublisher creates the Kafka risk publisher.
func ProvideRiskPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.RiskPublisher {
	return internalrepo.NewKafkaRiskPublisher(producer, cfg.Kafka.RiskTopic, cfg.Kafka.AnomalyTopic)
}

// ProvideRiskCache creates the latest-risk store, on Redis when enabled and
// in-process memory otherwise.
func ProvideRiskCache(cfg *config.Config) (*riskcache.Store, error) {
	ttl := cfg.Redis.RiskTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if !cfg.Redis.Enabled {
		return riskcache.New(cache.NewMemoryCache(), ttl), nil
	}
	redis, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return riskcache.New(redis, ttl), nil
}

// ProvideAnomalyLog creates the anomaly ring shared by the gate and the API.
func ProvideAnomalyLog(cfg *config.Config, publisher domrepo.RiskPublisher, lgr *logger.Logger) *usecase.AnomalyLog {
	return usecase.NewAnomalyLog(cfg.Validation.AnomalyBuffer, publisher, lgr)
}

// ProvideGate creates the validation gate wired to the anomaly log.
func ProvideGate(cfg *config.Config, lgr *logger.Logger, m domrepo.Metrics, anomalies *usecase.AnomalyLog) *validation.Gate {
	vcfg := validation.DefaultConfig()
	if cfg.Validation.MaxMarkIndexDeviation > 0 {
		vcfg.MaxMarkIndexDeviation = cfg.Validation.MaxMarkIndexDeviation
	}
	if cfg.Validation.MaxFundingRate > 0 {
		vcfg.MaxFundingRate = cfg.Validation.MaxFundingRate
	}
	if cfg.Validation.StaleAfter > 0 {
		vcfg.StaleAfter = cfg.Validation.StaleAfter
	}
	if cfg.Validation.ClockSkewTolerance > 0 {
		vcfg.ClockSkewTolerance = cfg.Validation.ClockSkewTolerance
	}
	if cfg.Validation.MaxSequentialJump > 0 {
		vcfg.MaxSequentialJump = cfg.Validation.MaxSequentialJump
	}
	return validation.NewGate(vcfg, lgr, m, validation.WithAnomalySink(anomalies.Record))
}

// ProvideCalibrationStore creates the hot-swappable calibration store.
func ProvideCalibrationStore() *calibration.Store {
	return calibration.NewStore()
}

// ProvideFitter creates the calibration fitter.
func ProvideFitter(cfg *config.Config, store *calibration.Store, events domrepo.EventStore, lgr *logger.Logger, m domrepo.Metrics) *calibration.Fitter {
	fcfg := calibration.DefaultFitterConfig()
	if cfg.Calibration.Lookback > 0 {
		fcfg.Lookback = cfg.Calibration.Lookback
	}
	if cfg.Calibration.OutcomeHorizon > 0 {
		fcfg.OutcomeHorizon = cfg.Calibration.OutcomeHorizon
	}
	if cfg.Calibration.MinSamples > 0 {
		fcfg.MinSamples = cfg.Calibration.MinSamples
	}
	if cfg.Calibration.BinCount > 0 {
		fcfg.BinCount = cfg.Calibration.BinCount
	}
	if cfg.Calibration.Confidence > 0 {
		fcfg.Confidence = cfg.Calibration.Confidence
	}
	return calibration.NewFitter(fcfg, store, events, lgr, m)
}

// ProvideEngine creates the scoring engine with the standard factor set.
func ProvideEngine(cfg *config.Config, calib *calibration.Store, lgr *logger.Logger) *risk.Engine {
	rcfg := risk.DefaultConfig()
	if len(cfg.Risk.Weights) > 0 {
		rcfg.Weights = cfg.Risk.Weights
	}
	if cfg.Risk.PredictionThreshold > 0 {
		rcfg.PredictionThreshold = cfg.Risk.PredictionThreshold
	}
	if cfg.Risk.ParticipationRate > 0 {
		rcfg.ParticipationRate = cfg.Risk.ParticipationRate
	}
	if cfg.Risk.BaseLiquidationDistance > 0 {
		rcfg.BaseLiquidationDistance = cfg.Risk.BaseLiquidationDistance
	}
	return risk.NewEngine(rcfg, calib, lgr)
}

// ProvideAdapters creates one adapter per enabled exchange.
func ProvideAdapters(cfg *config.Config, lgr *logger.Logger) []domrepo.ExchangeAdapter {
	timeout := cfg.Exchanges.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var adapters []domrepo.ExchangeAdapter
	if cfg.Exchanges.Binance.Enabled {
		adapters = append(adapters, exchange.NewBinance(cfg.Exchanges.Binance.BaseURL, timeout, lgr))
	}
	if cfg.Exchanges.Bybit.Enabled {
		adapters = append(adapters, exchange.NewBybit(cfg.Exchanges.Bybit.BaseURL, timeout, lgr))
	}
	if cfg.Exchanges.OKX.Enabled {
		adapters = append(adapters, exchange.NewOKX(cfg.Exchanges.OKX.BaseURL, timeout, lgr))
	}
	return adapters
}

// ProvideDetector creates the cascade detector.
func ProvideDetector(cfg *config.Config, events domrepo.EventStore, lgr *logger.Logger) *usecase.CascadeDetector {
	dcfg := usecase.DefaultDetectorConfig()
	if cfg.Detector.Window > 0 {
		dcfg.Window = cfg.Detector.Window
	}
	if cfg.Detector.MinVolumeUSD > 0 {
		dcfg.MinVolumeUSD = cfg.Detector.MinVolumeUSD
	}
	if cfg.Detector.MinPriceMovePct > 0 {
		dcfg.MinPriceMovePct = cfg.Detector.MinPriceMovePct
	}
	if cfg.Detector.Cooldown > 0 {
		dcfg.Cooldown = cfg.Detector.Cooldown
	}
	return usecase.NewCascadeDetector(dcfg, events, lgr)
}

// ProvideLiquidationCollector wires the force-order stream into the detector.
// Returns nil when the Binance websocket is not configured.
func ProvideLiquidationCollector(cfg *config.Config, gate *validation.Gate, detector *usecase.CascadeDetector, m domrepo.Metrics, lgr *logger.Logger) *usecase.LiquidationCollector {
	if !cfg.Exchanges.Binance.Enabled || cfg.Exchanges.Binance.WebSocketURL == "" {
		return nil
	}
	stream := exchange.NewLiquidationStream(
		cfg.Exchanges.Binance.WebSocketURL,
		cfg.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		lgr,
	)
	return usecase.NewLiquidationCollector(stream, gate, detector, m, lgr)
}

// ProvideRiskCycle wires the scoring loop.
func ProvideRiskCycle(
	cfg *config.Config,
	adapters []domrepo.ExchangeAdapter,
	gate *validation.Gate,
	engine *risk.Engine,
	events domrepo.EventStore,
	publisher domrepo.RiskPublisher,
	rc *riskcache.Store,
	m domrepo.Metrics,
	lgr *logger.Logger,
) *usecase.RiskCycle {
	var opts []usecase.CycleOption
	if cfg.Cycle.Workers > 0 {
		opts = append(opts, usecase.WithWorkers(cfg.Cycle.Workers))
	}
	return usecase.NewRiskCycle(adapters, gate, aggregate.New(), engine, events,
		publisher, rc, m, lgr, cfg.Symbols, cfg.Cycle.Interval, opts...)
}

// ProvideCalibrationJob creates the periodic refit job.
func ProvideCalibrationJob(cfg *config.Config, fitter *calibration.Fitter, lgr *logger.Logger) *usecase.CalibrationJob {
	interval := cfg.Calibration.RefitInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return usecase.NewCalibrationJob(fitter, interval, lgr)
}

// ProvideHandlers composes the HTTP surface.
func ProvideHandlers(
	cfg *config.Config,
	lgr *logger.Logger,
	rc *riskcache.Store,
	calib *calibration.Store,
	fitter *calibration.Fitter,
	anomalies *usecase.AnomalyLog,
	events domrepo.EventStore,
	collector *usecase.LiquidationCollector,
) xhttp.Handler {
	streamConnected := func() bool { return false }
	if collector != nil {
		streamConnected = collector.IsConnected
	}
	riskHandler := api.NewRiskHandler(lgr, rc, calib, fitter, anomalies, events, cfg.Symbols)
	healthHandler := api.NewHealthHandler(events, streamConnected)
	return api.NewHandlers(riskHandler, healthHandler)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	cycle *usecase.RiskCycle,
	calibJob *usecase.CalibrationJob,
	collector *usecase.LiquidationCollector,
	handler xhttp.Handler,
	publisher domrepo.RiskPublisher,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	if cfg.Kafka.LogsTopic != "" {
		lgr.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	return server.New(cfg, lgr, cycle, calibJob, collector, handler, publisher, chClient)
}
