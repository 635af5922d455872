//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/Abdr007/prism-ai-sub001/pkg/config"
	"github.com/Abdr007/prism-ai-sub001/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideEventStore,
		ProvideRiskPublisher,
		ProvideRiskCache,

		// Validation and calibration
		ProvideAnomalyLog,
		ProvideGate,
		ProvideCalibrationStore,
		ProvideFitter,

		// Scoring
		ProvideEngine,
		ProvideAdapters,
		ProvideDetector,
		ProvideLiquidationCollector,

		// Orchestration
		ProvideRiskCycle,
		ProvideCalibrationJob,

		// HTTP
		ProvideHandlers,

		ProvideApp,
	)
	return nil, nil
}
