package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "github.com/Abdr007/prism-ai-sub001/internal/domain/repository"
	"github.com/Abdr007/prism-ai-sub001/internal/usecase"
	pkgch "github.com/Abdr007/prism-ai-sub001/pkg/clickhouse"
	"github.com/Abdr007/prism-ai-sub001/pkg/config"
	xhttp "github.com/Abdr007/prism-ai-sub001/pkg/http"
	applogger "github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// App owns the service lifecycle: the scoring cycle, the calibration job,
// the liquidation collector, and the HTTP surface. Shutdown is ordered so
// in-flight work drains before infrastructure closes.
type App struct {
	cfg       *config.Config
	lgr       *applogger.Logger
	cycle     *usecase.RiskCycle
	calibJob  *usecase.CalibrationJob
	collector *usecase.LiquidationCollector
	handler   xhttp.Handler
	publisher domrepo.RiskPublisher
	chClient  *pkgch.Client

	httpServer *xhttp.Server
}

// New creates an App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	cycle *usecase.RiskCycle,
	calibJob *usecase.CalibrationJob,
	collector *usecase.LiquidationCollector,
	handler xhttp.Handler,
	publisher domrepo.RiskPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		lgr:       lgr,
		cycle:     cycle,
		calibJob:  calibJob,
		collector: collector,
		handler:   handler,
		publisher: publisher,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.lgr),
	)

	a.cycle.Start(ctx)
	a.lgr.Info("risk cycle started",
		applogger.Strings("symbols", a.cfg.Symbols),
		applogger.Duration("interval", a.cfg.Cycle.Interval))

	a.calibJob.Start(ctx)
	a.lgr.Info("calibration job started",
		applogger.Duration("interval", a.cfg.Calibration.RefitInterval))

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.lgr.Error("liquidation collector error", applogger.Error(err))
			}
		}()
	}

	if err := a.httpServer.Start(); err != nil {
		a.lgr.Error("http server start error", applogger.Error(err))
		return err
	}
	a.lgr.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.lgr.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops producers of new work first, then the HTTP surface, then
// infrastructure.
func (a *App) shutdown() error {
	a.cycle.Stop()
	a.calibJob.Stop()

	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.lgr.Warn("liquidation collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.lgr.Error("http shutdown error", applogger.Error(err))
	}

	a.lgr.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.lgr.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.lgr.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.lgr.Info("shutdown complete")
	return nil
}
