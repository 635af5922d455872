package usecase

import (
	"context"
	"time"

	"github.com/Abdr007/prism-ai-sub001/internal/calibration"
	"github.com/Abdr007/prism-ai-sub001/pkg/logger"
)

// CalibrationJob refits the probability calibration on its own cadence,
// independent of the scoring loop. A failed refit keeps the previous
// parameters active.
type CalibrationJob struct {
	fitter   *calibration.Fitter
	interval time.Duration
	lgr      *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCalibrationJob creates the periodic refit job.
func NewCalibrationJob(fitter *calibration.Fitter, interval time.Duration, lgr *logger.Logger) *CalibrationJob {
	return &CalibrationJob{fitter: fitter, interval: interval, lgr: lgr}
}

// Start launches the refit loop. The first refit runs after one interval so
// the service comes up on seed parameters without waiting on storage.
func (j *CalibrationJob) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := j.fitter.Refit(ctx); err != nil {
					j.lgr.Error("calibration refit failed", logger.Error(err))
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight refit.
func (j *CalibrationJob) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	if j.done != nil {
		<-j.done
	}
}
