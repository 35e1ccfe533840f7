package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/lgr"
	"golang.org/x/xerrors"
)

type timedService struct {
	mu            sync.Mutex
	CanxCtx       context.Context
	SubsCtx       context.Context
	SubsCancel    context.CancelFunc
	ResultChannel chan model.RetrainResult
	Period        time.Duration
	Retrainer     Retrainer
}

// NewTimed runs the retrainer once per period while subscribed and delivers each
// result on the subscription channel. Results nobody is reading are dropped.
func NewTimed(canxCtx context.Context, period time.Duration, retrainer Retrainer) IService {
	return &timedService{
		CanxCtx:   canxCtx,
		Period:    period,
		Retrainer: retrainer,
	}
}

func (svc *timedService) Subscribe() (<-chan model.RetrainResult, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.SubsCtx != nil {
		lgr.Logger.Error(
			"retrain scheduler already subscribed. Unsubscribe first",
		)
		return nil, xerrors.New("retrain scheduler child context is not nil. Unsubscribe first")
	}
	if svc.Period <= 0 {
		return nil, xerrors.New("retrain scheduler period must be positive")
	}

	// One channel for the life of the service regardless of how many times we
	// subscribe/unsubscribe
	if svc.ResultChannel == nil {
		svc.ResultChannel = make(chan model.RetrainResult, 1)
	}

	subsCtx, subsCancel := context.WithCancel(svc.CanxCtx)
	svc.SubsCtx = subsCtx
	svc.SubsCancel = subsCancel
	results := svc.ResultChannel

	go func() {
		ticker := time.NewTicker(svc.Period)
		defer ticker.Stop()

		lgr.Logger.Info("retrain scheduler started",
			slog.Duration("period", svc.Period),
		)

		for {
			select {
			case <-subsCtx.Done():
				lgr.Logger.Info(
					"retrain scheduler context cancelled",
				)
				return

			case <-ticker.C:
				result := svc.Retrainer.Retrain(subsCtx)
				select {
				case results <- result:
				default:
					lgr.Logger.Warn("retrain result not consumed, dropping",
						slog.String("status", result.Status),
					)
				}
			}
		}
	}()

	return results, nil
}

func (svc *timedService) Unsubscribe() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.SubsCtx == nil {
		return xerrors.New("Not subscribed yet. Subscribe first")
	}

	svc.SubsCancel()
	svc.SubsCtx = nil
	svc.SubsCancel = nil
	return nil
}

func (svc *timedService) Finalize() {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.SubsCancel != nil {
		svc.SubsCancel()
		svc.SubsCtx = nil
		svc.SubsCancel = nil
	}
}
