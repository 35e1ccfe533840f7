package mode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/khaledhikmat/ps-go/api"
	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/pipeline"
	"github.com/khaledhikmat/ps-go/pricing"
	"github.com/khaledhikmat/ps-go/service/lgr"
	"github.com/khaledhikmat/ps-go/service/scheduler"
)

// Pricing serves price predictions and retraining. A missing model is not
// fatal; predictions answer 503 until the first successful retrain.
func Pricing(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	cfgSvc := svcs.CfgSvc

	if svcs.DataSvc == nil {
		dataSvc, err := newDataService(canxCtx, cfgSvc)
		if err != nil {
			return fmt.Errorf("error creating data service: %w", err)
		}
		svcs.DataSvc = dataSvc
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svcs.DataSvc.Close(ctx); err != nil {
			lgr.Logger.Error("error closing data service", lgr.Err(err))
		}
	}()

	pricingSvc := pricing.NewService(cfgSvc, svcs.DataSvc)
	if err := pricingSvc.Predictor.Load(canxCtx); err != nil {
		lgr.Logger.Warn("pricing service starting without a model")
	}

	var retrainResults <-chan model.RetrainResult
	if hours := cfgSvc.GetRetrainInterval(); hours > 0 {
		schedulerSvc := scheduler.NewTimed(canxCtx, time.Duration(hours)*time.Hour, pricingSvc)
		defer schedulerSvc.Finalize()

		results, err := schedulerSvc.Subscribe()
		if err != nil {
			return fmt.Errorf("error starting retrain scheduler: %w", err)
		}
		retrainResults = results
	}

	e := api.NewServer()
	api.SetupPricingRoutes(e, api.NewPricingHandler(pricingSvc))
	serverErr := serve(e, "pricing", cfgSvc.GetPricingPort())

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"pricing mode context cancelled",
			)
			shutdown(e, "pricing", cfgSvc)
			return nil

		case err := <-serverErr:
			return fmt.Errorf("pricing server failed: %w", err)

		case result := <-retrainResults:
			if result.Status != model.RetrainSuccess {
				procError(model.GenError("retrain_scheduler",
					errors.New(result.Message),
					map[string]interface{}{},
					"scheduled retrain failed"))
				continue
			}
			lgr.Logger.Info("scheduled retrain complete",
				slog.Int("samples", result.Samples),
			)
		}
	}
}
