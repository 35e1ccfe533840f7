package mode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/khaledhikmat/ps-go/api"
	"github.com/khaledhikmat/ps-go/pipeline"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/inference"
	"github.com/khaledhikmat/ps-go/service/lgr"
	"github.com/khaledhikmat/ps-go/service/webhook"
)

// Vision serves slot occupancy detection. The slot layout and the detection
// network must load or the mode does not start.
func Vision(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	cfgSvc := svcs.CfgSvc

	slots, err := config.LoadSlots(cfgSvc.GetSlotsFile())
	if err != nil {
		return fmt.Errorf("error loading slots: %w", err)
	}
	lgr.Logger.Info("slots loaded",
		slog.String("file", cfgSvc.GetSlotsFile()),
		slog.Int("slots", len(slots.Slots)),
		slog.Any("vehicleClasses", slots.VehicleClasses),
	)

	if svcs.InferenceSvc == nil {
		inferenceSvc, err := inference.NewSSD(cfgSvc)
		if err != nil {
			return fmt.Errorf("error loading detection network: %w", err)
		}
		svcs.InferenceSvc = inferenceSvc
	}
	defer svcs.InferenceSvc.Close()

	if svcs.WebhookSvc == nil {
		svcs.WebhookSvc = webhook.NewFromConfig(canxCtx, cfgSvc)
	}
	defer svcs.WebhookSvc.Close()

	errorStream := make(chan interface{}, 10)

	// Alerter functions must comply with the Alerter signature (check pipeline/type.go)
	var alerter pipeline.Alerter = pipeline.SlotAlerter
	alertStream := alerter(canxCtx, svcs, errorStream)

	detector := pipeline.NewOccupancyDetector(svcs, slots, alertStream)

	e := api.NewServer()
	api.SetupVisionRoutes(e, api.NewVisionHandler(detector, len(slots.Slots)))
	serverErr := serve(e, "vision", cfgSvc.GetVisionPort())

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"vision mode context cancelled",
			)
			shutdown(e, "vision", cfgSvc)
			return nil

		case err := <-serverErr:
			return fmt.Errorf("vision server failed: %w", err)

		case bgErr := <-errorStream:
			procError(bgErr)
		}
	}
}
