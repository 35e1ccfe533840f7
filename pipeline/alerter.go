package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

// SlotAlerter forwards each batch to the webhook service. Delivery failures
// are reported on errorStream and never retried.
func SlotAlerter(canx context.Context, svcs ServicesFactory, errorStream chan interface{}) chan SlotAlert {
	in := make(chan SlotAlert, 100)

	go func() {
		for {
			select {
			case <-canx.Done():
				lgr.Logger.Info(
					"alerter context cancelled",
				)
				return

			case alert := <-in:
				// Sinks bound their own delivery time
				err := svcs.WebhookSvc.Post(canx, alert.Results)

				if err != nil {
					notifications.WithLabelValues("failed").Inc()
					report(errorStream, model.GenError("slot_alerter",
						err,
						map[string]interface{}{
							"requestID": alert.RequestID,
							"slots":     len(alert.Results),
						},
						"error notifying slot statuses"))
					continue
				}

				notifications.WithLabelValues("sent").Inc()
				lgr.Logger.Debug(
					"slot statuses sent",
					slog.String("requestID", alert.RequestID),
					slog.Int("slots", len(alert.Results)),
					slog.Duration("latency", time.Since(alert.Timestamp)),
				)
			}
		}
	}()

	return in
}

func report(errorStream chan interface{}, err model.CustomError) {
	select {
	case errorStream <- err:
	default:
		lgr.Logger.Error("errorStream full, dropping error",
			slog.String("processor", err.Processor),
			slog.String("message", err.Message),
			lgr.Err(err.Inner),
		)
	}
}
