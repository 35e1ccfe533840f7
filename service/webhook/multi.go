package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

type multiService struct {
	Timeout time.Duration
	Sinks   []IService
}

// NewMulti fans a batch out to every sink, giving each one its own timeout. Each
// sink is attempted even when an earlier one fails; the failures are joined.
func NewMulti(timeout time.Duration, sinks ...IService) IService {
	return &multiService{
		Timeout: timeout,
		Sinks:   sinks,
	}
}

// NewFromConfig builds the backend sink plus the optional Redis and MQTT sinks.
// An optional sink that cannot connect is skipped with a warning.
func NewFromConfig(ctx context.Context, cfgSvc config.IService) IService {
	sinks := []IService{NewHTTP(cfgSvc)}

	if cfgSvc.GetSlotsRedisURL() != "" {
		svc, err := NewRedis(ctx, cfgSvc)
		if err != nil {
			lgr.Logger.Warn("skipping redis slot sink", lgr.Err(err))
		} else {
			sinks = append(sinks, svc)
		}
	}

	if cfgSvc.GetSlotsMQTTURL() != "" {
		svc, err := NewMQTT(cfgSvc)
		if err != nil {
			lgr.Logger.Warn("skipping mqtt slot sink", lgr.Err(err))
		} else {
			sinks = append(sinks, svc)
		}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	lgr.Logger.Info("slot status sinks", slog.Any("sinks", names))

	return NewMulti(time.Duration(cfgSvc.GetNotifierTimeout())*time.Second, sinks...)
}

func (svc *multiService) Name() string {
	return "multi"
}

func (svc *multiService) Post(ctx context.Context, results []model.SlotResult) error {
	var errs []error
	for _, sink := range svc.Sinks {
		if err := svc.post(ctx, sink, results); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (svc *multiService) post(ctx context.Context, sink IService, results []model.SlotResult) error {
	sinkCtx, cancel := context.WithTimeout(ctx, svc.Timeout)
	defer cancel()
	return sink.Post(sinkCtx, results)
}

func (svc *multiService) Close() error {
	var errs []error
	for _, sink := range svc.Sinks {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}
