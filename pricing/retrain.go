package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/ps-go/forest"
	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/data"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

type Trainer struct {
	CfgSvc  config.IService
	DataSvc data.IService
}

func NewTrainer(cfgSvc config.IService, dataSvc data.IService) *Trainer {
	return &Trainer{
		CfgSvc:  cfgSvc,
		DataSvc: dataSvc,
	}
}

// Retrain fits a new forest on the synthetic dataset followed by the booked
// records and replaces the stored model. On any failure the stored model is
// left as it was.
func (t *Trainer) Retrain(ctx context.Context) model.RetrainResult {
	runID := uuid.NewString()
	start := time.Now()
	defer func() {
		retrainDuration.Observe(time.Since(start).Seconds())
	}()

	lgr.Logger.Info("retraining pipeline starting",
		slog.String("runID", runID),
		slog.String("model", t.CfgSvc.GetModelName()),
	)

	fail := func(message string, err error) model.RetrainResult {
		retrainRuns.WithLabelValues(model.RetrainError).Inc()
		lgr.Logger.Error("retraining pipeline failed",
			slog.String("runID", runID),
			slog.String("message", message),
			lgr.Err(err),
		)
		return model.RetrainResult{Status: model.RetrainError, Message: message}
	}

	synthetic, err := LoadSyntheticDataset(t.CfgSvc.GetSyntheticDatasetFile())
	if errors.Is(err, ErrDatasetNotFound) {
		return fail("Synthetic data CSV not found", err)
	}
	if err != nil {
		return fail(err.Error(), err)
	}

	booked, err := t.DataSvc.RetrieveBookedRecords(ctx)
	if err != nil {
		return fail(err.Error(), err)
	}

	records := make([]model.PriceRecord, 0, len(synthetic)+len(booked))
	records = append(records, synthetic...)
	for _, b := range booked {
		records = append(records, RowFromBooking(b))
	}

	x := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, r := range records {
		x[i] = r.Vector()
		y[i] = r.Price
	}

	regressor := forest.New(forest.Params{
		Trees: t.CfgSvc.GetForestTrees(),
		Seed:  t.CfgSvc.GetForestSeed(),
	})
	if err := regressor.Fit(model.FeatureColumns, x, y); err != nil {
		return fail(err.Error(), err)
	}

	blob, err := regressor.Encode()
	if err != nil {
		return fail(err.Error(), err)
	}

	err = t.DataSvc.SaveModel(ctx, model.StoredModel{
		ModelName:    t.CfgSvc.GetModelName(),
		Data:         blob,
		UpdatedAt:    time.Now().UTC(),
		SamplesCount: len(records),
	})
	if err != nil {
		return fail(err.Error(), err)
	}

	retrainRuns.WithLabelValues(model.RetrainSuccess).Inc()
	retrainSamples.Set(float64(len(records)))
	lgr.Logger.Info("model saved",
		slog.String("runID", runID),
		slog.Int("synthetic", len(synthetic)),
		slog.Int("booked", len(booked)),
		slog.Int("bytes", len(blob)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return model.RetrainResult{Status: model.RetrainSuccess, Samples: len(records)}
}
