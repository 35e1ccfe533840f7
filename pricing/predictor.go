package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khaledhikmat/ps-go/forest"
	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/data"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

type loadedModel struct {
	regressor *forest.Regressor
	samples   int
	updatedAt time.Time
}

// Predictor serves predictions from the most recently loaded model. Load swaps
// the model pointer atomically; a prediction in flight keeps the instance it
// started with.
type Predictor struct {
	CfgSvc  config.IService
	DataSvc data.IService

	current atomic.Pointer[loadedModel]
}

func NewPredictor(cfgSvc config.IService, dataSvc data.IService) *Predictor {
	return &Predictor{
		CfgSvc:  cfgSvc,
		DataSvc: dataSvc,
	}
}

// Load reads the stored model. When it is absent or unusable the predictor is
// left unloaded and the error is returned for logging.
func (p *Predictor) Load(ctx context.Context) error {
	name := p.CfgSvc.GetModelName()

	stored, found, err := p.DataSvc.RetrieveModel(ctx, name)
	if err != nil {
		return p.unload(err)
	}
	if !found {
		lgr.Logger.Warn("no model found in store, run /retrain first",
			slog.String("model", name),
		)
		return p.unload(fmt.Errorf("%w: %s not found in store", model.ErrNotReady, name))
	}

	regressor, err := forest.Decode(stored.Data)
	if err != nil {
		return p.unload(err)
	}
	if !slices.Equal(regressor.Features, model.FeatureColumns) {
		return p.unload(fmt.Errorf("stored model columns %v do not match %v", regressor.Features, model.FeatureColumns))
	}

	p.current.Store(&loadedModel{
		regressor: regressor,
		samples:   stored.SamplesCount,
		updatedAt: stored.UpdatedAt,
	})
	modelLoads.WithLabelValues("loaded").Inc()

	lgr.Logger.Info("model loaded",
		slog.String("model", name),
		slog.Int("samples", stored.SamplesCount),
		slog.Int("trees", len(regressor.Trees)),
		slog.Time("updatedAt", stored.UpdatedAt),
	)
	return nil
}

func (p *Predictor) unload(err error) error {
	p.current.Store(nil)
	modelLoads.WithLabelValues("failed").Inc()
	lgr.Logger.Error("error loading model",
		slog.String("model", p.CfgSvc.GetModelName()),
		lgr.Err(err),
	)
	return err
}

func (p *Predictor) Ready() bool {
	return p.current.Load() != nil
}

func (p *Predictor) Status() model.ModelStatus {
	m := p.current.Load()
	if m == nil {
		return model.ModelStatus{}
	}
	updatedAt := m.updatedAt
	return model.ModelStatus{
		Loaded:    true,
		Samples:   m.samples,
		UpdatedAt: &updatedAt,
	}
}

// Predict returns the price for one request payload rounded to two decimals.
func (p *Predictor) Predict(payload map[string]interface{}) (float64, error) {
	m := p.current.Load()
	if m == nil {
		predictions.WithLabelValues("not_ready").Inc()
		return 0, model.ErrNotReady
	}

	row, err := BuildFeatureRow(payload)
	if err != nil {
		predictions.WithLabelValues("invalid").Inc()
		return 0, err
	}

	price, err := m.regressor.Predict(row.Vector())
	if err != nil {
		predictions.WithLabelValues("invalid").Inc()
		return 0, fmt.Errorf("%w: %v", model.ErrInput, err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		predictions.WithLabelValues("invalid").Inc()
		return 0, fmt.Errorf("%w: prediction is not finite", model.ErrInput)
	}

	predictions.WithLabelValues("success").Inc()
	return roundPrice(price), nil
}

// roundPrice rounds the exact binary value of price to two decimals, ties to
// even. 2.675 is stored as 2.67499... and rounds down.
func roundPrice(price float64) float64 {
	exact := decimal.RequireFromString(strconv.FormatFloat(price, 'f', 64, 64))
	return exact.RoundBank(2).InexactFloat64()
}
