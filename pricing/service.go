package pricing

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/data"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

// Service ties the retraining pipeline to the predictor that serves its output.
type Service struct {
	Trainer   *Trainer
	Predictor *Predictor
}

func NewService(cfgSvc config.IService, dataSvc data.IService) *Service {
	return &Service{
		Trainer:   NewTrainer(cfgSvc, dataSvc),
		Predictor: NewPredictor(cfgSvc, dataSvc),
	}
}

func (s *Service) Ready() bool {
	return s.Predictor.Ready()
}

func (s *Service) Predict(payload map[string]interface{}) (float64, error) {
	return s.Predictor.Predict(payload)
}

// Retrain runs the pipeline and reloads the predictor when it succeeds. A
// failed reload is logged; the result still reports the successful training.
func (s *Service) Retrain(ctx context.Context) model.RetrainResult {
	result := s.Trainer.Retrain(ctx)
	if result.Status != model.RetrainSuccess {
		return result
	}

	if err := s.Predictor.Load(ctx); err != nil {
		lgr.Logger.Error("model reload after retrain failed",
			slog.Int("samples", result.Samples),
			lgr.Err(err),
		)
	}

	return result
}

func (s *Service) Status() model.ModelStatus {
	return s.Predictor.Status()
}
