package scheduler

import (
	"context"

	"github.com/khaledhikmat/ps-go/model"
)

// Retrainer is the job the scheduler runs on every tick.
type Retrainer interface {
	Retrain(ctx context.Context) model.RetrainResult
}

type IService interface {
	Subscribe() (<-chan model.RetrainResult, error)
	Unsubscribe() error
	Finalize()
}
