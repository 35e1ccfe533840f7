package webhook

import (
	"context"

	"github.com/khaledhikmat/ps-go/model"
)

// IService delivers one batch of slot statuses to a downstream sink.
type IService interface {
	Name() string
	Post(ctx context.Context, results []model.SlotResult) error
	Close() error
}
