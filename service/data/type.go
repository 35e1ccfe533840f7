package data

import (
	"context"

	"github.com/khaledhikmat/ps-go/model"
)

type IService interface {
	// RetrieveBookedRecords returns the real usage records flagged wasBooked.
	RetrieveBookedRecords(ctx context.Context) ([]model.BookingRecord, error)
	// RetrieveModel returns found=false with a nil error when no model is stored under name.
	RetrieveModel(ctx context.Context, name string) (model.StoredModel, bool, error)
	// SaveModel replaces (or inserts) the single document for m.ModelName.
	SaveModel(ctx context.Context, m model.StoredModel) error
	Close(ctx context.Context) error
}
