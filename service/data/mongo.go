package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

type mongoService struct {
	CfgSvc config.IService
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to the document store and verifies the connection with a ping.
func NewMongo(ctx context.Context, cfgsvc config.IService) (IService, error) {
	if cfgsvc.GetMongoURL() == "" {
		return nil, errors.New("mongo url not configured")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfgsvc.GetMongoURL()))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to mongo: %v", model.ErrStore, err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: pinging mongo: %v", model.ErrStore, err)
	}

	lgr.Logger.Info("mongo connected",
		slog.String("database", cfgsvc.GetMongoDatabase()),
	)

	return &mongoService{
		CfgSvc: cfgsvc,
		client: client,
		db:     client.Database(cfgsvc.GetMongoDatabase()),
	}, nil
}

func (svc *mongoService) RetrieveBookedRecords(ctx context.Context) ([]model.BookingRecord, error) {
	cursor, err := svc.db.Collection(svc.CfgSvc.GetBookingsCollection()).Find(ctx, bson.M{"wasBooked": true})
	if err != nil {
		return nil, fmt.Errorf("%w: querying booked records: %v", model.ErrStore, err)
	}
	defer cursor.Close(ctx)

	records := []model.BookingRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding booked records: %v", model.ErrStore, err)
	}

	return records, nil
}

func (svc *mongoService) RetrieveModel(ctx context.Context, name string) (model.StoredModel, bool, error) {
	var m model.StoredModel
	err := svc.db.Collection(svc.CfgSvc.GetModelsCollection()).FindOne(ctx, bson.M{"model_name": name}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.StoredModel{}, false, nil
	}
	if err != nil {
		return model.StoredModel{}, false, fmt.Errorf("%w: reading model %s: %v", model.ErrStore, name, err)
	}

	return m, true, nil
}

func (svc *mongoService) SaveModel(ctx context.Context, m model.StoredModel) error {
	_, err := svc.db.Collection(svc.CfgSvc.GetModelsCollection()).ReplaceOne(ctx,
		bson.M{"model_name": m.ModelName},
		m,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: saving model %s: %v", model.ErrStore, m.ModelName, err)
	}

	return nil
}

func (svc *mongoService) Close(ctx context.Context) error {
	return svc.client.Disconnect(ctx)
}
