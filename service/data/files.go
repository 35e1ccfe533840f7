package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
)

// filesDBService keeps each collection as a JSON array in the settings folder.
// It is meant for development and tests.
type filesDBService struct {
	CfgSvc config.IService
	mu     sync.Mutex
}

func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
	}
}

func (svc *filesDBService) RetrieveBookedRecords(_ context.Context) ([]model.BookingRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	records, err := retrieveEntities[model.BookingRecord](svc.CfgSvc.GetBookingsCollection(), svc.CfgSvc)
	if err != nil {
		return nil, fmt.Errorf("%w: reading booking records: %v", model.ErrStore, err)
	}

	var result []model.BookingRecord
	for _, record := range records {
		if record.WasBooked {
			result = append(result, record)
		}
	}

	return result, nil
}

func (svc *filesDBService) RetrieveModel(_ context.Context, name string) (model.StoredModel, bool, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	models, err := retrieveEntities[model.StoredModel](svc.CfgSvc.GetModelsCollection(), svc.CfgSvc)
	if err != nil {
		return model.StoredModel{}, false, fmt.Errorf("%w: reading models: %v", model.ErrStore, err)
	}

	for _, m := range models {
		if m.ModelName == name {
			return m, true, nil
		}
	}

	return model.StoredModel{}, false, nil
}

func (svc *filesDBService) SaveModel(_ context.Context, m model.StoredModel) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	filename := svc.CfgSvc.GetModelsCollection()
	models, err := retrieveEntities[model.StoredModel](filename, svc.CfgSvc)
	if err != nil {
		return fmt.Errorf("%w: reading models: %v", model.ErrStore, err)
	}

	replaced := false
	for i := range models {
		if models[i].ModelName == m.ModelName {
			models[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		models = append(models, m)
	}

	if err := writeEntities(models, filename, svc.CfgSvc); err != nil {
		return fmt.Errorf("%w: writing models: %v", model.ErrStore, err)
	}

	return nil
}

// InsertBookingRecords appends records to the bookings collection. The pricing
// services never write bookings; this seeds development data.
func (svc *filesDBService) InsertBookingRecords(records ...model.BookingRecord) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	filename := svc.CfgSvc.GetBookingsCollection()
	existing, err := retrieveEntities[model.BookingRecord](filename, svc.CfgSvc)
	if err != nil {
		return err
	}

	return writeEntities(append(existing, records...), filename, svc.CfgSvc)
}

func (svc *filesDBService) Close(_ context.Context) error {
	return nil
}

func entityPath(filename string, cfgsvc config.IService) string {
	return filepath.Join(cfgsvc.GetInputFolder(), filename+".json")
}

// writeEntities replaces the collection file in one rename so readers never see a partial write.
func writeEntities[T any](entities []T, filename string, cfgsvc config.IService) error {
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}

	output := entityPath(filename, cfgsvc)
	tmp, err := os.CreateTemp(filepath.Dir(output), filename+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), output)
}

func retrieveEntities[T any](filename string, cfgsvc config.IService) ([]T, error) {
	entities := []T{}

	data, err := os.ReadFile(entityPath(filename, cfgsvc))
	if errors.Is(err, os.ErrNotExist) {
		// WARNING: File not found, return empty slice
		return entities, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, err
	}

	return entities, nil
}
