package data

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
)

func newTestFilesDB(t *testing.T) (*filesDBService, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SETTINGS_FOLDER", dir)
	return NewFilesDB(config.NewEnv()).(*filesDBService), dir
}

func TestRetrieveModelNotFound(t *testing.T) {
	svc, _ := newTestFilesDB(t)

	_, found, err := svc.RetrieveModel(context.Background(), "pricing_v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false on an empty store")
	}
}

func TestSaveModelUpsertsSingleDocument(t *testing.T) {
	svc, dir := newTestFilesDB(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		err := svc.SaveModel(ctx, model.StoredModel{
			ModelName:    "pricing_v1",
			Data:         []byte{byte(i)},
			UpdatedAt:    time.Now().UTC(),
			SamplesCount: i * 10,
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if err := svc.SaveModel(ctx, model.StoredModel{ModelName: "other", Data: []byte{9}}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "ml_models.json"))
	if err != nil {
		t.Fatal(err)
	}
	var docs []model.StoredModel
	if err := json.Unmarshal(raw, &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	m, found, err := svc.RetrieveModel(ctx, "pricing_v1")
	if err != nil || !found {
		t.Fatalf("RetrieveModel() found=%v err=%v", found, err)
	}
	if m.SamplesCount != 30 || len(m.Data) != 1 || m.Data[0] != 3 {
		t.Errorf("expected last write to win, got %+v", m)
	}
}

func TestRetrieveBookedRecordsFilters(t *testing.T) {
	svc, _ := newTestFilesDB(t)

	err := svc.InsertBookingRecords(
		model.BookingRecord{HourOfDay: 9, DayOfWeek: 1, OccupancyRate: 0.2, FinalPrice: 20, WasBooked: true},
		model.BookingRecord{HourOfDay: 10, DayOfWeek: 1, OccupancyRate: 0.3, FinalPrice: 22, WasBooked: false},
		model.BookingRecord{HourOfDay: 18, DayOfWeek: 6, IsWeekend: true, OccupancyRate: 0.9, FinalPrice: 40, WasBooked: true},
	)
	if err != nil {
		t.Fatal(err)
	}

	records, err := svc.RetrieveBookedRecords(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].HourOfDay != 9 || records[1].HourOfDay != 18 {
		t.Errorf("records out of order: %+v", records)
	}
}

func TestRetrieveBookedRecordsEmptyStore(t *testing.T) {
	svc, _ := newTestFilesDB(t)

	records, err := svc.RetrieveBookedRecords(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestCorruptStoreIsStoreError(t *testing.T) {
	svc, dir := newTestFilesDB(t)
	if err := os.WriteFile(filepath.Join(dir, "ml_models.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := svc.RetrieveModel(context.Background(), "pricing_v1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, model.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
}
