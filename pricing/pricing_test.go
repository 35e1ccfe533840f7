package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/data"
)

type bookingSeeder interface {
	InsertBookingRecords(records ...model.BookingRecord) error
}

// setup points the services at a temp settings folder holding rows synthetic rows.
func setup(t *testing.T, rows int) (config.IService, data.IService, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SETTINGS_FOLDER", dir)
	t.Setenv("FOREST_TREES", "10")
	t.Setenv("SYNTHETIC_DATASET", "")
	t.Setenv("MODEL_NAME", "")
	t.Setenv("DATA_STORE", "")

	if rows > 0 {
		var b strings.Builder
		b.WriteString("hour_of_day,day_of_week,is_weekend,occupancy_rate,price\n")
		for i := 0; i < rows; i++ {
			hour := i % 24
			day := (i / 24) % 7
			weekend := 0
			if day >= 5 {
				weekend = 1
			}
			occupancy := float64(i%10) / 10
			price := 20 + 40*occupancy + float64(8*weekend)
			fmt.Fprintf(&b, "%d,%d,%d,%.2f,%.2f\n", hour, day, weekend, occupancy, price)
		}
		if err := os.WriteFile(filepath.Join(dir, "parking_synthetic_data.csv"), []byte(b.String()), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfgSvc := config.NewEnv()
	return cfgSvc, data.NewFilesDB(cfgSvc), dir
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"hour":        14.0,
		"day_of_week": 2.0,
		"is_weekend":  0.0,
		"occupancy":   0.73,
	}
}

func TestBuildFeatureRow(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p map[string]interface{})
		want    model.FeatureRow
		wantErr bool
	}{
		{"valid", func(p map[string]interface{}) {}, model.FeatureRow{HourOfDay: 14, DayOfWeek: 2, IsWeekend: 0, OccupancyRate: 0.73}, false},
		{"bool weekend", func(p map[string]interface{}) { p["is_weekend"] = true }, model.FeatureRow{HourOfDay: 14, DayOfWeek: 2, IsWeekend: 1, OccupancyRate: 0.73}, false},
		{"json number", func(p map[string]interface{}) { p["hour"] = json.Number("9") }, model.FeatureRow{HourOfDay: 9, DayOfWeek: 2, IsWeekend: 0, OccupancyRate: 0.73}, false},
		{"missing hour", func(p map[string]interface{}) { delete(p, "hour") }, model.FeatureRow{}, true},
		{"missing occupancy", func(p map[string]interface{}) { delete(p, "occupancy") }, model.FeatureRow{}, true},
		{"null value", func(p map[string]interface{}) { p["day_of_week"] = nil }, model.FeatureRow{}, true},
		{"string value", func(p map[string]interface{}) { p["hour"] = "fourteen" }, model.FeatureRow{}, true},
		{"fractional hour", func(p map[string]interface{}) { p["hour"] = 14.5 }, model.FeatureRow{}, true},
		{"hour out of range", func(p map[string]interface{}) { p["hour"] = 24.0 }, model.FeatureRow{}, true},
		{"day out of range", func(p map[string]interface{}) { p["day_of_week"] = 7.0 }, model.FeatureRow{}, true},
		{"weekend out of range", func(p map[string]interface{}) { p["is_weekend"] = 2.0 }, model.FeatureRow{}, true},
		{"occupancy out of range", func(p map[string]interface{}) { p["occupancy"] = 1.2 }, model.FeatureRow{}, true},
		{"occupancy not finite", func(p map[string]interface{}) { p["occupancy"] = math.Inf(1) }, model.FeatureRow{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validPayload()
			tt.mutate(payload)

			got, err := BuildFeatureRow(payload)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInput) {
					t.Errorf("BuildFeatureRow() error = %v, want ErrInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildFeatureRow() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildFeatureRowNilPayload(t *testing.T) {
	if _, err := BuildFeatureRow(nil); !errors.Is(err, model.ErrInput) {
		t.Errorf("expected ErrInput, got %v", err)
	}
}

func TestRowFromBooking(t *testing.T) {
	got := RowFromBooking(model.BookingRecord{
		HourOfDay:     18,
		DayOfWeek:     6,
		IsWeekend:     true,
		OccupancyRate: 0.8,
		FinalPrice:    42.5,
		WasBooked:     true,
	})

	want := model.PriceRecord{
		FeatureRow: model.FeatureRow{HourOfDay: 18, DayOfWeek: 6, IsWeekend: 1, OccupancyRate: 0.8},
		Price:      42.5,
	}
	if got != want {
		t.Errorf("RowFromBooking() = %+v, want %+v", got, want)
	}
	if v := got.Vector(); len(v) != len(model.FeatureColumns) || v[2] != 1 {
		t.Errorf("Vector() = %v", v)
	}
}

func TestReadDataset(t *testing.T) {
	csv := "price,occupancy_rate,is_weekend,day_of_week,hour_of_day\n30.5,0.5,1,6,10\n"
	records, err := readDataset(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	want := model.PriceRecord{FeatureRow: model.FeatureRow{HourOfDay: 10, DayOfWeek: 6, IsWeekend: 1, OccupancyRate: 0.5}, Price: 30.5}
	if records[0] != want {
		t.Errorf("got %+v, want %+v", records[0], want)
	}
}

func TestReadDatasetErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"missing column", "hour_of_day,day_of_week,is_weekend,price\n1,2,0,10\n"},
		{"bad number", "hour_of_day,day_of_week,is_weekend,occupancy_rate,price\n1,2,0,x,10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readDataset(strings.NewReader(tt.csv)); !errors.Is(err, model.ErrData) {
				t.Errorf("expected ErrData, got %v", err)
			}
		})
	}
}

func TestLoadSyntheticDatasetMissing(t *testing.T) {
	_, err := LoadSyntheticDataset(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrDatasetNotFound) || !errors.Is(err, model.ErrData) {
		t.Errorf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestBundledDatasetLoads(t *testing.T) {
	records, err := LoadSyntheticDataset("../settings/parking_synthetic_data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 168 {
		t.Errorf("got %d rows, want 168", len(records))
	}
}

func TestPredictBeforeLoad(t *testing.T) {
	cfgSvc, dataSvc, _ := setup(t, 0)
	p := NewPredictor(cfgSvc, dataSvc)

	if p.Ready() {
		t.Fatal("new predictor should not be ready")
	}
	if _, err := p.Predict(validPayload()); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("Predict() error = %v, want ErrNotReady", err)
	}
}

func TestLoadWithoutStoredModel(t *testing.T) {
	cfgSvc, dataSvc, _ := setup(t, 0)
	p := NewPredictor(cfgSvc, dataSvc)

	if err := p.Load(context.Background()); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("Load() error = %v, want ErrNotReady", err)
	}
	if p.Ready() {
		t.Error("predictor should stay unloaded")
	}
	if p.Status().Loaded {
		t.Error("status should report unloaded")
	}
}

func TestRetrainSyntheticOnly(t *testing.T) {
	cfgSvc, dataSvc, _ := setup(t, 48)
	svc := NewService(cfgSvc, dataSvc)

	result := svc.Retrain(context.Background())
	if result.Status != model.RetrainSuccess {
		t.Fatalf("Retrain() = %+v", result)
	}
	if result.Samples != 48 {
		t.Errorf("Samples = %d, want 48", result.Samples)
	}

	stored, found, err := dataSvc.RetrieveModel(context.Background(), "pricing_v1")
	if err != nil || !found {
		t.Fatalf("RetrieveModel() found=%v err=%v", found, err)
	}
	if stored.SamplesCount != 48 {
		t.Errorf("stored SamplesCount = %d, want 48", stored.SamplesCount)
	}
	if stored.UpdatedAt.IsZero() {
		t.Error("stored UpdatedAt should be set")
	}
	if !svc.Status().Loaded || svc.Status().Samples != 48 {
		t.Errorf("Status() = %+v", svc.Status())
	}
}

func TestRetrainWithBookedRecords(t *testing.T) {
	cfgSvc, dataSvc, _ := setup(t, 30)

	err := dataSvc.(bookingSeeder).InsertBookingRecords(
		model.BookingRecord{HourOfDay: 8, DayOfWeek: 1, OccupancyRate: 0.9, FinalPrice: 55, WasBooked: true},
		model.BookingRecord{HourOfDay: 9, DayOfWeek: 1, OccupancyRate: 0.8, FinalPrice: 50, WasBooked: true},
		model.BookingRecord{HourOfDay: 20, DayOfWeek: 5, IsWeekend: true, OccupancyRate: 0.4, FinalPrice: 35, WasBooked: true},
		model.BookingRecord{HourOfDay: 3, DayOfWeek: 2, OccupancyRate: 0.1, FinalPrice: 15, WasBooked: false},
	)
	if err != nil {
		t.Fatal(err)
	}

	result := NewTrainer(cfgSvc, dataSvc).Retrain(context.Background())
	if result.Status != model.RetrainSuccess {
		t.Fatalf("Retrain() = %+v", result)
	}
	if result.Samples != 33 {
		t.Errorf("Samples = %d, want 30 synthetic + 3 booked", result.Samples)
	}
}

func TestRetrainKeepsSingleStoredModel(t *testing.T) {
	cfgSvc, dataSvc, dir := setup(t, 24)
	trainer := NewTrainer(cfgSvc, dataSvc)

	for i := 0; i < 3; i++ {
		if result := trainer.Retrain(context.Background()); result.Status != model.RetrainSuccess {
			t.Fatalf("run %d: %+v", i, result)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "ml_models.json"))
	if err != nil {
		t.Fatal(err)
	}
	var docs []model.StoredModel
	if err := json.Unmarshal(raw, &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d stored models, want 1", len(docs))
	}
}

func TestRetrainMissingDatasetKeepsPriorModel(t *testing.T) {
	cfgSvc, dataSvc, dir := setup(t, 24)
	svc := NewService(cfgSvc, dataSvc)

	if result := svc.Retrain(context.Background()); result.Status != model.RetrainSuccess {
		t.Fatalf("first retrain: %+v", result)
	}
	before, _, _ := dataSvc.RetrieveModel(context.Background(), "pricing_v1")

	if err := os.Remove(filepath.Join(dir, "parking_synthetic_data.csv")); err != nil {
		t.Fatal(err)
	}

	result := svc.Retrain(context.Background())
	if result.Status != model.RetrainError {
		t.Fatalf("Retrain() = %+v, want error", result)
	}
	if result.Message != "Synthetic data CSV not found" {
		t.Errorf("Message = %q", result.Message)
	}

	after, found, err := dataSvc.RetrieveModel(context.Background(), "pricing_v1")
	if err != nil || !found {
		t.Fatalf("prior model should survive: found=%v err=%v", found, err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) || string(after.Data) != string(before.Data) {
		t.Error("prior model was modified by a failed retrain")
	}
	if !svc.Predictor.Ready() {
		t.Error("predictor should keep serving the prior model")
	}
}

func TestPredictAfterRetrain(t *testing.T) {
	cfgSvc, dataSvc, _ := setup(t, 168)
	svc := NewService(cfgSvc, dataSvc)

	if result := svc.Retrain(context.Background()); result.Status != model.RetrainSuccess {
		t.Fatalf("Retrain() = %+v", result)
	}

	price, err := svc.Predict(validPayload())
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		t.Errorf("Predict() = %v, want a finite positive price", price)
	}
	if math.Abs(price*100-math.Round(price*100)) > 1e-6 {
		t.Errorf("Predict() = %v, want two decimals", price)
	}

	payload := validPayload()
	delete(payload, "occupancy")
	if _, err := svc.Predict(payload); !errors.Is(err, model.ErrInput) {
		t.Errorf("Predict() error = %v, want ErrInput", err)
	}
}

func TestPredictIsReproducibleAcrossReload(t *testing.T) {
	cfgSvc, dataSvc, _ := setup(t, 72)
	svc := NewService(cfgSvc, dataSvc)
	if result := svc.Retrain(context.Background()); result.Status != model.RetrainSuccess {
		t.Fatalf("Retrain() = %+v", result)
	}

	first, err := svc.Predict(validPayload())
	if err != nil {
		t.Fatal(err)
	}

	other := NewPredictor(cfgSvc, dataSvc)
	if err := other.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	second, err := other.Predict(validPayload())
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("reloaded model predicts %v, want %v", second, first)
	}
}

func TestReloadFailureRevertsToUnloaded(t *testing.T) {
	cfgSvc, dataSvc, _ := setup(t, 24)
	svc := NewService(cfgSvc, dataSvc)
	if result := svc.Retrain(context.Background()); result.Status != model.RetrainSuccess {
		t.Fatalf("Retrain() = %+v", result)
	}
	if !svc.Predictor.Ready() {
		t.Fatal("predictor should be loaded after retrain")
	}

	err := dataSvc.SaveModel(context.Background(), model.StoredModel{ModelName: "pricing_v1", Data: []byte("garbage")})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Predictor.Load(context.Background()); err == nil {
		t.Fatal("expected a decode error")
	}
	if svc.Predictor.Ready() {
		t.Error("predictor should revert to unloaded")
	}
	if _, err := svc.Predict(validPayload()); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("Predict() error = %v, want ErrNotReady", err)
	}
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12.344, 12.34},
		{12.345, 12.35},
		{2.675, 2.67},
		{1.005, 1},
		{0.125, 0.12},
		{0.375, 0.38},
		{7, 7},
		{0.005, 0.01},
		{-3.14159, -3.14},
	}
	for _, tt := range tests {
		if got := roundPrice(tt.in); got != tt.want {
			t.Errorf("roundPrice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
