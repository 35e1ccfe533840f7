package model

import (
	"fmt"
	"image"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Column names of the pricing feature row, in training order.
const (
	ColHourOfDay     = "hour_of_day"
	ColDayOfWeek     = "day_of_week"
	ColIsWeekend     = "is_weekend"
	ColOccupancyRate = "occupancy_rate"
	ColPrice         = "price"
)

// FeatureColumns is the fixed column order shared by training and inference.
var FeatureColumns = []string{ColHourOfDay, ColDayOfWeek, ColIsWeekend, ColOccupancyRate}

type FeatureRow struct {
	HourOfDay     int     `json:"hour_of_day" validate:"min=0,max=23"`
	DayOfWeek     int     `json:"day_of_week" validate:"min=0,max=6"`
	IsWeekend     int     `json:"is_weekend" validate:"oneof=0 1"`
	OccupancyRate float64 `json:"occupancy_rate" validate:"min=0,max=1"`
}

// Vector returns the row in FeatureColumns order.
func (r FeatureRow) Vector() []float64 {
	return []float64{
		float64(r.HourOfDay),
		float64(r.DayOfWeek),
		float64(r.IsWeekend),
		r.OccupancyRate,
	}
}

type PriceRecord struct {
	FeatureRow
	Price float64 `json:"price"`
}

// BookingRecord is a real usage record as written by the parking backend.
type BookingRecord struct {
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	HourOfDay     float64   `json:"hourOfDay" bson:"hourOfDay"`
	DayOfWeek     float64   `json:"dayOfWeek" bson:"dayOfWeek"`
	IsWeekend     bool      `json:"isWeekend" bson:"isWeekend"`
	TotalSlots    int       `json:"totalSlots" bson:"totalSlots"`
	OccupiedSlots int       `json:"occupiedSlots" bson:"occupiedSlots"`
	OccupancyRate float64   `json:"occupancyRate" bson:"occupancyRate"`
	FinalPrice    float64   `json:"finalPrice" bson:"finalPrice"`
	WasBooked     bool      `json:"wasBooked" bson:"wasBooked"`
}

type StoredModel struct {
	ModelName    string    `json:"model_name" bson:"model_name"`
	Data         []byte    `json:"data" bson:"data"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
	SamplesCount int       `json:"samples_count" bson:"samples_count"`
}

const (
	RetrainSuccess = "success"
	RetrainError   = "error"
)

type RetrainResult struct {
	Status  string `json:"status"`
	Samples int    `json:"samples,omitempty"`
	Message string `json:"message,omitempty"`
}

type SlotROI struct {
	Name   string `json:"name" yaml:"name"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

func (r SlotROI) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

const (
	SlotOccupied    = "occupied"
	SlotAvailable   = "available"
	SlotErrorBounds = "error_bounds"
)

type SlotResult struct {
	SlotName string `json:"slotName"`
	Status   string `json:"status"`
}

type Detection struct {
	Label      string          `json:"label"`
	Confidence float32         `json:"confidence"`
	Rect       image.Rectangle `json:"rect"`
}

type ModelStatus struct {
	Loaded    bool       `json:"modelLoaded"`
	Samples   int        `json:"samples,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
