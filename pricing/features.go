package pricing

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/khaledhikmat/ps-go/model"
)

// Request keys of a prediction payload.
const (
	KeyHour      = "hour"
	KeyDayOfWeek = "day_of_week"
	KeyIsWeekend = "is_weekend"
	KeyOccupancy = "occupancy"
)

var validate = validator.New()

// BuildFeatureRow maps a decoded JSON payload onto the training schema. Every
// failure wraps model.ErrInput.
func BuildFeatureRow(payload map[string]interface{}) (model.FeatureRow, error) {
	if payload == nil {
		return model.FeatureRow{}, fmt.Errorf("%w: empty payload", model.ErrInput)
	}

	hour, err := intField(payload, KeyHour)
	if err != nil {
		return model.FeatureRow{}, err
	}
	day, err := intField(payload, KeyDayOfWeek)
	if err != nil {
		return model.FeatureRow{}, err
	}
	weekend, err := intField(payload, KeyIsWeekend)
	if err != nil {
		return model.FeatureRow{}, err
	}
	occupancy, err := numberField(payload, KeyOccupancy)
	if err != nil {
		return model.FeatureRow{}, err
	}

	row := model.FeatureRow{
		HourOfDay:     hour,
		DayOfWeek:     day,
		IsWeekend:     weekend,
		OccupancyRate: occupancy,
	}
	if err := validate.Struct(row); err != nil {
		return model.FeatureRow{}, fmt.Errorf("%w: %v", model.ErrInput, err)
	}

	return row, nil
}

// RowFromBooking renames a stored booking onto the training schema. Values are
// taken as stored so that every booked record contributes one sample.
func RowFromBooking(r model.BookingRecord) model.PriceRecord {
	weekend := 0
	if r.IsWeekend {
		weekend = 1
	}

	return model.PriceRecord{
		FeatureRow: model.FeatureRow{
			HourOfDay:     int(r.HourOfDay),
			DayOfWeek:     int(r.DayOfWeek),
			IsWeekend:     weekend,
			OccupancyRate: r.OccupancyRate,
		},
		Price: r.FinalPrice,
	}
}

func numberField(payload map[string]interface{}, key string) (float64, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing key '%s'", model.ErrInput, key)
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: '%s' is not numeric", model.ErrInput, key)
		}
		f = n
	case bool:
		if t {
			f = 1
		}
	default:
		return 0, fmt.Errorf("%w: '%s' is not numeric", model.ErrInput, key)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: '%s' is not finite", model.ErrInput, key)
	}
	return f, nil
}

func intField(payload map[string]interface{}, key string) (int, error) {
	f, err := numberField(payload, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: '%s' must be an integer", model.ErrInput, key)
	}
	return int(f), nil
}
