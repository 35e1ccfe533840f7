package pricing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/khaledhikmat/ps-go/model"
)

var ErrDatasetNotFound = fmt.Errorf("%w: synthetic data CSV not found", model.ErrData)

// LoadSyntheticDataset reads the bundled price table. Columns are matched by
// header name; a missing file wraps model.ErrData.
func LoadSyntheticDataset(path string) ([]model.PriceRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", model.ErrData, path, err)
	}
	defer f.Close()

	return readDataset(f)
}

func readDataset(r io.Reader) ([]model.PriceRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", model.ErrData, err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	required := append(append([]string{}, model.FeatureColumns...), model.ColPrice)
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: column %s missing", model.ErrData, name)
		}
	}

	records := []model.PriceRecord{}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", model.ErrData, line, err)
		}

		values := make(map[string]float64, len(required))
		for _, name := range required {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[cols[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", model.ErrData, line, name, err)
			}
			values[name] = v
		}

		records = append(records, model.PriceRecord{
			FeatureRow: model.FeatureRow{
				HourOfDay:     int(values[model.ColHourOfDay]),
				DayOfWeek:     int(values[model.ColDayOfWeek]),
				IsWeekend:     int(values[model.ColIsWeekend]),
				OccupancyRate: values[model.ColOccupancyRate],
			},
			Price: values[model.ColPrice],
		})
	}

	return records, nil
}
