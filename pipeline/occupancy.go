package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/lgr"
	"gocv.io/x/gocv"
)

// OccupancyDetector classifies every configured slot of a frame as occupied,
// available or error_bounds.
type OccupancyDetector struct {
	Svcs        ServicesFactory
	Slots       config.SlotsConfig
	Threshold   float64
	AlertStream chan SlotAlert

	vehicles map[string]bool
	ignored  map[string]bool
}

// NewOccupancyDetector builds a detector over a validated slot layout. A nil
// alertStream disables notifications.
func NewOccupancyDetector(svcs ServicesFactory, slots config.SlotsConfig, alertStream chan SlotAlert) *OccupancyDetector {
	d := &OccupancyDetector{
		Svcs:        svcs,
		Slots:       slots,
		Threshold:   svcs.CfgSvc.GetDetectorParameters().ConfidenceThreshold,
		AlertStream: alertStream,
		vehicles:    map[string]bool{},
		ignored:     map[string]bool{},
	}
	for _, c := range slots.VehicleClasses {
		d.vehicles[strings.ToLower(c)] = true
	}
	for _, c := range slots.IgnoredClasses {
		d.ignored[strings.ToLower(c)] = true
	}
	return d
}

// ProcessImage decodes one encoded frame, classifies its slots and hands the
// batch to the notifier without waiting for delivery.
func (d *OccupancyDetector) ProcessImage(buf []byte) ([]model.SlotResult, error) {
	frame, err := DecodeFrame(buf)
	if err != nil {
		framesProcessed.WithLabelValues("invalid").Inc()
		return nil, err
	}
	defer frame.Close()

	results, err := d.Process(frame)
	if err != nil {
		framesProcessed.WithLabelValues("failed").Inc()
		return nil, err
	}
	framesProcessed.WithLabelValues("success").Inc()

	d.notify(results)
	return results, nil
}

// Process classifies the slots of an already decoded frame, in configuration
// order. Any inference failure aborts the frame.
func (d *OccupancyDetector) Process(frame gocv.Mat) ([]model.SlotResult, error) {
	results := make([]model.SlotResult, 0, len(d.Slots.Slots))

	for _, slot := range d.Slots.Slots {
		rect, ok := ClipROI(slot, frame.Cols(), frame.Rows())
		if !ok {
			lgr.Logger.Warn("slot outside frame bounds",
				slog.String("slot", slot.Name),
				slog.Int("frameWidth", frame.Cols()),
				slog.Int("frameHeight", frame.Rows()),
			)
			results = append(results, d.result(slot.Name, model.SlotErrorBounds))
			continue
		}

		crop := frame.Region(rect)
		start := time.Now()
		detections, err := d.Svcs.InferenceSvc.Detect(crop)
		inferenceDuration.Observe(time.Since(start).Seconds())
		crop.Close()
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", slot.Name, err)
		}

		results = append(results, d.result(slot.Name, d.classify(slot.Name, detections)))
	}

	return results, nil
}

// classify scans detections in network order. The first vehicle above the
// threshold marks the slot occupied; ignored classes never end the scan.
// Confidences are widened to float64 before the comparison.
func (d *OccupancyDetector) classify(slot string, detections []model.Detection) string {
	for _, det := range detections {
		if float64(det.Confidence) <= d.Threshold {
			continue
		}

		label := strings.ToLower(det.Label)
		if d.ignored[label] {
			lgr.Logger.Debug("ignoring detection",
				slog.String("slot", slot),
				slog.String("label", det.Label),
				slog.Float64("confidence", float64(det.Confidence)),
			)
			continue
		}
		if d.vehicles[label] {
			return model.SlotOccupied
		}
	}

	return model.SlotAvailable
}

func (d *OccupancyDetector) result(slot, status string) model.SlotResult {
	slotStatuses.WithLabelValues(status).Inc()
	return model.SlotResult{SlotName: slot, Status: status}
}

func (d *OccupancyDetector) notify(results []model.SlotResult) {
	if d.AlertStream == nil {
		return
	}

	select {
	case d.AlertStream <- SlotAlert{
		RequestID: uuid.NewString(),
		Results:   results,
		Timestamp: time.Now(),
	}:
	default:
		notifications.WithLabelValues("dropped").Inc()
		lgr.Logger.Warn("alertStream full, dropping slot statuses",
			slog.Int("slots", len(results)),
		)
	}
}
