package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/inference"
	"github.com/khaledhikmat/ps-go/service/webhook"
	"gocv.io/x/gocv"
)

func testSlots(slots ...model.SlotROI) config.SlotsConfig {
	cfg := config.DefaultSlots()
	cfg.Slots = slots
	return cfg
}

func newDetector(t *testing.T, slots config.SlotsConfig, inferenceSvc inference.IService, alerts chan SlotAlert) *OccupancyDetector {
	t.Helper()
	t.Setenv("DETECTOR_CONFIDENCE", "")
	svcs := ServicesFactory{
		CfgSvc:       config.NewEnv(),
		InferenceSvc: inferenceSvc,
	}
	return NewOccupancyDetector(svcs, slots, alerts)
}

func TestClipROI(t *testing.T) {
	tests := []struct {
		name   string
		roi    model.SlotROI
		want   image.Rectangle
		wantOK bool
	}{
		{"inside", model.SlotROI{X: 10, Y: 20, Width: 100, Height: 50}, image.Rect(10, 20, 110, 70), true},
		{"right edge", model.SlotROI{X: 600, Y: 0, Width: 100, Height: 50}, image.Rect(600, 0, 640, 50), true},
		{"bottom edge", model.SlotROI{X: 0, Y: 450, Width: 10, Height: 100}, image.Rect(0, 450, 10, 480), true},
		{"negative origin", model.SlotROI{X: -20, Y: -10, Width: 50, Height: 40}, image.Rect(0, 0, 50, 40), true},
		{"fully right", model.SlotROI{X: 1833, Y: 203, Width: 742, Height: 351}, image.Rectangle{}, false},
		{"fully below", model.SlotROI{X: 10, Y: 480, Width: 10, Height: 10}, image.Rectangle{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClipROI(tt.roi, 640, 480)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ClipROI() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		detections []model.Detection
		want       string
	}{
		{"nothing", nil, model.SlotAvailable},
		{"car above threshold", []model.Detection{{Label: "car", Confidence: 0.5}}, model.SlotOccupied},
		{"person only", []model.Detection{{Label: "person", Confidence: 0.9}}, model.SlotAvailable},
		{"car at float32 threshold", []model.Detection{{Label: "car", Confidence: float32(0.4)}}, model.SlotOccupied},
		{"car below threshold", []model.Detection{{Label: "car", Confidence: 0.39}}, model.SlotAvailable},
		{"person then truck", []model.Detection{{Label: "person", Confidence: 0.95}, {Label: "truck", Confidence: 0.6}}, model.SlotOccupied},
		{"low bus then dog", []model.Detection{{Label: "bus", Confidence: 0.2}, {Label: "dog", Confidence: 0.9}}, model.SlotAvailable},
		{"motorbike", []model.Detection{{Label: "motorbike", Confidence: 0.41}}, model.SlotOccupied},
	}

	d := newDetector(t, testSlots(model.SlotROI{Name: "A", Width: 1, Height: 1}), inference.NewFake(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.classify("A", tt.detections); got != tt.want {
				t.Errorf("classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProcessMarksOutOfBoundsSlots(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	fake := inference.NewFake(
		[]model.Detection{{Label: "car", Confidence: 0.5}},
		[]model.Detection{{Label: "person", Confidence: 0.9}},
	)
	d := newDetector(t, testSlots(
		model.SlotROI{Name: "Slot1", X: 0, Y: 0, Width: 100, Height: 100},
		model.SlotROI{Name: "Slot2", X: 2000, Y: 0, Width: 100, Height: 100},
		model.SlotROI{Name: "Slot3", X: 300, Y: 300, Width: 500, Height: 500},
	), fake, nil)

	results, err := d.Process(frame)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	want := []model.SlotResult{
		{SlotName: "Slot1", Status: model.SlotOccupied},
		{SlotName: "Slot2", Status: model.SlotErrorBounds},
		{SlotName: "Slot3", Status: model.SlotAvailable},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results", len(results))
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}
	if fake.Calls() != 2 {
		t.Errorf("inference ran %d times, want 2", fake.Calls())
	}
}

func TestProcessInferenceFailure(t *testing.T) {
	frame := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	d := newDetector(t, testSlots(model.SlotROI{Name: "Slot1", Width: 50, Height: 50}), inference.NewFailing(errors.New("forward failed")), nil)
	if _, err := d.Process(frame); err == nil {
		t.Error("expected an error")
	}
}

func TestDecodeFrame(t *testing.T) {
	portrait := gocv.NewMatWithSize(200, 100, gocv.MatTypeCV8UC3)
	defer portrait.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, portrait)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Close()

	frame, err := DecodeFrame(buf.GetBytes())
	if err != nil {
		t.Fatalf("DecodeFrame() error: %v", err)
	}
	defer frame.Close()

	if frame.Rows() != 100 || frame.Cols() != 200 {
		t.Errorf("frame is %dx%d, want rotated 200x100", frame.Cols(), frame.Rows())
	}
}

func TestDecodeFrameInvalid(t *testing.T) {
	for _, buf := range [][]byte{nil, []byte("not an image")} {
		if _, err := DecodeFrame(buf); !errors.Is(err, model.ErrDecode) {
			t.Errorf("DecodeFrame(%q) error = %v, want ErrDecode", buf, err)
		}
	}
}

func TestProcessImageNotifies(t *testing.T) {
	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer img.Close()
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Close()

	alerts := make(chan SlotAlert, 1)
	d := newDetector(t, testSlots(model.SlotROI{Name: "Slot1", Width: 10, Height: 10}), inference.NewFake(), alerts)

	results, err := d.ProcessImage(buf.GetBytes())
	if err != nil {
		t.Fatalf("ProcessImage() error: %v", err)
	}
	if len(results) != 1 || results[0].Status != model.SlotAvailable {
		t.Errorf("results = %+v", results)
	}

	select {
	case alert := <-alerts:
		if alert.RequestID == "" || len(alert.Results) != 1 {
			t.Errorf("alert = %+v", alert)
		}
	default:
		t.Fatal("no alert queued")
	}
}

func TestNotifyDropsWhenFull(t *testing.T) {
	alerts := make(chan SlotAlert)
	d := newDetector(t, testSlots(model.SlotROI{Name: "Slot1", Width: 10, Height: 10}), inference.NewFake(), alerts)

	done := make(chan struct{})
	go func() {
		d.notify([]model.SlotResult{{SlotName: "Slot1", Status: model.SlotAvailable}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify blocked on a full alert stream")
	}
}

func TestSlotAlerterDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := webhook.NewFake("backend", errors.New("backend down"))
	errorStream := make(chan interface{}, 10)
	svcs := ServicesFactory{CfgSvc: config.NewEnv(), WebhookSvc: sink}

	in := SlotAlerter(ctx, svcs, errorStream)
	in <- SlotAlert{RequestID: "r1", Results: []model.SlotResult{{SlotName: "Slot1", Status: model.SlotOccupied}}, Timestamp: time.Now()}

	select {
	case <-sink.Posted():
	case <-time.After(2 * time.Second):
		t.Fatal("batch was not posted")
	}

	select {
	case e := <-errorStream:
		ce, ok := e.(model.CustomError)
		if !ok || ce.Processor != "slot_alerter" {
			t.Errorf("error = %#v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delivery failure was not reported")
	}

	if got := sink.Batches(); len(got) != 1 || got[0][0].SlotName != "Slot1" {
		t.Errorf("batches = %+v", got)
	}
}
