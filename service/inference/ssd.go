package inference

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/lgr"
	"gocv.io/x/gocv"
)

// Classes of the VOC-trained MobileNet-SSD, indexed by class id.
var ssdClasses = []string{
	"background", "aeroplane", "bicycle", "bird", "boat",
	"bottle", "bus", "car", "cat", "chair", "cow", "diningtable",
	"dog", "horse", "motorbike", "person", "pottedplant", "sheep",
	"sofa", "train", "tvmonitor",
}

type ssdService struct {
	Params config.DetectorParameters
	Labels []string

	// WARNING: net is not thread-safe!!!
	mu  sync.Mutex
	net gocv.Net
}

// NewSSD loads the Caffe MobileNet-SSD network once. Callers treat an error as
// fatal.
func NewSSD(cfgSvc config.IService) (IService, error) {
	params := cfgSvc.GetDetectorParameters()

	for _, p := range []string{params.ProtoPath, params.ModelPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("detector file %s: %w", p, err)
		}
	}

	labels := ssdClasses
	if params.LabelsPath != "" {
		var err error
		labels, err = loadLabels(params.LabelsPath)
		if err != nil {
			return nil, err
		}
	}

	net := gocv.ReadNetFromCaffe(params.ProtoPath, params.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("error reading network %s", params.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting target: %w", err)
	}

	lgr.Logger.Info("mobilenet-ssd network loaded",
		slog.String("model", params.ModelPath),
		slog.Int("classes", len(labels)),
		slog.String("openCV", gocv.Version()),
	)

	return &ssdService{
		Params: params,
		Labels: labels,
		net:    net,
	}, nil
}

func (svc *ssdService) Detect(img gocv.Mat) ([]model.Detection, error) {
	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", model.ErrInput)
	}

	size := svc.Params.InputSize
	blob := gocv.BlobFromImage(img, svc.Params.ScaleFactor, image.Pt(size, size),
		gocv.NewScalar(svc.Params.Mean, svc.Params.Mean, svc.Params.Mean, 0), false, false)
	defer blob.Close()

	svc.mu.Lock()
	svc.net.SetInput(blob, "")
	output := svc.net.Forward("")
	svc.mu.Unlock()
	defer output.Close()

	// Output is 1x1xNx7: [image, class, confidence, left, top, right, bottom]
	rows := gocv.GetBlobChannel(output, 0, 0)
	defer rows.Close()

	if rows.Cols() < 7 {
		return nil, fmt.Errorf("unexpected network output %v", output.Size())
	}

	w := float32(img.Cols())
	h := float32(img.Rows())
	detections := make([]model.Detection, 0, rows.Rows())
	for r := 0; r < rows.Rows(); r++ {
		classID := int(rows.GetFloatAt(r, 1))
		label := "unknown"
		if classID >= 0 && classID < len(svc.Labels) {
			label = svc.Labels[classID]
		}

		detections = append(detections, model.Detection{
			Label:      label,
			Confidence: rows.GetFloatAt(r, 2),
			Rect: image.Rect(
				int(rows.GetFloatAt(r, 3)*w),
				int(rows.GetFloatAt(r, 4)*h),
				int(rows.GetFloatAt(r, 5)*w),
				int(rows.GetFloatAt(r, 6)*h),
			),
		})
	}

	return detections, nil
}

func (svc *ssdService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.net.Close()
}

func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	labels := []string{}
	for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		labels = append(labels, strings.TrimSpace(l))
	}
	return labels, nil
}
