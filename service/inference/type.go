package inference

import (
	"github.com/khaledhikmat/ps-go/model"
	"gocv.io/x/gocv"
)

// IService runs object detection on a single image. Implementations must be
// safe for concurrent use.
type IService interface {
	Detect(img gocv.Mat) ([]model.Detection, error)
	Close() error
}
