package pipeline

import (
	"fmt"

	"github.com/khaledhikmat/ps-go/model"
	"gocv.io/x/gocv"
)

// DecodeFrame decodes encoded image bytes into a BGR frame. Frames taller than
// wide are rotated 90 degrees clockwise. The caller closes the returned Mat.
func DecodeFrame(buf []byte) (gocv.Mat, error) {
	if len(buf) == 0 {
		return gocv.Mat{}, fmt.Errorf("%w: empty payload", model.ErrDecode)
	}

	img, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, model.ErrDecode
	}

	if img.Rows() > img.Cols() {
		rotated := gocv.NewMat()
		gocv.Rotate(img, &rotated, gocv.Rotate90Clockwise)
		img.Close()
		return rotated, nil
	}

	return img, nil
}
