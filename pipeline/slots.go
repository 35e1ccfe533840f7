package pipeline

import (
	"image"

	"github.com/khaledhikmat/ps-go/model"
)

// ClipROI clips a slot rectangle to a width x height frame. The origin is
// clamped to zero and the size is trimmed to the frame edge; ok is false when
// no area is left.
func ClipROI(roi model.SlotROI, width, height int) (image.Rectangle, bool) {
	x := max(0, roi.X)
	y := max(0, roi.Y)
	w := min(roi.Width, width-x)
	h := min(roi.Height, height-y)

	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
