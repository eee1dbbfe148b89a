package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	boxColor  = color.RGBA{0, 255, 0, 0}
	textColor = color.RGBA{0, 255, 255, 0}
)

func drawFace(img *gocv.Mat, rect image.Rectangle, label string) {
	gocv.Rectangle(img, rect, boxColor, 2)
	gocv.PutText(img, label, image.Point{rect.Min.X, rect.Min.Y - 10}, gocv.FontHersheySimplex, 0.8, textColor, 2)
}

// DrawBoxes draws labeled rectangles; labels may be shorter than rects.
func DrawBoxes(img *gocv.Mat, rects []image.Rectangle, labels []string) {
	for i, r := range rects {
		gocv.Rectangle(img, r, boxColor, 2)
		if i < len(labels) {
			gocv.PutText(img, labels[i], image.Point{r.Min.X, r.Min.Y - 10}, gocv.FontHersheyPlain, 1.2, boxColor, 2)
		}
	}
}
