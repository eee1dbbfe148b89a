// Package boxes turns raw network output tensors into image rectangles.
// It has no OpenCV dependency so the arithmetic can be tested on its own.
package boxes

import (
	"image"
)

// Face is one detection of the face detector network.
type Face struct {
	Rect       image.Rectangle
	Confidence float32
}

// ssdRowLen is the width of one detection row of an SSD detector:
// [image_id, class_id, confidence, x1, y1, x2, y2] with normalized coordinates.
const ssdRowLen = 7

// FaceBoxes reads an SSD detection blob (shape 1x1xNx7, flattened) and returns
// the faces with confidence >= threshold, scaled to a width x height frame.
func FaceBoxes(data []float32, width, height int, threshold float32) []Face {
	var faces []Face
	bounds := image.Rect(0, 0, width, height)
	for i := 0; i+ssdRowLen <= len(data); i += ssdRowLen {
		row := data[i : i+ssdRowLen]
		confidence := row[2]
		if confidence < threshold {
			continue
		}
		x1 := int(row[3] * float32(width))
		y1 := int(row[4] * float32(height))
		x2 := int(row[5] * float32(width))
		y2 := int(row[6] * float32(height))

		rect := image.Rect(x1, y1, x2, y2).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		faces = append(faces, Face{Rect: rect, Confidence: confidence})
	}
	return faces
}

// Best returns the face with the highest confidence.
func Best(faces []Face) (Face, bool) {
	if len(faces) == 0 {
		return Face{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}
	return best, true
}

// Pad grows rect by pad pixels on every side, clipped to bounds.
func Pad(rect image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(rect.Min.X-pad, rect.Min.Y-pad, rect.Max.X+pad, rect.Max.Y+pad).Intersect(bounds)
}

// YoloBoxes reads YOLOv8 output rows already transposed to rows x cols, where
// each row is [cx, cy, w, h, score_0, ... score_k]. Rows whose best class
// score is above threshold are returned in network input coordinates.
func YoloBoxes(data []float32, rows, cols int, threshold float32) ([]image.Rectangle, []float32, []int) {
	var boxes []image.Rectangle
	var confidences []float32
	var classIds []int

	if cols <= 4 {
		return nil, nil, nil
	}
	for i := 0; i < rows && (i+1)*cols <= len(data); i++ {
		row := data[i*cols : (i+1)*cols]
		classId, confidence := ArgMax(row[4:])
		if confidence <= threshold {
			continue
		}
		centerX, centerY := row[0], row[1]
		width, height := row[2], row[3]

		left := centerX - width/2
		top := centerY - height/2
		right := centerX + width/2
		bottom := centerY + height/2

		boxes = append(boxes, image.Rect(int(left), int(top), int(right), int(bottom)))
		confidences = append(confidences, confidence)
		classIds = append(classIds, classId)
	}
	return boxes, confidences, classIds
}

// ArgMax returns the index and value of the largest score, or -1 for an empty slice.
func ArgMax(scores []float32) (int, float32) {
	if len(scores) == 0 {
		return -1, 0
	}
	idx, max := 0, scores[0]
	for i, v := range scores[1:] {
		if v > max {
			idx, max = i+1, v
		}
	}
	return idx, max
}
