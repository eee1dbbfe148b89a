package internal

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/etesami/face-attribute-eval/pkg/vision"

	"gocv.io/x/gocv"
)

// DtConfig controls how received images are kept for inspection
type DtConfig struct {
	SaveImage          bool
	SaveImagePath      string
	SaveImageFrequency int
}

// Detector serves oracle requests with the face/age/gender model and
// optionally writes every n-th annotated image to disk.
type Detector struct {
	Model    *vision.Model
	DtConfig *DtConfig

	received atomic.Int64
}

func (d *Detector) PredictImage(data []byte) (api.Prediction, error) {
	n := d.received.Add(1)
	if !d.shouldSave(n) {
		return d.Model.PredictImage(data)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return api.Prediction{}, fmt.Errorf("%w: frame [%d]: %v", vision.ErrNoImage, n, err)
	}
	defer img.Close()
	if img.Empty() {
		return api.Prediction{}, fmt.Errorf("%w: frame [%d]", vision.ErrNoImage, n)
	}

	pred, err := d.Model.PredictMat(img)
	if err != nil {
		return api.Prediction{}, err
	}
	if _, err := d.Model.Annotate(&img); err != nil {
		log.Printf("Error annotating frame [%d]: %v", n, err)
		return pred, nil
	}

	filename := filepath.Join(d.DtConfig.SaveImagePath, fmt.Sprintf("%d_detector.jpg", time.Now().UnixNano()))
	if ok := gocv.IMWrite(filename, img); !ok {
		log.Printf("Failed to write frame to file")
	} else {
		log.Printf("Frame [%d]: [%s], written to [%s]", n, pred.Label(), filename)
	}
	return pred, nil
}

func (d *Detector) shouldSave(n int64) bool {
	c := d.DtConfig
	return c != nil && c.SaveImage && c.SaveImageFrequency > 0 && n%int64(c.SaveImageFrequency) == 0
}

// IsBadImage reports errors caused by undecodable input.
func IsBadImage(err error) bool {
	return errors.Is(err, vision.ErrNoImage)
}
