package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	mt "github.com/etesami/face-attribute-eval/pkg/metric"
	"github.com/etesami/face-attribute-eval/pkg/utils"
	"github.com/etesami/face-attribute-eval/pkg/vision"

	"gocv.io/x/gocv"
)

const (
	keyEsc   = 27
	keySpace = 32
)

var errStop = errors.New("stopped by user")

// Annotator draws face, gender and age labels onto images and video frames
type Annotator struct {
	Model  *vision.Model
	Metric *mt.Metric
	// Output is a file to write to instead of showing a window
	Output string
	// FrameRate of the written video when the source does not report one
	FrameRate float64
}

// AnnotateImage annotates a single image file.
func (a *Annotator) AnnotateImage(path string) error {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("%w: %s", vision.ErrNoImage, path)
	}

	preds, err := a.Model.Annotate(&img)
	if err != nil {
		return err
	}
	if len(preds) == 0 {
		log.Printf("No face detected in [%s]", path)
	}
	for _, p := range preds {
		log.Printf("Image [%s]: [%s]", path, p.Label())
	}

	if a.Output != "" {
		if ok := gocv.IMWrite(a.Output, img); !ok {
			return fmt.Errorf("failed to write image to %s", a.Output)
		}
		log.Printf("Annotated image written to [%s]", a.Output)
		return nil
	}

	window := gocv.NewWindow("Age and gender")
	defer window.Close()
	window.IMShow(img)
	window.WaitKey(0)
	return nil
}

func openSource(source string) (*gocv.VideoCapture, error) {
	if id, err := strconv.Atoi(source); err == nil {
		return gocv.OpenVideoCapture(id)
	}
	return gocv.OpenVideoCapture(source)
}

// AnnotateStream annotates a webcam (numeric source) or a video file until
// the source ends, ESC/space is pressed or ctx is cancelled.
func (a *Annotator) AnnotateStream(ctx context.Context, source string) error {
	capture, err := openSource(source)
	if err != nil {
		return fmt.Errorf("error opening video source: %w", err)
	}
	defer capture.Close()
	log.Printf("Opened video source: %s\n", source)

	img := gocv.NewMat()
	defer img.Close()

	var sink func(gocv.Mat) error
	if a.Output != "" {
		var writer *gocv.VideoWriter
		defer func() {
			if writer != nil {
				writer.Close()
			}
		}()
		sink = func(frame gocv.Mat) error {
			if writer == nil {
				fps := capture.Get(gocv.VideoCaptureFPS)
				if fps <= 0 {
					fps = a.FrameRate
				}
				w, err := gocv.VideoWriterFile(a.Output, "MJPG", fps, frame.Cols(), frame.Rows(), true)
				if err != nil {
					return fmt.Errorf("error opening video writer: %w", err)
				}
				writer = w
			}
			return writer.Write(frame)
		}
	} else {
		window := gocv.NewWindow("Age and gender")
		defer window.Close()
		sink = func(frame gocv.Mat) error {
			window.IMShow(frame)
			if key := window.WaitKey(1); key == keyEsc || key == keySpace {
				return errStop
			}
			return nil
		}
	}

	for frameId := 0; ; frameId++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if ok := capture.Read(&img); !ok || img.Empty() {
			a.Metric.AddFrameCount("empty", 1)
			log.Printf("Video source ended after [%d] frames", frameId)
			return nil
		}
		a.Metric.AddFrameCount("all", 1)

		st := time.Now()
		preds, err := a.Model.Annotate(&img)
		if err != nil {
			log.Printf("Error annotating frame [%d]: %v", frameId, err)
			a.Metric.AddFrameCount("skipped", 1)
		} else {
			a.Metric.AddFrameCount("processed", 1)
			a.Metric.AddProcessingTime("annotator", utils.ElapsedMs(st))
			if len(preds) > 0 && frameId%30 == 0 {
				log.Printf("Frame [%d]: [%d] faces, first [%s]", frameId, len(preds), preds[0].Label())
			}
		}

		if err := sink(img); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
}
