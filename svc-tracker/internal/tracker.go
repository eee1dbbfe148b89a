package internal

import (
	"context"
	"fmt"
	"image"
	"log"
	"strconv"
	"time"

	mt "github.com/etesami/face-attribute-eval/pkg/metric"
	"github.com/etesami/face-attribute-eval/pkg/utils"
	"github.com/etesami/face-attribute-eval/pkg/vision"

	"gocv.io/x/gocv"
)

const (
	keyEsc         = 27
	maxEmptyFrames = 10
)

// Config holds the configuration parameters
type Config struct {
	// file path, stream URL or camera index
	VideoSource        string
	DetectionFrequency int
	IouThreshold       float64
	ShowWindow         bool
	MaxTotalFrames     int
}

type Tracker struct {
	Config   *Config
	Detector *Detector
	Metric   *mt.Metric

	trackers    *TrackerClient
	frameCount  int
	emptyFrames int
}

func openSource(source string) (*gocv.VideoCapture, error) {
	if id, err := strconv.Atoi(source); err == nil {
		return gocv.OpenVideoCapture(id)
	}
	return gocv.OpenVideoCapture(source)
}

// Run reads frames until the source ends, ESC is pressed or ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	capture, err := openSource(t.Config.VideoSource)
	if err != nil {
		return fmt.Errorf("error opening video source: %w", err)
	}
	defer capture.Close()
	log.Printf("Opened video source: %s\n", t.Config.VideoSource)

	t.trackers = NewTrackerClient(t.Config.VideoSource)
	defer t.trackers.Close()

	var window *gocv.Window
	if t.Config.ShowWindow {
		window = gocv.NewWindow("Tracking")
		defer window.Close()
	}

	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping video processing")
			return nil
		default:
		}

		if ok := capture.Read(&img); !ok || img.Empty() {
			t.emptyFrames++
			t.Metric.AddFrameCount("empty", 1)
			if t.emptyFrames > maxEmptyFrames {
				log.Println("Too many empty frames, stopping video input")
				return nil
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		t.emptyFrames = 0

		t.processFrame(&img)

		if window != nil {
			window.IMShow(img)
			if window.WaitKey(1) == keyEsc {
				return nil
			}
		}
		if t.Config.MaxTotalFrames > 0 && t.frameCount >= t.Config.MaxTotalFrames {
			log.Printf("Reached [%d] frames, stopping", t.frameCount)
			return nil
		}
	}
}

func (t *Tracker) processFrame(img *gocv.Mat) {
	st := time.Now()
	t.frameCount++
	t.Metric.AddFrameCount("all", 1)

	if lost := t.trackers.UpdateAll(*img); lost > 0 {
		log.Printf("Source [%s] frame [%d]: lost [%d] objects", t.trackers.Source(), t.frameCount, lost)
	}

	if t.isDetectionFrame() {
		t.detect(*img)
	}

	tracked := t.trackers.Boxes()
	rects := make([]image.Rectangle, len(tracked))
	labels := make([]string, len(tracked))
	for i, b := range tracked {
		rects[i] = b.Rect
		labels[i] = fmt.Sprintf("#%d %s", b.Id, b.Label)
	}
	vision.DrawBoxes(img, rects, labels)

	t.Metric.AddFrameCount("processed", 1)
	t.Metric.AddProcessingTime("tracker", utils.ElapsedMs(st))
}

func (t *Tracker) isDetectionFrame() bool {
	freq := t.Config.DetectionFrequency
	if freq <= 1 {
		return true
	}
	// frameCount starts at 1, the first frame is always a detection frame
	return (t.frameCount-1)%freq == 0
}

// detect starts a tracker for every detection that no existing tracker covers
func (t *Tracker) detect(img gocv.Mat) {
	detected, names := t.Detector.Detect(img)

	tracked := t.trackers.Boxes()
	current := make([]image.Rectangle, len(tracked))
	for i, b := range tracked {
		current[i] = b.Rect
	}

	fresh := utils.UnmatchedBoxes(current, detected, t.Config.IouThreshold)
	for _, rect := range fresh {
		label := ""
		for i, d := range detected {
			if d == rect {
				label = names[i]
				break
			}
		}
		ti := NewTrackerInstance(rect, label)
		if !ti.InitTracker(img) {
			ti.deleteInstance()
			continue
		}
		t.trackers.AddInstance(ti)
	}
	log.Printf("Source [%s] frame [%d]: detected [%d] objects, [%d] new, tracking [%d]",
		t.trackers.Source(), t.frameCount, len(detected), len(fresh), len(tracked)+len(fresh))
}
