package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	metric "github.com/etesami/face-attribute-eval/pkg/metric"
	utils "github.com/etesami/face-attribute-eval/pkg/utils"

	"github.com/etesami/face-attribute-eval/svc-tracker/internal"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {

	// Setup the metric service for tracking frame counts and processing times
	procTimeBuckets := utils.ParseBuckets(os.Getenv("PROC_TIME_BUCKETS"))
	m := &metric.Metric{}
	m.RegisterMetrics(nil, procTimeBuckets)

	videoSource := os.Getenv("VIDEO_SOURCE")
	if videoSource == "" {
		panic("VIDEO_SOURCE environment variable is not set")
	}

	iou, err := strconv.ParseFloat(utils.GetEnv("IOU_THRESHOLD", "0.3"), 64)
	if err != nil {
		log.Fatalf("Invalid IOU_THRESHOLD: %v", err)
	}

	detector, err := internal.NewDetector(&internal.DtConfig{
		Model:       os.Getenv("YOLO_MODEL"),
		ClassesFile: os.Getenv("CLASSES_FILE"),
		ImageWidth:  utils.GetEnvInt("IMAGE_WIDTH", 640),
		ImageHeight: utils.GetEnvInt("IMAGE_HEIGHT", 640),
	})
	if err != nil {
		log.Fatalf("Failed to load detector: %v", err)
	}
	defer detector.Close()

	t := &internal.Tracker{
		Config: &internal.Config{
			VideoSource:        videoSource,
			DetectionFrequency: utils.GetEnvInt("DETECTION_FREQUENCY", 10),
			IouThreshold:       iou,
			ShowWindow:         os.Getenv("SHOW_WINDOW") != "false",
			MaxTotalFrames:     utils.GetEnvInt("MAX_TOTAL_FRAMES", 0),
		},
		Detector: detector,
		Metric:   m,
	}

	metricAddr := os.Getenv("METRIC_ADDR")
	metricPort := utils.GetEnv("METRIC_PORT", "9091")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", metricAddr, metricPort),
		Handler: mux,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting metrics server on %s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// Create a context that will be cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// gocv windows must be driven from the main goroutine
	if err := t.Run(ctx); err != nil {
		log.Printf("Tracking stopped: %v", err)
	}

	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("Error shutting down server: %v\n", err)
	}
	log.Printf("Tracker shut down gracefully\n")
}
