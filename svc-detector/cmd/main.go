package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/etesami/face-attribute-eval/pkg/config"
	metric "github.com/etesami/face-attribute-eval/pkg/metric"
	"github.com/etesami/face-attribute-eval/pkg/oracle"
	utils "github.com/etesami/face-attribute-eval/pkg/utils"
	"github.com/etesami/face-attribute-eval/pkg/vision"

	"github.com/etesami/face-attribute-eval/svc-detector/internal"
	"google.golang.org/grpc"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {

	// Setup the metric service for tracking processing times of predictions
	procTimeBuckets := utils.ParseBuckets(os.Getenv("PROC_TIME_BUCKETS"))
	m := &metric.Metric{}
	m.RegisterMetrics(nil, procTimeBuckets)

	// Local service initialization (detector) to receive images
	svcHost := os.Getenv("SVC_DETECTOR_HOST")
	svcPort := os.Getenv("SVC_DETECTOR_PORT")
	if svcPort == "" || svcHost == "" {
		panic("SVC_DETECTOR_HOST or SVC_DETECTOR_PORT environment variable is not set")
	}
	localSvc := &api.Service{
		Address: svcHost,
		Port:    svcPort,
	}

	models, err := config.Load(os.Getenv("MODEL_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load model config: %v", err)
	}
	model, err := vision.NewModel(models)
	if err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}
	defer model.Close()

	// We listen on all interfaces
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", localSvc.Port))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	d := &internal.Detector{
		Model: model,
		DtConfig: &internal.DtConfig{
			SaveImage:          os.Getenv("SAVE_IMAGE") == "true",
			SaveImagePath:      os.Getenv("SAVE_IMAGE_PATH"),
			SaveImageFrequency: utils.GetEnvInt("SAVE_IMAGE_FREQUENCY", 0),
		},
	}
	s := &oracle.Server{
		Predictor:  d,
		Metric:     m,
		IsBadImage: internal.IsBadImage,
	}
	grpcServer := grpc.NewServer()
	oracle.RegisterOracleServer(grpcServer, s)

	go func() {
		log.Printf("starting gRPC server on port %s:%s\n", localSvc.Address, localSvc.Port)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	metricAddr := os.Getenv("METRIC_ADDR")
	metricPort := utils.GetEnv("METRIC_PORT", "9090")
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

	// Set up channel to listen for interrupt or terminate signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan // Wait for signal
	log.Printf("Received shutdown signal\n")
	grpcServer.GracefulStop() // Stop the gRPC server gracefully
	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("Error shutting down server: %v\n", err)
	}
	log.Printf("Server shut down gracefully\n")
}
