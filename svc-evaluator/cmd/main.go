package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/etesami/face-attribute-eval/pkg/config"
	metric "github.com/etesami/face-attribute-eval/pkg/metric"
	"github.com/etesami/face-attribute-eval/pkg/oracle"
	utils "github.com/etesami/face-attribute-eval/pkg/utils"
	"github.com/etesami/face-attribute-eval/pkg/vision"
	"github.com/etesami/face-attribute-eval/svc-evaluator/internal"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var opts struct {
	modelConfig string
	oracleHost  string
	oraclePort  string
	timeout     time.Duration
	jsonOutput  bool
	verbose     bool
	metricAddr  string
}

var rootCmd = &cobra.Command{
	Use:          "evaluator <image-dir>",
	Short:        "Measure age and gender accuracy over a folder of <gender>_<age>.jpg images",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.modelConfig, "models", os.Getenv("MODEL_CONFIG"), "YAML file with model paths (local oracle)")
	f.StringVar(&opts.oracleHost, "oracle-host", os.Getenv("REMOTE_DETECTOR_HOST"), "host of a remote detector service; empty runs the models in-process")
	f.StringVar(&opts.oraclePort, "oracle-port", os.Getenv("REMOTE_DETECTOR_PORT"), "port of the remote detector service")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout of a single remote prediction")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the result as JSON")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every sample")
	f.StringVar(&opts.metricAddr, "metrics", os.Getenv("METRIC_ADDR"), "serve /metrics on this address while evaluating (e.g. :9090)")
}

func newPredictor() (internal.Predictor, func(), error) {
	if opts.oracleHost != "" {
		svc := api.Service{Address: opts.oracleHost, Port: opts.oraclePort}
		if err := svc.ServiceReachable(); err != nil {
			return nil, nil, fmt.Errorf("detector service [%s] is not reachable: %w", svc.Target(), err)
		}
		conn, err := oracle.Dial(svc)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using remote detector at [%s]", svc.Target())
		p := oracle.NewRemotePredictor(conn)
		p.Timeout = opts.timeout
		return p, func() { conn.Close() }, nil
	}

	models, err := config.Load(opts.modelConfig)
	if err != nil {
		return nil, nil, err
	}
	model, err := vision.NewModel(models)
	if err != nil {
		return nil, nil, err
	}
	return model, model.Close, nil
}

func run(cmd *cobra.Command, args []string) error {
	m := &metric.Metric{}
	m.RegisterMetrics(nil, utils.ParseBuckets(os.Getenv("PROC_TIME_BUCKETS")))

	if opts.metricAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("Starting metrics server on %s\n", opts.metricAddr)
			if err := http.ListenAndServe(opts.metricAddr, mux); err != nil {
				log.Printf("ListenAndServe(): %v", err)
			}
		}()
	}

	predictor, closeFn, err := newPredictor()
	if err != nil {
		return err
	}
	defer closeFn()

	e := &internal.Evaluator{
		Predictor: predictor,
		Observer:  &internal.MetricObserver{Metric: m},
		Verbose:   opts.verbose,
	}
	st := time.Now()
	result, err := e.Evaluate(args[0])
	if err != nil {
		return err
	}
	internal.RecordAccuracy(m, result)
	log.Printf("Evaluated [%d] samples in [%.2f]ms", result.Total, utils.ElapsedMs(st))

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		return result.WriteJSON(out)
	}
	return result.WriteText(out)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
