package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/etesami/face-attribute-eval/pkg/config"
	metric "github.com/etesami/face-attribute-eval/pkg/metric"
	"github.com/etesami/face-attribute-eval/pkg/vision"
	"github.com/etesami/face-attribute-eval/svc-annotator/internal"

	"github.com/spf13/cobra"
)

var opts struct {
	modelConfig string
	output      string
	frameRate   float64
}

var annotator *internal.Annotator

var rootCmd = &cobra.Command{
	Use:          "annotator",
	Short:        "Draw face, gender and age labels on webcam, video or image input",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		models, err := config.Load(opts.modelConfig)
		if err != nil {
			return err
		}
		model, err := vision.NewModel(models)
		if err != nil {
			return err
		}
		m := &metric.Metric{}
		m.RegisterMetrics(nil, nil)
		annotator = &internal.Annotator{
			Model:     model,
			Metric:    m,
			Output:    opts.output,
			FrameRate: opts.frameRate,
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if annotator != nil {
			annotator.Model.Close()
		}
	},
}

var webcamCmd = &cobra.Command{
	Use:   "webcam [device]",
	Short: "Annotate the webcam stream (ESC or space to quit)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device := "0"
		if len(args) == 1 {
			device = args[0]
		}
		return stream(device)
	},
}

var videoCmd = &cobra.Command{
	Use:   "video <file>",
	Short: "Annotate a video file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stream(args[0])
	},
}

var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Annotate a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return annotator.AnnotateImage(args[0])
	},
}

func stream(source string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return annotator.AnnotateStream(ctx, source)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.modelConfig, "models", os.Getenv("MODEL_CONFIG"), "YAML file with model paths")
	pf.StringVarP(&opts.output, "output", "o", "", "write the annotated image/video to this file instead of showing a window")
	pf.Float64Var(&opts.frameRate, "fps", 25, "frame rate of the written video when the source has none")

	rootCmd.AddCommand(webcamCmd, videoCmd, imageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("annotator: %v", err)
		os.Exit(1)
	}
}
