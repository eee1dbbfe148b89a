package oracle

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/etesami/face-attribute-eval/pkg/metric"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrBadImage can be wrapped by ImagePredictor implementations to mark
// input errors, which are reported as InvalidArgument.
var ErrBadImage = errors.New("bad image")

type Server struct {
	Predictor ImagePredictor
	Metric    *metric.Metric
	// IsBadImage reports whether an error from Predictor is the caller's fault
	IsBadImage func(error) bool
}

// Predict handles incoming images from the evaluator or other clients
func (s *Server) Predict(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	st := time.Now()
	if len(in.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty image")
	}
	log.Printf("Received at [%s]: [%d] bytes\n", st.Format("2006-01-02 15:04:05"), len(in.GetValue()))

	p, err := s.Predictor.PredictImage(in.GetValue())
	if err != nil {
		if errors.Is(err, ErrBadImage) || (s.IsBadImage != nil && s.IsBadImage(err)) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		log.Printf("Prediction error: %v", err)
		return nil, status.Error(codes.Internal, "prediction failed")
	}

	if s.Metric != nil {
		s.Metric.AddProcessingTime("oracle", float64(time.Since(st).Microseconds())/1000.0)
	}
	return encodePrediction(p)
}
