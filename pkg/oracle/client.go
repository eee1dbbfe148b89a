package oracle

import (
	"context"
	"fmt"
	"os"
	"time"

	api "github.com/etesami/face-attribute-eval/api"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RemotePredictor sends image files to a remote oracle. It satisfies the
// evaluator's Predictor interface. A zero Timeout leaves requests without
// a deadline.
type RemotePredictor struct {
	conn    grpc.ClientConnInterface
	Timeout time.Duration
}

func NewRemotePredictor(conn grpc.ClientConnInterface) *RemotePredictor {
	return &RemotePredictor{conn: conn, Timeout: 30 * time.Second}
}

// Dial connects to the oracle at svc without TLS.
func Dial(svc api.Service, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(svc.Target(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to oracle %s: %w", svc.Target(), err)
	}
	return conn, nil
}

func (r *RemotePredictor) PredictImage(data []byte) (api.Prediction, error) {
	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out := new(structpb.Struct)
	if err := r.conn.Invoke(ctx, predictMethod, wrapperspb.Bytes(data), out); err != nil {
		return api.Prediction{}, fmt.Errorf("oracle request failed: %w", err)
	}
	return decodePrediction(out)
}

func (r *RemotePredictor) Predict(path string) (api.Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Prediction{}, err
	}
	return r.PredictImage(data)
}
