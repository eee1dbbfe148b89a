// Package oracle exposes a face/age/gender predictor over gRPC.
//
// The service has a single unary method, faceattr.Oracle/Predict. The
// request is the encoded image wrapped in a BytesValue; the response is a
// Struct with the fields "detected", "gender", "age_low" and "age_high".
package oracle

import (
	"context"
	"fmt"
	"math"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/etesami/face-attribute-eval/pkg/boxes"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName   = "faceattr.Oracle"
	predictMethod = "/" + serviceName + "/Predict"
)

// ImagePredictor classifies an encoded image.
type ImagePredictor interface {
	PredictImage(data []byte) (api.Prediction, error)
}

// OracleServer is the server side of faceattr.Oracle.
type OracleServer interface {
	Predict(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OracleServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: predictMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OracleServer).Predict(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OracleServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Predict",
			Handler:    predictHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "faceattr/oracle",
}

func RegisterOracleServer(s grpc.ServiceRegistrar, srv OracleServer) {
	s.RegisterService(&serviceDesc, srv)
}

func encodePrediction(p api.Prediction) (*structpb.Struct, error) {
	fields := map[string]any{"detected": p.Detected()}
	if p.Detected() {
		fields["gender"] = string(p.Gender)
		fields["age_low"] = p.Age.Low
		fields["age_high"] = p.Age.High
	}
	return structpb.NewStruct(fields)
}

func decodePrediction(s *structpb.Struct) (api.Prediction, error) {
	f := s.GetFields()
	if !f["detected"].GetBoolValue() {
		return api.Prediction{}, nil
	}
	gender, err := api.ParseGender(f["gender"].GetStringValue())
	if err != nil {
		return api.Prediction{}, fmt.Errorf("invalid oracle response: %w", err)
	}
	low, err := ageField(f, "age_low")
	if err != nil {
		return api.Prediction{}, err
	}
	high, err := ageField(f, "age_high")
	if err != nil {
		return api.Prediction{}, err
	}
	age, err := boxes.NewAgeRange(low, high)
	if err != nil {
		return api.Prediction{}, fmt.Errorf("invalid oracle response: %w", err)
	}
	return api.Prediction{Gender: gender, Age: &age}, nil
}

// ageField reads a whole, non-negative number that fits an int32.
func ageField(f map[string]*structpb.Value, name string) (int, error) {
	n, ok := f[name].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("invalid oracle response: missing %s", name)
	}
	v := n.NumberValue
	if math.IsNaN(v) || v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return 0, fmt.Errorf("invalid oracle response: %s %v", name, v)
	}
	return int(v), nil
}
