// Package grpcclient serves and consumes the classifier over gRPC.
//
// The service uses well-known protobuf types so no generated stubs are
// needed: the request is a BytesValue holding the encoded image and the
// response is a Struct with "label", "confidence" and "all_predictions".
package grpcclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/ewaste-check/internal/classifier"
	"github.com/example/ewaste-check/internal/logging"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "ewaste.v1.Classifier"
	// ClassifyMethod is the full method path of the unary Classify call.
	ClassifyMethod = "/" + ServiceName + "/Classify"

	dialTimeout = 5 * time.Second
)

// DialClassifier returns a ready-to-use remote classifier.
func DialClassifier(ctx context.Context, addr string, logger *zap.Logger, opts ...grpc.DialOption) (classifier.Classifier, *grpc.ClientConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}, opts...)

	conn, err := grpc.DialContext(dialCtx, addr, dialOpts...)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.dial_classifier", "", err)
		logger.Error("failed to dial classifier", zap.Error(wrapped), zap.String("addr", addr))
		return nil, nil, wrapped
	}
	return &remoteClassifier{conn: conn, logger: logger.Named("grpc_classifier")}, conn, nil
}

type remoteClassifier struct {
	conn   grpc.ClientConnInterface
	logger *zap.Logger
}

func (r *remoteClassifier) Classify(ctx context.Context, image []byte) (*classifier.Result, error) {
	resp := &structpb.Struct{}
	if err := r.conn.Invoke(ctx, ClassifyMethod, wrapperspb.Bytes(image), resp); err != nil {
		wrapped := logging.NewOperationError("grpcclient.classify", "", err)
		r.logger.Error("classifier call failed", zap.Error(wrapped))
		return nil, wrapped
	}

	result, err := decodeResult(resp)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func encodeResult(r *classifier.Result) (*structpb.Struct, error) {
	predictions := make(map[string]interface{}, len(r.Predictions))
	for label, p := range r.Predictions {
		predictions[label] = p
	}
	return structpb.NewStruct(map[string]interface{}{
		"label":           r.Label,
		"confidence":      r.Confidence,
		"all_predictions": predictions,
	})
}

func decodeResult(s *structpb.Struct) (*classifier.Result, error) {
	fields := s.GetFields()

	labelValue, ok := fields["label"]
	if !ok {
		return nil, fmt.Errorf("%w: missing label", classifier.ErrInvalidResult)
	}
	confidenceValue, ok := fields["confidence"]
	if !ok {
		return nil, fmt.Errorf("%w: missing confidence", classifier.ErrInvalidResult)
	}

	label := labelValue.GetStringValue()
	if label == "" {
		label = classifier.UnknownLabel
	}

	predictions := map[string]float64{}
	for name, v := range fields["all_predictions"].GetStructValue().GetFields() {
		predictions[name] = v.GetNumberValue()
	}

	return &classifier.Result{
		Label:       label,
		Confidence:  confidenceValue.GetNumberValue(),
		Predictions: predictions,
	}, nil
}
