package grpcclient

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/ewaste-check/internal/classifier"
)

// RegisterClassifierServer exposes cls on s under ServiceName.
func RegisterClassifierServer(s grpc.ServiceRegistrar, cls classifier.Classifier, logger *zap.Logger) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*classifier.Classifier)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "Classify",
			Handler:    classifyHandler(logger.Named("grpc_classifier_server")),
		}},
		Streams: []grpc.StreamDesc{},
	}, cls)
}

func classifyHandler(logger *zap.Logger) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := &wrapperspb.BytesValue{}
		if err := dec(in); err != nil {
			return nil, err
		}

		handle := func(ctx context.Context, req interface{}) (interface{}, error) {
			image := req.(*wrapperspb.BytesValue).GetValue()
			if len(image) == 0 {
				return nil, status.Error(codes.InvalidArgument, "image is empty")
			}

			result, err := srv.(classifier.Classifier).Classify(ctx, image)
			if err != nil {
				logger.Error("classification failed", zap.Error(err))
				return nil, status.Error(codes.Internal, err.Error())
			}

			out, err := encodeResult(result)
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return out, nil
		}

		if interceptor == nil {
			return handle(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ClassifyMethod}
		return interceptor(ctx, in, info, handle)
	}
}
