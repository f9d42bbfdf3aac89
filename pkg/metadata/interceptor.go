package metadata

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"assignment_service/pkg/ctxdata"
)

const (
	TraceIDHeader  = "x-trace-id"
	UserIDHeader   = "x-user-id"
	UserRoleHeader = "x-user-role"
)

// NewMetadataUnaryInterceptor copies the gateway identity headers into the
// request context.
func NewMetadataUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = FromMetadata(ctx, md)
		}
		return handler(ctx, req)
	}
}

func FromMetadata(ctx context.Context, md metadata.MD) context.Context {
	if values := md.Get(TraceIDHeader); len(values) > 0 {
		ctx = ctxdata.WithTraceID(ctx, values[0])
	}
	if values := md.Get(UserIDHeader); len(values) > 0 {
		ctx = ctxdata.WithUserID(ctx, values[0])
	}
	if values := md.Get(UserRoleHeader); len(values) > 0 {
		ctx = ctxdata.WithUserRole(ctx, values[0])
	}
	return ctx
}
