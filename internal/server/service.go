// Package server exposes extraction over gRPC. Messages are
// google.protobuf.Struct values so no generated stubs are needed.
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "fiscal.v1.ExtractionService"

// ExtractionServer is the server API for fiscal.v1.ExtractionService.
type ExtractionServer interface {
	ExtractDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListImports(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Summarize(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ExtractionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		})
	}
}

var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractDocument", Handler: unaryHandler("ExtractDocument", ExtractionServer.ExtractDocument)},
		{MethodName: "ImportFile", Handler: unaryHandler("ImportFile", ExtractionServer.ImportFile)},
		{MethodName: "ListImports", Handler: unaryHandler("ListImports", ExtractionServer.ListImports)},
		{MethodName: "ListItems", Handler: unaryHandler("ListItems", ExtractionServer.ListItems)},
		{MethodName: "Summarize", Handler: unaryHandler("Summarize", ExtractionServer.Summarize)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fiscal/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

// ExtractionClient calls fiscal.v1.ExtractionService.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) ExtractDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ExtractDocument", in, opts...)
}

func (c *ExtractionClient) ImportFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ImportFile", in, opts...)
}

func (c *ExtractionClient) ListImports(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListImports", in, opts...)
}

func (c *ExtractionClient) ListItems(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListItems", in, opts...)
}

func (c *ExtractionClient) Summarize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Summarize", in, opts...)
}
