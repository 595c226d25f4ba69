package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// FillService carries google.protobuf.Struct payloads so the service needs no
// generated message types.
const (
	FillServiceName        = "nutrifill.v1.FillService"
	fillServiceRunFillPass = "/nutrifill.v1.FillService/RunFillPass"
	fillServiceParseText   = "/nutrifill.v1.FillService/ParseText"
	fillServiceListPasses  = "/nutrifill.v1.FillService/ListPasses"
	fillServiceGetPass     = "/nutrifill.v1.FillService/GetPass"
)

type FillServiceServer interface {
	RunFillPass(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ParseText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPasses(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPass(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterFillServiceServer(s grpc.ServiceRegistrar, srv FillServiceServer) {
	s.RegisterService(&FillService_ServiceDesc, srv)
}

func unaryHandler(method string, call func(FillServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FillServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FillServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var FillService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: FillServiceName,
	HandlerType: (*FillServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunFillPass", Handler: unaryHandler(fillServiceRunFillPass, FillServiceServer.RunFillPass)},
		{MethodName: "ParseText", Handler: unaryHandler(fillServiceParseText, FillServiceServer.ParseText)},
		{MethodName: "ListPasses", Handler: unaryHandler(fillServiceListPasses, FillServiceServer.ListPasses)},
		{MethodName: "GetPass", Handler: unaryHandler(fillServiceGetPass, FillServiceServer.GetPass)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nutrifill/v1/fill.proto",
}

// FillServiceClient calls a remote FillService.
type FillServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFillServiceClient(cc grpc.ClientConnInterface) *FillServiceClient {
	return &FillServiceClient{cc: cc}
}

func (c *FillServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FillServiceClient) RunFillPass(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, fillServiceRunFillPass, in, opts...)
}

func (c *FillServiceClient) ParseText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, fillServiceParseText, in, opts...)
}

func (c *FillServiceClient) ListPasses(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, fillServiceListPasses, in, opts...)
}

func (c *FillServiceClient) GetPass(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, fillServiceGetPass, in, opts...)
}
