package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName: сервис управляющего пути. Сообщения передаются как
// google.protobuf.Struct с теми же полями, что и в HTTP API.
const ServiceName = "chat.v1.MessageService"

const (
	methodCreateMessage       = "/" + ServiceName + "/CreateMessage"
	methodCreateGroupMessage  = "/" + ServiceName + "/CreateGroupMessage"
	methodCreateCommonMessage = "/" + ServiceName + "/CreateCommonMessage"
)

type MessageServiceServer interface {
	CreateMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CreateGroupMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CreateCommonMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(s MessageServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MessageServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MessageServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var MessageServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateMessage",
			Handler:    unaryHandler(methodCreateMessage, MessageServiceServer.CreateMessage),
		},
		{
			MethodName: "CreateGroupMessage",
			Handler:    unaryHandler(methodCreateGroupMessage, MessageServiceServer.CreateGroupMessage),
		},
		{
			MethodName: "CreateCommonMessage",
			Handler:    unaryHandler(methodCreateCommonMessage, MessageServiceServer.CreateCommonMessage),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chat/v1/message.proto",
}

// MessageServiceClient: клиент того же сервиса (тесты, внутренние вызовы).
type MessageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageServiceClient(cc grpc.ClientConnInterface) *MessageServiceClient {
	return &MessageServiceClient{cc: cc}
}

func (c *MessageServiceClient) CreateMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCreateMessage, in, opts...)
}

func (c *MessageServiceClient) CreateGroupMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCreateGroupMessage, in, opts...)
}

func (c *MessageServiceClient) CreateCommonMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCreateCommonMessage, in, opts...)
}

func (c *MessageServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
