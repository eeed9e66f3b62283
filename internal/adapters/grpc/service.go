package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlServiceName is the fully qualified gRPC service name
const ControlServiceName = "gatherbot.v1.Control"

const (
	methodStart   = "/" + ControlServiceName + "/Start"
	methodStop    = "/" + ControlServiceName + "/Stop"
	methodStatus  = "/" + ControlServiceName + "/Status"
	methodHistory = "/" + ControlServiceName + "/History"
	methodLogs    = "/" + ControlServiceName + "/Logs"
)

// ControlService is the daemon's control plane. Every call takes and returns a
// google.protobuf.Struct holding one of the JSON views in views.go.
type ControlService interface {
	Start(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Stop(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Status(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	History(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Logs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type controlCall func(ControlService, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary builds a method descriptor the way generated code does, interceptors included
func unary(name, fullMethod string, call controlCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ControlService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ControlService), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: ControlServiceName,
	HandlerType: (*ControlService)(nil),
	Methods: []grpc.MethodDesc{
		unary("Start", methodStart, ControlService.Start),
		unary("Stop", methodStop, ControlService.Stop),
		unary("Status", methodStatus, ControlService.Status),
		unary("History", methodHistory, ControlService.History),
		unary("Logs", methodLogs, ControlService.Logs),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gatherbot/v1/control.proto",
}

// RegisterControlService registers impl on s
func RegisterControlService(s grpc.ServiceRegistrar, impl ControlService) {
	s.RegisterService(&controlServiceDesc, impl)
}
