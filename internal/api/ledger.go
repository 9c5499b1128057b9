package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// LedgerServiceName is the fully qualified gRPC service name.
const LedgerServiceName = "mediaproof.ledger.v1.Ledger"

// Fully qualified method names, in the "service.Method" form.
const (
	GetLatestBlockhashMethod  = LedgerServiceName + ".GetLatestBlockhash"
	SendTransactionMethod     = LedgerServiceName + ".SendTransaction"
	SimulateTransactionMethod = LedgerServiceName + ".SimulateTransaction"
	GetTransactionMethod      = LedgerServiceName + ".GetTransaction"
	GetTransactionsMethod     = LedgerServiceName + ".GetTransactions"
	GetAccountMethod          = LedgerServiceName + ".GetAccount"
)

// LedgerServer is implemented by the gRPC transport.
type LedgerServer interface {
	// GetLatestBlockhash returns {"blockhash", "slot"}.
	GetLatestBlockhash(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// SendTransaction takes a serialized signed transaction and returns its signature.
	SendTransaction(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	// SimulateTransaction returns a Simulation.
	SimulateTransaction(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	// GetTransaction returns a models.Transaction by signature.
	GetTransaction(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetTransactions takes {"from", "to"} and returns {"transactions": [...]}.
	GetTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetAccount returns an Account by address.
	GetAccount(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterLedgerServer registers srv under LedgerServiceDesc.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerServiceDesc is the grpc.ServiceDesc for the ledger service.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetLatestBlockhash", Handler: unaryHandler("GetLatestBlockhash", LedgerServer.GetLatestBlockhash)},
		{MethodName: "SendTransaction", Handler: unaryHandler("SendTransaction", LedgerServer.SendTransaction)},
		{MethodName: "SimulateTransaction", Handler: unaryHandler("SimulateTransaction", LedgerServer.SimulateTransaction)},
		{MethodName: "GetTransaction", Handler: unaryHandler("GetTransaction", LedgerServer.GetTransaction)},
		{MethodName: "GetTransactions", Handler: unaryHandler("GetTransactions", LedgerServer.GetTransactions)},
		{MethodName: "GetAccount", Handler: unaryHandler("GetAccount", LedgerServer.GetAccount)},
	},
	Streams:  []grpc.StreamDesc{},
}

// unaryHandler adapts a LedgerServer method expression to a grpc.MethodHandler.
func unaryHandler[Req any, PReq interface {
	*Req
}, Resp any](name string, call func(LedgerServer, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LedgerServiceName + "/" + name}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
