package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "fintrack.v1.LedgerService"

// LedgerServiceServer is the server API for the LedgerService service.
// Every method takes and returns a google.protobuf.Struct.
type LedgerServiceServer interface {
	CreateItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ArchiveItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UnarchiveItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateAccountBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDebtPaymentStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateDebtPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddInvestmentValueUpdate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInvestmentValueHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteInvestmentValueUpdate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInvestmentPerformance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCurrencySummaries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCurrencyEvolutionData(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// methodDesc adapts a server method to grpc's untyped handler signature
func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerServiceDesc describes the LedgerService for grpc.ServiceRegistrar
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("CreateItem", LedgerServiceServer.CreateItem),
		methodDesc("UpdateItem", LedgerServiceServer.UpdateItem),
		methodDesc("DeleteItem", LedgerServiceServer.DeleteItem),
		methodDesc("GetItem", LedgerServiceServer.GetItem),
		methodDesc("ListItems", LedgerServiceServer.ListItems),
		methodDesc("ArchiveItem", LedgerServiceServer.ArchiveItem),
		methodDesc("UnarchiveItem", LedgerServiceServer.UnarchiveItem),
		methodDesc("UpdateAccountBalance", LedgerServiceServer.UpdateAccountBalance),
		methodDesc("CreateTransaction", LedgerServiceServer.CreateTransaction),
		methodDesc("GetTransactions", LedgerServiceServer.GetTransactions),
		methodDesc("DeleteTransaction", LedgerServiceServer.DeleteTransaction),
		methodDesc("GetDebtPaymentStatus", LedgerServiceServer.GetDebtPaymentStatus),
		methodDesc("CreateDebtPayment", LedgerServiceServer.CreateDebtPayment),
		methodDesc("AddInvestmentValueUpdate", LedgerServiceServer.AddInvestmentValueUpdate),
		methodDesc("GetInvestmentValueHistory", LedgerServiceServer.GetInvestmentValueHistory),
		methodDesc("DeleteInvestmentValueUpdate", LedgerServiceServer.DeleteInvestmentValueUpdate),
		methodDesc("GetInvestmentPerformance", LedgerServiceServer.GetInvestmentPerformance),
		methodDesc("GetCurrencySummaries", LedgerServiceServer.GetCurrencySummaries),
		methodDesc("GetCurrencyEvolutionData", LedgerServiceServer.GetCurrencyEvolutionData),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterLedgerServiceServer registers srv on s
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// Client calls LedgerService methods by name
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with a payload built from req
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
