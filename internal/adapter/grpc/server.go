package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/logger"
	"github.com/simaogato/fintrack-backend/internal/usecase/dashboard"
	"github.com/simaogato/fintrack-backend/internal/usecase/investment"
	"github.com/simaogato/fintrack-backend/internal/usecase/ledger"
)

// Server implements the LedgerService gRPC server
type Server struct {
	LedgerService     *ledger.LedgerService
	InvestmentService *investment.InvestmentService
	DashboardService  *dashboard.DashboardService
}

// NewServer creates a new gRPC server instance
func NewServer(
	ledgerService *ledger.LedgerService,
	investmentService *investment.InvestmentService,
	dashboardService *dashboard.DashboardService,
) *Server {
	return &Server{
		LedgerService:     ledgerService,
		InvestmentService: investmentService,
		DashboardService:  dashboardService,
	}
}

var _ LedgerServiceServer = (*Server)(nil)

func userFrom(ctx context.Context) (string, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing user")
	}
	return userID, nil
}

func reply(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func deleted() (*structpb.Struct, error) {
	return reply(map[string]any{"deleted": true})
}

// CreateItem handles the CreateItem RPC
func (s *Server) CreateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	draft, err := decodeItem(fieldsOf(req))
	if err != nil {
		return nil, mapError(ctx, err)
	}
	item, err := s.LedgerService.CreateItem(ctx, draft, userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeItem(item))
}

// UpdateItem handles the UpdateItem RPC
func (s *Server) UpdateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	item, err := decodeItem(fieldsOf(req))
	if err != nil {
		return nil, mapError(ctx, err)
	}
	updated, err := s.LedgerService.UpdateItem(ctx, item, userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeItem(updated))
}

// DeleteItem handles the DeleteItem RPC
func (s *Server) DeleteItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.LedgerService.DeleteItem(ctx, fieldsOf(req).str("_id"), userID); err != nil {
		return nil, mapError(ctx, err)
	}
	return deleted()
}

// GetItem handles the GetItem RPC
func (s *Server) GetItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.LedgerService.GetItem(ctx, fieldsOf(req).str("_id"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeItem(item))
}

// ListItems handles the ListItems RPC
func (s *Server) ListItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := decodeFilter(fieldsOf(req))
	if err != nil {
		return nil, mapError(ctx, err)
	}
	items, err := s.LedgerService.ListItems(ctx, userID, filter)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(map[string]any{"items": encodeList(items, encodeItem)})
}

// ArchiveItem handles the ArchiveItem RPC
func (s *Server) ArchiveItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.LedgerService.ArchiveItem(ctx, fieldsOf(req).str("_id"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeItem(item))
}

// UnarchiveItem handles the UnarchiveItem RPC
func (s *Server) UnarchiveItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.LedgerService.UnarchiveItem(ctx, fieldsOf(req).str("_id"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeItem(item))
}

// UpdateAccountBalance handles the UpdateAccountBalance RPC
func (s *Server) UpdateAccountBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	f := fieldsOf(req)
	newBalance, err := f.requiredDecimal("newBalance")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	item, err := s.LedgerService.UpdateAccountBalance(ctx, ledger.UpdateAccountBalanceInput{
		ItemID:     f.str("itemId"),
		NewBalance: newBalance,
		Note:       f.text("note"),
	}, userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeItem(item))
}

// CreateTransaction handles the CreateTransaction RPC
func (s *Server) CreateTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	f := fieldsOf(req)
	amount, err := f.requiredDecimal("amount")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	tx, err := s.LedgerService.CreateTransaction(ctx, ledger.CreateTransactionInput{
		ItemID: f.str("itemId"),
		Amount: amount,
		Note:   f.text("note"),
	}, userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeTransaction(tx))
}

// GetTransactions handles the GetTransactions RPC
func (s *Server) GetTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.LedgerService.GetTransactions(ctx, fieldsOf(req).str("itemId"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(map[string]any{"transactions": encodeList(txs, encodeTransaction)})
}

// DeleteTransaction handles the DeleteTransaction RPC
func (s *Server) DeleteTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.LedgerService.DeleteTransaction(ctx, fieldsOf(req).str("_id"), userID); err != nil {
		return nil, mapError(ctx, err)
	}
	return deleted()
}

// GetDebtPaymentStatus handles the GetDebtPaymentStatus RPC
func (s *Server) GetDebtPaymentStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.DashboardService.GetDebtPaymentStatus(ctx, fieldsOf(req).str("itemId"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeDebtStatus(st))
}

// CreateDebtPayment handles the CreateDebtPayment RPC
func (s *Server) CreateDebtPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	f := fieldsOf(req)
	amount, err := f.requiredDecimal("amount")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	tx, err := s.LedgerService.CreateDebtPayment(ctx, ledger.CreateDebtPaymentInput{
		DebtID: f.str("itemId"),
		Amount: amount,
		Note:   f.text("note"),
	}, userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeTransaction(tx))
}

// AddInvestmentValueUpdate handles the AddInvestmentValueUpdate RPC
func (s *Server) AddInvestmentValueUpdate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	f := fieldsOf(req)
	value, err := f.requiredDecimal("value")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	date, err := f.date("date")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	update, err := s.InvestmentService.AddInvestmentValueUpdate(ctx, investment.AddValueUpdateInput{
		InvestmentID: f.str("investmentId"),
		Value:        value,
		Note:         f.text("note"),
		Date:         date,
	}, userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodeValueUpdate(update))
}

// GetInvestmentValueHistory handles the GetInvestmentValueHistory RPC
func (s *Server) GetInvestmentValueHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	updates, err := s.InvestmentService.GetInvestmentValueHistory(ctx, fieldsOf(req).str("investmentId"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(map[string]any{"updates": encodeList(updates, encodeValueUpdate)})
}

// DeleteInvestmentValueUpdate handles the DeleteInvestmentValueUpdate RPC
func (s *Server) DeleteInvestmentValueUpdate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.InvestmentService.DeleteInvestmentValueUpdate(ctx, fieldsOf(req).str("_id"), userID); err != nil {
		return nil, mapError(ctx, err)
	}
	return deleted()
}

// GetInvestmentPerformance handles the GetInvestmentPerformance RPC
func (s *Server) GetInvestmentPerformance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	perf, err := s.InvestmentService.GetInvestmentPerformance(ctx, fieldsOf(req).str("investmentId"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(encodePerformance(perf))
}

// GetCurrencySummaries handles the GetCurrencySummaries RPC
func (s *Server) GetCurrencySummaries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := s.DashboardService.GetCurrencySummaries(ctx, userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(map[string]any{"summaries": encodeList(summaries, encodeSummary)})
}

// GetCurrencyEvolutionData handles the GetCurrencyEvolutionData RPC
func (s *Server) GetCurrencyEvolutionData(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	points, err := s.DashboardService.GetCurrencyEvolutionData(ctx, fieldsOf(req).text("currency"), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return reply(map[string]any{"points": encodeList(points, encodeEvolutionPoint)})
}

// mapError converts domain errors to gRPC status errors.
// Ownership failures are reported as NotFound so ids of other users do not leak.
// Unclassified errors are logged and hidden behind a generic message.
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrMissingArgument), errors.Is(err, domain.ErrInvalidArgument):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		return status.Errorf(codes.AlreadyExists, "%s", err.Error())
	}

	logger.FromContext(ctx).Error("request failed", "kind", string(domain.KindOf(err)), "error", err)
	return status.Error(codes.Internal, "internal error")
}
