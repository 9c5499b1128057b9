// Package grpcserver exposes the ledger over gRPC.
package grpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manifest-network/mediaproof/internal/api"
	"github.com/manifest-network/mediaproof/internal/ledger"
	"github.com/manifest-network/mediaproof/internal/utils"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ api.LedgerServer = (*Server)(nil)

// Server serves the Ledger gRPC service.
type Server struct {
	ledger *ledger.Ledger
}

// New returns a server backed by l.
func New(l *ledger.Ledger) *Server {
	return &Server{ledger: l}
}

// NewGRPCServer builds a grpc.Server with the ledger service registered.
func NewGRPCServer(l *ledger.Ledger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(logging, errorStatus)}, opts...)
	s := grpc.NewServer(opts...)
	api.RegisterLedgerServer(s, New(l))
	return s
}

// GetLatestBlockhash returns the blockhash and slot as a Blockhash struct.
func (s *Server) GetLatestBlockhash(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	hash, slot, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	return api.ToStruct(api.Blockhash{Blockhash: hash.String(), Slot: slot})
}

// SendTransaction submits a serialized transaction and returns its signature.
func (s *Server) SendTransaction(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	sig, err := s.ledger.SendTransaction(ctx, in.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(sig.String()), nil
}

// SimulateTransaction executes without persisting.
func (s *Server) SimulateTransaction(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	res, err := s.ledger.Simulate(ctx, in.GetValue())
	if err != nil {
		return nil, err
	}
	return api.ToStruct(SimulationFromLedger(res))
}

// GetTransaction returns a recorded transaction.
func (s *Server) GetTransaction(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	tx, err := s.ledger.Transaction(ctx, in.GetValue())
	if err != nil {
		return nil, err
	}
	return api.ToStruct(tx)
}

// GetTransactions returns the transactions of a SlotRange.
func (s *Server) GetTransactions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var r api.SlotRange
	if err := api.FromStruct(in, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidRange, err)
	}
	txs, err := s.ledger.Transactions(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}
	return api.ToStruct(api.TransactionList{Transactions: txs})
}

// GetAccount returns an account with its decoded state.
func (s *Server) GetAccount(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	info, err := s.ledger.Account(ctx, in.GetValue())
	if err != nil {
		return nil, err
	}
	acct, err := AccountFromLedger(info)
	if err != nil {
		return nil, err
	}
	return api.ToStruct(acct)
}

// SimulationFromLedger converts a ledger simulation to its wire form.
func SimulationFromLedger(res *ledger.SimulationResult) api.Simulation {
	return api.Simulation{
		Program:     res.Program,
		Instruction: res.Instruction,
		View:        res.View,
		Slot:        res.Slot,
		Logs:        res.Logs,
		Events:      res.Events,
		ReturnData:  res.ReturnData,
	}
}

// AccountFromLedger converts a ledger account to its wire form.
func AccountFromLedger(info *ledger.AccountInfo) (api.Account, error) {
	out := api.Account{Account: *info.Account, Program: info.Program, Type: info.Type}
	if info.State != nil {
		state, err := json.Marshal(info.State)
		if err != nil {
			return api.Account{}, fmt.Errorf("failed to marshal account state: %w", err)
		}
		out.State = state
	}
	return out, nil
}

func logging(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	method := info.FullMethod
	if _, name, perr := utils.ParseMethodFullName(trimPath(info.FullMethod)); perr == nil {
		method = name
	}
	attrs := []any{"method", method, "duration", time.Since(start)}
	if err != nil {
		slog.Warn("gRPC request failed", append(attrs, "error", err)...)
	} else {
		slog.Debug("gRPC request", attrs...)
	}
	return resp, err
}

func errorStatus(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		return nil, api.Status(err)
	}
	return resp, nil
}

// trimPath turns "/pkg.Service/Method" into "pkg.Service.Method".
func trimPath(fullMethod string) string {
	return strings.ReplaceAll(strings.TrimPrefix(fullMethod, "/"), "/", ".")
}
