package utils

import (
	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/api"
	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SendTransactionWithRetry submits a serialized transaction and returns its signature.
func SendTransactionWithRetry(gRPCClient *client.GRPCClient, raw []byte, maxRetries uint) (solana.Signature, error) {
	var reply wrapperspb.StringValue
	if err := InvokeWithRetry(gRPCClient, api.SendTransactionMethod, maxRetries, wrapperspb.Bytes(raw), &reply); err != nil {
		return solana.Signature{}, err
	}
	sig, err := solana.SignatureFromBase58(reply.GetValue())
	if err != nil {
		return solana.Signature{}, errors.WithMessage(err, "error parsing signature")
	}
	return sig, nil
}

// SimulateTransactionWithRetry executes a transaction without persisting it.
func SimulateTransactionWithRetry(gRPCClient *client.GRPCClient, raw []byte, maxRetries uint) (*api.Simulation, error) {
	var reply structpb.Struct
	if err := InvokeWithRetry(gRPCClient, api.SimulateTransactionMethod, maxRetries, wrapperspb.Bytes(raw), &reply); err != nil {
		return nil, err
	}
	var sim api.Simulation
	if err := api.FromStruct(&reply, &sim); err != nil {
		return nil, err
	}
	return &sim, nil
}

// GetTransactionWithRetry fetches a recorded transaction by signature.
func GetTransactionWithRetry(gRPCClient *client.GRPCClient, signature string, maxRetries uint) (*models.Transaction, error) {
	var reply structpb.Struct
	if err := InvokeWithRetry(gRPCClient, api.GetTransactionMethod, maxRetries, wrapperspb.String(signature), &reply); err != nil {
		return nil, err
	}
	var tx models.Transaction
	if err := api.FromStruct(&reply, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactionsWithRetry fetches the transactions recorded in slots [from, to].
func GetTransactionsWithRetry(gRPCClient *client.GRPCClient, from, to uint64, maxRetries uint) ([]*models.Transaction, error) {
	req, err := api.ToStruct(api.SlotRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	var reply structpb.Struct
	if err := InvokeWithRetry(gRPCClient, api.GetTransactionsMethod, maxRetries, req, &reply); err != nil {
		return nil, err
	}
	var list api.TransactionList
	if err := api.FromStruct(&reply, &list); err != nil {
		return nil, err
	}
	return list.Transactions, nil
}

// GetAccountWithRetry fetches an account and its decoded state.
func GetAccountWithRetry(gRPCClient *client.GRPCClient, address string, maxRetries uint) (*api.Account, error) {
	var reply structpb.Struct
	if err := InvokeWithRetry(gRPCClient, api.GetAccountMethod, maxRetries, wrapperspb.String(address), &reply); err != nil {
		return nil, err
	}
	var acct api.Account
	if err := api.FromStruct(&reply, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}
