package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/api"
	"github.com/manifest-network/mediaproof/internal/ledger"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/transport/grpcserver"
)

// maxBodyBytes bounds request bodies. Serialized transactions are far smaller.
const maxBodyBytes = 1 << 20

// Ledger is the part of the ledger the HTTP API serves.
type Ledger interface {
	SlotReader
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	SendTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	Simulate(ctx context.Context, raw []byte) (*ledger.SimulationResult, error)
	Transaction(ctx context.Context, signature string) (*models.Transaction, error)
	Transactions(ctx context.Context, from, to uint64) ([]*models.Transaction, error)
	Account(ctx context.Context, address string) (*ledger.AccountInfo, error)
}

// transactionRequest carries a serialized transaction, base64 encoded.
type transactionRequest struct {
	Transaction string `json:"transaction"`
}

type signatureResponse struct {
	Signature string `json:"signature"`
}

// HandleBlockhash serves GET /blockhash.
func HandleBlockhash(l Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash, slot, err := l.LatestBlockhash(r.Context())
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, api.Blockhash{Blockhash: hash.String(), Slot: slot})
	}
}

// HandleSendTransaction serves POST /transactions.
func HandleSendTransaction(l Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := decodeTransaction(w, r)
		if !ok {
			return
		}
		sig, err := l.SendTransaction(r.Context(), raw)
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, signatureResponse{Signature: sig.String()})
	}
}

// HandleSimulate serves POST /simulate.
func HandleSimulate(l Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := decodeTransaction(w, r)
		if !ok {
			return
		}
		res, err := l.Simulate(r.Context(), raw)
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, grpcserver.SimulationFromLedger(res))
	}
}

// HandleGetTransaction serves GET /transactions/{signature}.
func HandleGetTransaction(l Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := l.Transaction(r.Context(), r.PathValue("signature"))
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

// HandleListTransactions serves GET /transactions?from=&to=.
func HandleListTransactions(l Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := parseSlot(r, "from")
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRange", err.Error())
			return
		}
		to, err := parseSlot(r, "to")
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRange", err.Error())
			return
		}
		txs, err := l.Transactions(r.Context(), from, to)
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		if txs == nil {
			txs = []*models.Transaction{}
		}
		writeJSON(w, http.StatusOK, api.TransactionList{Transactions: txs})
	}
}

// HandleGetAccount serves GET /accounts/{address}.
func HandleGetAccount(l Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := l.Account(r.Context(), r.PathValue("address"))
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		acct, err := grpcserver.AccountFromLedger(info)
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func decodeTransaction(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var req transactionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(req.Transaction)
	if err != nil || len(raw) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "transaction must be non-empty base64")
		return nil, false
	}
	return raw, true
}

func parseSlot(r *http.Request, name string) (uint64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, &missingParamError{name}
	}
	return strconv.ParseUint(v, 10, 64)
}

type missingParamError struct {
	name string
}

// Error names the missing parameter.
func (e *missingParamError) Error() string {
	return "missing query parameter " + e.name
}
