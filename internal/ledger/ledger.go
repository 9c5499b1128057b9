package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/clock"
	"github.com/manifest-network/mediaproof/internal/metrics"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/output"
	"github.com/manifest-network/mediaproof/internal/programs"
)

// MaxSlotRange bounds a single Transactions query.
const MaxSlotRange = 1000

var errRollback = errors.New("simulation rollback")

// Config tunes a Ledger. Zero values fall back to defaults: a 150 slot
// blockhash window and the system clock. Metrics may be nil.
type Config struct {
	GenesisSeed     string
	BlockhashWindow uint64
	Clock           clock.Clock
	Metrics         *metrics.Metrics
}

// Ledger executes transactions against the hosted programs and records them
// in an output.OutputHandler.
type Ledger struct {
	store     output.OutputHandler
	workspace *programs.Workspace
	cfg       Config
}

// SimulationResult is the outcome of a transaction executed without persisting.
type SimulationResult struct {
	Program     string
	Instruction string
	View        bool
	Slot        uint64
	Logs        []string
	Events      []models.Event
	ReturnData  []byte
}

// AccountInfo is a stored account with its decoded state, when the owner is a
// registered program.
type AccountInfo struct {
	*models.Account
	Program string `json:"program,omitempty"`
	Type    string `json:"type,omitempty"`
	State   any    `json:"state,omitempty"`
}

type decodedTx struct {
	tx       *solana.Transaction
	program  *programs.Program
	accounts []*solana.AccountMeta
	data     []byte
}

// New returns a ledger over store hosting the programs in workspace.
func New(store output.OutputHandler, workspace *programs.Workspace, cfg Config) *Ledger {
	if cfg.BlockhashWindow == 0 {
		cfg.BlockhashWindow = DefaultBlockhashWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	return &Ledger{store: store, workspace: workspace, cfg: cfg}
}

// Workspace returns the programs hosted by the ledger.
func (l *Ledger) Workspace() *programs.Workspace {
	return l.workspace
}

// LatestBlockhash returns the blockhash of the latest slot and the slot itself.
func (l *Ledger) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	slot, err := l.store.LatestSlot(ctx)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("failed to get latest slot: %w", err)
	}
	return Blockhash(l.cfg.GenesisSeed, slot), slot, nil
}

// SendTransaction verifies, executes and records a serialized transaction and
// returns its first signature.
func (l *Ledger) SendTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	d, err := l.decode(raw)
	if err != nil {
		return solana.Signature{}, err
	}
	if len(d.tx.Signatures) == 0 {
		return solana.Signature{}, fmt.Errorf("%w: no signatures", ErrInvalidTransaction)
	}
	if err := d.tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}

	latest, err := l.store.LatestSlot(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get latest slot: %w", err)
	}
	if _, ok := l.blockhashSlot(d.tx.Message.RecentBlockhash, latest); !ok {
		return solana.Signature{}, ErrBlockhashNotFound
	}

	sig := d.tx.Signatures[0]
	var record *models.Transaction
	err = l.store.WithTx(ctx, func(ctx context.Context) error {
		seen, err := l.store.HasSignature(ctx, sig.String())
		if err != nil {
			return err
		}
		if seen {
			return models.ErrAlreadyProcessed
		}
		slot, err := l.store.NextSlot(ctx)
		if err != nil {
			return fmt.Errorf("failed to reserve slot: %w", err)
		}
		now := l.cfg.Clock.Now()
		start := time.Now()
		res, err := l.execute(ctx, d, slot, now)
		l.cfg.Metrics.ObserveInstruction(d.program.Name, res.Instruction, err, time.Since(start))
		if err != nil {
			return &TransactionError{
				Signature:   sig.String(),
				Program:     d.program.Name,
				Instruction: res.Instruction,
				Logs:        res.Logs,
				Err:         err,
			}
		}
		record = &models.Transaction{
			Signature:   sig.String(),
			Slot:        slot,
			BlockTime:   now.Unix(),
			Program:     d.program.ID.String(),
			Instruction: res.Instruction,
			Accounts:    keys(d.accounts),
			Signers:     d.tx.Message.Signers().ToBase58(),
			Logs:        res.Logs,
			Events:      res.Events,
			Data:        d.data,
		}
		return l.store.WriteTransaction(ctx, record)
	})
	if err != nil {
		var txErr *TransactionError
		if errors.As(err, &txErr) {
			slog.Warn("Transaction failed", "signature", sig.String(), "program", txErr.Program, "instruction", txErr.Instruction, "error", txErr.Err)
		}
		return solana.Signature{}, err
	}

	l.cfg.Metrics.SetSlot(record.Slot)
	slog.Debug("Transaction processed", "signature", sig.String(), "slot", record.Slot, "program", d.program.Name, "instruction", record.Instruction)
	return sig, nil
}

// Simulate executes a transaction against current state and discards every
// write. Signatures and the blockhash are not checked, so unsigned
// transactions can be simulated.
func (l *Ledger) Simulate(ctx context.Context, raw []byte) (*SimulationResult, error) {
	d, err := l.decode(raw)
	if err != nil {
		return nil, err
	}
	latest, err := l.store.LatestSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest slot: %w", err)
	}

	var out *SimulationResult
	err = l.store.WithTx(ctx, func(ctx context.Context) error {
		res, err := l.execute(ctx, d, latest+1, l.cfg.Clock.Now())
		if err != nil {
			return &TransactionError{
				Program:     d.program.Name,
				Instruction: res.Instruction,
				Logs:        res.Logs,
				Err:         err,
			}
		}
		out = &SimulationResult{
			Program:     d.program.Name,
			Instruction: res.Instruction,
			View:        res.View,
			Slot:        latest + 1,
			Logs:        res.Logs,
			Events:      res.Events,
			ReturnData:  res.ReturnData,
		}
		return errRollback
	})
	if err != nil && !errors.Is(err, errRollback) {
		return nil, err
	}
	return out, nil
}

// execute runs the decoded instruction. Callers record metrics, so that
// simulations stay out of them.
func (l *Ledger) execute(ctx context.Context, d *decodedTx, slot uint64, now time.Time) (*programs.Result, error) {
	return d.program.Execute(ctx, programs.Invocation{
		Accounts: d.accounts,
		Data:     d.data,
		Slot:     slot,
		Now:      now,
		Store:    l.store,
	})
}

func (l *Ledger) decode(raw []byte) (*decodedTx, error) {
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	msg := &tx.Message
	if msg.IsVersioned() || len(msg.AddressTableLookups) > 0 {
		return nil, fmt.Errorf("%w: only legacy messages are accepted", ErrUnsupportedTransaction)
	}
	if len(msg.Instructions) != 1 {
		return nil, fmt.Errorf("%w: expected 1 instruction, got %d", ErrUnsupportedTransaction, len(msg.Instructions))
	}

	ci := msg.Instructions[0]
	nkeys := len(msg.AccountKeys)
	if int(ci.ProgramIDIndex) >= nkeys {
		return nil, fmt.Errorf("%w: program index out of range", ErrInvalidTransaction)
	}
	for _, idx := range ci.Accounts {
		if int(idx) >= nkeys {
			return nil, fmt.Errorf("%w: account index out of range", ErrInvalidTransaction)
		}
	}

	programID, err := tx.ResolveProgramIDIndex(ci.ProgramIDIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	program, ok := l.workspace.ProgramByID(programID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
	}
	accounts, err := ci.ResolveInstructionAccounts(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return &decodedTx{tx: tx, program: program, accounts: accounts, data: []byte(ci.Data)}, nil
}

// LatestSlot returns the slot of the most recent transaction.
func (l *Ledger) LatestSlot(ctx context.Context) (uint64, error) {
	return l.store.LatestSlot(ctx)
}

// Transaction returns a recorded transaction by its base58 signature.
func (l *Ledger) Transaction(ctx context.Context, signature string) (*models.Transaction, error) {
	if _, err := solana.SignatureFromBase58(signature); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return l.store.GetTransaction(ctx, signature)
}

// Transactions returns the transactions recorded in slots [from, to].
func (l *Ledger) Transactions(ctx context.Context, from, to uint64) ([]*models.Transaction, error) {
	if from > to {
		return nil, fmt.Errorf("%w: from %d is after to %d", ErrInvalidRange, from, to)
	}
	if to-from >= MaxSlotRange {
		return nil, fmt.Errorf("%w: at most %d slots per query", ErrInvalidRange, MaxSlotRange)
	}
	return l.store.GetTransactionsInRange(ctx, from, to)
}

// Account returns the account at address, decoded when a hosted program owns it.
func (l *Ledger) Account(ctx context.Context, address string) (*AccountInfo, error) {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	acct, err := l.store.GetAccount(ctx, address, false)
	if err != nil {
		return nil, err
	}
	info := &AccountInfo{Account: acct}

	owner, err := solana.PublicKeyFromBase58(acct.Owner)
	if err != nil {
		return info, nil
	}
	program, ok := l.workspace.ProgramByID(owner)
	if !ok {
		return info, nil
	}
	info.Program = program.Name
	typ, state, err := program.DecodeAccount(acct.Data)
	if err != nil {
		slog.Warn("Failed to decode account", "address", address, "program", program.Name, "error", err)
		return info, nil
	}
	info.Type = typ
	info.State = state
	return info, nil
}

func keys(metas []*solana.AccountMeta) []string {
	out := make([]string, len(metas))
	for i, m := range metas {
		out[i] = m.PublicKey.String()
	}
	return out
}
