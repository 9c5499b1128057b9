// Package workspace is the client side of the hosted programs: a handle per
// program that builds, signs and submits transactions on behalf of the
// provider's wallet.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/programs"
	"github.com/manifest-network/mediaproof/internal/provider"
	"github.com/manifest-network/mediaproof/internal/utils"
)

// Workspace holds a handle per hosted program, all signing with the
// provider's wallet.
type Workspace struct {
	provider   *provider.Provider
	client     *client.GRPCClient
	registry   *programs.Workspace
	maxRetries uint

	DeepfakeStorage    *DeepfakeStorage
	OriginalityStorage *OriginalityStorage
	DecentralizedPost  *DecentralizedPost
}

// New builds a workspace over every program in programs.DefaultWorkspace.
func New(p *provider.Provider, c *client.GRPCClient, maxRetries uint) *Workspace {
	w := &Workspace{
		provider:   p,
		client:     c,
		registry:   programs.DefaultWorkspace(),
		maxRetries: maxRetries,
	}
	w.DeepfakeStorage = &DeepfakeStorage{w.mustHandle(programs.DeepfakeStorageName)}
	w.OriginalityStorage = &OriginalityStorage{w.mustHandle(programs.OriginalityStorageName)}
	w.DecentralizedPost = &DecentralizedPost{w.mustHandle(programs.DecentralizedPostName)}
	return w
}

func (w *Workspace) mustHandle(name string) *Handle {
	h, err := w.Program(name)
	if err != nil {
		panic(err)
	}
	return h
}

// Program resolves a handle by program name or ID.
func (w *Workspace) Program(name string) (*Handle, error) {
	p, err := w.registry.Program(name)
	if err != nil {
		return nil, err
	}
	return &Handle{w: w, program: p}, nil
}

// Provider returns the provider transactions are signed with.
func (w *Workspace) Provider() *provider.Provider {
	return w.provider
}

// Transaction fetches a recorded transaction, which confirms it.
func (w *Workspace) Transaction(ctx context.Context, sig solana.Signature) (*models.Transaction, error) {
	return utils.GetTransactionWithRetry(w.client.WithContext(ctx), sig.String(), w.maxRetries)
}

// Handle is a client proxy for one deployed program.
type Handle struct {
	w       *Workspace
	program *programs.Program
}

// Name is the program's kebab-case name.
func (h *Handle) Name() string {
	return h.program.Name
}

// ID is the program address.
func (h *Handle) ID() solana.PublicKey {
	return h.program.ID
}

// Initialize creates a fresh program account, signed by a new keypair and the
// wallet, and waits for the transaction to be confirmed.
func (h *Handle) Initialize(ctx context.Context) (solana.Signature, solana.PublicKey, error) {
	account, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.Signature{}, solana.PublicKey{}, fmt.Errorf("failed to generate account keypair: %w", err)
	}
	sig, err := h.Send(ctx, "initialize", nil, []solana.PublicKey{account.PublicKey(), h.w.provider.PublicKey()}, account)
	if err != nil {
		return solana.Signature{}, solana.PublicKey{}, err
	}
	if _, err := h.w.Transaction(ctx, sig); err != nil {
		return solana.Signature{}, solana.PublicKey{}, fmt.Errorf("failed to confirm %s: %w", sig, err)
	}
	return sig, account.PublicKey(), nil
}

// Send submits instruction name with args. The wallet always signs; signers
// adds further keypairs. A transaction the ledger reports as already
// processed is confirmed by signature rather than failed.
func (h *Handle) Send(ctx context.Context, name string, args any, accounts []solana.PublicKey, signers ...solana.PrivateKey) (solana.Signature, error) {
	tx, err := h.build(ctx, name, args, accounts)
	if err != nil {
		return solana.Signature{}, err
	}
	signers = append([]solana.PrivateKey{h.w.provider.Wallet}, signers...)
	if _, err := tx.Sign(keyGetter(signers)); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign %s: %w", name, err)
	}
	return h.submit(ctx, name, tx)
}

// submit sends a signed transaction. Resubmitting a transaction the ledger
// already recorded succeeds once its signature is confirmed.
func (h *Handle) submit(ctx context.Context, name string, tx *solana.Transaction) (solana.Signature, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to serialize %s: %w", name, err)
	}

	c := h.w.client.WithContext(ctx)
	sig, err := utils.SendTransactionWithRetry(c, raw, h.w.maxRetries)
	if errors.Is(err, models.ErrAlreadyProcessed) {
		sig = tx.Signatures[0]
		_, gerr := h.w.Transaction(ctx, sig)
		if gerr == nil {
			slog.Debug("Transaction already processed", "signature", sig.String())
			return sig, nil
		}
		return solana.Signature{}, fmt.Errorf("%s.%s: %w (confirming %s: %v)", h.program.Name, name, err, sig, gerr)
	}
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s.%s: %w", h.program.Name, name, err)
	}
	return sig, nil
}

// View simulates a read-only instruction and decodes its return value into out.
func (h *Handle) View(ctx context.Context, name string, args any, out any, accounts ...solana.PublicKey) error {
	tx, err := h.build(ctx, name, args, accounts)
	if err != nil {
		return err
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", name, err)
	}
	sim, err := utils.SimulateTransactionWithRetry(h.w.client.WithContext(ctx), raw, h.w.maxRetries)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", h.program.Name, name, err)
	}
	if err := anchor.UnBorsh(sim.ReturnData, out); err != nil {
		return fmt.Errorf("failed to decode %s return data: %w", name, err)
	}
	return nil
}

func (h *Handle) build(ctx context.Context, name string, args any, accounts []solana.PublicKey) (*solana.Transaction, error) {
	ix, err := h.program.NewInstruction(name, args, accounts...)
	if err != nil {
		return nil, err
	}
	blockhash, _, err := utils.GetLatestBlockhashWithRetry(h.w.client.WithContext(ctx), h.w.maxRetries)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(h.w.provider.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", name, err)
	}
	return tx, nil
}

func keyGetter(keys []solana.PrivateKey) func(solana.PublicKey) *solana.PrivateKey {
	return func(pub solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pub) {
				return &keys[i]
			}
		}
		return nil
	}
}
