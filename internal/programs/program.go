package programs

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/models"
)

// AccountStore is the slice of the ledger's persistence the programs need.
type AccountStore interface {
	GetAccount(ctx context.Context, address string, forUpdate bool) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	PutAccount(ctx context.Context, account *models.Account) error
}

// AccountSpec declares one account an instruction expects, in order.
type AccountSpec struct {
	Name     string
	Writable bool
	Signer   bool
	// Pinned accounts must be Address, e.g. the system program. Address
	// alone cannot mark this since the system program key is all zeros.
	Pinned   bool
	Address  solana.PublicKey
}

// Handler runs an instruction with its Borsh-encoded arguments.
type Handler func(c *Context, args []byte) error

// Instruction is one entry point of a program.
type Instruction struct {
	Name     string
	View     bool
	Accounts []AccountSpec
	Handler  Handler
}

// AccountType is an account layout owned by a program.
type AccountType struct {
	Name string
	New  func() any
}

// Program is a deployed program: an ID, its instructions and its error table.
type Program struct {
	Name         string
	ID           solana.PublicKey
	Errors       anchor.ErrorTable
	AccountTypes []AccountType

	instructions map[anchor.Discriminator]*Instruction
	ordered      []*Instruction
}

// Invocation carries everything an instruction sees from the runtime.
type Invocation struct {
	Accounts []*solana.AccountMeta
	Data     []byte
	Slot     uint64
	Now      time.Time
	Store    AccountStore
}

// Result is the outcome of an instruction. Logs are filled in on failure too.
type Result struct {
	Instruction string
	View        bool
	Logs        []string
	Events      []models.Event
	ReturnData  []byte
}

func newProgram(name, id string, errs anchor.ErrorTable, types ...AccountType) *Program {
	return &Program{
		Name:         name,
		ID:           solana.MustPublicKeyFromBase58(id),
		Errors:       errs,
		AccountTypes: types,
		instructions: make(map[anchor.Discriminator]*Instruction),
	}
}

func (p *Program) register(ix *Instruction) {
	p.instructions[anchor.InstructionDiscriminator(ix.Name)] = ix
	p.ordered = append(p.ordered, ix)
}

// Instructions returns the program's instructions in declaration order.
func (p *Program) Instructions() []*Instruction {
	return p.ordered
}

// Instruction looks up an instruction by its snake_case name.
func (p *Program) Instruction(name string) (*Instruction, bool) {
	ix, ok := p.instructions[anchor.InstructionDiscriminator(name)]
	return ix, ok
}

// NewInstruction builds a client instruction for name. accounts are matched
// positionally to the instruction's AccountSpecs, which supply the
// writable and signer flags; pinned accounts may be omitted.
func (p *Program) NewInstruction(name string, args any, accounts ...solana.PublicKey) (*solana.GenericInstruction, error) {
	ix, ok := p.Instruction(name)
	if !ok {
		return nil, fmt.Errorf("program %s has no instruction %q", p.Name, name)
	}
	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	next := 0
	for _, spec := range ix.Accounts {
		key := spec.Address
		if !spec.Pinned {
			if next >= len(accounts) {
				return nil, fmt.Errorf("instruction %s: missing account %s", name, spec.Name)
			}
			key = accounts[next]
			next++
		}
		metas = append(metas, solana.NewAccountMeta(key, spec.Writable, spec.Signer))
	}
	data, err := anchor.EncodeInstruction(name, args)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return solana.NewInstruction(p.ID, metas, data), nil
}

// Execute dispatches inv to the addressed instruction.
func (p *Program) Execute(ctx context.Context, inv Invocation) (*Result, error) {
	res := &Result{Logs: []string{anchor.InvokeLog(p.ID.String())}}

	d, args, err := anchor.SplitInstruction(inv.Data)
	if err != nil {
		return res, p.fail(res, err)
	}
	ix, ok := p.instructions[d]
	if !ok {
		return res, p.fail(res, anchor.ErrInstructionFallbackNotFound)
	}
	res.Instruction = ix.Name
	res.View = ix.View
	res.Logs = append(res.Logs, anchor.InstructionLog(ix.Name))

	if err := checkAccounts(ix.Accounts, inv.Accounts); err != nil {
		return res, p.fail(res, err)
	}

	c := &Context{
		ctx:      ctx,
		program:  p,
		accounts: inv.Accounts,
		store:    inv.Store,
		slot:     inv.Slot,
		now:      inv.Now,
		result:   res,
	}
	if err := ix.Handler(c, args); err != nil {
		return res, p.fail(res, err)
	}

	if res.ReturnData != nil {
		res.Logs = append(res.Logs, anchor.ReturnLog(p.ID.String(), res.ReturnData))
	}
	res.Logs = append(res.Logs, anchor.SuccessLog(p.ID.String()))
	return res, nil
}

func (p *Program) fail(res *Result, err error) error {
	err = p.Errors.Resolve(err)
	res.Logs = append(res.Logs, anchor.MessageLog(err.Error()))
	res.Logs = append(res.Logs, fmt.Sprintf("Program %s failed", p.ID))
	return err
}

func checkAccounts(specs []AccountSpec, metas []*solana.AccountMeta) error {
	if len(metas) < len(specs) {
		return anchor.ErrAccountNotEnoughKeys
	}
	for i, spec := range specs {
		meta := metas[i]
		if spec.Pinned && !meta.PublicKey.Equals(spec.Address) {
			return anchor.ErrInvalidProgramID
		}
		if spec.Signer && !meta.IsSigner {
			return anchor.ErrAccountNotSigner
		}
		if spec.Writable && !meta.IsWritable {
			return anchor.ErrConstraintMut
		}
	}
	return nil
}

// DecodeAccount decodes account data into the matching registered account type.
func (p *Program) DecodeAccount(data []byte) (string, any, error) {
	if len(data) < anchor.DiscriminatorLength {
		return "", nil, anchor.ErrAccountDiscriminatorNotFound
	}
	for _, t := range p.AccountTypes {
		d := anchor.AccountDiscriminator(t.Name)
		if string(data[:anchor.DiscriminatorLength]) != string(d[:]) {
			continue
		}
		body := t.New()
		if err := anchor.DecodeAccount(t.Name, data, body); err != nil {
			return "", nil, err
		}
		return t.Name, body, nil
	}
	return "", nil, anchor.ErrAccountDiscriminatorMismatch
}
