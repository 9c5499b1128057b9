package programs

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/models"
)

// Context is the per-instruction view of the runtime handed to handlers.
type Context struct {
	ctx      context.Context
	program  *Program
	accounts []*solana.AccountMeta
	store    AccountStore
	slot     uint64
	now      time.Time
	result   *Result
}

// Key returns the public key of the i-th instruction account.
func (c *Context) Key(i int) solana.PublicKey {
	return c.accounts[i].PublicKey
}

// UnixTimestamp is the ledger clock at execution time.
func (c *Context) UnixTimestamp() int64 {
	return c.now.Unix()
}

// Init creates the i-th account owned by the program with the given allocation.
func (c *Context) Init(i int, typeName string, space uint64, body any) error {
	data, err := anchor.EncodeAccount(typeName, body)
	if err != nil {
		return err
	}
	if uint64(len(data)) > space {
		return anchor.ErrAccountDidNotSerialize
	}
	return c.store.CreateAccount(c.ctx, &models.Account{
		Address: c.Key(i).String(),
		Owner:   c.program.ID.String(),
		Space:   space,
		Data:    data,
		Slot:    c.slot,
	})
}

// Load reads and decodes the i-th account. Writable accounts are locked for
// the rest of the transaction.
func (c *Context) Load(i int, typeName string, body any) (*models.Account, error) {
	meta := c.accounts[i]
	acct, err := c.store.GetAccount(c.ctx, meta.PublicKey.String(), meta.IsWritable)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, anchor.ErrAccountNotInitialized
		}
		return nil, err
	}
	if acct.Owner != c.program.ID.String() {
		return nil, anchor.ErrAccountOwnedByWrongProgram
	}
	if err := anchor.DecodeAccount(typeName, acct.Data, body); err != nil {
		return nil, err
	}
	return acct, nil
}

// Save re-encodes body into acct, enforcing the allocation made at Init.
func (c *Context) Save(acct *models.Account, typeName string, body any) error {
	data, err := anchor.EncodeAccount(typeName, body)
	if err != nil {
		return err
	}
	if uint64(len(data)) > acct.Space {
		return anchor.ErrAccountDidNotSerialize
	}
	acct.Data = data
	acct.Slot = c.slot
	return c.store.PutAccount(c.ctx, acct)
}

// Emit records an event and writes its program data log line.
func (c *Context) Emit(name string, event any) error {
	data, err := anchor.EncodeEvent(name, event)
	if err != nil {
		return err
	}
	c.result.Events = append(c.result.Events, models.Event{
		Index: len(c.result.Events),
		Name:  name,
		Data:  data,
	})
	c.result.Logs = append(c.result.Logs, anchor.DataLog(data))
	return nil
}

// Return sets the instruction's return data.
func (c *Context) Return(v any) error {
	data, err := anchor.Borsh(v)
	if err != nil {
		return err
	}
	c.result.ReturnData = data
	return nil
}
