package programs

import "github.com/gagliardetto/solana-go"

const initializeInstruction = "initialize"

// newInitialize declares the initialize instruction shared by every program:
// it allocates a fresh account, paid for and signed by user.
func newInitialize(accountName, typeName string, space uint64, state func() any) *Instruction {
	return &Instruction{
		Name: initializeInstruction,
		Accounts: []AccountSpec{
			{Name: accountName, Writable: true, Signer: true},
			{Name: "user", Writable: true, Signer: true},
			{Name: "system_program", Pinned: true, Address: solana.SystemProgramID},
		},
		Handler: func(c *Context, _ []byte) error {
			return c.Init(0, typeName, space, state())
		},
	}
}
