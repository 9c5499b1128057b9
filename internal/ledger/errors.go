package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransaction     = errors.New("invalid transaction")
	ErrSignatureVerification  = errors.New("transaction signature verification failure")
	ErrBlockhashNotFound      = errors.New("blockhash not found")
	ErrUnsupportedTransaction = errors.New("unsupported transaction")
	ErrUnknownProgram         = errors.New("attempt to load a program that does not exist")
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrInvalidAddress         = errors.New("invalid address")
	ErrInvalidRange           = errors.New("invalid slot range")
)

// TransactionError is returned when the instruction itself failed. Logs hold
// the program log up to and including the failure.
type TransactionError struct {
	Signature   string
	Program     string
	Instruction string
	Logs        []string
	Err         error
}

// Error names the failing program and instruction.
func (e *TransactionError) Error() string {
	if e.Signature == "" {
		return fmt.Sprintf("simulation failed: %v", e.Err)
	}
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

// Unwrap returns the program or framework error.
func (e *TransactionError) Unwrap() error {
	return e.Err
}
