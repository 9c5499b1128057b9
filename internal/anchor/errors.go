package anchor

import (
	"errors"
	"fmt"
)

// ErrorCodeOffset is the first code assigned to program-declared errors.
const ErrorCodeOffset = 6000

// Error is a numbered program or framework error.
type Error struct {
	Code uint32
	Name string
	Msg  string

	cause error
}

// Error formats the error the way Anchor logs it.
func (e *Error) Error() string {
	return fmt.Sprintf("AnchorError occurred. Error Code: %s. Error Number: %d. Error Message: %s.", e.Name, e.Code, e.Msg)
}

// Unwrap returns the domain error a program error was resolved from.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error with the same code and name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Name == e.Name
}

// Framework errors.
var (
	ErrInstructionMissing           = &Error{Code: 100, Name: "InstructionMissing", Msg: "8 byte instruction identifier not provided"}
	ErrInstructionFallbackNotFound  = &Error{Code: 101, Name: "InstructionFallbackNotFound", Msg: "Fallback functions are not supported"}
	ErrInstructionDidNotDeserialize = &Error{Code: 102, Name: "InstructionDidNotDeserialize", Msg: "The program could not deserialize the given instruction"}
	ErrConstraintMut                = &Error{Code: 2000, Name: "ConstraintMut", Msg: "A mut constraint was violated"}
	ErrAccountDiscriminatorNotFound = &Error{Code: 3001, Name: "AccountDiscriminatorNotFound", Msg: "No 8 byte discriminator was found on the account"}
	ErrAccountDiscriminatorMismatch = &Error{Code: 3002, Name: "AccountDiscriminatorMismatch", Msg: "8 byte discriminator did not match what was expected"}
	ErrAccountDidNotDeserialize     = &Error{Code: 3003, Name: "AccountDidNotDeserialize", Msg: "Failed to deserialize the account"}
	ErrAccountDidNotSerialize       = &Error{Code: 3004, Name: "AccountDidNotSerialize", Msg: "Failed to serialize the account"}
	ErrAccountNotEnoughKeys         = &Error{Code: 3005, Name: "AccountNotEnoughKeys", Msg: "Not enough account keys given to the instruction"}
	ErrAccountOwnedByWrongProgram   = &Error{Code: 3007, Name: "AccountOwnedByWrongProgram", Msg: "The given account is owned by a different program than expected"}
	ErrInvalidProgramID             = &Error{Code: 3008, Name: "InvalidProgramId", Msg: "Program ID was not as expected"}
	ErrAccountNotSigner             = &Error{Code: 3010, Name: "AccountNotSigner", Msg: "The given account did not sign"}
	ErrAccountNotInitialized        = &Error{Code: 3012, Name: "AccountNotInitialized", Msg: "The program expected this account to be already initialized"}
)

// ErrorCode declares one program error and the sentinel it translates.
type ErrorCode struct {
	Name string
	Msg  string
	Err  error
}

// ErrorTable lists a program's errors in declaration order; the i-th entry
// gets code ErrorCodeOffset+i.
type ErrorTable []ErrorCode

// Resolve translates a sentinel declared in the table into a numbered *Error
// that still unwraps to the sentinel. Other errors are returned unchanged.
func (t ErrorTable) Resolve(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	for i, c := range t {
		if errors.Is(err, c.Err) {
			return &Error{Code: ErrorCodeOffset + uint32(i), Name: c.Name, Msg: c.Msg, cause: err}
		}
	}
	return err
}

// Lookup returns the declaration for a program error code.
func (t ErrorTable) Lookup(code uint32) (ErrorCode, bool) {
	if code < ErrorCodeOffset || int(code-ErrorCodeOffset) >= len(t) {
		return ErrorCode{}, false
	}
	return t[code-ErrorCodeOffset], true
}

// wrap attaches detail to a framework error while keeping it matchable.
func wrap(base *Error, detail error) error {
	return &Error{Code: base.Code, Name: base.Name, Msg: base.Msg, cause: detail}
}
