package anchor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
)

const (
	programDataPrefix = "Program data: "
	programLogPrefix  = "Program log: "
)

// EncodeAccount returns the discriminator-prefixed Borsh encoding of body.
func EncodeAccount(name string, body any) ([]byte, error) {
	return encode(AccountDiscriminator(name), body, ErrAccountDidNotSerialize)
}

// DecodeAccount checks the discriminator of data against name and decodes the rest into body.
func DecodeAccount(name string, data []byte, body any) error {
	if len(data) < DiscriminatorLength || bytes.Equal(data[:DiscriminatorLength], make([]byte, DiscriminatorLength)) {
		return ErrAccountDiscriminatorNotFound
	}
	want := AccountDiscriminator(name)
	if !bytes.Equal(data[:DiscriminatorLength], want[:]) {
		return ErrAccountDiscriminatorMismatch
	}
	if err := bin.NewBorshDecoder(data[DiscriminatorLength:]).Decode(body); err != nil {
		return wrap(ErrAccountDidNotDeserialize, err)
	}
	return nil
}

// EncodeInstruction returns instruction data for name with Borsh-encoded args.
// A nil args encodes an instruction that takes no arguments.
func EncodeInstruction(name string, args any) ([]byte, error) {
	return encode(InstructionDiscriminator(name), args, ErrInstructionDidNotDeserialize)
}

// SplitInstruction separates the discriminator from the encoded arguments.
func SplitInstruction(data []byte) (Discriminator, []byte, error) {
	var d Discriminator
	if len(data) < DiscriminatorLength {
		return d, nil, ErrInstructionMissing
	}
	copy(d[:], data)
	return d, data[DiscriminatorLength:], nil
}

// DecodeArgs decodes Borsh instruction arguments into args.
func DecodeArgs(data []byte, args any) error {
	if err := bin.NewBorshDecoder(data).Decode(args); err != nil {
		return wrap(ErrInstructionDidNotDeserialize, err)
	}
	return nil
}

// EncodeEvent returns the discriminator-prefixed Borsh encoding of an event.
func EncodeEvent(name string, event any) ([]byte, error) {
	return encode(EventDiscriminator(name), event, nil)
}

// DecodeEvent decodes event data previously produced by EncodeEvent.
func DecodeEvent(name string, data []byte, event any) error {
	want := EventDiscriminator(name)
	if len(data) < DiscriminatorLength || !bytes.Equal(data[:DiscriminatorLength], want[:]) {
		return fmt.Errorf("event data is not a %s event", name)
	}
	return bin.NewBorshDecoder(data[DiscriminatorLength:]).Decode(event)
}

// Borsh encodes a plain value, used for view return data.
func Borsh(v any) ([]byte, error) {
	return bin.MarshalBorsh(v)
}

// UnBorsh decodes a plain Borsh value.
func UnBorsh(data []byte, v any) error {
	return bin.UnmarshalBorsh(v, data)
}

func encode(d Discriminator, body any, failure *Error) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(d[:])
	if body != nil {
		if err := bin.NewBorshEncoder(&buf).Encode(body); err != nil {
			if failure == nil {
				return nil, fmt.Errorf("borsh encode: %w", err)
			}
			return nil, wrap(failure, err)
		}
	}
	return buf.Bytes(), nil
}

// DataLog renders an emitted event as a program log line.
func DataLog(data []byte) string {
	return programDataPrefix + base64.StdEncoding.EncodeToString(data)
}

// ParseDataLog extracts event data from a line produced by DataLog.
func ParseDataLog(line string) ([]byte, bool) {
	rest, ok := strings.CutPrefix(line, programDataPrefix)
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, false
	}
	return data, true
}

// InstructionLog is the line Anchor writes before dispatching an instruction.
func InstructionLog(name string) string {
	return programLogPrefix + "Instruction: " + bin.ToPascalCase(name)
}

// MessageLog is a free-form program log line.
func MessageLog(msg string) string {
	return programLogPrefix + msg
}

// InvokeLog and the helpers below mirror the runtime's framing lines.
func InvokeLog(programID string) string {
	return fmt.Sprintf("Program %s invoke [1]", programID)
}

// SuccessLog is the closing log line of a successful invocation.
func SuccessLog(programID string) string {
	return fmt.Sprintf("Program %s success", programID)
}

// ReturnLog renders return data as a "Program return:" log line.
func ReturnLog(programID string, data []byte) string {
	return fmt.Sprintf("Program return: %s %s", programID, base64.StdEncoding.EncodeToString(data))
}
