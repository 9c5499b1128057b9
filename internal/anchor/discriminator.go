package anchor

import (
	"encoding/hex"

	bin "github.com/gagliardetto/binary"
)

const eventNamespace = "event"

// DiscriminatorLength is the size of every account, event and instruction prefix.
const DiscriminatorLength = 8

// Discriminator identifies the type of an encoded account, event or instruction.
type Discriminator [DiscriminatorLength]byte

// String renders the discriminator as hex.
func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// AccountDiscriminator returns the prefix for the account type name (PascalCase).
func AccountDiscriminator(name string) Discriminator {
	return sighash(bin.SIGHASH_ACCOUNT_NAMESPACE, name)
}

// EventDiscriminator returns the prefix for the event type name (PascalCase).
func EventDiscriminator(name string) Discriminator {
	return sighash(eventNamespace, name)
}

// InstructionDiscriminator returns the prefix for the instruction name (snake_case).
func InstructionDiscriminator(name string) Discriminator {
	return sighash(bin.SIGHASH_GLOBAL_NAMESPACE, name)
}

func sighash(namespace, name string) Discriminator {
	var d Discriminator
	copy(d[:], bin.Sighash(namespace, name))
	return d
}
