package ledger

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// DefaultBlockhashWindow is how many slots a blockhash stays usable.
const DefaultBlockhashWindow = 150

// Blockhash returns the hash of slot: sha256(seed || big-endian slot).
func Blockhash(seed string, slot uint64) solana.Hash {
	buf := make([]byte, len(seed)+8)
	copy(buf, seed)
	binary.BigEndian.PutUint64(buf[len(seed):], slot)
	return solana.Hash(sha256.Sum256(buf))
}

// blockhashSlot finds the slot of h among the window ending at latest.
func (l *Ledger) blockhashSlot(h solana.Hash, latest uint64) (uint64, bool) {
	var oldest uint64
	if latest > l.cfg.BlockhashWindow {
		oldest = latest - l.cfg.BlockhashWindow
	}
	for slot := latest; ; slot-- {
		if Blockhash(l.cfg.GenesisSeed, slot) == h {
			return slot, true
		}
		if slot == oldest {
			return 0, false
		}
	}
}
