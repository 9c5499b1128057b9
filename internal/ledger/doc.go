// Package ledger is the transaction runtime that hosts the programs.
//
// Clients submit signed Solana-format transactions. The ledger verifies the
// signatures and the recent blockhash, executes the single instruction the
// transaction carries against the output handler, assigns it a slot and
// records it with its logs and events.
package ledger
