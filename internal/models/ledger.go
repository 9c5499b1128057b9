package models

// Account is a program-owned account as persisted by the ledger.
// Data holds the discriminator-prefixed Borsh encoding, without the zero padding up to Space.
type Account struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Space   uint64 `json:"space"`
	Data    []byte `json:"data"`
	Slot    uint64 `json:"slot"`
}

// Event is an event emitted while executing an instruction.
// Data is the discriminator-prefixed Borsh encoding, as written to the program log.
type Event struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Data  []byte `json:"data"`
}

// Transaction is a processed transaction.
type Transaction struct {
	Signature   string   `json:"signature"`
	Slot        uint64   `json:"slot"`
	BlockTime   int64    `json:"block_time"`
	Program     string   `json:"program"`
	Instruction string   `json:"instruction"`
	Accounts    []string `json:"accounts"`
	Signers     []string `json:"signers"`
	Logs        []string `json:"logs"`
	Events      []Event  `json:"events"`
	Data        []byte   `json:"data"`
}
