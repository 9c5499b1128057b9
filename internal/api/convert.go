package api

import (
	"encoding/json"
	"fmt"

	"github.com/manifest-network/mediaproof/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// Blockhash is the GetLatestBlockhash response.
type Blockhash struct {
	Blockhash string `json:"blockhash"`
	Slot      uint64 `json:"slot"`
}

// SlotRange is the GetTransactions request.
type SlotRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// TransactionList is the GetTransactions response.
type TransactionList struct {
	Transactions []*models.Transaction `json:"transactions"`
}

// Simulation is the SimulateTransaction response. ReturnData is the raw
// Borsh encoding of the view's return value.
type Simulation struct {
	Program     string         `json:"program"`
	Instruction string         `json:"instruction"`
	View        bool           `json:"view"`
	Slot        uint64         `json:"slot"`
	Logs        []string       `json:"logs"`
	Events      []models.Event `json:"events,omitempty"`
	ReturnData  []byte         `json:"return_data,omitempty"`
}

// Account is the GetAccount response. State is the decoded account body as
// JSON, when a hosted program owns the account.
type Account struct {
	models.Account
	Program string          `json:"program,omitempty"`
	Type    string          `json:"type,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
}

// ToStruct converts v to a protobuf Struct through its JSON encoding.
// Integers survive up to 2^53.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%T is not a JSON object: %w", v, err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return s, nil
}

// FromStruct decodes s into v through its JSON encoding.
func FromStruct(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("failed to marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal into %T: %w", v, err)
	}
	return nil
}
