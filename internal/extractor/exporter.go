package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/manifest-network/mediaproof/internal/models"
)

// Exporter receives extracted transactions in slot order.
type Exporter interface {
	Export(ctx context.Context, txs []*models.Transaction) error
}

// JSONLExporter writes one JSON document per transaction.
type JSONLExporter struct {
	mu  sync.Mutex
	enc *json.Encoder
	n   int
}

// NewJSONLExporter writes to w.
func NewJSONLExporter(w io.Writer) *JSONLExporter {
	return &JSONLExporter{enc: json.NewEncoder(w)}
}

// Export writes txs, one line each.
func (e *JSONLExporter) Export(ctx context.Context, txs []*models.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.enc.Encode(tx); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", tx.Signature, err)
		}
		e.n++
	}
	return nil
}

// Count returns the number of transactions written so far.
func (e *JSONLExporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}
