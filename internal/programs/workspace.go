package programs

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// ErrProgramNotFound is returned when no registered program matches a name or ID.
var ErrProgramNotFound = errors.New("program not found")

// Workspace resolves programs by name or ID. Names are matched ignoring case,
// dashes and underscores, so "deepfake-storage", "deepfake_storage" and
// "DeepfakeStorage" all resolve to the same program.
type Workspace struct {
	mu     sync.RWMutex
	byID   map[solana.PublicKey]*Program
	byName map[string]*Program
	order  []*Program
}

// NewWorkspace registers programs in order.
func NewWorkspace(programs ...*Program) *Workspace {
	w := &Workspace{
		byID:   make(map[solana.PublicKey]*Program),
		byName: make(map[string]*Program),
	}
	for _, p := range programs {
		w.Register(p)
	}
	return w
}

// DefaultWorkspace holds every program this ledger ships.
func DefaultWorkspace() *Workspace {
	return NewWorkspace(NewDeepfakeStorage(), NewOriginalityStorage(), NewDecentralizedPost())
}

// Register adds p, replacing any program with the same ID or name.
func (w *Workspace) Register(p *Program) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.byID[p.ID]; !exists {
		w.order = append(w.order, p)
	}
	w.byID[p.ID] = p
	w.byName[normalizeName(p.Name)] = p
}

// Program resolves name, which may also be a base58 program ID.
func (w *Workspace) Program(name string) (*Program, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if p, ok := w.byName[normalizeName(name)]; ok {
		return p, nil
	}
	if id, err := solana.PublicKeyFromBase58(name); err == nil {
		if p, ok := w.byID[id]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, name)
}

// ProgramByID returns the program deployed at id.
func (w *Workspace) ProgramByID(id solana.PublicKey) (*Program, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.byID[id]
	return p, ok
}

// Programs returns the registered programs in registration order.
func (w *Workspace) Programs() []*Program {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Program(nil), w.order...)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(name))
}
