package memory

import (
	"context"
	"sync"

	"github.com/iho/cashledger/internal/domain"
)

// BranchDirectory is a static usecase.BranchDirectory.
type BranchDirectory struct {
	mu       sync.RWMutex
	branches map[string]domain.Branch
}

// NewBranchDirectory creates a directory holding branches.
func NewBranchDirectory(branches ...domain.Branch) *BranchDirectory {
	d := &BranchDirectory{branches: make(map[string]domain.Branch, len(branches))}
	for _, b := range branches {
		d.branches[b.ID] = b
	}
	return d
}

// Add registers or replaces a branch.
func (d *BranchDirectory) Add(b domain.Branch) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.branches[b.ID] = b
}

// GetBranch returns domain.ErrBranchNotFound for unknown ids.
func (d *BranchDirectory) GetBranch(ctx context.Context, id string) (*domain.Branch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	return &b, nil
}
