package catalog

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned when two institutions share an id.
var ErrDuplicateID = errors.New("duplicate institution id")

// Catalog is a read-only, ordered collection of institutions. Catalog order
// is the load order and is used to break ties when ranking.
//
// A Catalog and the institutions it holds must not be mutated after New
// returns; concurrent searches share them without locking.
type Catalog struct {
	items    []*Institution
	byID     map[int]*Institution
	observed []ControlType
}

// New builds a catalog from items, keeping their order.
func New(items []*Institution) (*Catalog, error) {
	c := &Catalog{
		items: make([]*Institution, 0, len(items)),
		byID:  make(map[int]*Institution, len(items)),
	}

	seen := make(map[ControlType]bool)
	for _, inst := range items {
		if inst == nil {
			continue
		}
		if _, ok := c.byID[inst.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, inst.ID)
		}
		c.byID[inst.ID] = inst
		c.items = append(c.items, inst)
		seen[inst.Control] = true
	}

	for _, t := range AllControlTypes {
		if seen[t] {
			c.observed = append(c.observed, t)
		}
	}

	return c, nil
}

// Len returns the number of institutions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// All returns the institutions in catalog order. The returned slice is a
// copy; the institutions are shared.
func (c *Catalog) All() []*Institution {
	if c == nil {
		return nil
	}
	out := make([]*Institution, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the institution with the given id.
func (c *Catalog) Get(id int) (*Institution, bool) {
	if c == nil {
		return nil, false
	}
	inst, ok := c.byID[id]
	return inst, ok
}

// ObservedControlTypes returns the distinct control types present in the
// catalog, in AllControlTypes order.
func (c *Catalog) ObservedControlTypes() []ControlType {
	if c == nil {
		return nil
	}
	out := make([]ControlType, len(c.observed))
	copy(out, c.observed)
	return out
}
