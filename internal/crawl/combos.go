package crawl

import "github.com/rohankatakam/gitemails/internal/models"

// Combos accumulates the distinct identity tuples written during one run,
// in first-seen order
type Combos struct {
	seen  map[models.Identity]struct{}
	order []models.Identity
}

func NewCombos() *Combos {
	return &Combos{seen: make(map[models.Identity]struct{})}
}

// Add records id and reports whether it was new
func (c *Combos) Add(id models.Identity) bool {
	if _, ok := c.seen[id]; ok {
		return false
	}
	c.seen[id] = struct{}{}
	c.order = append(c.order, id)
	return true
}

func (c *Combos) Len() int {
	return len(c.order)
}

// List returns a copy of the tuples in insertion order
func (c *Combos) List() []models.Identity {
	return append([]models.Identity(nil), c.order...)
}
