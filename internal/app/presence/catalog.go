package presence

import (
	"errors"
	"math/rand/v2"
	"strings"
)

// ErrEmptyCatalog is returned when a catalog would contain no avatars.
var ErrEmptyCatalog = errors.New("avatar catalog must contain at least one entry")

// Catalog is the fixed, ordered list of appearance references.
type Catalog struct {
	refs  []string
	index map[string]int
}

// NewCatalog builds a catalog from refs, skipping blanks and repeats.
func NewCatalog(refs []string) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(refs))}

	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, dup := c.index[ref]; dup {
			continue
		}
		c.index[ref] = len(c.refs)
		c.refs = append(c.refs, ref)
	}

	if len(c.refs) == 0 {
		return nil, ErrEmptyCatalog
	}

	return c, nil
}

// Len returns the number of distinct references.
func (c *Catalog) Len() int {
	return len(c.refs)
}


// Pick returns a reference chosen uniformly at random.
func (c *Catalog) Pick(rng *rand.Rand) string {
	return c.refs[rng.IntN(len(c.refs))]
}

// PickOther returns a reference chosen uniformly among those different from current.
// A single-entry catalog keeps current.
func (c *Catalog) PickOther(rng *rand.Rand, current string) string {
	i, ok := c.index[current]
	if !ok {
		return c.Pick(rng)
	}

	if len(c.refs) == 1 {
		return current
	}

	j := rng.IntN(len(c.refs) - 1)
	if j >= i {
		j++
	}

	return c.refs[j]
}
