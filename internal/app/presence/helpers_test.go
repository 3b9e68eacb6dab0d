package presence

import (
	"math/rand/v2"
	"testing"

	"dancefloor/internal/app/spawn"
)

var testAvatars = []string{"a.gif", "b.gif", "c.gif"}

var testBounds = Bounds{Width: 1217, Height: 768}

func newTestRegistry(t *testing.T, avatars []string, quad spawn.Quad) *Registry {
	t.Helper()

	sampler, err := spawn.NewSampler(quad)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}

	catalog, err := NewCatalog(avatars)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	return NewRegistry(RegistryConfig{
		Bounds:         testBounds,
		Sampler:        sampler,
		Catalog:        catalog,
		MaxDisplayName: 32,
		Rand:           rand.New(rand.NewPCG(1, 2)),
	})
}

var testFloorQuad = spawn.Quad{{X: 340, Y: 490}, {X: 885, Y: 490}, {X: 935, Y: 770}, {X: 280, Y: 770}}

func inCatalog(c *Catalog, ref string) bool {
	_, ok := c.index[ref]
	return ok
}

func lookup(r *Registry, id string) (Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}
