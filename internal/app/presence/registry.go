package presence

import (
	"math/rand/v2"
	"strings"

	"dancefloor/internal/app/spawn"
	"dancefloor/internal/pkg/errs"
	"dancefloor/internal/pkg/randx"
)

// maxSpawnAttempts bounds the redraws when a rounded spawn point falls outside the region or the floor.
const maxSpawnAttempts = 32

// RegistryConfig holds the static inputs of a Registry.
type RegistryConfig struct {
	// Bounds clamps every stored position.
	Bounds Bounds

	// Sampler draws spawn positions.
	Sampler *spawn.Sampler

	// Catalog supplies appearance references.
	Catalog *Catalog

	// MaxDisplayName is the longest accepted display name in bytes. Zero means unlimited.
	MaxDisplayName int

	// Rand drives avatar and spawn choices. Nil seeds a fresh source.
	Rand *rand.Rand
}

// Registry maps connection ids to participants.
// It is not safe for concurrent use; the Floor event loop is its only caller.
type Registry struct {
	participants map[string]*Participant

	bounds  Bounds
	sampler *spawn.Sampler
	catalog *Catalog
	maxName int
	rng     *rand.Rand
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Registry{
		participants: make(map[string]*Participant),
		bounds:       cfg.Bounds,
		sampler:      cfg.Sampler,
		catalog:      cfg.Catalog,
		maxName:      cfg.MaxDisplayName,
		rng:          rng,
	}
}

// Join creates the participant for id with a random avatar and a spawn position.
// A second join for the same id is rejected with ErrAlreadyJoined and leaves the entry untouched.
// A blank name is replaced by a generated guest name.
func (r *Registry) Join(id, name string) (Participant, error) {
	if _, ok := r.participants[id]; ok {
		return Participant{}, errs.NewError(errs.ErrAlreadyJoined)
	}

	if r.maxName > 0 && len(name) > r.maxName {
		return Participant{}, errs.NewError(errs.ErrDisplayNameTooLong, r.maxName)
	}

	if strings.TrimSpace(name) == "" {
		guest, err := randx.GuestName()
		if err != nil {
			return Participant{}, errs.NewError(errs.ErrUnknown, err)
		}
		name = guest
	}

	x, y := r.spawnPoint()

	p := &Participant{
		ID:        id,
		Name:      name,
		AvatarURL: r.catalog.Pick(r.rng),
		X:         x,
		Y:         y,
	}
	r.participants[id] = p

	return *p, nil
}

// spawnPoint draws integer positions until one lies both on the floor and inside the spawn
// region. If none is found the last draw is clamped into Bounds.
func (r *Registry) spawnPoint() (int, int) {
	var x, y int
	for range maxSpawnAttempts {
		x, y = r.sampler.Sample(r.rng)
		if r.bounds.Contains(x, y) && r.sampler.Contains(spawn.Point{X: float64(x), Y: float64(y)}) {
			return x, y
		}
	}

	return r.bounds.Clamp(float64(x), float64(y))
}

// Move clamps the requested position into Bounds and stores it.
// ok is false when id has not joined.
func (r *Registry) Move(id string, x, y float64) (Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}

	p.X, p.Y = r.bounds.Clamp(x, y)

	return *p, true
}

// ChangeAppearance gives id a different avatar from the catalog, or the same one if the
// catalog has a single entry. ok is false when id has not joined.
func (r *Registry) ChangeAppearance(id string) (Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}

	p.AvatarURL = r.catalog.PickOther(r.rng, p.AvatarURL)

	return *p, true
}

// Remove deletes id and returns the removed participant. ok is false when id was absent.
func (r *Registry) Remove(id string) (Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}

	delete(r.participants, id)

	return *p, true
}

// Snapshot copies every participant in no particular order. It never returns nil.
func (r *Registry) Snapshot() []Participant {
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	return out
}

// Len returns the number of joined participants.
func (r *Registry) Len() int {
	return len(r.participants)
}
