package instrument

import (
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
	"github.com/MilkFoam-L/Algorhythm/internal/util"
)

// Registry is a table of instrument profiles, preloaded with the
// built-ins and safe for concurrent lookups. Registration normally
// happens once at startup; lookups never block each other.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry creates a registry holding the built-in profiles
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range builtinProfiles() {
		r.profiles[p.Name] = p
	}
	return r
}

// Register adds a validated profile. Names are unique; re-registering
// an existing name fails rather than silently replacing it.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.Name]; exists {
		return fmt.Errorf("%w: %q", apperrors.ErrDuplicateProfile, p.Name)
	}
	r.profiles[p.Name] = p
	return nil
}

// Lookup resolves a profile by name
func (r *Registry) Lookup(name string) (Profile, error) {
	r.mu.RLock()
	p, ok := r.profiles[name]
	r.mu.RUnlock()

	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %s)",
			apperrors.ErrUnknownInstrument, name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names returns the registered profile names in ascending order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return util.SortedKeys(r.profiles)
}

// Profiles returns all registered profiles ordered by name
func (r *Registry) Profiles() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, name := range util.SortedKeys(r.profiles) {
		out = append(out, r.profiles[name])
	}
	return out
}
