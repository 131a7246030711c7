package instrument

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
)

// profileFile is the on-disk shape of a custom profile file:
//
//	profiles:
//	  - name: ukulele
//	    kind: fretted
//	    min_pitch: 60
//	    ...
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadFile registers custom profiles from a YAML file in order and
// returns how many were added. Loading stops at the first invalid or
// duplicate profile.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return 0, fmt.Errorf("read profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse profiles %s: %w", path, err)
	}
	if len(file.Profiles) == 0 {
		return 0, fmt.Errorf("%w: %s: no profiles", apperrors.ErrInvalidProfile, path)
	}

	added := 0
	for _, p := range file.Profiles {
		if err := r.Register(p); err != nil {
			return added, fmt.Errorf("register %q from %s: %w", p.Name, path, err)
		}
		added++
	}
	return added, nil
}
