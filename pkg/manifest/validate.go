// pkg/manifest/validate.go
package manifest

import (
	"errors"
	"fmt"
)

// Validate checks the manifest for semantic problems a parser cannot reject:
// duplicate requirements, conflicting exact pins and unsatisfiable
// constraint sets. All problems are reported, joined into one error.
func (m *Manifest) Validate() error {
	var errs []error

	seen := make(map[string]*Requirement)
	for _, r := range m.Requirements {
		prev, dup := seen[r.Key()]
		if !dup {
			seen[r.Key()] = r
			if err := validateConstraints(r); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		errs = append(errs, fmt.Errorf("line %d: duplicate requirement %s (first on line %d)", r.Line, r.Name, prev.Line))
	}

	return errors.Join(errs...)
}

func validateConstraints(r *Requirement) error {
	pin, pinned := r.Pinned()
	if !pinned {
		return nil
	}
	ok, err := r.Matches(pin)
	if err != nil {
		return fmt.Errorf("line %d: %s: %w", r.Line, r.Name, err)
	}
	if !ok {
		return fmt.Errorf("line %d: %s: pin ==%s conflicts with other constraints", r.Line, r.Name, pin)
	}
	return nil
}
