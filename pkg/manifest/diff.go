// pkg/manifest/diff.go
package manifest

import "sort"

// Change describes one requirement that differs between two manifests.
type Change struct {
	Name string
	Old  string // specifier in the old manifest, empty if added
	New  string // specifier in the new manifest, empty if removed
}

// Diff compares two manifests by normalized requirement name and returns
// added, removed and changed requirements sorted by name.
func Diff(old, new *Manifest) (added, removed, changed []Change) {
	oldByKey := make(map[string]*Requirement)
	for _, r := range old.Requirements {
		oldByKey[r.Key()] = r
	}

	seen := make(map[string]bool)
	for _, r := range new.Requirements {
		seen[r.Key()] = true
		prev, ok := oldByKey[r.Key()]
		switch {
		case !ok:
			added = append(added, Change{Name: r.Name, New: r.Specifier()})
		case prev.Specifier() != r.Specifier():
			changed = append(changed, Change{Name: r.Name, Old: prev.Specifier(), New: r.Specifier()})
		}
	}
	for _, r := range old.Requirements {
		if !seen[r.Key()] {
			removed = append(removed, Change{Name: r.Name, Old: r.Specifier()})
		}
	}

	byName := func(s []Change) {
		sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	}
	byName(added)
	byName(removed)
	byName(changed)
	return added, removed, changed
}
