// pkg/manifest/types.go
package manifest

import (
	"fmt"
	"strings"
)

// Op is a version comparison operator in a requirement specifier.
type Op string

const (
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
	OpGreaterEqual Op = ">="
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpLess         Op = "<"
	OpCompatible   Op = "~="
)

// Constraint is a single version constraint, e.g. ">=1.2.0".
type Constraint struct {
	Op      Op
	Version string
}

func (c Constraint) String() string {
	return string(c.Op) + c.Version
}

// SourceRef points a requirement directly at a source-control repository
// instead of a registry release, e.g. "git+https://host/repo.git@v1.0".
type SourceRef struct {
	VCS string // currently always "git"
	URL string // repository URL without the VCS prefix
	Rev string // optional branch, tag or commit
}

func (s SourceRef) String() string {
	out := s.VCS + "+" + s.URL
	if s.Rev != "" {
		out += "@" + s.Rev
	}
	return out
}

// Requirement is one installable requirement line.
type Requirement struct {
	Name        string       // name as written
	Extras      []string     // optional extras, e.g. name[extra1,extra2]
	Constraints []Constraint // empty means "any version"
	Source      *SourceRef   // set for source-control references
	FindLinks   []string     // index locations in effect when the line was read
	Line        int          // 1-based line number in the manifest
}

// Key returns the normalized requirement name used for comparisons.
// Registry names are case-insensitive and treat "-", "_" and "." alike.
func (r *Requirement) Key() string {
	return Normalize(r.Name)
}

// Pinned reports whether the requirement is pinned to an exact version and
// returns that version.
func (r *Requirement) Pinned() (string, bool) {
	for _, c := range r.Constraints {
		if c.Op == OpEqual {
			return c.Version, true
		}
	}
	return "", false
}

// Specifier renders the requirement back into manifest syntax.
func (r *Requirement) Specifier() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteString("]")
	}
	if r.Source != nil {
		b.WriteString(" @ ")
		b.WriteString(r.Source.String())
		return b.String()
	}
	parts := make([]string, 0, len(r.Constraints))
	for _, c := range r.Constraints {
		parts = append(parts, c.String())
	}
	b.WriteString(strings.Join(parts, ","))
	return b.String()
}

func (r *Requirement) String() string {
	return r.Specifier()
}

// DirectiveKind identifies a non-requirement manifest line.
type DirectiveKind string

const (
	// DirectiveFindLinks adds an index location used to resolve
	// requirements on subsequent lines ("-f <url>").
	DirectiveFindLinks DirectiveKind = "find-links"
	// DirectiveInclude pulls in another manifest file ("-r <path>").
	DirectiveInclude DirectiveKind = "requirement"
)

// Directive is an installer instruction embedded in the manifest.
type Directive struct {
	Kind  DirectiveKind
	Value string
	Line  int
}

func (d Directive) String() string {
	switch d.Kind {
	case DirectiveFindLinks:
		return "-f " + d.Value
	case DirectiveInclude:
		return "-r " + d.Value
	}
	return fmt.Sprintf("# unknown directive %q", d.Value)
}

// Manifest is a parsed requirements file: requirements and directives in
// their original order.
type Manifest struct {
	Path         string // source path, empty when parsed from a reader
	Requirements []*Requirement
	Directives   []Directive
}

// Get returns the requirement with the given (normalized) name.
func (m *Manifest) Get(name string) (*Requirement, bool) {
	key := Normalize(name)
	for _, r := range m.Requirements {
		if r.Key() == key {
			return r, true
		}
	}
	return nil, false
}

// FindLinks returns all index locations declared in the manifest, in order.
func (m *Manifest) FindLinks() []string {
	var urls []string
	for _, d := range m.Directives {
		if d.Kind == DirectiveFindLinks {
			urls = append(urls, d.Value)
		}
	}
	return urls
}

// Normalize maps a requirement name to its canonical comparison form.
func Normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return name
}
