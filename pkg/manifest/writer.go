// pkg/manifest/writer.go
package manifest

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Write renders the manifest back into requirements syntax, preserving the
// original interleaving of directives and requirements.
func (m *Manifest) Write(w io.Writer) error {
	type entry struct {
		line int
		text string
	}
	entries := make([]entry, 0, len(m.Requirements)+len(m.Directives))
	for _, d := range m.Directives {
		entries = append(entries, entry{d.Line, d.String()})
	}
	for _, r := range m.Requirements {
		entries = append(entries, entry{r.Line, r.Specifier()})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].line < entries[j].line })

	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.text); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
	}
	return nil
}

func (m *Manifest) String() string {
	var b strings.Builder
	_ = m.Write(&b)
	return b.String()
}
