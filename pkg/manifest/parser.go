// pkg/manifest/parser.go
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	nameRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	specRe = regexp.MustCompile(`^(~=|==|!=|>=|<=|>|<)\s*(\S+)$`)
)

// SyntaxError describes a malformed manifest line.
type SyntaxError struct {
	Path string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ParseFile parses a requirements manifest from disk. Include directives
// ("-r other.txt") are resolved relative to the file and followed, with
// cycle detection.
func ParseFile(path string) (*Manifest, error) {
	return parseFile(path, nil)
}

func parseFile(path string, seen map[string]bool) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving manifest path: %w", err)
	}
	if seen == nil {
		seen = make(map[string]bool)
	}
	if seen[abs] {
		return nil, fmt.Errorf("include cycle through %s", path)
	}
	seen[abs] = true

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		if serr, ok := err.(*SyntaxError); ok {
			serr.Path = path
		}
		return nil, err
	}
	m.Path = path

	// Follow includes, splicing their requirements after our own but
	// keeping this file's find-links in effect for them.
	for _, d := range m.Directives {
		if d.Kind != DirectiveInclude {
			continue
		}
		incPath := d.Value
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(filepath.Dir(path), incPath)
		}
		inc, err := parseFile(incPath, seen)
		if err != nil {
			return nil, fmt.Errorf("including %s: %w", d.Value, err)
		}
		m.Requirements = append(m.Requirements, inc.Requirements...)
		for _, id := range inc.Directives {
			if id.Kind == DirectiveFindLinks {
				m.Directives = append(m.Directives, id)
			}
		}
	}

	return m, nil
}

// Parse parses a requirements manifest from a reader. Include directives are
// recorded but not followed; use ParseFile for that.
func Parse(r io.Reader) (*Manifest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	m := &Manifest{}
	var findLinks []string
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if d, ok, err := parseDirective(line, lineNo); err != nil {
			return nil, err
		} else if ok {
			if d.Kind == DirectiveFindLinks {
				findLinks = append(findLinks, d.Value)
			}
			m.Directives = append(m.Directives, d)
			continue
		}

		req, err := ParseLine(line)
		if err != nil {
			if serr, ok := err.(*SyntaxError); ok {
				serr.Line = lineNo
				return nil, serr
			}
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}
		req.Line = lineNo
		req.FindLinks = append([]string(nil), findLinks...)
		m.Requirements = append(m.Requirements, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning manifest: %w", err)
	}

	return m, nil
}

// stripComment removes a trailing comment. A '#' starts a comment at the
// beginning of a line or when preceded by whitespace, so fragment markers in
// URLs survive.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			return line[:i]
		}
	}
	return line
}

func parseDirective(line string, lineNo int) (Directive, bool, error) {
	var kind DirectiveKind
	var rest string

	switch {
	case strings.HasPrefix(line, "--find-links"):
		kind, rest = DirectiveFindLinks, line[len("--find-links"):]
	case strings.HasPrefix(line, "-f"):
		kind, rest = DirectiveFindLinks, line[len("-f"):]
	case strings.HasPrefix(line, "--requirement"):
		kind, rest = DirectiveInclude, line[len("--requirement"):]
	case strings.HasPrefix(line, "-r"):
		kind, rest = DirectiveInclude, line[len("-r"):]
	case strings.HasPrefix(line, "-"):
		return Directive{}, false, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("unsupported directive %q", line)}
	default:
		return Directive{}, false, nil
	}

	if strings.HasPrefix(rest, "=") {
		rest = rest[1:]
	}
	value := strings.TrimSpace(rest)
	if value == "" {
		return Directive{}, false, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("directive %q requires a value", kind)}
	}
	return Directive{Kind: kind, Value: value, Line: lineNo}, true, nil
}

// ParseLine parses a single requirement specifier.
func ParseLine(line string) (*Requirement, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, &SyntaxError{Msg: "empty specifier"}
	}

	// Source-control reference: "name @ git+url" or "name@git+url".
	if name, ref, ok := splitSourceRef(line); ok {
		req := &Requirement{}
		var err error
		req.Name, req.Extras, err = parseName(name)
		if err != nil {
			return nil, err
		}
		src, err := parseSourceRef(ref)
		if err != nil {
			return nil, err
		}
		req.Source = src
		return req, nil
	}

	// Registry requirement: name, optional extras, optional constraints.
	i := strings.IndexAny(line, "=!<>~")
	namePart, specPart := line, ""
	if i >= 0 {
		namePart, specPart = line[:i], line[i:]
	}

	req := &Requirement{}
	var err error
	req.Name, req.Extras, err = parseName(strings.TrimSpace(namePart))
	if err != nil {
		return nil, err
	}

	if specPart != "" {
		req.Constraints, err = parseConstraints(specPart)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

func splitSourceRef(line string) (name, ref string, ok bool) {
	i := strings.Index(line, "@")
	for i >= 0 {
		rest := strings.TrimSpace(line[i+1:])
		if strings.HasPrefix(rest, "git+") {
			return strings.TrimSpace(line[:i]), rest, true
		}
		j := strings.Index(line[i+1:], "@")
		if j < 0 {
			break
		}
		i += 1 + j
	}
	return "", "", false
}

func parseSourceRef(s string) (*SourceRef, error) {
	vcs, url, ok := strings.Cut(s, "+")
	if !ok || vcs != "git" {
		return nil, &SyntaxError{Msg: fmt.Sprintf("unsupported source reference %q", s)}
	}
	ref := &SourceRef{VCS: vcs}

	// A revision is a trailing "@<rev>" after the scheme's "://". An "@"
	// that still has path separators after it belongs to the URL itself
	// (e.g. the user in "ssh://git@host/repo").
	k := strings.Index(url, "://")
	if k < 0 {
		return nil, &SyntaxError{Msg: fmt.Sprintf("source reference %q has no URL scheme", s)}
	}
	rest := url[k+3:]
	if at := strings.LastIndex(rest, "@"); at >= 0 && !strings.Contains(rest[at+1:], "/") {
		ref.Rev = rest[at+1:]
		url = url[:k+3+at]
		if ref.Rev == "" {
			return nil, &SyntaxError{Msg: fmt.Sprintf("source reference %q has an empty revision", s)}
		}
	}
	ref.URL = url
	return ref, nil
}

func parseName(s string) (name string, extras []string, err error) {
	name = s
	if i := strings.Index(s, "["); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return "", nil, &SyntaxError{Msg: fmt.Sprintf("unterminated extras in %q", s)}
		}
		name = s[:i]
		for _, e := range strings.Split(s[i+1:len(s)-1], ",") {
			e = strings.TrimSpace(e)
			if e != "" {
				extras = append(extras, e)
			}
		}
	}
	name = strings.TrimSpace(name)
	if !nameRe.MatchString(name) {
		return "", nil, &SyntaxError{Msg: fmt.Sprintf("invalid package name %q", name)}
	}
	return name, extras, nil
}

func parseConstraints(s string) ([]Constraint, error) {
	var out []Constraint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, &SyntaxError{Msg: fmt.Sprintf("empty constraint in %q", s)}
		}
		groups := specRe.FindStringSubmatch(part)
		if groups == nil {
			return nil, &SyntaxError{Msg: fmt.Sprintf("invalid version constraint %q", part)}
		}
		version := groups[2]
		if _, err := ParseVersion(version); err != nil {
			return nil, &SyntaxError{Msg: fmt.Sprintf("invalid version %q: %v", version, err)}
		}
		out = append(out, Constraint{Op: Op(groups[1]), Version: version})
	}
	return out, nil
}
