// Package requirements reads pip requirements manifests far enough to know
// which distributions they declare. Version resolution stays with pip.
package requirements

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
)

// Requirement is one declared distribution.
type Requirement struct {
	// Name as written in the manifest, or taken from an #egg= fragment.
	Name string
	// Normalized is the PEP 503 form used for comparison.
	Normalized string
	// Spec is everything after the name except the marker (extras,
	// specifiers, URL). For an #egg= entry it is the location.
	Spec string
	// Marker is the PEP 508 environment marker, empty when unconditional.
	Marker string
	Line   int
}

// Conditional reports whether the requirement only applies in some environments.
func (r Requirement) Conditional() bool {
	return r.Marker != ""
}

// Unnamed is an entry pip installs from a URL or local path whose
// distribution name is only known after a build.
type Unnamed struct {
	Location string
	Line     int
}

// Manifest is a parsed requirements file.
type Manifest struct {
	Requirements []Requirement
	Unnamed      []Unnamed
}

// nameRe matches a PEP 508 distribution name at the start of a requirement.
var nameRe = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)

var separatorRe = regexp.MustCompile(`[-_.]+`)

// schemeRe matches a URL scheme, including VCS forms such as git+https://.
var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// urlMarkerRe finds the marker separator after a URL, where pip requires
// whitespace before the semicolon.
var urlMarkerRe = regexp.MustCompile(`\s;`)

var archiveSuffixes = []string{".whl", ".tar.gz", ".tar.bz2", ".zip"}

// Normalize returns the PEP 503 normalized form of a distribution name.
func Normalize(name string) string {
	return separatorRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ParseFile parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads requirement lines. Blank lines, comments and pip options
// (-r, -c, --index-url, ...) are skipped; a trailing backslash joins lines.
// Editable, URL and path entries are named from their #egg= fragment when
// present and collected as Unnamed otherwise.
func Parse(r io.Reader) (*Manifest, error) {
	var (
		m       = &Manifest{}
		pending strings.Builder
		start   int
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if pending.Len() == 0 {
			start = lineNo
		}
		if strings.HasSuffix(line, `\`) {
			pending.WriteString(strings.TrimSuffix(line, `\`))
			pending.WriteByte(' ')
			continue
		}
		pending.WriteString(line)
		logical := pending.String()
		pending.Reset()

		if err := m.parseLine(logical, start); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pending.Len() > 0 {
		if err := m.parseLine(pending.String(), start); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manifest) parseLine(line string, lineNo int) error {
	line = strings.TrimSpace(stripComment(line))
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "-") {
		location, ok := editableLocation(line)
		if !ok {
			return nil
		}
		m.addLocation(location, lineNo)
		return nil
	}

	if isLocation(line) {
		m.addLocation(line, lineNo)
		return nil
	}

	name := nameRe.FindString(line)
	if name == "" {
		return fmt.Errorf("line %d: cannot read distribution name from %q", lineNo, line)
	}
	rest := line[len(name):]
	// "name @ url ; marker" follows the URL separator rule.
	urlForm := strings.HasPrefix(strings.TrimSpace(rest), "@")
	spec, marker := splitMarker(rest, urlForm)
	m.Requirements = append(m.Requirements, Requirement{
		Name:       name,
		Normalized: Normalize(name),
		Spec:       spec,
		Marker:     marker,
		Line:       lineNo,
	})
	return nil
}

func (m *Manifest) addLocation(entry string, lineNo int) {
	location, marker := splitMarker(entry, true)
	name := eggName(location)
	if name == "" {
		m.Unnamed = append(m.Unnamed, Unnamed{Location: location, Line: lineNo})
		return
	}
	m.Requirements = append(m.Requirements, Requirement{
		Name:       name,
		Normalized: Normalize(name),
		Spec:       location,
		Marker:     marker,
		Line:       lineNo,
	})
}

// editableLocation returns the target of a -e/--editable option.
func editableLocation(line string) (string, bool) {
	for _, opt := range []string{"--editable", "-e"} {
		if rest, ok := strings.CutPrefix(line, opt); ok {
			rest = strings.TrimPrefix(rest, "=")
			rest = strings.TrimSpace(rest)
			return rest, rest != ""
		}
	}
	return "", false
}

// isLocation reports whether the entry is a URL or filesystem path rather
// than a named requirement.
func isLocation(entry string) bool {
	first, _, _ := strings.Cut(entry, " ")
	if schemeRe.MatchString(first) {
		return true
	}
	if strings.HasPrefix(first, ".") || strings.HasPrefix(first, "/") || strings.HasPrefix(first, "~") {
		return true
	}
	lower := strings.ToLower(first)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// eggName extracts the distribution name from a #egg= URL fragment.
func eggName(location string) string {
	_, fragment, ok := strings.Cut(location, "#")
	if !ok {
		return ""
	}
	for _, part := range strings.Split(fragment, "&") {
		if value, ok := strings.CutPrefix(part, "egg="); ok {
			return nameRe.FindString(value)
		}
	}
	return ""
}

// splitMarker separates the environment marker. After a URL the semicolon
// must follow whitespace so that it is not read from the URL itself.
func splitMarker(s string, urlForm bool) (spec, marker string) {
	idx := strings.Index(s, ";")
	if urlForm {
		loc := urlMarkerRe.FindStringIndex(s)
		if loc == nil {
			return strings.TrimSpace(s), ""
		}
		idx = loc[1] - 1
	}
	if idx < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:])
}

// stripComment removes a '#' comment that starts the line or follows whitespace,
// leaving URL fragments such as "#egg=" intact.
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

// Missing returns the declared requirements absent from installed. Installed
// names may be in any form; they are normalized before comparison.
func Missing(declared []Requirement, installed []string) []Requirement {
	have := make(map[string]struct{}, len(installed))
	for _, name := range installed {
		have[Normalize(name)] = struct{}{}
	}

	var missing []Requirement
	for _, req := range declared {
		if _, ok := have[req.Normalized]; !ok {
			missing = append(missing, req)
		}
	}
	return missing
}

// Names returns the manifest names of reqs, sorted.
func Names(reqs []Requirement) []string {
	names := make([]string, 0, len(reqs))
	for _, r := range reqs {
		names = append(names, r.Name)
	}
	slices.Sort(names)
	return names
}
