package theme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Mapping pairs a role with the cursor file a scheme assigns to it.
type Mapping struct {
	Role Role
	File string
}

// Scheme is the cursor scheme declared by an INF installer.
type Scheme struct {
	Name     string
	Mappings []Mapping
}

var ErrNoScheme = errors.New("no [Scheme.Reg] entry")

// dirIDs are the predefined INF substitutions we care about.
var dirIDs = map[string]string{
	"":   "%",
	"10": `C:\WINDOWS`,
}

type infFile struct {
	sections map[string][]string
}

func readINF(r io.Reader) (*infFile, error) {
	inf := &infFile{sections: map[string][]string{}}
	section := ""

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}
		inf.sections[section] = append(inf.sections[section], line)
	}
	return inf, sc.Err()
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return strings.Trim(s, `"`)
}

func (inf *infFile) vars() map[string]string {
	vars := map[string]string{}
	for _, line := range inf.sections["strings"] {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars[strings.ToLower(strings.TrimSpace(k))] = unquote(v)
	}
	return vars
}

// expand replaces every %name% with its [Strings] value or a directory id.
func expand(s string, vars map[string]string) (string, error) {
	var out strings.Builder
	for {
		start := strings.IndexByte(s, '%')
		if start < 0 {
			out.WriteString(s)
			return out.String(), nil
		}
		end := strings.IndexByte(s[start+1:], '%')
		if end < 0 {
			return "", fmt.Errorf("unclosed %% in %q", s)
		}
		key := s[start+1 : start+1+end]

		v, ok := vars[strings.ToLower(key)]
		if !ok {
			v, ok = dirIDs[key]
		}
		if !ok {
			return "", fmt.Errorf("no substitution for %%%s%%", key)
		}
		out.WriteString(s[:start])
		out.WriteString(v)
		s = s[start+end+2:]
	}
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `\/`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// ParseINF reads the scheme of a cursor installer. The [Scheme.Reg] entry
// has the form
//
//	HKCU,"Control Panel\Cursors\Schemes","<name>",<flags>,"<file>,<file>,..."
//
// where files are listed in Role order. Entries past the known roles and
// empty entries are ignored.
func ParseINF(r io.Reader) (*Scheme, error) {
	inf, err := readINF(r)
	if err != nil {
		return nil, err
	}
	reg := inf.sections["scheme.reg"]
	if len(reg) == 0 {
		return nil, ErrNoScheme
	}

	line, err := expand(reg[0], inf.vars())
	if err != nil {
		return nil, err
	}

	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return nil, fmt.Errorf("short scheme entry %q", line)
	}

	s := &Scheme{Name: unquote(fields[2])}
	for i, f := range fields[4:] {
		if Role(i) >= numRoles {
			break
		}
		file := baseName(unquote(f))
		if file == "" {
			continue
		}
		s.Mappings = append(s.Mappings, Mapping{Role: Role(i), File: file})
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scheme entry %q has no name", line)
	}
	return s, nil
}
