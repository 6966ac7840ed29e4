package overrides

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Directive describes non-default handling for one variable's page
type Directive struct {
	MultiTable  bool     `json:"multitable,omitempty"`
	Skip        bool     `json:"skip,omitempty"`
	File        string   `json:"file,omitempty"`
	Indented    bool     `json:"indented,omitempty"`
	HyphenSep   bool     `json:"hyphen_sep,omitempty"`
	Subheadings bool     `json:"subheadings,omitempty"`
	MultiLevel  bool     `json:"multilevel,omitempty"`
	Numeric     *Numeric `json:"numeric,omitempty"`
}

// Numeric replaces a placeholder row with one row per integer in [From, To]
type Numeric struct {
	Code     string `json:"code"`
	Digits   int    `json:"digits"`
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

// MaxNumericRange bounds the number of rows a numeric directive may generate
const MaxNumericRange = 100000

// Validate checks a numeric directive
func (n *Numeric) Validate() error {
	if n.Code == "" {
		return fmt.Errorf("numeric.code is required")
	}
	if n.Digits <= 0 {
		return fmt.Errorf("numeric.digits must be positive, got %d", n.Digits)
	}
	if n.From > n.To {
		return fmt.Errorf("numeric range is empty: from %d > to %d", n.From, n.To)
	}
	if int64(n.To)-int64(n.From) >= MaxNumericRange {
		return fmt.Errorf("numeric range too large: %d rows, limit %d", int64(n.To)-int64(n.From)+1, MaxNumericRange)
	}
	return nil
}

// Registry holds the directives loaded from an override file. It is
// read-only once loaded.
type Registry struct {
	directives map[string]Directive
	dir        string
}

// Load reads the override file at path. An empty path yields an empty registry.
// Relative substitution files are resolved against the override file's directory.
func Load(path string) (*Registry, error) {
	if path == "" {
		return &Registry{directives: map[string]Directive{}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading override file: %w", err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing override file %s: %w", path, err)
	}
	reg.dir = filepath.Dir(path)
	return reg, nil
}

// Parse decodes an override document. Unknown keys are rejected.
func Parse(data []byte) (*Registry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	directives := make(map[string]Directive)
	if err := dec.Decode(&directives); err != nil {
		return nil, err
	}

	for code, d := range directives {
		if d.Numeric != nil {
			if err := d.Numeric.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", code, err)
			}
		}
		if d.Skip && d.File != "" {
			return nil, fmt.Errorf("%s: skip and file are mutually exclusive", code)
		}
	}

	return &Registry{directives: directives}, nil
}

// Lookup returns the directive for a variable code, if any
func (r *Registry) Lookup(code string) (Directive, bool) {
	d, ok := r.directives[code]
	return d, ok
}

// Codes returns the configured variable codes in sorted order
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.directives))
	for code := range r.directives {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of directives
func (r *Registry) Len() int {
	return len(r.directives)
}

// ResolveFile returns the path of a substitution file, relative paths being
// taken from the override file's directory.
func (r *Registry) ResolveFile(file string) string {
	if file == "" || filepath.IsAbs(file) || r.dir == "" {
		return file
	}
	return filepath.Join(r.dir, file)
}
