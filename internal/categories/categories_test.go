package categories

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pfrederiksen/census-dict/internal/variable"
)

func TestNormalize(t *testing.T) {
	table := &variable.Table{
		Head: []string{"Code", "Category"},
		Rows: [][]string{{"1", "Yes"}, {"2", "No"}},
	}

	got, err := Normalize(table, Options{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := []variable.Category{{Code: "1", Category: "Yes"}, {Code: "2", Category: "No"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestNormalize_Headings(t *testing.T) {
	rows := [][]string{{"1", "Yes"}}

	tests := []struct {
		name     string
		head     []string
		validate bool
		wantErr  error
	}{
		{name: "category", head: []string{"Code", "Category"}, validate: true},
		{name: "categories", head: []string{"Code", "Categories"}, validate: true},
		{name: "extra columns only logged", head: []string{"Code", "Category", "Notes"}, validate: true},
		{name: "wrong first heading", head: []string{"Value", "Category"}, validate: true, wantErr: ErrHeadingMismatch},
		{name: "wrong second heading", head: []string{"Code", "Label"}, validate: true, wantErr: ErrHeadingMismatch},
		{name: "too few headings", head: []string{"Code"}, validate: true, wantErr: ErrHeadingMismatch},
		{name: "lenient by default", head: []string{"Value", "Label"}, validate: false},
		{name: "lenient without head", head: nil, validate: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(&variable.Table{Head: tt.head, Rows: rows}, Options{ValidateHeadings: tt.validate})
			if tt.wantErr == nil && err != nil {
				t.Errorf("Normalize() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalize_ShortRow(t *testing.T) {
	table := &variable.Table{
		Head: []string{"Code", "Category"},
		Rows: [][]string{{"1", "Yes"}, {"Subheading"}},
	}

	got, err := Normalize(table, Options{})
	if !errors.Is(err, ErrShortRow) {
		t.Fatalf("Normalize() error = %v, want ErrShortRow", err)
	}
	if got != nil {
		t.Errorf("Normalize() = %+v, want nil on failure", got)
	}
}

func TestNormalize_StrictASCII(t *testing.T) {
	table := &variable.Table{Rows: [][]string{{"1101", "Côte d’Ivoire"}}}

	got, err := Normalize(table, Options{})
	if err != nil {
		t.Fatalf("Normalize() lenient error = %v", err)
	}
	if got[0].Category != "Côte d'Ivoire" {
		t.Errorf("Category = %q, want apostrophe replaced", got[0].Category)
	}

	if _, err := Normalize(table, Options{StrictASCII: true}); !errors.Is(err, ErrNonASCII) {
		t.Errorf("Normalize() strict error = %v, want ErrNonASCII", err)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "en dash", in: "15–19 years", want: "15-19 years"},
		{name: "em dash", in: "Other — nfd", want: "Other - nfd"},
		{name: "right single quote", in: "Children’s services", want: "Children's services"},
		{name: "double quotes", in: "“Other”", want: `"Other"`},
		{name: "no-break space alone", in: "Not\u00a0stated", want: "Not stated"},
		{name: "no-break space after space", in: "Not \u00a0stated", want: "Not stated"},
		{name: "no-break space before space", in: "Not\u00a0 stated", want: "Not stated"},
		{name: "two no-break spaces", in: "Not\u00a0\u00a0stated", want: "Not stated"},
		{name: "ascii untouched", in: "Not applicable", want: "Not applicable"},
		{name: "other non-ascii kept", in: "Māori", want: "Māori"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCheckASCII(t *testing.T) {
	if err := CheckASCII("15-19 years"); err != nil {
		t.Errorf("CheckASCII() error = %v", err)
	}
	if err := CheckASCII("Māori"); !errors.Is(err, ErrNonASCII) {
		t.Errorf("CheckASCII() error = %v, want ErrNonASCII", err)
	}
}

func TestDuplicateCodes(t *testing.T) {
	cats := []variable.Category{
		{Code: "1", Category: "a"},
		{Code: "2", Category: "b"},
		{Code: "1", Category: "c"},
		{Code: "1", Category: "d"},
	}
	if got := DuplicateCodes(cats); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("DuplicateCodes() = %v, want [1]", got)
	}
	if got := DuplicateCodes(cats[:2]); got != nil {
		t.Errorf("DuplicateCodes() = %v, want nil", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "LANP.json")
	content := `[{"code": "1201", "category": "English"}, {"code": "2101", "category": "Māori – Cook Island"}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	// Substituted lists are used verbatim, without normalization
	want := []variable.Category{
		{Code: "1201", Category: "English"},
		{Code: "2101", Category: "Māori – Cook Island"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadFile() = %+v, want %+v", got, want)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"code": 1}`), 0644) // nolint:errcheck
	if _, err := LoadFile(bad); err == nil {
		t.Error("LoadFile() expected error for malformed file")
	}
}
