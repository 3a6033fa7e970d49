package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/claims.yaml
var catalogFiles embed.FS

// CatalogVersion is the only catalog format version understood by Load
const CatalogVersion = 1

// KnownDialects lists the values allowed in a template's dialects field
var KnownDialects = []string{"ansi", "mysql", "postgres", "sqlite", "duckdb", "snowflake", "databricks"}

// catalogFile is the on-disk YAML layout
type catalogFile struct {
	Version   int            `yaml:"version"`
	Templates []templateSpec `yaml:"templates"`
}

type templateSpec struct {
	ID          string          `yaml:"id"`
	Category    string          `yaml:"category"`
	Description string          `yaml:"description"`
	Dialects    []string        `yaml:"dialects"`
	Parameters  []parameterSpec `yaml:"parameters"`
	SQL         string          `yaml:"sql"`
}

type parameterSpec struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	Required    bool    `yaml:"required"`
	Default     *string `yaml:"default"`
	Description string  `yaml:"description"`
}

var (
	defaultStore *Store
	defaultOnce  sync.Once
	defaultErr   error
)

// Default returns the store built from the embedded catalog.
// The catalog is parsed once; later calls share the same store.
func Default() (*Store, error) {
	defaultOnce.Do(func() {
		data, err := catalogFiles.ReadFile("catalog/claims.yaml")
		if err != nil {
			defaultErr = fmt.Errorf("failed to read embedded catalog: %w", err)
			return
		}
		defaultStore, defaultErr = load(bytes.NewReader(data), "embedded:claims.yaml")
	})

	if defaultErr != nil {
		return nil, defaultErr
	}
	return defaultStore, nil
}

// LoadFile reads a catalog from a YAML file
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return load(f, path)
}

// Load reads a catalog from r
func Load(r io.Reader) (*Store, error) {
	return load(r, "<reader>")
}

func load(r io.Reader, source string) (*Store, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Source: source, Problems: []string{"catalog is empty"}}
		}
		return nil, fmt.Errorf("failed to parse catalog %s: %w", source, err)
	}

	verr := &ValidationError{Source: source}
	if file.Version != CatalogVersion {
		verr.addf("unsupported catalog version %d (want %d)", file.Version, CatalogVersion)
	}

	ts := make([]Template, 0, len(file.Templates))
	seen := make(map[string]bool, len(file.Templates))
	for i, spec := range file.Templates {
		if spec.ID == "" {
			verr.addf("templates[%d]: id is required", i)
			continue
		}
		if seen[spec.ID] {
			verr.addf("%s: duplicate template id", spec.ID)
			continue
		}
		seen[spec.ID] = true

		t, ok := spec.build(verr)
		if ok {
			ts = append(ts, t)
		}
	}

	if len(verr.Problems) > 0 {
		return nil, verr
	}
	return NewStore(ts)
}

// build converts a spec into a Template, recording problems in verr
func (spec templateSpec) build(verr *ValidationError) (Template, bool) {
	before := len(verr.Problems)
	id := spec.ID

	if spec.Category == "" {
		verr.addf("%s: category is required", id)
	}
	if spec.Description == "" {
		verr.addf("%s: description is required", id)
	}
	if spec.SQL == "" {
		verr.addf("%s: sql is required", id)
	}
	for _, d := range spec.Dialects {
		if !slices.Contains(KnownDialects, d) {
			verr.addf("%s: unknown dialect %q", id, d)
		}
	}

	t := Template{
		ID:          id,
		Category:    spec.Category,
		Description: spec.Description,
		SQL:         spec.SQL,
		Dialects:    spec.Dialects,
	}

	declared := make(map[string]bool, len(spec.Parameters))
	for _, ps := range spec.Parameters {
		if !ValidName(ps.Name) {
			verr.addf("%s: invalid parameter name %q", id, ps.Name)
			continue
		}
		if declared[ps.Name] {
			verr.addf("%s: duplicate parameter %q", id, ps.Name)
			continue
		}
		declared[ps.Name] = true

		p := Parameter{
			Name:        ps.Name,
			Type:        ParamType(ps.Type),
			Required:    ps.Required,
			Description: ps.Description,
		}
		if !p.Type.Valid() {
			verr.addf("%s: parameter %q has unknown type %q", id, ps.Name, ps.Type)
			continue
		}
		if ps.Default != nil {
			if p.Required {
				verr.addf("%s: required parameter %q cannot have a default", id, ps.Name)
			}
			v, err := p.Type.Parse(*ps.Default)
			if err != nil {
				verr.addf("%s: default for %q: %v", id, ps.Name, err)
			}
			p.Default = v
		}
		t.Parameters = append(t.Parameters, p)
	}

	used := make(map[string]bool)
	for _, ph := range ScanPlaceholders(spec.SQL) {
		if used[ph.Name] {
			continue
		}
		used[ph.Name] = true
		if !declared[ph.Name] {
			verr.addf("%s: placeholder :%s is not a declared parameter", id, ph.Name)
		}
	}
	for _, p := range t.Parameters {
		if !used[p.Name] {
			verr.addf("%s: parameter %q is never used in sql", id, p.Name)
		}
	}

	return t, len(verr.Problems) == before
}
