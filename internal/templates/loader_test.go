package templates

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validCatalog = `
version: 1
templates:
  - id: claims_for_client
    category: reporting
    description: Claims of a client since a date.
    dialects: [postgres]
    parameters:
      - name: client_id
        type: integer
        required: true
      - name: since
        type: date
        default: "2024-01-01"
    sql: |
      SELECT id FROM claims
      WHERE client_id = :client_id AND claim_date >= :since
  - id: all_cars
    category: aggregation
    description: Every car.
    sql: SELECT id, car_type::text FROM cars
`

func TestLoad(t *testing.T) {
	store, err := Load(strings.NewReader(validCatalog))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if store.Len() != 2 {
		t.Fatalf("Expected 2 templates, got %d", store.Len())
	}

	tmpl, err := store.Get("claims_for_client")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(tmpl.Parameters) != 2 {
		t.Fatalf("Expected 2 parameters, got %d", len(tmpl.Parameters))
	}
	if tmpl.Parameters[0].Name != "client_id" || !tmpl.Parameters[0].Required {
		t.Errorf("Unexpected first parameter: %+v", tmpl.Parameters[0])
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if d, ok := tmpl.Parameters[1].Default.(time.Time); !ok || !d.Equal(want) {
		t.Errorf("Expected default %v, got %v", want, tmpl.Parameters[1].Default)
	}

	cats := store.Categories()
	if len(cats) != 2 || cats[0] != "reporting" || cats[1] != "aggregation" {
		t.Errorf("Expected categories in first-seen order, got %v", cats)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(validCatalog), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 templates, got %d", store.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		catalog string
		want    string
	}{
		{
			name:    "empty",
			catalog: "",
			want:    "catalog is empty",
		},
		{
			name:    "wrong version",
			catalog: "version: 2\ntemplates: []\n",
			want:    "unsupported catalog version 2",
		},
		{
			name: "missing id",
			catalog: `version: 1
templates:
  - category: c
    description: d
    sql: SELECT 1
`,
			want: "templates[0]: id is required",
		},
		{
			name: "duplicate id",
			catalog: `version: 1
templates:
  - {id: a, category: c, description: d, sql: SELECT 1}
  - {id: a, category: c, description: d, sql: SELECT 2}
`,
			want: "a: duplicate template id",
		},
		{
			name: "missing fields",
			catalog: `version: 1
templates:
  - id: a
`,
			want: "a: category is required",
		},
		{
			name: "undeclared placeholder",
			catalog: `version: 1
templates:
  - {id: a, category: c, description: d, sql: "SELECT * FROM claims WHERE id = :claim_id"}
`,
			want: "placeholder :claim_id is not a declared parameter",
		},
		{
			name: "unused parameter",
			catalog: `version: 1
templates:
  - id: a
    category: c
    description: d
    parameters:
      - {name: x, type: string}
    sql: SELECT 1
`,
			want: `parameter "x" is never used`,
		},
		{
			name: "unknown type",
			catalog: `version: 1
templates:
  - id: a
    category: c
    description: d
    parameters:
      - {name: x, type: money}
    sql: SELECT :x
`,
			want: `unknown type "money"`,
		},
		{
			name: "bad default",
			catalog: `version: 1
templates:
  - id: a
    category: c
    description: d
    parameters:
      - {name: x, type: integer, default: "ten"}
    sql: SELECT :x
`,
			want: "default for \"x\"",
		},
		{
			name: "required with default",
			catalog: `version: 1
templates:
  - id: a
    category: c
    description: d
    parameters:
      - {name: x, type: integer, required: true, default: "1"}
    sql: SELECT :x
`,
			want: "cannot have a default",
		},
		{
			name: "invalid parameter name",
			catalog: `version: 1
templates:
  - id: a
    category: c
    description: d
    parameters:
      - {name: 1x, type: integer}
    sql: SELECT 1
`,
			want: `invalid parameter name "1x"`,
		},
		{
			name: "unknown dialect",
			catalog: `version: 1
templates:
  - {id: a, category: c, description: d, dialects: [oracle], sql: SELECT 1}
`,
			want: `unknown dialect "oracle"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.catalog))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got:\n%v", tt.want, err)
			}
		})
	}
}

func TestLoadCollectsAllProblems(t *testing.T) {
	catalog := `version: 1
templates:
  - {id: a, category: c, description: d, sql: "SELECT :x"}
  - {id: b, category: c, description: d, sql: "SELECT :y"}
`
	_, err := Load(strings.NewReader(catalog))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(verr.Problems) != 2 {
		t.Errorf("Expected 2 problems, got %v", verr.Problems)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	catalog := `version: 1
templates:
  - {id: a, category: c, description: d, sql: SELECT 1, owner: me}
`
	if _, err := Load(strings.NewReader(catalog)); err == nil {
		t.Error("Expected error for unknown field")
	}
}
