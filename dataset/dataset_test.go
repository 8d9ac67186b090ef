package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaultIsACopy(t *testing.T) {
	d := Default()
	d.Queries[0] = "changed"
	if SearchQueries[0] != "Selenium WebDriver" {
		t.Errorf("Default() shares its backing array with SearchQueries")
	}
	if len(d.Credentials) != 3 || d.Credentials[2] != (Credential{"user3@example.com", "pass3"}) {
		t.Errorf("Default().Credentials = %v", d.Credentials)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		desc    string
		name    string
		content string
		want    Set
	}{
		{
			desc: "yaml",
			name: "data.yaml",
			content: `queries:
  - golang
  - webdriver
credentials:
  - email: a@example.com
    password: secret
`,
			want: Set{
				Queries:     []string{"golang", "webdriver"},
				Products:    ProductNames,
				Credentials: []Credential{{"a@example.com", "secret"}},
			},
		},
		{
			desc:    "json",
			name:    "data.JSON",
			content: `{"products": ["kettle"]}`,
			want: Set{
				Queries:     SearchQueries,
				Products:    []string{"kettle"},
				Credentials: Credentials,
			},
		},
	}
	for _, test := range tests {
		got, err := Load(write(t, test.name, test.content))
		if err != nil {
			t.Errorf("%s: Load() returned error: %v", test.desc, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("%s: Load() mismatch (-want +got):\n%s", test.desc, diff)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		desc string
		path string
	}{
		{"unknown extension", write(t, "data.csv", "a,b")},
		{"bad yaml", write(t, "data.yml", "queries: [")},
		{"missing file", filepath.Join(t.TempDir(), "nope.json")},
	}
	for _, test := range tests {
		if _, err := Load(test.path); err == nil {
			t.Errorf("%s: Load(%q) returned nil error", test.desc, test.path)
		}
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	want := Set{
		Queries:     []string{"selenium grid", "page objects"},
		Products:    []string{"mouse"},
		Credentials: []Credential{{"x@example.com", "pw1"}, {"y@example.com", "pw2"}},
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := WriteWorkbook(want, path); err != nil {
		t.Fatalf("WriteWorkbook() returned error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}
