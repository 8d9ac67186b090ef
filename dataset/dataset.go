// Package dataset holds the parameters of the data-driven lessons.
//
// The built-in values are used unless a data file is given. Files are read by
// extension: YAML (.yaml, .yml), JSON (.json) or an Excel workbook (.xlsx)
// with the sheets "queries", "products" and "credentials".
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credential is one login used by the sign-in scenarios.
type Credential struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

// Set is a complete collection of test parameters.
type Set struct {
	Queries     []string     `yaml:"queries" json:"queries"`
	Products    []string     `yaml:"products" json:"products"`
	Credentials []Credential `yaml:"credentials" json:"credentials"`
}

var (
	// SearchQueries feed the parametrized search scenario.
	SearchQueries = []string{
		"Selenium WebDriver",
		"Python programming",
		"Web automation",
		"Test automation",
		"Browser testing",
	}
	ProductNames = []string{"laptop", "smartphone", "headphones", "camera", "tablet"}
	Credentials  = []Credential{
		{Email: "user1@example.com", Password: "pass1"},
		{Email: "user2@example.com", Password: "pass2"},
		{Email: "user3@example.com", Password: "pass3"},
	}
)

// Default returns a copy of the built-in values.
func Default() Set {
	return Set{
		Queries:     append([]string(nil), SearchQueries...),
		Products:    append([]string(nil), ProductNames...),
		Credentials: append([]Credential(nil), Credentials...),
	}
}

// Load reads a data file. Lists missing from the file keep their built-in
// values.
func Load(path string) (Set, error) {
	var (
		s   Set
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		s, err = decodeFile(path, yaml.Unmarshal)
	case ".json":
		s, err = decodeFile(path, json.Unmarshal)
	case ".xlsx":
		s, err = loadWorkbook(path)
	default:
		return Set{}, fmt.Errorf("unsupported data file %q: extension %q is not one of .yaml, .yml, .json, .xlsx", path, ext)
	}
	if err != nil {
		return Set{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return s.withDefaults(), nil
}

func (s Set) withDefaults() Set {
	d := Default()
	if len(s.Queries) == 0 {
		s.Queries = d.Queries
	}
	if len(s.Products) == 0 {
		s.Products = d.Products
	}
	if len(s.Credentials) == 0 {
		s.Credentials = d.Credentials
	}
	return s
}

func decodeFile(path string, unmarshal func([]byte, interface{}) error) (Set, error) {
	var s Set
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	err = unmarshal(b, &s)
	return s, err
}
