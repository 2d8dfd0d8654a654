package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Catalog lists the specializations and jurisdictions offered as
// suggestions when registering and searching.
type Catalog struct {
	Specializations []string `yaml:"specializations"`
	Jurisdictions   []string `yaml:"jurisdictions"`
}

func LoadCatalog(catalogFile string) (*Catalog, error) {
	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", catalogFile, err)
	}

	for i, s := range catalog.Specializations {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("specialization at index %d is empty", i)
		}
	}
	for i, j := range catalog.Jurisdictions {
		if strings.TrimSpace(j) == "" {
			return nil, fmt.Errorf("jurisdiction at index %d is empty", i)
		}
	}

	return &catalog, nil
}

// UnknownSpecializations returns the entries of specs the catalog does not
// list, compared case-insensitively.
func (c *Catalog) UnknownSpecializations(specs []string) []string {
	return unknown(c.Specializations, specs)
}

// KnownJurisdiction reports whether the catalog lists jurisdiction.
func (c *Catalog) KnownJurisdiction(jurisdiction string) bool {
	return len(unknown(c.Jurisdictions, []string{jurisdiction})) == 0
}

func unknown(known, values []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	var out []string
	for _, v := range values {
		if _, ok := set[strings.ToLower(strings.TrimSpace(v))]; !ok {
			out = append(out, v)
		}
	}
	return out
}
