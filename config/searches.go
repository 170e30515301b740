package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"renov-scraper/models"
)

type searchesFile struct {
	Searches []models.SearchRequest `yaml:"searches"`
}

// LoadSearches reads saved searches from a YAML file of the form
//
//	searches:
//	  - location: Lyon
//	    propertyType: house
//	    maxPrice: 200000
//
// Every entry is validated; the first invalid entry fails the whole file.
func LoadSearches(path string) ([]models.SearchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read searches %q: %w", path, err)
	}

	var f searchesFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("config: parse searches %q: %w", path, err)
	}

	for i, s := range f.Searches {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("config: search #%d: %w", i+1, err)
		}
	}
	return f.Searches, nil
}

// Searches returns the saved searches when SearchesFile is set, otherwise the
// single search described by the SEARCH_* variables.
func (c *Config) Searches() ([]models.SearchRequest, error) {
	if c.SearchesFile != "" {
		return LoadSearches(c.SearchesFile)
	}
	if err := c.DefaultSearch.Validate(); err != nil {
		return nil, fmt.Errorf("config: default search: %w", err)
	}
	return []models.SearchRequest{c.DefaultSearch}, nil
}
