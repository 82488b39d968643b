package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"venuefeed/model"
)

// Site is one configured feed: a named set of sources sharing a zone,
// an output template, and an optional deploy target.
type Site struct {
	Key                 string         `json:"key"`
	Name                string         `json:"name"`
	Template            string         `json:"template"`
	Timezone            string         `json:"timezone"`
	TargetRepo          string         `json:"target_repo"`
	TargetBranch        string         `json:"target_branch"`
	GenerateDescription bool           `json:"generate_description"`
	Sources             []SourceConfig `json:"sources"`

	location *time.Location
}

// SourceConfig is the on-disk form of one source definition.
type SourceConfig struct {
	Key     string         `json:"key"`
	Name    string         `json:"name"`
	URL     string         `json:"url"`
	Shape   string         `json:"shape"`
	Options map[string]any `json:"options"`
}

// Location returns the site's resolved zone.
func (s *Site) Location() *time.Location { return s.location }

// ModelSources converts the site's source definitions into descriptors,
// each carrying the site's resolved zone.
func (s *Site) ModelSources() []model.Source {
	out := make([]model.Source, 0, len(s.Sources))
	for _, sc := range s.Sources {
		shape := sc.Shape
		if shape == "" {
			shape = "html"
		}
		out = append(out, model.Source{
			Key:      sc.Key,
			Name:     sc.Name,
			URL:      sc.URL,
			Shape:    shape,
			Location: s.location,
			Options:  sc.Options,
		})
	}
	return out
}

// LoadSite reads and validates one site config file.
func LoadSite(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site config: %w", err)
	}

	site := &Site{}
	if err := json.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("parse site config %s: %w", path, err)
	}

	if err := validateSite(site); err != nil {
		return nil, fmt.Errorf("validate site config %s: %w", path, err)
	}

	loc, err := time.LoadLocation(site.Timezone)
	if err != nil {
		return nil, fmt.Errorf("site %s: load timezone %q: %w", site.Key, site.Timezone, err)
	}
	site.location = loc

	if site.TargetBranch == "" {
		site.TargetBranch = "main"
	}
	if site.Template == "" {
		site.Template = "default"
	}
	return site, nil
}

// LoadSiteByKey loads <key>.json from the sites directory.
func LoadSiteByKey(dir, key string) (*Site, error) {
	return LoadSite(filepath.Join(dir, key+".json"))
}

// LoadAllSites loads every *.json site config in dir, sorted by file
// name for a stable run order.
func LoadAllSites(dir string) ([]*Site, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan sites dir: %w", err)
	}
	sort.Strings(paths)

	var sites []*Site
	for _, path := range paths {
		site, err := LoadSite(path)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func validateSite(site *Site) error {
	if strings.TrimSpace(site.Key) == "" {
		return fmt.Errorf("site key is required")
	}
	if strings.TrimSpace(site.Name) == "" {
		return fmt.Errorf("site name is required")
	}
	if site.Timezone == "" {
		return fmt.Errorf("site timezone is required")
	}
	if len(site.Sources) == 0 {
		return fmt.Errorf("site %s: at least one source is required", site.Key)
	}

	seen := make(map[string]bool, len(site.Sources))
	for i, src := range site.Sources {
		if strings.TrimSpace(src.Key) == "" {
			return fmt.Errorf("site %s: source %d has no key", site.Key, i)
		}
		if strings.TrimSpace(src.Name) == "" {
			return fmt.Errorf("site %s: source %q has no name", site.Key, src.Key)
		}
		if strings.TrimSpace(src.URL) == "" {
			return fmt.Errorf("site %s: source %q has no url", site.Key, src.Key)
		}
		if seen[src.Key] {
			return fmt.Errorf("site %s: duplicate source key %q", site.Key, src.Key)
		}
		seen[src.Key] = true
	}
	return nil
}
