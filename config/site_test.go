package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validSiteJSON = `{
	"key": "ballard",
	"name": "Ballard Breweries",
	"timezone": "America/Los_Angeles",
	"target_repo": "git@github.com:example/ballard-site.git",
	"generate_description": true,
	"sources": [
		{"key": "stoup", "name": "Stoup Brewing", "url": "https://example.com/stoup", "shape": "ajax"},
		{"key": "obec", "name": "Obec Brewing", "url": "https://example.com/obec"}
	]
}`

func writeSite(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write site config: %v", err)
	}
	return path
}

func TestLoadSite(t *testing.T) {
	path := writeSite(t, t.TempDir(), "ballard.json", validSiteJSON)

	site, err := LoadSite(path)
	if err != nil {
		t.Fatalf("LoadSite() error = %v", err)
	}

	if site.Key != "ballard" || site.Name != "Ballard Breweries" {
		t.Errorf("identity = %q/%q", site.Key, site.Name)
	}
	if site.Location() == nil || site.Location().String() != "America/Los_Angeles" {
		t.Errorf("Location() = %v", site.Location())
	}
	if site.TargetBranch != "main" {
		t.Errorf("TargetBranch = %q, want default main", site.TargetBranch)
	}
	if site.Template != "default" {
		t.Errorf("Template = %q, want default", site.Template)
	}
	if !site.GenerateDescription {
		t.Error("GenerateDescription = false")
	}
}

func TestModelSources(t *testing.T) {
	path := writeSite(t, t.TempDir(), "ballard.json", validSiteJSON)
	site, err := LoadSite(path)
	if err != nil {
		t.Fatalf("LoadSite() error = %v", err)
	}

	sources := site.ModelSources()
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Shape != "ajax" {
		t.Errorf("explicit shape = %q", sources[0].Shape)
	}
	if sources[1].Shape != "html" {
		t.Errorf("defaulted shape = %q, want html", sources[1].Shape)
	}
	for _, src := range sources {
		if src.Location != site.Location() {
			t.Errorf("source %s does not carry the site zone", src.Key)
		}
	}
}

func TestLoadSiteValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing key", `{"name": "X", "timezone": "UTC", "sources": [{"key": "a", "name": "A", "url": "http://a"}]}`},
		{"missing timezone", `{"key": "x", "name": "X", "sources": [{"key": "a", "name": "A", "url": "http://a"}]}`},
		{"bad timezone", `{"key": "x", "name": "X", "timezone": "Mars/Olympus", "sources": [{"key": "a", "name": "A", "url": "http://a"}]}`},
		{"no sources", `{"key": "x", "name": "X", "timezone": "UTC", "sources": []}`},
		{"source missing url", `{"key": "x", "name": "X", "timezone": "UTC", "sources": [{"key": "a", "name": "A"}]}`},
		{"duplicate source keys", `{"key": "x", "name": "X", "timezone": "UTC", "sources": [
			{"key": "a", "name": "A", "url": "http://a"},
			{"key": "a", "name": "B", "url": "http://b"}
		]}`},
		{"invalid json", `{"key": `},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSite(t, dir, "bad.json", tt.content)
			if _, err := LoadSite(path); err == nil {
				t.Error("LoadSite() error = nil, want failure")
			}
		})
	}
}

func TestLoadSiteByKey(t *testing.T) {
	dir := t.TempDir()
	writeSite(t, dir, "ballard.json", validSiteJSON)

	site, err := LoadSiteByKey(dir, "ballard")
	if err != nil {
		t.Fatalf("LoadSiteByKey() error = %v", err)
	}
	if site.Key != "ballard" {
		t.Errorf("Key = %q", site.Key)
	}

	if _, err := LoadSiteByKey(dir, "missing"); err == nil {
		t.Error("LoadSiteByKey(missing) error = nil, want failure")
	}
}

func TestLoadAllSitesSorted(t *testing.T) {
	dir := t.TempDir()
	second := `{"key": "fremont", "name": "Fremont", "timezone": "UTC",
		"sources": [{"key": "a", "name": "A", "url": "http://a"}]}`
	writeSite(t, dir, "fremont.json", second)
	writeSite(t, dir, "ballard.json", validSiteJSON)

	sites, err := LoadAllSites(dir)
	if err != nil {
		t.Fatalf("LoadAllSites() error = %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("got %d sites, want 2", len(sites))
	}
	if sites[0].Key != "ballard" || sites[1].Key != "fremont" {
		t.Errorf("order = %q, %q; want file name order", sites[0].Key, sites[1].Key)
	}
}

func TestLoadAllSitesEmptyDir(t *testing.T) {
	sites, err := LoadAllSites(t.TempDir())
	if err != nil {
		t.Fatalf("LoadAllSites() error = %v", err)
	}
	if len(sites) != 0 {
		t.Errorf("got %d sites, want 0", len(sites))
	}
}
