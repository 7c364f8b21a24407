package seo

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var routesYAML []byte

// Route is one static page in the locale×path registry.
type Route struct {
	Path       string  `yaml:"path"`
	ChangeFreq string  `yaml:"changefreq"`
	Priority   float64 `yaml:"priority"`
}

type registryFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadRegistry parses the embedded static-path registry.
func LoadRegistry() ([]Route, error) {
	var file registryFile
	if err := yaml.Unmarshal(routesYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse route registry: %w", err)
	}
	for i, r := range file.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %d: path %q must start with /", i, r.Path)
		}
	}
	return file.Routes, nil
}
