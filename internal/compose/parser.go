// Package compose parses docker-compose files far enough to cross-check
// the stack configuration against the deployed service set.
package compose

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File represents the parts of a docker-compose.yaml we care about
type File struct {
	Version  string              `yaml:"version"`
	Services map[string]*Service `yaml:"services"`
}

// Service represents a service entry in docker-compose.yaml
type Service struct {
	Image         string        `yaml:"image"`
	ContainerName string        `yaml:"container_name"`
	DependsOn     StringOrSlice `yaml:"depends_on"`
	Profiles      StringOrSlice `yaml:"profiles"`
}

// StringOrSlice can be either a string or a slice of strings
type StringOrSlice []string

func (s *StringOrSlice) UnmarshalYAML(value *yaml.Node) error {
	var multi []string
	err := value.Decode(&multi)
	if err != nil {
		var single string
		if err := value.Decode(&single); err != nil {
			// depends_on also appears as a map of service -> condition
			var asMap map[string]yaml.Node
			if err := value.Decode(&asMap); err != nil {
				return err
			}
			for name := range asMap {
				multi = append(multi, name)
			}
			*s = multi
			return nil
		}
		*s = []string{single}
		return nil
	}
	*s = multi
	return nil
}

// Parse reads and parses a docker-compose file
func Parse(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse compose file %s: %w", path, err)
	}

	return &file, nil
}

// HasService reports whether the compose file declares a service or a
// container with the given name.
func (f *File) HasService(name string) bool {
	if _, ok := f.Services[name]; ok {
		return true
	}
	for _, svc := range f.Services {
		if svc != nil && svc.ContainerName == name {
			return true
		}
	}
	return false
}

// ServiceNames returns the declared compose service names
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	return names
}
