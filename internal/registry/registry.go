// Package registry holds the static catalog of managed services. It is
// built once at startup from configuration and never mutated afterwards.
package registry

import (
	"sort"

	"nodestack/internal/config"
	"nodestack/internal/types"
)

// ServiceDescriptor is the immutable identity of one manageable unit
type ServiceDescriptor struct {
	Name         string         `json:"name"`
	DisplayName  string         `json:"display_name"`
	Endpoint     string         `json:"endpoint"`
	Protocol     types.Protocol `json:"protocol"`
	Profile      string         `json:"profile"`
	Dependencies []string       `json:"dependencies"`
	Critical     bool           `json:"critical"`
	HealthPath   string         `json:"health_path,omitempty"`
	Container    string         `json:"container"`
	DSN          string         `json:"-"`
	VersionLabel string         `json:"-"`
}

// Registry is the static service catalog
type Registry struct {
	services map[string]ServiceDescriptor
	order    []string
	aliases  map[string]config.ProfileTarget
}

// FromConfig builds the registry from a validated configuration
func FromConfig(cfg *config.Config) *Registry {
	r := &Registry{
		services: make(map[string]ServiceDescriptor, len(cfg.Services)),
		aliases:  cfg.Profiles.Aliases(),
	}

	for name, svc := range cfg.Services {
		deps := make([]string, len(svc.DependsOn))
		copy(deps, svc.DependsOn)

		r.services[name] = ServiceDescriptor{
			Name:         name,
			DisplayName:  svc.DisplayName,
			Endpoint:     svc.Endpoint,
			Protocol:     types.Protocol(svc.Protocol),
			Profile:      svc.Profile,
			Dependencies: deps,
			Critical:     svc.Critical,
			HealthPath:   svc.HealthPath,
			Container:    svc.Container,
			DSN:          svc.DSN,
			VersionLabel: svc.VersionLabel,
		}
		r.order = append(r.order, name)
	}
	sort.Strings(r.order)

	return r
}

// Get returns the descriptor for a service name
func (r *Registry) Get(name string) (ServiceDescriptor, bool) {
	svc, ok := r.services[name]
	return svc, ok
}

// Has reports whether a service name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.services[name]
	return ok
}

// Names returns all registered service names in a stable order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns all descriptors in a stable order
func (r *Registry) All() []ServiceDescriptor {
	services := make([]ServiceDescriptor, 0, len(r.order))
	for _, name := range r.order {
		services = append(services, r.services[name])
	}
	return services
}

// Len returns the number of registered services
func (r *Registry) Len() int {
	return len(r.services)
}
