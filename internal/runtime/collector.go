package runtime

import (
	"context"
	"strings"
	"sync"
	"time"

	"nodestack/internal/cache"
	"nodestack/internal/constants"
	"nodestack/internal/errors"
	"nodestack/internal/logger"
	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// Collector correlates live runtime state with registry entries. One bulk
// query per cycle feeds every probe; per-name uptime and version lookups
// are best-effort and never fail a health pass.
type Collector struct {
	runtime  Runtime
	registry *registry.Registry

	// version lookups hit docker inspect, so answers are cached
	versions *cache.Cache[string, string]

	mu        sync.RWMutex
	processes map[string]types.Process
	fetchedAt time.Time
}

// NewCollector creates a collector over the given runtime and registry
func NewCollector(rt Runtime, reg *registry.Registry) *Collector {
	return &Collector{
		runtime:   rt,
		registry:  reg,
		versions:  cache.NewCache[string, string](constants.DefaultVersionCacheTTL, 256),
		processes: map[string]types.Process{},
	}
}

// Refresh performs the bulk runtime query and correlates the results to
// registered services by container name. Containers that do not belong to
// a registered service are ignored.
func (c *Collector) Refresh(ctx context.Context) error {
	listed, err := c.runtime.ListProcesses(ctx)
	if err != nil {
		return err
	}

	byContainer := make(map[string]types.Process, len(listed))
	for _, proc := range listed {
		byContainer[proc.Name] = proc
	}

	correlated := make(map[string]types.Process, c.registry.Len())
	for _, svc := range c.registry.All() {
		if proc, ok := byContainer[svc.Container]; ok {
			correlated[svc.Name] = proc
		}
	}

	c.mu.Lock()
	c.processes = correlated
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return nil
}

// ProcessOf returns the last-fetched process for a service name
func (c *Collector) ProcessOf(name string) (types.Process, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	proc, ok := c.processes[name]
	return proc, ok
}

// IsLive reports whether the service has a live process in the last
// snapshot. This is liveness only, not a health probe.
func (c *Collector) IsLive(name string) bool {
	proc, ok := c.ProcessOf(name)
	return ok && proc.State.Live()
}

// FetchedAt returns when the last bulk query completed
func (c *Collector) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// UptimeOf returns the service's uptime in seconds, nil when unknown.
// Callers must tolerate nil without failing the health pass.
func (c *Collector) UptimeOf(ctx context.Context, name string) *int64 {
	svc, ok := c.registry.Get(name)
	if !ok || !c.IsLive(name) {
		return nil
	}

	started, err := c.runtime.StartedAt(ctx, svc.Container)
	if err != nil {
		logger.WithFields(logger.Fields{"service": name, "error": err.Error()}).
			Debug("uptime lookup failed")
		return nil
	}

	seconds := int64(time.Since(started).Seconds())
	if seconds < 0 {
		return nil
	}
	return &seconds
}

// VersionOf returns the service's version, nil when unknown. The version
// comes from the configured container label, falling back to the image
// tag; answers are cached with a TTL.
func (c *Collector) VersionOf(ctx context.Context, name string) *string {
	svc, ok := c.registry.Get(name)
	if !ok {
		return nil
	}

	if cached, ok := c.versions.Get(name); ok {
		return &cached
	}

	version := ""
	if svc.VersionLabel != "" {
		labelled, err := c.runtime.Label(ctx, svc.Container, svc.VersionLabel)
		if err != nil {
			logger.WithFields(logger.Fields{"service": name, "error": err.Error()}).
				Debug("version label lookup failed")
		} else {
			version = labelled
		}
	}

	if version == "" {
		if proc, ok := c.ProcessOf(name); ok {
			version = imageTag(proc.Image)
		}
	}

	if version == "" {
		return nil
	}

	c.versions.Set(name, version)
	return &version
}

// Restart restarts the container backing a service
func (c *Collector) Restart(ctx context.Context, name string) error {
	svc, ok := c.registry.Get(name)
	if !ok {
		return errors.ServiceNotFound(name)
	}
	c.versions.Delete(name)
	return c.runtime.Restart(ctx, svc.Container)
}

// imageTag extracts the tag portion of an image reference
func imageTag(image string) string {
	idx := strings.LastIndex(image, ":")
	if idx < 0 || strings.Contains(image[idx+1:], "/") {
		return ""
	}
	return image[idx+1:]
}
