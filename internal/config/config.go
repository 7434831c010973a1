// Package config loads and validates the stack configuration file.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"nodestack/internal/constants"
	"nodestack/internal/errors"
	"nodestack/internal/types"
	"nodestack/internal/validation"
)

// Config is the full stack configuration parsed from stack.toml
type Config struct {
	Server   ServerConfig             `toml:"server"`
	Runtime  RuntimeConfig            `toml:"runtime"`
	Health   HealthConfig             `toml:"health"`
	Restart  RestartConfig            `toml:"restart"`
	Profiles ProfilesConfig           `toml:"profiles"`
	Services map[string]ServiceConfig `toml:"services"`
}

// ServerConfig holds the API server settings
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	AllowOrigins    []string `toml:"allow_origins"`
	LogLevel        string   `toml:"log_level"`
}

// RuntimeConfig holds container runtime settings
type RuntimeConfig struct {
	CommandTimeout Duration `toml:"command_timeout"`
	RestartTimeout Duration `toml:"restart_timeout"`
	// ComposeFile is optional; when set, every declared container is
	// cross-checked against the compose services at load time
	ComposeFile string `toml:"compose_file"`
}

// HealthConfig holds the probe engine settings
type HealthConfig struct {
	Interval     Duration `toml:"interval"`
	CycleTimeout Duration `toml:"cycle_timeout"`
	ProbeTimeout Duration `toml:"probe_timeout"`
	Retries      int      `toml:"retries"`
	BackoffBase  Duration `toml:"backoff_base"`
	BackoffMax   Duration `toml:"backoff_max"`
	Workers      int      `toml:"workers"`
}

// RestartConfig holds restart orchestration settings
type RestartConfig struct {
	Delay Duration `toml:"delay"`
}

// ProfilesConfig holds the legacy profile alias table. Values may be a
// single canonical id or a list of them; the raw form is normalized into
// tagged ProfileTarget values at load time.
type ProfilesConfig struct {
	Legacy map[string]interface{} `toml:"legacy"`

	aliases map[string]ProfileTarget
}

// ProfileTarget is the tagged resolution target of a legacy profile id:
// exactly one of Single or Multiple is set.
type ProfileTarget struct {
	Single   string
	Multiple []string
}

// IsMultiple reports whether the target names more than one canonical profile
func (t ProfileTarget) IsMultiple() bool {
	return len(t.Multiple) > 0
}

// IDs returns the canonical profile ids the target names
func (t ProfileTarget) IDs() []string {
	if t.IsMultiple() {
		return t.Multiple
	}
	return []string{t.Single}
}

// Aliases returns the normalized legacy alias table
func (p *ProfilesConfig) Aliases() map[string]ProfileTarget {
	return p.aliases
}

// ServiceConfig describes one manageable service
type ServiceConfig struct {
	DisplayName string   `toml:"display_name"`
	Endpoint    string   `toml:"endpoint"`
	Protocol    string   `toml:"protocol"`
	Profile     string   `toml:"profile"`
	DependsOn   []string `toml:"depends_on"`
	Critical    bool     `toml:"critical"`
	// HealthPath is the probe target for http services, e.g. "/info"
	HealthPath string `toml:"health_path"`
	// Container is the runtime container name; defaults to the service name
	Container string `toml:"container"`
	// DSN is the connection string for store services; when empty the
	// probe degrades to a plain socket connect
	DSN string `toml:"dsn"`
	// VersionLabel names the container label carrying the service version
	VersionLabel string `toml:"version_label"`
}

// Default returns a configuration with all defaults applied and no services
func Default() *Config {
	cfg := &Config{Services: map[string]ServiceConfig{}}
	cfg.applyDefaults()
	return cfg
}

// Load reads, parses and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(errors.ErrConfigParse, "failed to read configuration", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.ConfigParseError(err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(constants.DefaultServerReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(constants.DefaultServerWriteTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(constants.DefaultServerShutdownTimeout)
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Runtime.CommandTimeout == 0 {
		c.Runtime.CommandTimeout = Duration(constants.DefaultRuntimeCommandTimeout)
	}
	if c.Runtime.RestartTimeout == 0 {
		c.Runtime.RestartTimeout = Duration(constants.DefaultRestartTimeout)
	}

	if c.Health.Interval == 0 {
		c.Health.Interval = Duration(constants.DefaultCheckInterval)
	}
	if c.Health.CycleTimeout == 0 {
		c.Health.CycleTimeout = Duration(constants.DefaultCycleTimeout)
	}
	if c.Health.ProbeTimeout == 0 {
		c.Health.ProbeTimeout = Duration(constants.DefaultProbeTimeout)
	}
	if c.Health.Retries == 0 {
		c.Health.Retries = constants.DefaultProbeRetries
	}
	if c.Health.BackoffBase == 0 {
		c.Health.BackoffBase = Duration(constants.DefaultBackoffBase)
	}
	if c.Health.BackoffMax == 0 {
		c.Health.BackoffMax = Duration(constants.DefaultBackoffMax)
	}
	if c.Health.Workers == 0 {
		c.Health.Workers = constants.DefaultProbeWorkers
	}

	if c.Restart.Delay == 0 {
		c.Restart.Delay = Duration(constants.DefaultRestartDelay)
	}

	if c.Services == nil {
		c.Services = map[string]ServiceConfig{}
	}
}

// Validate checks field-level correctness and fills per-service defaults.
// Cross-service dependency references are checked at graph build time,
// not here.
func (c *Config) Validate() error {
	// The probe loop runs at least one attempt; a non-positive budget
	// would skip probing entirely and report every service healthy
	if c.Health.Retries < 1 {
		return errors.ConfigValidationError("health.retries", "must be at least 1")
	}

	for _, name := range c.ServiceNames() {
		svc := c.Services[name]

		if svc.DisplayName == "" {
			svc.DisplayName = name
		}
		if svc.Container == "" {
			svc.Container = name
		}
		c.Services[name] = svc

		if err := validation.ServiceName(name); err != nil {
			return errors.ConfigValidationError(fmt.Sprintf("services.%s", name), err.Error())
		}
		if err := validation.ServiceName(svc.Container); err != nil {
			return errors.ConfigValidationError(fmt.Sprintf("services.%s.container", name), err.Error())
		}

		switch types.Protocol(svc.Protocol) {
		case types.ProtocolStreamRPC, types.ProtocolHTTP, types.ProtocolTCP, types.ProtocolStore:
		default:
			return errors.ConfigValidationError(fmt.Sprintf("services.%s.protocol", name),
				fmt.Sprintf("unknown protocol %q", svc.Protocol))
		}

		if err := validation.Endpoint(svc.Endpoint); err != nil {
			return errors.ConfigValidationError(fmt.Sprintf("services.%s.endpoint", name), err.Error())
		}

		if svc.Profile == "" {
			return errors.ConfigValidationError(fmt.Sprintf("services.%s.profile", name), "profile is required")
		}
		if err := validation.ProfileID(svc.Profile); err != nil {
			return errors.ConfigValidationError(fmt.Sprintf("services.%s.profile", name), err.Error())
		}

		if svc.HealthPath != "" && types.Protocol(svc.Protocol) != types.ProtocolHTTP {
			return errors.ConfigValidationError(fmt.Sprintf("services.%s.health_path", name),
				"health_path is only valid for http services")
		}
	}

	aliases, err := normalizeLegacyProfiles(c.Profiles.Legacy)
	if err != nil {
		return err
	}
	c.Profiles.aliases = aliases

	return nil
}

// ServiceNames returns all configured service names in a stable order
func (c *Config) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalizeLegacyProfiles converts the raw alias table into tagged targets.
// A string value becomes Single, an array of strings becomes Multiple.
func normalizeLegacyProfiles(raw map[string]interface{}) (map[string]ProfileTarget, error) {
	aliases := make(map[string]ProfileTarget, len(raw))

	for legacy, value := range raw {
		if err := validation.ProfileID(legacy); err != nil {
			return nil, errors.ConfigValidationError(fmt.Sprintf("profiles.legacy.%s", legacy), err.Error())
		}

		switch v := value.(type) {
		case string:
			if err := validation.ProfileID(v); err != nil {
				return nil, errors.ConfigValidationError(fmt.Sprintf("profiles.legacy.%s", legacy), err.Error())
			}
			aliases[legacy] = ProfileTarget{Single: v}
		case []interface{}:
			if len(v) == 0 {
				return nil, errors.ConfigValidationError(fmt.Sprintf("profiles.legacy.%s", legacy),
					"alias list cannot be empty")
			}
			ids := make([]string, 0, len(v))
			for _, item := range v {
				id, ok := item.(string)
				if !ok {
					return nil, errors.ConfigValidationError(fmt.Sprintf("profiles.legacy.%s", legacy),
						"alias list must contain only strings")
				}
				if err := validation.ProfileID(id); err != nil {
					return nil, errors.ConfigValidationError(fmt.Sprintf("profiles.legacy.%s", legacy), err.Error())
				}
				ids = append(ids, id)
			}
			aliases[legacy] = ProfileTarget{Multiple: ids}
		default:
			return nil, errors.ConfigValidationError(fmt.Sprintf("profiles.legacy.%s", legacy),
				"alias must be a profile id or a list of profile ids")
		}
	}

	return aliases, nil
}
