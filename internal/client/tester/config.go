package tester

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chorddht/internal/config"
	"chorddht/internal/logger"

	"gopkg.in/yaml.v3"
)

// SimulationConfig controls the overall test runtime.
type SimulationConfig struct {
	Duration time.Duration `yaml:"duration"`
}

// DHTConfig carries the identifier-space parameters the tester needs to
// generate keys that look like they belong on the ring under test.
type DHTConfig struct {
	IDBits int `yaml:"idBits"`
}

// DockerBootstrapConfig discovers ring nodes by Docker container naming
// convention, for clusters started via docker-compose.
type DockerBootstrapConfig struct {
	ContainerSuffix string `yaml:"containerSuffix"`
	Network         string `yaml:"network"`
	Port            int    `yaml:"port"`
}

// BootstrapConfig selects how the tester finds nodes to query.
type BootstrapConfig struct {
	Mode    string                `yaml:"mode"` // docker | route53
	Route53 config.RegisterConfig `yaml:"route53"`
	Docker  DockerBootstrapConfig `yaml:"docker"`
}

// CSVConfig controls result export.
type CSVConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ParallelismConfig bounds per-wave worker concurrency.
type ParallelismConfig struct {
	MinWorkers int `yaml:"min"`
	MaxWorkers int `yaml:"max"`
}

// QueryConfig controls how lookup load is generated.
type QueryConfig struct {
	Rate        float64           `yaml:"rate"` // waves per second; each wave sends one request per worker
	Timeout     time.Duration     `yaml:"timeout"`
	Parallelism ParallelismConfig `yaml:"parallelism"`
}

// Config is the root configuration for the ring load tester.
type Config struct {
	Logger     config.LoggerConfig `yaml:"logger"`
	Simulation SimulationConfig    `yaml:"simulation"`
	DHT        DHTConfig           `yaml:"dht"`
	Bootstrap  BootstrapConfig     `yaml:"bootstrap"`
	CSV        CSVConfig           `yaml:"csv"`
	Query      QueryConfig         `yaml:"query"`
}

// Load reads the configuration file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	overrideBool(&cfg.Logger.Active, "LOGGER_ACTIVE")
	overrideString(&cfg.Logger.Level, "LOGGER_LEVEL")
	overrideString(&cfg.Logger.Encoding, "LOGGER_ENCODING")
	overrideString(&cfg.Logger.Mode, "LOGGER_MODE")
	overrideString(&cfg.Logger.File.Path, "LOGGER_FILE_PATH")
	overrideInt(&cfg.Logger.File.MaxSize, "LOGGER_FILE_MAXSIZE")
	overrideInt(&cfg.Logger.File.MaxBackups, "LOGGER_FILE_MAXBACKUPS")
	overrideInt(&cfg.Logger.File.MaxAge, "LOGGER_FILE_MAXAGE")
	overrideBool(&cfg.Logger.File.Compress, "LOGGER_FILE_COMPRESS")

	overrideDuration(&cfg.Simulation.Duration, "SIM_DURATION")
	overrideInt(&cfg.DHT.IDBits, "DHT_ID_BITS")

	overrideString(&cfg.Bootstrap.Mode, "BOOTSTRAP_MODE")

	overrideString(&cfg.Bootstrap.Docker.ContainerSuffix, "DOCKER_SUFFIX")
	overrideString(&cfg.Bootstrap.Docker.Network, "DOCKER_NETWORK")
	overrideInt(&cfg.Bootstrap.Docker.Port, "DOCKER_PORT")

	overrideBool(&cfg.Bootstrap.Route53.Enabled, "ROUTE53_ENABLED")
	overrideString(&cfg.Bootstrap.Route53.HostedZoneID, "ROUTE53_ZONE_ID")
	overrideString(&cfg.Bootstrap.Route53.DomainSuffix, "ROUTE53_DOMAIN_SUFFIX")
	overrideInt64(&cfg.Bootstrap.Route53.TTL, "ROUTE53_TTL")

	overrideBool(&cfg.CSV.Enabled, "CSV_ENABLED")
	overrideString(&cfg.CSV.Path, "CSV_PATH")

	overrideFloat(&cfg.Query.Rate, "QUERY_RATE")
	overrideDuration(&cfg.Query.Timeout, "QUERY_TIMEOUT")
	overrideInt(&cfg.Query.Parallelism.MinWorkers, "QUERY_PARALLELISM_MIN")
	overrideInt(&cfg.Query.Parallelism.MaxWorkers, "QUERY_PARALLELISM_MAX")

	return cfg, nil
}

func overrideString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v
	}
}

func overrideBool(dst *bool, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func overrideInt(dst *int, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func overrideInt64(dst *int64, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = i
		}
	}
}

func overrideFloat(dst *float64, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func overrideDuration(dst *time.Duration, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate checks the loaded configuration for internal consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.Logger.Active {
		switch c.Logger.Level {
		case "debug", "info", "warn", "error":
		default:
			errs = append(errs, fmt.Sprintf("logger.level must be one of [debug, info, warn, error], got %q", c.Logger.Level))
		}
		if c.Logger.Mode == "file" && c.Logger.File.Path == "" {
			errs = append(errs, "logger.file.path must be set when logger.mode = file")
		}
	}

	if c.Simulation.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.duration must be > 0 (got %v)", c.Simulation.Duration))
	}

	if c.DHT.IDBits <= 0 {
		errs = append(errs, fmt.Sprintf("dht.idBits must be > 0 (got %d)", c.DHT.IDBits))
	}

	switch c.Bootstrap.Mode {
	case "docker":
		d := c.Bootstrap.Docker
		if d.ContainerSuffix == "" {
			errs = append(errs, "bootstrap.docker.containerSuffix must not be empty when mode = docker")
		}
		if d.Port <= 0 {
			errs = append(errs, fmt.Sprintf("bootstrap.docker.port must be > 0 (got %d)", d.Port))
		}
	case "route53":
		r := c.Bootstrap.Route53
		if r.HostedZoneID == "" {
			errs = append(errs, "bootstrap.route53.hostedZoneId must not be empty when mode = route53")
		}
		if r.DomainSuffix == "" {
			errs = append(errs, "bootstrap.route53.domainSuffix must not be empty when mode = route53")
		}
	default:
		errs = append(errs, fmt.Sprintf("bootstrap.mode must be one of [docker, route53], got %q", c.Bootstrap.Mode))
	}

	if c.CSV.Enabled && c.CSV.Path == "" {
		errs = append(errs, "csv.path must be set when csv.enabled = true")
	}

	if c.Query.Rate <= 0 {
		errs = append(errs, fmt.Sprintf("query.rate must be > 0 (got %f)", c.Query.Rate))
	}
	if c.Query.Parallelism.MinWorkers <= 0 {
		errs = append(errs, fmt.Sprintf("query.parallelism.min must be > 0 (got %d)", c.Query.Parallelism.MinWorkers))
	}
	if c.Query.Parallelism.MaxWorkers < c.Query.Parallelism.MinWorkers {
		errs = append(errs, fmt.Sprintf("query.parallelism.max must be >= min (got %d < %d)",
			c.Query.Parallelism.MaxWorkers, c.Query.Parallelism.MinWorkers))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogConfig reports the loaded configuration at INFO level.
func (c *Config) LogConfig(lgr logger.Logger) {
	lgr.Info("loaded tester configuration",
		logger.F("logger.active", c.Logger.Active),
		logger.F("logger.level", c.Logger.Level),
		logger.F("logger.encoding", c.Logger.Encoding),
		logger.F("logger.mode", c.Logger.Mode),

		logger.F("simulation.duration", c.Simulation.Duration.String()),

		logger.F("dht.idBits", c.DHT.IDBits),

		logger.F("bootstrap.mode", c.Bootstrap.Mode),
		logger.F("bootstrap.docker.suffix", c.Bootstrap.Docker.ContainerSuffix),
		logger.F("bootstrap.docker.network", c.Bootstrap.Docker.Network),
		logger.F("bootstrap.docker.port", c.Bootstrap.Docker.Port),

		logger.F("csv.enabled", c.CSV.Enabled),
		logger.F("csv.path", c.CSV.Path),

		logger.F("query.rate", c.Query.Rate),
		logger.F("query.parallelism.min", c.Query.Parallelism.MinWorkers),
		logger.F("query.parallelism.max", c.Query.Parallelism.MaxWorkers),
	)
}
