package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/pathengine"
	"github.com/yungbote/learnpath-backend/internal/platform/envutil"
)

const (
	SourceNeo4j    = "neo4j"
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

// Duration accepts "5s" style strings or integer nanoseconds in JSON and YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v := strings.TrimSpace(node.Value)
	if node.Tag == "!!int" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(v)
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	WriteTimeout      Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins       []string `json:"cors_origins" yaml:"cors_origins"`
}

type Neo4jConfig struct {
	URI         string   `json:"uri" yaml:"uri"`
	User        string   `json:"user" yaml:"user"`
	Password    string   `json:"password" yaml:"password"`
	Database    string   `json:"database" yaml:"database"`
	Timeout     Duration `json:"timeout" yaml:"timeout"`
	MaxPoolSize int      `json:"max_pool_size" yaml:"max_pool_size"`
}

type PostgresConfig struct {
	DSN      string   `json:"dsn" yaml:"dsn"`
	MaxConns int32    `json:"max_conns" yaml:"max_conns"`
	Timeout  Duration `json:"timeout" yaml:"timeout"`
}

type SourceConfig struct {
	Kind     string         `json:"kind" yaml:"kind"`
	Neo4j    Neo4jConfig    `json:"neo4j" yaml:"neo4j"`
	Postgres PostgresConfig `json:"postgres" yaml:"postgres"`
	Snapshot string         `json:"snapshot" yaml:"snapshot"`
}

type EngineConfig struct {
	CycleLimit int `json:"cycle_limit" yaml:"cycle_limit"`
}

type ObservabilityConfig struct {
	MetricsEnabled  bool     `json:"metrics_enabled" yaml:"metrics_enabled"`
	CollectInterval Duration `json:"collect_interval" yaml:"collect_interval"`
	OtelEnabled     bool     `json:"otel_enabled" yaml:"otel_enabled"`
	OtelEndpoint    string   `json:"otel_endpoint" yaml:"otel_endpoint"`
	OtelInsecure    bool     `json:"otel_insecure" yaml:"otel_insecure"`
	OtelHeaders     string   `json:"otel_headers" yaml:"otel_headers"`
	SampleRatio     float64  `json:"sample_ratio" yaml:"sample_ratio"`
}

type Config struct {
	Env           string              `json:"env" yaml:"env"`
	ServiceName   string              `json:"service_name" yaml:"service_name"`
	Version       string              `json:"version" yaml:"version"`
	HTTP          HTTPConfig          `json:"http" yaml:"http"`
	Source        SourceConfig        `json:"source" yaml:"source"`
	Engine        EngineConfig        `json:"engine" yaml:"engine"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

func DefaultConfig() Config {
	return Config{
		Env:         "development",
		ServiceName: "learnpath-api",
		Version:     "dev",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{5 * time.Second},
			IdleTimeout:       Duration{2 * time.Minute},
			WriteTimeout:      Duration{60 * time.Second},
			ShutdownTimeout:   Duration{15 * time.Second},
		},
		Source: SourceConfig{
			Kind: SourceNeo4j,
			Neo4j: Neo4jConfig{
				URI:         "bolt://localhost:7687",
				User:        "neo4j",
				Database:    "neo4j",
				Timeout:     Duration{10 * time.Second},
				MaxPoolSize: 50,
			},
			Postgres: PostgresConfig{
				MaxConns: 10,
				Timeout:  Duration{10 * time.Second},
			},
		},
		Engine: EngineConfig{CycleLimit: pathengine.DefaultCycleLimit},
		Observability: ObservabilityConfig{
			MetricsEnabled:  true,
			CollectInterval: Duration{30 * time.Second},
			SampleRatio:     1,
		},
	}
}

// LoadConfig layers defaults, the optional file at LEARNPATH_CONFIG_PATH (or
// ./config/learnpath.yaml when present) and environment overrides, then
// validates the result.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	path := strings.TrimSpace(os.Getenv("LEARNPATH_CONFIG_PATH"))
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "learnpath.yaml")
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadConfigFile decodes over cfg so that keys missing from the file keep
// their defaults.
func loadConfigFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("config %s: unsupported extension", path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.Version = envutil.String("SERVICE_VERSION", cfg.Version)

	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	if port := envutil.String("PORT", ""); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.ShutdownTimeout.Duration = envutil.Seconds("HTTP_SHUTDOWN_TIMEOUT_SECONDS", cfg.HTTP.ShutdownTimeout.Duration)
	cfg.HTTP.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.HTTP.CORSOrigins)

	cfg.Source.Kind = envutil.String("GRAPH_SOURCE", cfg.Source.Kind)
	cfg.Source.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Source.Neo4j.URI)
	cfg.Source.Neo4j.User = envutil.String("NEO4J_USER", cfg.Source.Neo4j.User)
	cfg.Source.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Source.Neo4j.Password)
	cfg.Source.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Source.Neo4j.Database)
	cfg.Source.Neo4j.Timeout.Duration = envutil.Seconds("NEO4J_TIMEOUT_SECONDS", cfg.Source.Neo4j.Timeout.Duration)
	cfg.Source.Neo4j.MaxPoolSize = envutil.Int("NEO4J_MAX_POOL_SIZE", cfg.Source.Neo4j.MaxPoolSize)
	cfg.Source.Postgres.DSN = envutil.String("DATABASE_URL", cfg.Source.Postgres.DSN)
	cfg.Source.Postgres.MaxConns = int32(envutil.Int("DATABASE_MAX_CONNS", int(cfg.Source.Postgres.MaxConns)))
	cfg.Source.Snapshot = envutil.String("SNAPSHOT_PATH", cfg.Source.Snapshot)

	cfg.Engine.CycleLimit = envutil.Int("CYCLE_ENUMERATION_LIMIT", cfg.Engine.CycleLimit)

	cfg.Observability.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.OtelEnabled = envutil.Bool("OTEL_ENABLED", cfg.Observability.OtelEnabled)
	cfg.Observability.OtelEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Observability.OtelEndpoint)
	cfg.Observability.OtelInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Observability.OtelInsecure)
	cfg.Observability.OtelHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Observability.OtelHeaders)
	if v := envutil.String("OTEL_TRACES_SAMPLER_ARG", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Observability.SampleRatio = f
		}
	}
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = "learnpath-api"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownTimeout.Duration <= 0 {
		c.HTTP.ShutdownTimeout = Duration{15 * time.Second}
	}
	if c.Engine.CycleLimit <= 0 {
		return fmt.Errorf("engine.cycle_limit must be positive, got %d", c.Engine.CycleLimit)
	}
	if c.Observability.CollectInterval.Duration <= 0 {
		c.Observability.CollectInterval = Duration{30 * time.Second}
	}

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	switch c.Source.Kind {
	case SourceNeo4j:
		if strings.TrimSpace(c.Source.Neo4j.URI) == "" {
			return fmt.Errorf("source neo4j: missing uri")
		}
		if strings.TrimSpace(c.Source.Neo4j.User) == "" {
			return fmt.Errorf("source neo4j: missing user")
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Source.Postgres.DSN) == "" {
			return fmt.Errorf("source postgres: missing dsn (DATABASE_URL)")
		}
	case SourceFile:
		if strings.TrimSpace(c.Source.Snapshot) == "" {
			return fmt.Errorf("source file: missing snapshot path (SNAPSHOT_PATH)")
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSource, c.Source.Kind)
	}
	return nil
}
