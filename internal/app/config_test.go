package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

var configEnv = []string{
	"LEARNPATH_CONFIG_PATH", "LOG_MODE", "HTTP_ADDR", "PORT", "GRAPH_SOURCE",
	"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE",
	"NEO4J_TIMEOUT_SECONDS", "NEO4J_MAX_POOL_SIZE", "DATABASE_URL",
	"SNAPSHOT_PATH", "CORS_ALLOWED_ORIGINS", "METRICS_ENABLED", "OTEL_ENABLED",
	"CYCLE_ENUMERATION_LIMIT", "OTEL_TRACES_SAMPLER_ARG",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, SourceNeo4j, cfg.Source.Kind)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10000, cfg.Engine.CycleLimit)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout.Duration)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfig_YAMLFileThenEnv(t *testing.T) {
	clearConfigEnv(t)
	path := writeFile(t, "learnpath.yaml", `
env: production
http:
  addr: ":9000"
  shutdown_timeout: 3s
source:
  kind: file
  snapshot: /data/graph.yaml
engine:
  cycle_limit: 50
`)
	t.Setenv("LEARNPATH_CONFIG_PATH", path)
	t.Setenv("CYCLE_ENUMERATION_LIMIT", "75")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout.Duration)
	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, 75, cfg.Engine.CycleLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, "neo4j", cfg.Source.Neo4j.User)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	clearConfigEnv(t)
	path := writeFile(t, "learnpath.json", `{"source":{"kind":"postgres","postgres":{"dsn":"postgres://u@db/x","timeout":"2s"}}}`)
	t.Setenv("LEARNPATH_CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.Source.Kind)
	assert.Equal(t, 2*time.Second, cfg.Source.Postgres.Timeout.Duration)
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown source":   {"GRAPH_SOURCE": "mongo"},
		"postgres no dsn":  {"GRAPH_SOURCE": "postgres"},
		"file no snapshot": {"GRAPH_SOURCE": "file"},
		"bad cycle limit":  {"CYCLE_ENUMERATION_LIMIT": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}

	clearConfigEnv(t)
	t.Setenv("GRAPH_SOURCE", "mongo")
	_, err := LoadConfig()
	assert.True(t, errors.Is(err, domain.ErrUnknownSource))
}

func TestDuration_Unmarshal(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration)
	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration)
	require.NoError(t, d.UnmarshalJSON([]byte(`null`)))
	assert.Zero(t, d.Duration)
	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
}
