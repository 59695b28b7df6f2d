package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"NEO4J_PASSWORD", "hunter2",
		"database_url", "postgres://app:pw@db:5432/learnpath",
		"job_id", "job-1",
		"dangling",
	})
	want := []interface{}{
		"NEO4J_PASSWORD", "[REDACTED]",
		"database_url", "postgres://app:xxxxx@db:5432/learnpath",
		"job_id", "job-1",
		"dangling",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected length: got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kv[%d]: got=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestStripCredentialsKeepsPlainURIs(t *testing.T) {
	for _, in := range []string{"bolt://localhost:7687", "not a url", ""} {
		if got := stripCredentials(in); got != in {
			t.Fatalf("stripCredentials(%q) = %q", in, got)
		}
	}
}

func TestStripCredentialsMasksKeywordValueDSNs(t *testing.T) {
	cases := map[string]string{
		"host=db user=app password=hunter2 dbname=learn":         "host=db user=app password=xxxxx dbname=learn",
		"host=db PASSWORD = 'two words' dbname=learn":            "host=db PASSWORD = xxxxx dbname=learn",
		`host=db password='it\'s' sslmode=disable`:               "host=db password=xxxxx sslmode=disable",
		"postgres://db:5432/learn?user=app&password=hunter2&x=1": "postgres://db:5432/learn?user=app&password=xxxxx&x=1",
		"postgres://app:pw@db:5432/learn?sslmode=disable":        "postgres://app:xxxxx@db:5432/learn?sslmode=disable",
		"host=db user=app dbname=learn":                          "host=db user=app dbname=learn",
	}
	for in, want := range cases {
		if got := stripCredentials(in); got != want {
			t.Fatalf("stripCredentials(%q) = %q want %q", in, got, want)
		}
	}
}

func TestSanitizeKVsMasksKeywordValueDSN(t *testing.T) {
	got := sanitizeKVs([]interface{}{"dsn", "host=db user=app password=hunter2 dbname=learn"})
	if got[1] != "host=db user=app password=xxxxx dbname=learn" {
		t.Fatalf("dsn not masked: %v", got)
	}
}

func TestWithCarriesSanitizedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("service", "LearningPathService").Info("hello", "token", "abc")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["service"] != "LearningPathService" {
		t.Fatalf("missing service field: %v", fields)
	}
	if fields["token"] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", fields)
	}
}
