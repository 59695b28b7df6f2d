package pgstore

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"go":       "go",
		"100%":     `100\%`,
		"snake_ca": `snake\_ca`,
		`back\`:    `back\\`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q)=%q want %q", in, got, want)
		}
	}
}

func TestEdgeRowDefaults(t *testing.T) {
	got := EdgeRow{SourceID: "h-go", TargetID: "c-algorithms"}.toDomain()
	want := domain.Edge{Source: "h-go", Target: "c-algorithms", Score: domain.DefaultEdgeScore}
	if got != want {
		t.Fatalf("null columns: got=%+v want=%+v", got, want)
	}

	zero, yes := 0.0, true
	got = EdgeRow{SourceID: "a", TargetID: "b", Score: &zero, Predicted: &yes}.toDomain()
	if got.Score != 0 || !got.Predicted {
		t.Fatalf("explicit columns lost: %+v", got)
	}
}

func TestNodeRowRoundTripsLabels(t *testing.T) {
	row, err := nodeRowFrom(domain.Node{ID: "t-docker", Name: "Docker", Labels: []string{"Technology", "HardSkill"}})
	if err != nil {
		t.Fatalf("nodeRowFrom: %v", err)
	}
	if string(row.Labels) != `["Technology","HardSkill"]` {
		t.Fatalf("labels=%s", row.Labels)
	}
	n, err := row.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if !reflect.DeepEqual(n.Labels, []string{"Technology", "HardSkill"}) || n.Type() != domain.TypeHardSkill {
		t.Fatalf("node=%+v", n)
	}

	row, err = nodeRowFrom(domain.Node{ID: "bare"})
	if err != nil {
		t.Fatalf("nodeRowFrom: %v", err)
	}
	if string(row.Labels) != `[]` {
		t.Fatalf("nil labels should encode as [], got %s", row.Labels)
	}
}

func TestNodeRowRejectsMalformedLabels(t *testing.T) {
	_, err := NodeRow{ID: "x", Labels: datatypes.JSON(`{"not":"an array"}`)}.toDomain()
	if err == nil {
		t.Fatalf("expected decode error")
	}
}
