package pathengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

func named(id, name string, labels ...string) domain.Node {
	return domain.Node{ID: id, Name: name, Labels: labels}
}

func TestBridgeConcepts_RoundRobin(t *testing.T) {
	skills := []domain.Node{
		named("c1", "Algebra", "Concept"),
		named("h1", "Go", "HardSkill"),
		named("c2", "Graphs", "Concept"),
		named("t1", "Docker", "Technology"),
		named("s1", "Teamwork", "SoftSkill"),
	}
	paths, prereqs := BridgeConcepts(skills)

	assert.Equal(t, map[string][]string{
		"h1": {"c1", "h1"},
		"t1": {"c2", "t1"},
		"s1": {"c1", "s1"},
	}, paths)
	assert.Equal(t, []domain.Prerequisite{
		domain.NewPrerequisite("h1", "c1", true, 0.7),
		domain.NewPrerequisite("t1", "c2", true, 0.7),
		domain.NewPrerequisite("s1", "c1", true, 0.7),
	}, prereqs)
}

func TestBridgeConcepts_NeedsBothKinds(t *testing.T) {
	paths, prereqs := BridgeConcepts([]domain.Node{named("h1", "Go", "HardSkill")})
	assert.Empty(t, paths)
	assert.Empty(t, prereqs)

	paths, prereqs = BridgeConcepts([]domain.Node{named("c1", "Algebra", "Concept")})
	assert.Empty(t, paths)
	assert.Empty(t, prereqs)
}

func TestChainByType_WithinAndAcrossGroups(t *testing.T) {
	skills := []domain.Node{
		named("t1", "Kubernetes", "Technology"),
		named("h2", "Rust", "HardSkill"),
		named("c1", "Graphs", "Concept"),
		named("h1", "Go", "HardSkill"),
		named("t2", "Docker", "Technology"),
	}
	got := ChainByType(skills)

	assert.Equal(t, []domain.Prerequisite{
		domain.NewPrerequisite("h2", "h1", true, 0.5),
		domain.NewPrerequisite("h1", "c1", true, 0.5),
		domain.NewPrerequisite("t1", "t2", true, 0.5),
		domain.NewPrerequisite("t2", "h2", true, 0.5),
	}, got)
}

func TestChainByType_NameTieBreaksOnID(t *testing.T) {
	got := ChainByType([]domain.Node{
		named("b", "Same", "HardSkill"),
		named("a", "Same", "HardSkill"),
	})
	assert.Equal(t, []domain.Prerequisite{domain.NewPrerequisite("b", "a", true, 0.5)}, got)
}

func TestChainByType_SingleSkill(t *testing.T) {
	assert.Empty(t, ChainByType([]domain.Node{named("h1", "Go", "HardSkill")}))
}
