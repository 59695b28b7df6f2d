package pathengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

func viewIDs(views []domain.NodeView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func TestSynthesize_SingleRequirement(t *testing.T) {
	c1 := named("C1", "Math", "Concept")
	h1 := named("H1", "Statistics", "HardSkill")
	snap := domain.NewSnapshot([]domain.Node{c1, h1}, []domain.Edge{req("H1", "C1", 0.8)})

	res := New(nil).Synthesize(Input{JobID: "job-1", JobSkills: []domain.Node{c1, h1}, Snapshot: snap})

	assert.Equal(t, StrategyDP, res.Strategy)
	assert.Equal(t, map[string][]string{"H1": {"C1", "H1"}}, res.Paths)
	assert.Equal(t, []domain.Prerequisite{domain.NewPrerequisite("H1", "C1", false, 0.8)}, res.Prerequisites)
	assert.Equal(t, []string{"C1", "H1"}, viewIDs(res.Skills))
	assert.Equal(t, "job-1", res.JobID)
}

func TestSynthesize_MutualRequirementIsBroken(t *testing.T) {
	a := named("A", "A", "HardSkill")
	b := named("B", "B", "HardSkill")
	snap := domain.NewSnapshot(
		[]domain.Node{a, b},
		[]domain.Edge{req("A", "B", 0.5), req("B", "A", 0.5)},
	)

	res := New(nil).Synthesize(Input{JobSkills: []domain.Node{a, b}, Snapshot: snap})

	assert.Equal(t, 1, res.Diagnostics.CyclesFound)
	assert.Equal(t, 1, res.Diagnostics.ArcsRemoved)
	assert.Equal(t, ModeTopological, res.Diagnostics.Mode)
	assert.LessOrEqual(t, res.Diagnostics.Passes, 2)
	assert.Equal(t, StrategyDP, res.Strategy)
	assert.Equal(t, map[string][]string{"A": {"B", "A"}}, res.Paths)
}

func TestSynthesize_PathHopsCarryArcScores(t *testing.T) {
	nodes := []domain.Node{
		named("A", "A", "HardSkill"), named("B", "B", "HardSkill"),
		named("C", "C", "Technology"), named("D", "D", "Concept"),
	}
	edges := []domain.Edge{
		req("A", "B", 0.4), req("B", "A", 0.9),
		req("C", "B", 0.7), req("B", "D", 0.2),
	}
	scores := map[[2]string]float64{}
	for _, e := range edges {
		scores[[2]string{e.Source, e.Target}] = e.Score
	}

	res := New(nil).Synthesize(Input{JobSkills: nodes, Snapshot: domain.NewSnapshot(nodes, edges)})

	require.Equal(t, StrategyDP, res.Strategy)
	hops := map[[2]string]struct{}{}
	for _, path := range res.Paths {
		for i := 0; i+1 < len(path); i++ {
			hops[[2]string{path[i+1], path[i]}] = struct{}{}
		}
	}
	require.Len(t, res.Prerequisites, len(hops))
	for _, p := range res.Prerequisites {
		key := [2]string{p.Source, p.Target}
		assert.Contains(t, hops, key)
		want, ok := scores[key]
		require.True(t, ok, "prerequisite %s->%s has no input edge", p.Source, p.Target)
		assert.Equal(t, want, p.Score)
	}
}

func TestSynthesize_CycleLimitFallsBackToIterativeRelaxation(t *testing.T) {
	nodes := []domain.Node{named("A", "A", "HardSkill"), named("B", "B", "HardSkill"), named("C", "C", "HardSkill")}
	snap := domain.NewSnapshot(nodes, []domain.Edge{
		req("A", "B", 0.5), req("B", "A", 0.5),
		req("B", "C", 0.5), req("C", "B", 0.5),
	})

	res := New(nil, WithCycleLimit(1)).Synthesize(Input{JobSkills: nodes, Snapshot: snap})

	assert.True(t, res.Diagnostics.CycleLimitHit)
	assert.Equal(t, 0, res.Diagnostics.ArcsRemoved)
	assert.Equal(t, ModeIterative, res.Diagnostics.Mode)
	assert.LessOrEqual(t, res.Diagnostics.Passes, len(nodes))
}

func TestSynthesize_NoEdgesNoConceptsChainsByType(t *testing.T) {
	skills := []domain.Node{
		named("h-b", "Beta", "HardSkill"),
		named("h-a", "Alpha", "HardSkill"),
		named("t-1", "Terraform", "Technology"),
	}
	snap := domain.NewSnapshot(skills, nil)

	res := New(nil).Synthesize(Input{JobSkills: skills, Snapshot: snap})

	assert.Equal(t, StrategyTypeChain, res.Strategy)
	assert.Empty(t, res.Paths)
	require.Len(t, res.Prerequisites, len(skills)-1)
	assert.Equal(t, domain.NewPrerequisite("h-b", "h-a", true, 0.5), res.Prerequisites[0])
	assert.Equal(t, domain.NewPrerequisite("t-1", "h-b", true, 0.5), res.Prerequisites[1])
	assert.Equal(t, []string{"h-b", "h-a", "t-1"}, viewIDs(res.Skills))
}

func TestSynthesize_BridgesThroughConceptsWhenNoPath(t *testing.T) {
	skills := []domain.Node{
		named("C1", "Math", "Concept"),
		named("H1", "Go", "HardSkill"),
		named("H2", "SQL", "HardSkill"),
	}
	snap := domain.NewSnapshot(skills, nil)

	res := New(nil).Synthesize(Input{JobSkills: skills, Snapshot: snap})

	assert.Equal(t, StrategyConceptBridge, res.Strategy)
	assert.Equal(t, map[string][]string{"H1": {"C1", "H1"}, "H2": {"C1", "H2"}}, res.Paths)
	assert.Len(t, res.Prerequisites, 2)
}

func TestSynthesize_SingleSkillWithoutEdgesYieldsNone(t *testing.T) {
	skills := []domain.Node{named("H1", "Go", "HardSkill")}
	res := New(nil).Synthesize(Input{JobSkills: skills, Snapshot: domain.NewSnapshot(skills, nil)})

	assert.Equal(t, StrategyNone, res.Strategy)
	assert.Empty(t, res.Paths)
	assert.Empty(t, res.Prerequisites)
	assert.Equal(t, []string{"H1"}, viewIDs(res.Skills))
}

func TestSynthesize_DeduplicatesSharedPrefixes(t *testing.T) {
	c1 := named("C1", "Math", "Concept")
	h1 := named("H1", "Statistics", "HardSkill")
	h2 := named("H2", "ML", "HardSkill")
	snap := domain.NewSnapshot(
		[]domain.Node{c1, h1, h2},
		[]domain.Edge{req("H1", "C1", 0.5), req("H2", "H1", 0.5)},
	)

	res := New(nil).Synthesize(Input{JobSkills: []domain.Node{h1, h2}, Snapshot: snap})

	assert.Equal(t, []string{"C1", "H1", "H2"}, res.Paths["H2"])
	assert.Equal(t, []domain.Prerequisite{
		domain.NewPrerequisite("H1", "C1", false, 0.5),
		domain.NewPrerequisite("H2", "H1", false, 0.5),
	}, res.Prerequisites)
	assert.Equal(t, []string{"H1", "H2", "C1"}, viewIDs(res.Skills))
}

func TestSynthesize_UserSkillsAreNotTargets(t *testing.T) {
	c1 := named("C1", "Math", "Concept")
	h1 := named("H1", "Statistics", "HardSkill")
	h2 := named("H2", "ML", "HardSkill")
	snap := domain.NewSnapshot(
		[]domain.Node{c1, h1, h2},
		[]domain.Edge{req("H1", "C1", 0.5), req("H2", "H1", 0.5)},
	)

	res := New(nil).Synthesize(Input{
		JobSkills:  []domain.Node{h1, h2},
		UserSkills: []string{"H1"},
		Snapshot:   snap,
	})

	_, ok := res.Paths["H1"]
	assert.False(t, ok)
	assert.Equal(t, []string{"C1", "H1", "H2"}, res.Paths["H2"])
	assert.Equal(t, []string{"H2", "C1", "H1"}, viewIDs(res.Skills))
}

func TestSynthesize_SkillMissingFromSnapshotIsStillListed(t *testing.T) {
	ghost := named("X", "Ghost", "Technology")
	res := New(nil).Synthesize(Input{JobSkills: []domain.Node{ghost}, Snapshot: domain.NewSnapshot(nil, nil)})

	require.Len(t, res.Skills, 1)
	assert.Equal(t, domain.NodeView{ID: "X", Name: "Ghost", Type: domain.TypeTechnology}, res.Skills[0])
	assert.Equal(t, StrategyNone, res.Strategy)
}

func TestSynthesize_ConceptTargetsGetNoPath(t *testing.T) {
	c0 := named("C0", "Logic", "Concept")
	c1 := named("C1", "Math", "Concept")
	snap := domain.NewSnapshot([]domain.Node{c0, c1}, []domain.Edge{req("C1", "C0", 0.5)})

	res := New(nil).Synthesize(Input{JobSkills: []domain.Node{c1}, Snapshot: snap})

	assert.Empty(t, res.Paths)
	assert.Equal(t, 0, res.Diagnostics.Targets)
}
