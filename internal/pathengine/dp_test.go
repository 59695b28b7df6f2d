package pathengine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

func TestRunDP_SingleHop(t *testing.T) {
	snap := domain.NewSnapshot(
		[]domain.Node{node("C1", "Concept"), node("H1", "HardSkill")},
		[]domain.Edge{req("H1", "C1", 0.8)},
	)
	g := BuildGraph(snap)
	st := RunDP(g, MaxScore(snap.Edges))

	assert.Equal(t, TierRootSkills, st.SourceTier)
	assert.Equal(t, []string{"C1"}, st.Sources)
	assert.Equal(t, ModeTopological, st.Mode)
	assert.InDelta(t, -0.68, st.Value["H1"], 1e-9)
	assert.Equal(t, "C1", st.Predecessor["H1"])
	assert.Equal(t, 2, st.PathLength["H1"])
}

func TestRunDP_ZeroEdgesSeedsPathLengthOne(t *testing.T) {
	snap := domain.NewSnapshot(
		[]domain.Node{node("A", "HardSkill"), node("B", "Technology"), node("C", "Concept")},
		nil,
	)
	g := BuildGraph(snap)
	st := RunDP(g, MaxScore(nil))

	assert.Equal(t, TierRootSkills, st.SourceTier)
	assert.ElementsMatch(t, []string{"A", "C"}, st.Sources)
	for _, id := range st.Sources {
		assert.Equal(t, 1, st.PathLength[id])
		assert.Equal(t, 0.0, st.Value[id])
	}
	assert.Empty(t, st.Predecessor)
	assert.False(t, st.Reached("B"))
}

func TestRunDP_ConceptTierWhenNoRoots(t *testing.T) {
	// C <-> T cycle leaves no in-degree 0 node
	g := newGraph(2)
	g.addNode("C", domain.TypeConcept)
	g.addNode("T", domain.TypeTechnology)
	g.setArc(Arc{From: "C", To: "T", Cost: 0.5})
	g.setArc(Arc{From: "T", To: "C", Cost: 0.5})

	st := RunDP(g, 0.5)
	assert.Equal(t, TierConcepts, st.SourceTier)
	assert.Equal(t, []string{"C"}, st.Sources)
	assert.Equal(t, ModeIterative, st.Mode)
	assert.LessOrEqual(t, st.Passes, g.Len())
	assert.Equal(t, "C", st.Predecessor["T"])
}

func TestRunDP_LowestInDegreeTier(t *testing.T) {
	g := completeGraph("a", "b", "c")
	st := RunDP(g, 0.5)
	assert.Equal(t, TierLowInDegree, st.SourceTier)
	assert.Equal(t, []string{"a", "b", "c"}, st.Sources)
}

func TestRunDP_LowestInDegreeTierCapsAtTen(t *testing.T) {
	g := newGraph(12)
	for i := 0; i < 12; i++ {
		g.addNode(fmt.Sprintf("t%02d", i), domain.TypeTechnology)
	}
	st := RunDP(g, 1)
	assert.Equal(t, TierLowInDegree, st.SourceTier)
	assert.Len(t, st.Sources, 10)
	assert.Equal(t, "t00", st.Sources[0])
}

func TestRunDP_ZeroSmaxUsesHalfNormalisedCost(t *testing.T) {
	snap := domain.NewSnapshot(
		[]domain.Node{node("C1", "Concept"), node("H1", "HardSkill")},
		[]domain.Edge{req("H1", "C1", 0)},
	)
	g := BuildGraph(snap)
	st := RunDP(g, MaxScore(snap.Edges))
	// 0.3 - 0.9*0.5 - 0.05 - 0.03
	assert.InDelta(t, -0.23, st.Value["H1"], 1e-9)
}

func TestRunDP_PathLengthCapped(t *testing.T) {
	nodes := []domain.Node{node("n00", "Concept")}
	var edges []domain.Edge
	for i := 1; i < 20; i++ {
		id := fmt.Sprintf("n%02d", i)
		nodes = append(nodes, node(id, "HardSkill"))
		edges = append(edges, req(id, fmt.Sprintf("n%02d", i-1), 0.5))
	}
	g := BuildGraph(domain.NewSnapshot(nodes, edges))
	st := RunDP(g, 0.5)

	assert.Equal(t, MaxPathLength, st.PathLength["n14"])
	assert.True(t, st.Reached("n14"))
	assert.False(t, st.Reached("n15"))
	_, ok := st.Predecessor["n15"]
	assert.False(t, ok)
	for id, l := range st.PathLength {
		assert.LessOrEqual(t, l, MaxPathLength, id)
	}
}

func TestRunDP_TopologicalOrderDoesNotChangeValues(t *testing.T) {
	// diamond: C -> {A, B} -> H with unequal costs
	snap := domain.NewSnapshot(
		[]domain.Node{node("C", "Concept"), node("A", "Technology"), node("B", "Technology"), node("H", "HardSkill")},
		[]domain.Edge{req("A", "C", 0.2), req("B", "C", 0.6), req("H", "A", 0.9), req("H", "B", 0.1)},
	)
	g := BuildGraph(snap)
	smax := MaxScore(snap.Edges)
	st := RunDP(g, smax)
	require.Equal(t, ModeTopological, st.Mode)

	alt := &DPState{
		Value:       map[string]float64{},
		Predecessor: map[string]string{},
		PathLength:  map[string]int{},
	}
	for _, id := range g.Nodes() {
		alt.Value[id] = -1e18
		alt.PathLength[id] = 0
	}
	alt.Value["C"] = 0
	alt.PathLength["C"] = 1
	for _, u := range []string{"C", "B", "A", "H"} {
		alt.relaxFrom(g, u, smax)
	}

	for _, id := range g.Nodes() {
		assert.InDelta(t, st.Value[id], alt.Value[id], 1e-9, id)
	}
	assert.Equal(t, st.Predecessor, alt.Predecessor)
}

func TestRunDP_SelfLoopTerminates(t *testing.T) {
	g := newGraph(1)
	g.addNode("x", domain.TypeHardSkill)
	g.setArc(Arc{From: "x", To: "x", Cost: 0})

	st := RunDP(g, 1)
	assert.Equal(t, ModeIterative, st.Mode)
	assert.Equal(t, 1, st.Passes)
	assert.LessOrEqual(t, st.PathLength["x"], MaxPathLength)
}
