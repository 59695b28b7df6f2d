package pathengine

import (
	"math"
	"sort"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

// Scoring constants. A hop u->v with cost s contributes
//
//	HopGain - CostWeight*s/Smax - SemanticWeight*SemanticPenalty - LengthPenalty*pathLength(u)
//
// to the value of v.
const (
	HopGain         = 0.3
	CostWeight      = 0.9
	SemanticWeight  = 0.1
	SemanticPenalty = 0.5
	LengthPenalty   = 0.03
	MaxPathLength   = 15

	// values at or below this are treated as unreached
	reachedFloor = -1e8

	lowestInDegreeSources = 10
)

type RelaxMode string

const (
	ModeTopological RelaxMode = "topological"
	ModeIterative   RelaxMode = "iterative"
)

// Source tiers, in the order they are tried.
const (
	TierNone        = 0
	TierRootSkills  = 1
	TierConcepts    = 2
	TierLowInDegree = 3
)

type DPState struct {
	Value       map[string]float64
	Predecessor map[string]string
	PathLength  map[string]int
	Sources     []string
	SourceTier  int
	Mode        RelaxMode
	Passes      int
}

func (st *DPState) Reached(id string) bool {
	v, ok := st.Value[id]
	return ok && v > reachedFloor
}

// RunDP seeds sources and relaxes every arc of g. A DAG is relaxed once in
// topological order. Otherwise full passes repeat until nothing changes or
// the pass count reaches the node count.
func RunDP(g *Graph, smax float64) *DPState {
	st := &DPState{
		Value:       make(map[string]float64, g.Len()),
		Predecessor: make(map[string]string),
		PathLength:  make(map[string]int, g.Len()),
	}
	for _, id := range g.Nodes() {
		st.Value[id] = math.Inf(-1)
		st.PathLength[id] = 0
	}

	st.Sources, st.SourceTier = selectSources(g)
	for _, id := range st.Sources {
		st.Value[id] = 0
		st.PathLength[id] = 1
	}

	if order, ok := TopologicalOrder(g); ok {
		st.Mode = ModeTopological
		st.Passes = 1
		for _, u := range order {
			st.relaxFrom(g, u, smax)
		}
		return st
	}

	st.Mode = ModeIterative
	for changed := true; changed && st.Passes < g.Len(); {
		changed = false
		st.Passes++
		for _, u := range g.Nodes() {
			if st.relaxFrom(g, u, smax) {
				changed = true
			}
		}
	}
	return st
}

func (st *DPState) relaxFrom(g *Graph, u string, smax float64) bool {
	if !st.Reached(u) {
		return false
	}
	changed := false
	for _, a := range g.Successors(u) {
		// re-read per arc, a self-loop may have just moved u
		lu := st.PathLength[u]
		if lu+1 > MaxPathLength {
			continue
		}
		cand := st.Value[u] + hopGain(a.Cost, smax, lu)
		if cand > st.Value[a.To] {
			st.Value[a.To] = cand
			st.Predecessor[a.To] = u
			st.PathLength[a.To] = lu + 1
			changed = true
		}
	}
	return changed
}

func hopGain(cost, smax float64, pathLen int) float64 {
	norm := 0.5
	if smax != 0 {
		norm = cost / smax
	}
	return HopGain - CostWeight*norm - SemanticWeight*SemanticPenalty - LengthPenalty*float64(pathLen)
}

// selectSources picks the DP starting nodes. Tier 1 is every in-degree-0
// Concept or HardSkill node, tier 2 every Concept node, tier 3 the ten nodes
// with the lowest in-degree.
func selectSources(g *Graph) ([]string, int) {
	var roots []string
	for _, id := range g.Nodes() {
		t := g.Type(id)
		if g.InDegree(id) == 0 && (t == domain.TypeConcept || t == domain.TypeHardSkill) {
			roots = append(roots, id)
		}
	}
	if len(roots) > 0 {
		return roots, TierRootSkills
	}

	var concepts []string
	for _, id := range g.Nodes() {
		if g.Type(id) == domain.TypeConcept {
			concepts = append(concepts, id)
		}
	}
	if len(concepts) > 0 {
		return concepts, TierConcepts
	}

	if g.Len() == 0 {
		return nil, TierNone
	}
	byDegree := append([]string(nil), g.Nodes()...)
	sort.SliceStable(byDegree, func(i, j int) bool {
		return g.InDegree(byDegree[i]) < g.InDegree(byDegree[j])
	})
	if len(byDegree) > lowestInDegreeSources {
		byDegree = byDegree[:lowestInDegreeSources]
	}
	return byDegree, TierLowInDegree
}
