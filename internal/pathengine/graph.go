// Package pathengine computes learning paths over a prerequisite graph.
//
// Everything in this package is request-scoped and pure: a Graph and its DP
// state are built per call and never shared, so concurrent callers need no
// locking.
package pathengine

import (
	"github.com/yungbote/learnpath-backend/internal/domain"
)

// Arc is a builder edge oriented prerequisite -> dependent, i.e. the inverse
// of the REQUIRES relationship it was built from.
type Arc struct {
	From      string
	To        string
	Cost      float64
	Predicted bool
}

type Graph struct {
	ids   []string
	types map[string]domain.NodeType
	out   map[string][]Arc
	inDeg map[string]int
	arcs  int
}

func newGraph(capacity int) *Graph {
	return &Graph{
		ids:   make([]string, 0, capacity),
		types: make(map[string]domain.NodeType, capacity),
		out:   make(map[string][]Arc, capacity),
		inDeg: make(map[string]int, capacity),
	}
}

// BuildGraph turns a snapshot into a computation graph. Every REQUIRES edge
// source->target becomes the arc target->source. Edges that reference a node
// missing from the snapshot are dropped. A repeated (target, source) pair
// keeps its position and takes the later edge's cost and predicted flag.
func BuildGraph(snap *domain.Snapshot) *Graph {
	if snap == nil {
		return newGraph(0)
	}
	g := newGraph(len(snap.Nodes))
	for _, id := range snap.NodeIDs() {
		g.addNode(id, snap.Nodes[id].Type())
	}
	for _, e := range snap.Edges {
		if !g.Has(e.Source) || !g.Has(e.Target) {
			continue
		}
		g.setArc(Arc{From: e.Target, To: e.Source, Cost: e.Score, Predicted: e.Predicted})
	}
	return g
}

func (g *Graph) addNode(id string, t domain.NodeType) {
	if _, ok := g.types[id]; ok {
		return
	}
	g.ids = append(g.ids, id)
	g.types[id] = t
	g.inDeg[id] = 0
}

func (g *Graph) setArc(a Arc) {
	arcs := g.out[a.From]
	for i := range arcs {
		if arcs[i].To == a.To {
			arcs[i].Cost = a.Cost
			arcs[i].Predicted = a.Predicted
			return
		}
	}
	g.out[a.From] = append(arcs, a)
	g.inDeg[a.To]++
	g.arcs++
}

func (g *Graph) removeArc(from, to string) (Arc, bool) {
	arcs := g.out[from]
	for i := range arcs {
		if arcs[i].To != to {
			continue
		}
		removed := arcs[i]
		next := make([]Arc, 0, len(arcs)-1)
		next = append(next, arcs[:i]...)
		next = append(next, arcs[i+1:]...)
		g.out[from] = next
		g.inDeg[to]--
		g.arcs--
		return removed, true
	}
	return Arc{}, false
}

func (g *Graph) Has(id string) bool {
	_, ok := g.types[id]
	return ok
}

// Nodes returns node ids in the graph's stable iteration order.
func (g *Graph) Nodes() []string { return g.ids }

func (g *Graph) Len() int { return len(g.ids) }

func (g *Graph) ArcCount() int { return g.arcs }

func (g *Graph) Type(id string) domain.NodeType { return g.types[id] }

func (g *Graph) InDegree(id string) int { return g.inDeg[id] }

// Successors returns the outgoing arcs of id. Callers must not modify it.
func (g *Graph) Successors(id string) []Arc { return g.out[id] }

func (g *Graph) Arc(from, to string) (Arc, bool) {
	for _, a := range g.out[from] {
		if a.To == to {
			return a, true
		}
	}
	return Arc{}, false
}

// MaxScore is the normalisation constant Smax: the largest edge score, or 1
// when there are no edges.
func MaxScore(edges []domain.Edge) float64 {
	if len(edges) == 0 {
		return 1.0
	}
	max := edges[0].Score
	for _, e := range edges[1:] {
		if e.Score > max {
			max = e.Score
		}
	}
	return max
}
