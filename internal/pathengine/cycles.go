package pathengine

import (
	"errors"
)

// DefaultCycleLimit caps how many simple cycles are enumerated before giving
// up. Dense graphs can hold exponentially many.
const DefaultCycleLimit = 10000

var ErrCycleLimit = errors.New("pathengine: cycle enumeration limit reached")

type CycleReport struct {
	Found     int
	SelfLoops int
	Removed   []Arc
	// Err is set when enumeration stopped early. No arcs are removed then and
	// acyclicity is left to TopologicalOrder.
	Err error
}

// ResolveCycles enumerates the simple cycles of g and removes the first arc
// (cycle[0] -> cycle[1]) of every cycle that is still intact. Self-loops are
// left in place.
func ResolveCycles(g *Graph, limit int) CycleReport {
	cycles, err := SimpleCycles(g, limit)
	rep := CycleReport{Found: len(cycles), Err: err}
	if err != nil {
		return rep
	}
	for _, c := range cycles {
		if len(c) < 2 {
			rep.SelfLoops++
			continue
		}
		if !cycleIntact(g, c) {
			continue
		}
		if a, ok := g.removeArc(c[0], c[1]); ok {
			rep.Removed = append(rep.Removed, a)
		}
	}
	return rep
}

func cycleIntact(g *Graph, c []string) bool {
	for i := range c {
		if _, ok := g.Arc(c[i], c[(i+1)%len(c)]); !ok {
			return false
		}
	}
	return true
}

// SimpleCycles lists every elementary cycle of g using Johnson's algorithm.
// Each cycle starts at its lowest-ranked node in g.Nodes() order. When more
// than limit cycles exist it returns the ones found so far and ErrCycleLimit.
func SimpleCycles(g *Graph, limit int) ([][]string, error) {
	if limit <= 0 {
		limit = DefaultCycleLimit
	}
	rank := make(map[string]int, g.Len())
	for i, id := range g.Nodes() {
		rank[id] = i
	}

	j := &johnson{g: g, limit: limit}
	for i, start := range g.Nodes() {
		allow := func(id string) bool { return rank[id] >= i }
		comp := sccFrom(g, start, allow)
		if len(comp) == 1 {
			if _, self := g.Arc(start, start); !self {
				continue
			}
		}
		j.search(start, comp)
		if j.err != nil {
			return j.cycles, j.err
		}
	}
	return j.cycles, nil
}

type johnson struct {
	g      *Graph
	limit  int
	cycles [][]string
	err    error

	start   string
	inComp  map[string]bool
	blocked map[string]bool
	bmap    map[string]map[string]bool
	stack   []string
}

func (j *johnson) search(start string, comp []string) {
	j.start = start
	j.inComp = make(map[string]bool, len(comp))
	for _, id := range comp {
		j.inComp[id] = true
	}
	j.blocked = make(map[string]bool, len(comp))
	j.bmap = make(map[string]map[string]bool, len(comp))
	j.stack = j.stack[:0]
	j.circuit(start)
}

func (j *johnson) circuit(v string) bool {
	found := false
	j.stack = append(j.stack, v)
	j.blocked[v] = true

	for _, a := range j.g.Successors(v) {
		w := a.To
		if !j.inComp[w] {
			continue
		}
		if w == j.start {
			if len(j.cycles) >= j.limit {
				j.err = ErrCycleLimit
				break
			}
			j.cycles = append(j.cycles, append([]string(nil), j.stack...))
			found = true
		} else if !j.blocked[w] {
			if j.circuit(w) {
				found = true
			}
		}
		if j.err != nil {
			break
		}
	}

	if found {
		j.unblock(v)
	} else {
		for _, a := range j.g.Successors(v) {
			w := a.To
			if !j.inComp[w] {
				continue
			}
			if j.bmap[w] == nil {
				j.bmap[w] = make(map[string]bool)
			}
			j.bmap[w][v] = true
		}
	}
	j.stack = j.stack[:len(j.stack)-1]
	return found
}

func (j *johnson) unblock(u string) {
	pending := []string{u}
	for len(pending) > 0 {
		x := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if !j.blocked[x] {
			continue
		}
		j.blocked[x] = false
		for w := range j.bmap[x] {
			pending = append(pending, w)
		}
		delete(j.bmap, x)
	}
}

// sccFrom returns the strongly connected component that contains start,
// restricted to nodes accepted by allow. It runs Tarjan's algorithm
// iteratively from start only, so start is always the root of its component.
func sccFrom(g *Graph, start string, allow func(string) bool) []string {
	type frame struct {
		id   string
		edge int
	}

	index := map[string]int{start: 0}
	low := map[string]int{start: 0}
	onStack := map[string]bool{start: true}
	stack := []string{start}
	next := 1
	var result []string

	call := []frame{{id: start}}
	for len(call) > 0 {
		f := &call[len(call)-1]
		arcs := g.Successors(f.id)
		if f.edge < len(arcs) {
			w := arcs[f.edge].To
			f.edge++
			if !allow(w) {
				continue
			}
			if _, seen := index[w]; !seen {
				index[w], low[w] = next, next
				next++
				stack = append(stack, w)
				onStack[w] = true
				call = append(call, frame{id: w})
			} else if onStack[w] && index[w] < low[f.id] {
				low[f.id] = index[w]
			}
			continue
		}

		id := f.id
		call = call[:len(call)-1]
		if len(call) > 0 {
			parent := call[len(call)-1].id
			if low[id] < low[parent] {
				low[parent] = low[id]
			}
		}
		if low[id] != index[id] {
			continue
		}
		var comp []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == id {
				break
			}
		}
		if id == start {
			result = comp
		}
	}
	return result
}

// TopologicalOrder runs Kahn's algorithm seeded in g.Nodes() order. ok is
// false when g still contains a cycle; order then holds only the acyclic
// prefix.
func TopologicalOrder(g *Graph) (order []string, ok bool) {
	inDeg := make(map[string]int, g.Len())
	queue := make([]string, 0, g.Len())
	for _, id := range g.Nodes() {
		inDeg[id] = g.InDegree(id)
		if inDeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	order = make([]string, 0, g.Len())
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, a := range g.Successors(id) {
			inDeg[a.To]--
			if inDeg[a.To] == 0 {
				queue = append(queue, a.To)
			}
		}
	}
	return order, len(order) == g.Len()
}
