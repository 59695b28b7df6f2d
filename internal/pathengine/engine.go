package pathengine

import (
	"strings"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Strategy string

const (
	StrategyDP            Strategy = "dp"
	StrategyConceptBridge Strategy = "concept_bridge"
	StrategyTypeChain     Strategy = "type_chain"
	StrategyNone          Strategy = "none"
)

type Input struct {
	JobID      string
	JobSkills  []domain.Node
	UserSkills []string
	Snapshot   *domain.Snapshot
}

type Diagnostics struct {
	Nodes          int       `json:"nodes"`
	Arcs           int       `json:"arcs"`
	MaxScore       float64   `json:"maxScore"`
	CyclesFound    int       `json:"cyclesFound"`
	ArcsRemoved    int       `json:"arcsRemoved"`
	CycleLimitHit  bool      `json:"cycleLimitHit"`
	SourceTier     int       `json:"sourceTier"`
	Sources        int       `json:"sources"`
	Mode           RelaxMode `json:"mode"`
	Passes         int       `json:"passes"`
	Targets        int       `json:"targets"`
	TruncatedPaths int       `json:"truncatedPaths"`
}

type Result struct {
	JobID         string                `json:"jobId"`
	Skills        []domain.NodeView     `json:"skills"`
	Prerequisites []domain.Prerequisite `json:"prerequisites"`
	Paths         map[string][]string   `json:"paths"`
	Strategy      Strategy              `json:"strategy"`
	Diagnostics   Diagnostics           `json:"diagnostics"`
}

type Engine struct {
	log        *logger.Logger
	cycleLimit int
}

type Option func(*Engine)

func WithCycleLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cycleLimit = n
		}
	}
}

func New(log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{log: log, cycleLimit: DefaultCycleLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithLogger returns a copy of e that logs through log, typically one carrying
// request fields.
func (e *Engine) WithLogger(log *logger.Logger) *Engine {
	if log == nil {
		return e
	}
	cp := *e
	cp.log = log
	return &cp
}

// Synthesize computes learning paths for the job's skills that the user does
// not already have. When the DP yields no path of two or more nodes it falls
// back to concept bridging and then to a type chain.
func (e *Engine) Synthesize(in Input) *Result {
	log := e.log.With("job_id", in.JobID)
	skills := remainingSkills(in.JobSkills, in.UserSkills)

	g := BuildGraph(in.Snapshot)
	var edges []domain.Edge
	if in.Snapshot != nil {
		edges = in.Snapshot.Edges
	}
	smax := MaxScore(edges)
	res := &Result{
		JobID:         in.JobID,
		Paths:         map[string][]string{},
		Prerequisites: []domain.Prerequisite{},
		Strategy:      StrategyNone,
	}
	res.Diagnostics.Nodes = g.Len()
	res.Diagnostics.Arcs = g.ArcCount()
	res.Diagnostics.MaxScore = smax
	log.Debug("graph built", "nodes", g.Len(), "arcs", g.ArcCount(), "smax", smax)

	rep := ResolveCycles(g, e.cycleLimit)
	res.Diagnostics.CyclesFound = rep.Found
	res.Diagnostics.ArcsRemoved = len(rep.Removed)
	if rep.Err != nil {
		res.Diagnostics.CycleLimitHit = true
		log.Warn("cycle enumeration failed, no arcs removed", "error", rep.Err, "cycles_seen", rep.Found)
	} else if rep.Found > 0 {
		log.Info("cycles resolved", "found", rep.Found, "removed", len(rep.Removed), "self_loops", rep.SelfLoops)
	}

	st := RunDP(g, smax)
	res.Diagnostics.SourceTier = st.SourceTier
	res.Diagnostics.Sources = len(st.Sources)
	res.Diagnostics.Mode = st.Mode
	res.Diagnostics.Passes = st.Passes
	log.Debug("dp complete", "mode", st.Mode, "passes", st.Passes, "source_tier", st.SourceTier, "sources", len(st.Sources))

	acc := newPrereqSet()
	var order []string
	for _, s := range skills {
		if !domain.IsTargetType(s.Type()) {
			continue
		}
		res.Diagnostics.Targets++
		rec := Reconstruct(st.Predecessor, s.ID, g.Len())
		if rec.Truncated {
			res.Diagnostics.TruncatedPaths++
			log.Warn("path reconstruction truncated", "target", s.ID, "steps", len(rec.Path)-1)
		}
		if len(rec.Path) < 2 {
			continue
		}
		res.Paths[s.ID] = rec.Path
		order = append(order, s.ID)
		for i := 0; i+1 < len(rec.Path); i++ {
			from, to := rec.Path[i], rec.Path[i+1]
			// predecessor links are only set while relaxing arcs of g
			if a, ok := g.Arc(from, to); ok {
				acc.add(domain.NewPrerequisite(to, from, a.Predicted, a.Cost))
			}
		}
	}

	if len(res.Paths) > 0 {
		res.Strategy = StrategyDP
	} else if paths, prereqs := BridgeConcepts(skills); len(paths) > 0 {
		res.Strategy = StrategyConceptBridge
		res.Paths = paths
		for _, s := range skills {
			if _, ok := paths[s.ID]; ok {
				order = append(order, s.ID)
			}
		}
		for _, p := range prereqs {
			acc.add(p)
		}
		log.Info("no dp paths, bridged skills through concepts", "paths", len(paths))
	} else if prereqs := ChainByType(skills); len(prereqs) > 0 {
		res.Strategy = StrategyTypeChain
		for _, p := range prereqs {
			acc.add(p)
		}
		log.Info("no dp paths, chained skills by type", "prerequisites", len(prereqs))
	}
	res.Prerequisites = acc.list()
	res.Skills = skillViews(skills, in.Snapshot, res.Paths, order)

	for _, id := range order {
		log.Info("learning path", "target", id, "path", describePath(res.Paths[id], in.Snapshot))
	}
	log.Info("learning paths computed",
		"strategy", res.Strategy,
		"targets", res.Diagnostics.Targets,
		"paths", len(res.Paths),
		"prerequisites", len(res.Prerequisites),
	)
	return res
}

// remainingSkills drops skills the user already has and repeated ids,
// preserving input order.
func remainingSkills(jobSkills []domain.Node, userSkills []string) []domain.Node {
	have := make(map[string]struct{}, len(userSkills))
	for _, id := range userSkills {
		have[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(jobSkills))
	out := make([]domain.Node, 0, len(jobSkills))
	for _, s := range jobSkills {
		if s.ID == "" {
			continue
		}
		if _, ok := have[s.ID]; ok {
			continue
		}
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

type prereqSet struct {
	index map[[2]string]int
	items []domain.Prerequisite
}

func newPrereqSet() *prereqSet {
	return &prereqSet{index: map[[2]string]int{}, items: []domain.Prerequisite{}}
}

// add keeps the first prerequisite seen for a (source, target) pair.
func (p *prereqSet) add(pr domain.Prerequisite) {
	key := [2]string{pr.Source, pr.Target}
	if _, ok := p.index[key]; ok {
		return
	}
	p.index[key] = len(p.items)
	p.items = append(p.items, pr)
}

func (p *prereqSet) list() []domain.Prerequisite { return p.items }

// skillViews lists the requested skills first, then every other node that
// appears on a path, in first-seen order.
func skillViews(skills []domain.Node, snap *domain.Snapshot, paths map[string][]string, order []string) []domain.NodeView {
	seen := make(map[string]struct{}, len(skills))
	out := make([]domain.NodeView, 0, len(skills))
	for _, s := range skills {
		seen[s.ID] = struct{}{}
		out = append(out, mergedView(s, snap))
	}
	for _, target := range order {
		for _, id := range paths[target] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if snap != nil {
				if n, ok := snap.Nodes[id]; ok {
					out = append(out, n.View())
					continue
				}
			}
			out = append(out, domain.NodeView{ID: id, Name: id, Type: domain.TypeHardSkill})
		}
	}
	return out
}

// mergedView prefers the snapshot's copy of a skill, which carries the full
// label set, and fills gaps from the job's copy.
func mergedView(s domain.Node, snap *domain.Snapshot) domain.NodeView {
	if snap == nil {
		return s.View()
	}
	n, ok := snap.Nodes[s.ID]
	if !ok {
		return s.View()
	}
	v := n.View()
	if v.Name == "" {
		v.Name = s.Name
	}
	if v.Definition == "" {
		v.Definition = s.Definition
	}
	return v
}

func describePath(path []string, snap *domain.Snapshot) string {
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = id
		if snap != nil {
			if n, ok := snap.Nodes[id]; ok && n.Name != "" {
				names[i] = n.Name
			}
		}
	}
	return strings.Join(names, " -> ")
}
