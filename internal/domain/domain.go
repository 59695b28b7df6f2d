package domain

import (
	"errors"
	"sort"
)

var (
	// ErrNoJobSkills means the job resolved to zero skills. It is a distinct
	// outcome from ErrGraphUnavailable and maps to a 404.
	ErrNoJobSkills      = errors.New("no skills found for job")
	ErrGraphUnavailable = errors.New("graph source unavailable")
	ErrUnknownSource    = errors.New("unknown graph source")
)

type NodeType string

const (
	TypeConcept    NodeType = "Concept"
	TypeHardSkill  NodeType = "HardSkill"
	TypeTechnology NodeType = "Technology"
	TypeSoftSkill  NodeType = "SoftSkill"
	TypeJob        NodeType = "Job"
)

// RelRequires is the only relationship type the engine reads or emits.
const RelRequires = "REQUIRES"

// DefaultEdgeScore is applied by every data source when a REQUIRES
// relationship carries no score.
const DefaultEdgeScore = 0.5

// typePrecedence is the single precedence order used to collapse a node's
// label set into one effective type.
var typePrecedence = []NodeType{TypeHardSkill, TypeTechnology, TypeSoftSkill, TypeConcept}

// EffectiveType resolves a label set to one type. Unknown or empty label sets
// resolve to HardSkill. Job is never an effective type.
func EffectiveType(labels []string) NodeType {
	for _, want := range typePrecedence {
		for _, l := range labels {
			if NodeType(l) == want {
				return want
			}
		}
	}
	return TypeHardSkill
}

// IsTargetType reports whether skills of type t get their own learning path.
func IsTargetType(t NodeType) bool {
	return t == TypeHardSkill || t == TypeTechnology || t == TypeSoftSkill
}

type Node struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Definition string   `json:"definition,omitempty" yaml:"definition,omitempty"`
	Labels     []string `json:"labels" yaml:"labels"`
}

func (n Node) Type() NodeType { return EffectiveType(n.Labels) }

func (n Node) HasLabel(label NodeType) bool {
	for _, l := range n.Labels {
		if NodeType(l) == label {
			return true
		}
	}
	return false
}

func (n Node) View() NodeView {
	return NodeView{ID: n.ID, Name: n.Name, Definition: n.Definition, Type: n.Type()}
}

// Edge is a REQUIRES relationship: Source requires Target, so Target is
// learned first.
type Edge struct {
	Source    string  `json:"source" yaml:"source"`
	Target    string  `json:"target" yaml:"target"`
	Score     float64 `json:"score" yaml:"score"`
	Predicted bool    `json:"predicted" yaml:"predicted"`
}

// Snapshot is one request-scoped read of the whole graph.
type Snapshot struct {
	Nodes map[string]Node
	Edges []Edge
}

func NewSnapshot(nodes []Node, edges []Edge) *Snapshot {
	m := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		m[n.ID] = n
	}
	return &Snapshot{Nodes: m, Edges: edges}
}

// NodeIDs returns the snapshot's ids in ascending order.
func (s *Snapshot) NodeIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type NodeView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Definition string   `json:"definition"`
	Type       NodeType `json:"type"`
}

type Prerequisite struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Type      string  `json:"type"`
	Predicted bool    `json:"predicted"`
	Score     float64 `json:"score"`
}

func NewPrerequisite(source, target string, predicted bool, score float64) Prerequisite {
	return Prerequisite{Source: source, Target: target, Type: RelRequires, Predicted: predicted, Score: score}
}

type GraphStats struct {
	NodeCount     int64            `json:"nodeCount"`
	LabelCount    int64            `json:"labelCount"`
	Relationships map[string]int64 `json:"relationships"`
	SampleJobs    []string         `json:"sampleJobs"`
}
