// Package filestore serves the skill graph from a JSON or YAML document
// loaded once into memory. The loaded store is read-only.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

// Document is the on-disk layout. Job requirements are REQUIRES edges whose
// source is a Job node; Mentions lists skills named by a job's descriptions.
type Document struct {
	Nodes    []domain.Node       `json:"nodes" yaml:"nodes"`
	Edges    []Edge              `json:"edges" yaml:"edges"`
	Mentions map[string][]string `json:"mentions,omitempty" yaml:"mentions,omitempty"`
}

// Edge allows score and predicted to be omitted.
type Edge struct {
	Source    string   `json:"source" yaml:"source"`
	Target    string   `json:"target" yaml:"target"`
	Score     *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Predicted *bool    `json:"predicted,omitempty" yaml:"predicted,omitempty"`
}

func (e Edge) toDomain() domain.Edge {
	out := domain.Edge{Source: e.Source, Target: e.Target, Score: domain.DefaultEdgeScore}
	if e.Score != nil {
		out.Score = *e.Score
	}
	if e.Predicted != nil {
		out.Predicted = *e.Predicted
	}
	return out
}

var skillLabels = []domain.NodeType{domain.TypeHardSkill, domain.TypeSoftSkill, domain.TypeTechnology, domain.TypeConcept}

type Store struct {
	path     string
	nodes    []domain.Node
	byID     map[string]domain.Node
	edges    []domain.Edge
	mentions map[string][]string
}

// Load reads a .json, .yaml or .yml document from path.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", path, err)
	}
	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	default:
		return nil, fmt.Errorf("filestore: unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", path, err)
	}
	s := FromDocument(doc)
	s.path = path
	return s, nil
}

func FromDocument(doc Document) *Store {
	s := &Store{
		byID:     make(map[string]domain.Node, len(doc.Nodes)),
		mentions: doc.Mentions,
	}
	for _, n := range doc.Nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := s.byID[n.ID]; !dup {
			s.nodes = append(s.nodes, n)
		}
		s.byID[n.ID] = n
	}
	for i, n := range s.nodes {
		s.nodes[i] = s.byID[n.ID]
	}
	s.edges = make([]domain.Edge, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		s.edges = append(s.edges, e.toDomain())
	}
	return s
}

func (s *Store) Path() string { return s.path }

// Dataset returns the loaded graph for bulk import elsewhere.
func (s *Store) Dataset() ([]domain.Node, []domain.Edge, map[string][]string) {
	return append([]domain.Node(nil), s.nodes...), append([]domain.Edge(nil), s.edges...), s.mentions
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) JobSkills(ctx context.Context, jobID string) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job, ok := s.byID[jobID]
	if !ok || !job.HasLabel(domain.TypeJob) {
		return nil, nil
	}
	var out []domain.Node
	seen := map[string]struct{}{}
	for _, e := range s.edges {
		if e.Source != jobID {
			continue
		}
		if n, ok := s.byID[e.Target]; ok {
			if _, dup := seen[n.ID]; !dup {
				seen[n.ID] = struct{}{}
				out = append(out, n)
			}
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	for _, id := range s.mentions[jobID] {
		n, ok := s.byID[id]
		if !ok || !isSkill(n) {
			continue
		}
		if _, dup := seen[n.ID]; !dup {
			seen[n.ID] = struct{}{}
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Store) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes := make([]domain.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if isSkill(n) || n.HasLabel(domain.TypeJob) {
			nodes = append(nodes, n)
		}
	}
	return domain.NewSnapshot(nodes, append([]domain.Edge(nil), s.edges...)), nil
}

func (s *Store) MatchSkills(ctx context.Context, terms []string, limit int) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}
	var out []domain.Node
	for _, n := range s.sortedSkills() {
		name := strings.ToLower(n.Name)
		for _, t := range terms {
			if strings.Contains(name, strings.ToLower(t)) {
				out = append(out, n)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ListSkills(ctx context.Context) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.sortedSkills(), nil
}

func (s *Store) EdgesAmong(ctx context.Context, ids []string) ([]domain.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []domain.Edge
	for _, e := range s.edges {
		_, src := want[e.Source]
		_, dst := want[e.Target]
		if src && dst {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (domain.GraphStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.GraphStats{}, err
	}
	stats := domain.GraphStats{
		NodeCount:     int64(len(s.nodes)),
		Relationships: map[string]int64{},
	}
	labelSets := map[string]struct{}{}
	var jobs []string
	for _, n := range s.nodes {
		labelSets[strings.Join(n.Labels, ",")] = struct{}{}
		if n.HasLabel(domain.TypeJob) {
			jobs = append(jobs, n.ID)
		}
	}
	stats.LabelCount = int64(len(labelSets))
	if len(s.edges) > 0 {
		stats.Relationships[domain.RelRequires] = int64(len(s.edges))
	}
	var mentions int64
	for _, ids := range s.mentions {
		mentions += int64(len(ids))
	}
	if mentions > 0 {
		stats.Relationships["MENTIONS"] = mentions
	}
	sort.Strings(jobs)
	if len(jobs) > 5 {
		jobs = jobs[:5]
	}
	stats.SampleJobs = jobs
	return stats, nil
}

func (s *Store) sortedSkills() []domain.Node {
	var out []domain.Node
	for _, n := range s.nodes {
		if isSkill(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isSkill(n domain.Node) bool {
	for _, l := range skillLabels {
		if n.HasLabel(l) {
			return true
		}
	}
	return false
}
