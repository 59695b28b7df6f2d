package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/neo4jdb"
)

const (
	cypherDirectJobSkills = `
MATCH (j:Job {id: $jobId})-[:REQUIRES]->(s)
RETURN s.id AS id, s.name AS name, s.definition AS definition, labels(s) AS labels
`
	cypherMentionedJobSkills = `
MATCH (j:Job {id: $jobId})
OPTIONAL MATCH (j)-[:HAS_DESCRIPTION]->(:Description)-[:MENTIONS]->(s)
WHERE s:HardSkill OR s:Technology OR s:SoftSkill OR s:Concept
RETURN DISTINCT s.id AS id, s.name AS name, s.definition AS definition, labels(s) AS labels
`
	cypherSnapshotNodes = `
MATCH (n)
WHERE n:Concept OR n:HardSkill OR n:Technology OR n:SoftSkill OR n:Job
RETURN n.id AS id, n.name AS name, n.definition AS definition, labels(n) AS labels
`
	cypherSnapshotEdges = `
MATCH (a)-[r:REQUIRES]->(b)
RETURN a.id AS source, b.id AS target, r.score AS score, r.predicted AS predicted
`
	cypherMatchSkills = `
MATCH (s)
WHERE (s:HardSkill OR s:SoftSkill OR s:Technology OR s:Concept)
  AND any(term IN $terms WHERE toLower(s.name) CONTAINS term)
RETURN s.id AS id, s.name AS name, s.definition AS definition, labels(s) AS labels
ORDER BY s.name
LIMIT $limit
`
	cypherListSkills = `
MATCH (s)
WHERE s:HardSkill OR s:SoftSkill OR s:Technology OR s:Concept
RETURN s.id AS id, s.name AS name, s.definition AS definition, labels(s) AS labels
ORDER BY s.name
`
	cypherEdgesAmong = `
MATCH (a)-[r:REQUIRES]->(b)
WHERE a.id IN $ids AND b.id IN $ids
RETURN a.id AS source, b.id AS target, r.score AS score, r.predicted AS predicted
`
	cypherStatsNodes = `
MATCH (n)
RETURN count(n) AS nodeCount, count(DISTINCT labels(n)) AS labelCount
`
	cypherStatsRels = `
MATCH ()-[r]->()
RETURN type(r) AS type, count(r) AS count
`
	cypherSampleJobs = `MATCH (j:Job) RETURN j.id AS id LIMIT 5`
)

// SkillGraph reads the skill/prerequisite graph from Neo4j. All access is
// read-only; the driver is owned by the caller.
type SkillGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewSkillGraph(client *neo4jdb.Client, log *logger.Logger) *SkillGraph {
	if log == nil {
		log = logger.Nop()
	}
	return &SkillGraph{client: client, log: log.With("source", "neo4j")}
}

// JobSkills returns the skills a job REQUIRES. When the job has none, skills
// mentioned by the job's descriptions are used instead.
func (s *SkillGraph) JobSkills(ctx context.Context, jobID string) ([]domain.Node, error) {
	params := map[string]any{"jobId": jobID}
	var nodes []domain.Node
	err := s.read(ctx, func(tx neo4j.ManagedTransaction) error {
		recs, err := collect(ctx, tx, cypherDirectJobSkills, params)
		if err != nil {
			return err
		}
		nodes = nodesFromRecords(recs)
		if len(nodes) > 0 {
			return nil
		}
		s.log.Debug("no direct job skills, trying description mentions", "job_id", jobID)
		recs, err = collect(ctx, tx, cypherMentionedJobSkills, params)
		if err != nil {
			return err
		}
		nodes = nodesFromRecords(recs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j job skills: %w", err)
	}
	return nodes, nil
}

// Snapshot reads every skill-like node and every REQUIRES relationship in one
// read transaction.
func (s *SkillGraph) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := s.read(ctx, func(tx neo4j.ManagedTransaction) error {
		nodeRecs, err := collect(ctx, tx, cypherSnapshotNodes, nil)
		if err != nil {
			return err
		}
		edgeRecs, err := collect(ctx, tx, cypherSnapshotEdges, nil)
		if err != nil {
			return err
		}
		snap = domain.NewSnapshot(nodesFromRecords(nodeRecs), edgesFromRecords(edgeRecs))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j snapshot: %w", err)
	}
	s.log.Debug("snapshot loaded", "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return snap, nil
}

// MatchSkills returns skills whose lowercased name contains any of terms.
func (s *SkillGraph) MatchSkills(ctx context.Context, terms []string, limit int) ([]domain.Node, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	var nodes []domain.Node
	err := s.read(ctx, func(tx neo4j.ManagedTransaction) error {
		recs, err := collect(ctx, tx, cypherMatchSkills, map[string]any{"terms": lowered, "limit": int64(limit)})
		if err != nil {
			return err
		}
		nodes = nodesFromRecords(recs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j match skills: %w", err)
	}
	return nodes, nil
}

func (s *SkillGraph) ListSkills(ctx context.Context) ([]domain.Node, error) {
	var nodes []domain.Node
	err := s.read(ctx, func(tx neo4j.ManagedTransaction) error {
		recs, err := collect(ctx, tx, cypherListSkills, nil)
		if err != nil {
			return err
		}
		nodes = nodesFromRecords(recs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j list skills: %w", err)
	}
	return nodes, nil
}

// EdgesAmong returns REQUIRES relationships whose both ends are in ids.
func (s *SkillGraph) EdgesAmong(ctx context.Context, ids []string) ([]domain.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var edges []domain.Edge
	err := s.read(ctx, func(tx neo4j.ManagedTransaction) error {
		recs, err := collect(ctx, tx, cypherEdgesAmong, map[string]any{"ids": ids})
		if err != nil {
			return err
		}
		edges = edgesFromRecords(recs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j edges among: %w", err)
	}
	return edges, nil
}

func (s *SkillGraph) Stats(ctx context.Context) (domain.GraphStats, error) {
	stats := domain.GraphStats{Relationships: map[string]int64{}}
	err := s.read(ctx, func(tx neo4j.ManagedTransaction) error {
		recs, err := collect(ctx, tx, cypherStatsNodes, nil)
		if err != nil {
			return err
		}
		if len(recs) > 0 {
			stats.NodeCount = recordInt(recs[0], "nodeCount")
			stats.LabelCount = recordInt(recs[0], "labelCount")
		}
		recs, err = collect(ctx, tx, cypherStatsRels, nil)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			stats.Relationships[recordString(rec, "type")] = recordInt(rec, "count")
		}
		recs, err = collect(ctx, tx, cypherSampleJobs, nil)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if id := recordString(rec, "id"); id != "" {
				stats.SampleJobs = append(stats.SampleJobs, id)
			}
		}
		return nil
	})
	if err != nil {
		return domain.GraphStats{}, fmt.Errorf("neo4j stats: %w", err)
	}
	return stats, nil
}

func (s *SkillGraph) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *SkillGraph) read(ctx context.Context, fn func(tx neo4j.ManagedTransaction) error) error {
	if s.client == nil || s.client.Driver == nil {
		return fmt.Errorf("neo4j client not initialized")
	}
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)
	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(tx)
	})
	return err
}

func collect(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

func nodesFromRecords(recs []*neo4j.Record) []domain.Node {
	seen := make(map[string]struct{}, len(recs))
	out := make([]domain.Node, 0, len(recs))
	for _, rec := range recs {
		id := recordString(rec, "id")
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, domain.Node{
			ID:         id,
			Name:       recordString(rec, "name"),
			Definition: recordString(rec, "definition"),
			Labels:     recordStrings(rec, "labels"),
		})
	}
	return out
}

func edgesFromRecords(recs []*neo4j.Record) []domain.Edge {
	out := make([]domain.Edge, 0, len(recs))
	for _, rec := range recs {
		src, dst := recordString(rec, "source"), recordString(rec, "target")
		if src == "" || dst == "" {
			continue
		}
		score, ok := recordFloat(rec, "score")
		if !ok {
			score = domain.DefaultEdgeScore
		}
		predicted, _ := recordBool(rec, "predicted")
		out = append(out, domain.Edge{Source: src, Target: dst, Score: score, Predicted: predicted})
	}
	return out
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func recordStrings(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// recordFloat accepts integer and float properties; ok is false for null.
func recordFloat(rec *neo4j.Record, key string) (float64, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func recordBool(rec *neo4j.Record, key string) (bool, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return t
	case float64:
		return int64(t)
	}
	return 0
}
