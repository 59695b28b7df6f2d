// Package pgstore keeps the skill graph in PostgreSQL through gorm. Nodes
// carry a jsonb label array, REQUIRES relationships are rows in graph_edges
// and job description mentions live in job_mentions.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

const importBatchSize = 500

// snapshotTxOptions gives Snapshot one consistent view of nodes and edges.
var snapshotTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

var (
	skillLabels    = []string{"HardSkill", "SoftSkill", "Technology", "Concept"}
	snapshotLabels = []string{"Concept", "HardSkill", "Technology", "SoftSkill", "Job"}
)

// hasAnyLabel is a condition on graph_nodes.labels taking one slice argument.
func hasAnyLabel(col string) string {
	return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(" + col + ") AS l(label) WHERE l.label IN ?)"
}

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log.With("source", "postgres")}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("pgstore: sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// JobSkills returns the nodes a Job node REQUIRES, falling back to the
// skills its descriptions mention.
func (s *Store) JobSkills(ctx context.Context, jobID string) ([]domain.Node, error) {
	var rows []NodeRow
	if err := s.db.WithContext(ctx).Raw(`
SELECT n.id, n.name, n.definition, n.labels, n.created_at
FROM graph_edges e
JOIN graph_nodes j ON j.id = e.source_id AND j.labels @> '["Job"]'::jsonb
JOIN graph_nodes n ON n.id = e.target_id
WHERE e.source_id = ? AND e.rel_type = ?
ORDER BY e.created_at, n.id`, jobID, domain.RelRequires).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgstore: job skills: %w", err)
	}
	if len(rows) > 0 {
		return nodesFromRows(rows)
	}

	s.log.Debug("no direct job skills, trying description mentions", "job_id", jobID)
	if err := s.db.WithContext(ctx).
		Model(&NodeRow{}).
		Select("graph_nodes.*").
		Joins("JOIN job_mentions m ON m.skill_id = graph_nodes.id").
		Where("m.job_id = ?", jobID).
		Where(hasAnyLabel("graph_nodes.labels"), skillLabels).
		Order("graph_nodes.id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgstore: job mentions: %w", err)
	}
	return nodesFromRows(rows)
}

// Snapshot reads nodes and REQUIRES edges inside one read-only repeatable
// read transaction so both halves see the same graph.
func (s *Store) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	var (
		nodeRows []NodeRow
		edgeRows []EdgeRow
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(hasAnyLabel("labels"), snapshotLabels).
			Order("id").
			Find(&nodeRows).Error; err != nil {
			return fmt.Errorf("pgstore: query nodes: %w", err)
		}
		if err := tx.Where("rel_type = ?", domain.RelRequires).
			Order("created_at, source_id, target_id").
			Find(&edgeRows).Error; err != nil {
			return fmt.Errorf("pgstore: query edges: %w", err)
		}
		return nil
	}, snapshotTxOptions)
	if err != nil {
		return nil, err
	}
	nodes, err := nodesFromRows(nodeRows)
	if err != nil {
		return nil, err
	}
	return domain.NewSnapshot(nodes, edgesFromRows(edgeRows)), nil
}

// MatchSkills returns skills whose lowercased name contains any of terms.
func (s *Store) MatchSkills(ctx context.Context, terms []string, limit int) ([]domain.Node, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	names := s.db.Session(&gorm.Session{NewDB: true})
	for i, t := range terms {
		pattern := "%" + escapeLike(strings.ToLower(t)) + "%"
		if i == 0 {
			names = names.Where("lower(name) LIKE ?", pattern)
		} else {
			names = names.Or("lower(name) LIKE ?", pattern)
		}
	}

	q := s.db.WithContext(ctx).
		Where(hasAnyLabel("labels"), skillLabels).
		Where(names).
		Order("name")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []NodeRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgstore: match skills: %w", err)
	}
	return nodesFromRows(rows)
}

func (s *Store) ListSkills(ctx context.Context) ([]domain.Node, error) {
	var rows []NodeRow
	if err := s.db.WithContext(ctx).
		Where(hasAnyLabel("labels"), skillLabels).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgstore: list skills: %w", err)
	}
	return nodesFromRows(rows)
}

func (s *Store) EdgesAmong(ctx context.Context, ids []string) ([]domain.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []EdgeRow
	if err := s.db.WithContext(ctx).
		Where("rel_type = ? AND source_id IN ? AND target_id IN ?", domain.RelRequires, ids, ids).
		Order("created_at, source_id, target_id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgstore: edges among: %w", err)
	}
	return edgesFromRows(rows), nil
}

func (s *Store) Stats(ctx context.Context) (domain.GraphStats, error) {
	db := s.db.WithContext(ctx)
	stats := domain.GraphStats{Relationships: map[string]int64{}}

	var counts struct {
		Nodes  int64
		Labels int64
	}
	if err := db.Model(&NodeRow{}).
		Select("count(*) AS nodes, count(DISTINCT labels) AS labels").
		Scan(&counts).Error; err != nil {
		return domain.GraphStats{}, fmt.Errorf("pgstore: node stats: %w", err)
	}
	stats.NodeCount, stats.LabelCount = counts.Nodes, counts.Labels

	var rels []struct {
		RelType string
		Total   int64
	}
	if err := db.Model(&EdgeRow{}).
		Select("rel_type, count(*) AS total").
		Group("rel_type").
		Scan(&rels).Error; err != nil {
		return domain.GraphStats{}, fmt.Errorf("pgstore: relationship stats: %w", err)
	}
	for _, r := range rels {
		stats.Relationships[r.RelType] += r.Total
	}
	var mentions int64
	if err := db.Model(&MentionRow{}).Count(&mentions).Error; err != nil {
		return domain.GraphStats{}, fmt.Errorf("pgstore: mention stats: %w", err)
	}
	if mentions > 0 {
		stats.Relationships["MENTIONS"] += mentions
	}

	if err := db.Model(&NodeRow{}).
		Where(`labels @> '["Job"]'::jsonb`).
		Order("id").
		Limit(5).
		Pluck("id", &stats.SampleJobs).Error; err != nil {
		return domain.GraphStats{}, fmt.Errorf("pgstore: sample jobs: %w", err)
	}
	return stats, nil
}

// Import upserts nodes, edges and job mentions in a single transaction.
// Edges and mentions that reference a node outside nodes are skipped.
func (s *Store) Import(ctx context.Context, nodes []domain.Node, edges []domain.Edge, mentions map[string][]string) error {
	nodeRows := make([]NodeRow, 0, len(nodes))
	known := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		row, err := nodeRowFrom(n)
		if err != nil {
			return err
		}
		nodeRows = append(nodeRows, row)
		known[n.ID] = struct{}{}
	}
	has := func(ids ...string) bool {
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return false
			}
		}
		return true
	}

	skipped := 0
	edgeRows := make([]EdgeRow, 0, len(edges))
	for _, e := range edges {
		if !has(e.Source, e.Target) {
			skipped++
			continue
		}
		edgeRows = append(edgeRows, edgeRowFrom(e))
	}
	var mentionRows []MentionRow
	for jobID, skillIDs := range mentions {
		for _, skillID := range skillIDs {
			if !has(jobID, skillID) {
				skipped++
				continue
			}
			mentionRows = append(mentionRows, MentionRow{JobID: jobID, SkillID: skillID})
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(nodeRows) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "definition", "labels"}),
			}).CreateInBatches(&nodeRows, importBatchSize).Error; err != nil {
				return fmt.Errorf("pgstore: upsert nodes: %w", err)
			}
		}
		if len(edgeRows) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "source_id"}, {Name: "target_id"}, {Name: "rel_type"}},
				DoUpdates: clause.AssignmentColumns([]string{"score", "predicted"}),
			}).CreateInBatches(&edgeRows, importBatchSize).Error; err != nil {
				return fmt.Errorf("pgstore: upsert edges: %w", err)
			}
		}
		if len(mentionRows) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(&mentionRows, importBatchSize).Error; err != nil {
				return fmt.Errorf("pgstore: insert mentions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("graph imported",
		"nodes", len(nodeRows),
		"edges", len(edgeRows),
		"mentions", len(mentionRows),
		"skipped", skipped,
	)
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
