package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

type NodeRow struct {
	ID         string         `gorm:"column:id;primaryKey" json:"id"`
	Name       string         `gorm:"column:name;not null;default:''" json:"name"`
	Definition string         `gorm:"column:definition;not null;default:''" json:"definition"`
	Labels     datatypes.JSON `gorm:"column:labels;type:jsonb;not null;default:'[]'" json:"labels"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (NodeRow) TableName() string { return "graph_nodes" }

// EdgeRow is a typed relationship. Score and Predicted are nullable; readers
// fall back to domain.DefaultEdgeScore and false.
type EdgeRow struct {
	SourceID  string    `gorm:"column:source_id;primaryKey" json:"source_id"`
	TargetID  string    `gorm:"column:target_id;primaryKey;index:idx_graph_edges_target" json:"target_id"`
	RelType   string    `gorm:"column:rel_type;primaryKey;default:REQUIRES;index:idx_graph_edges_type" json:"rel_type"`
	Score     *float64  `gorm:"column:score" json:"score,omitempty"`
	Predicted *bool     `gorm:"column:predicted" json:"predicted,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (EdgeRow) TableName() string { return "graph_edges" }

type MentionRow struct {
	JobID   string `gorm:"column:job_id;primaryKey" json:"job_id"`
	SkillID string `gorm:"column:skill_id;primaryKey" json:"skill_id"`
}

func (MentionRow) TableName() string { return "job_mentions" }

// CreateSchema migrates the graph tables and the GIN index on labels.
func (s *Store) CreateSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&NodeRow{}, &EdgeRow{}, &MentionRow{}); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_graph_nodes_labels ON graph_nodes USING GIN (labels)`).Error; err != nil {
		return fmt.Errorf("pgstore: labels index: %w", err)
	}
	return nil
}

// DropSchema drops every graph table.
func (s *Store) DropSchema(ctx context.Context) error {
	return s.db.WithContext(ctx).Migrator().DropTable(&MentionRow{}, &EdgeRow{}, &NodeRow{})
}

func nodeRowFrom(n domain.Node) (NodeRow, error) {
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return NodeRow{}, fmt.Errorf("pgstore: encode labels of %s: %w", n.ID, err)
	}
	return NodeRow{ID: n.ID, Name: n.Name, Definition: n.Definition, Labels: datatypes.JSON(raw)}, nil
}

func (r NodeRow) toDomain() (domain.Node, error) {
	n := domain.Node{ID: r.ID, Name: r.Name, Definition: r.Definition}
	if len(r.Labels) > 0 {
		if err := json.Unmarshal(r.Labels, &n.Labels); err != nil {
			return domain.Node{}, fmt.Errorf("pgstore: decode labels of %s: %w", r.ID, err)
		}
	}
	return n, nil
}

func (r EdgeRow) toDomain() domain.Edge {
	e := domain.Edge{Source: r.SourceID, Target: r.TargetID, Score: domain.DefaultEdgeScore}
	if r.Score != nil {
		e.Score = *r.Score
	}
	if r.Predicted != nil {
		e.Predicted = *r.Predicted
	}
	return e
}

func edgeRowFrom(e domain.Edge) EdgeRow {
	score, predicted := e.Score, e.Predicted
	return EdgeRow{
		SourceID:  e.Source,
		TargetID:  e.Target,
		RelType:   domain.RelRequires,
		Score:     &score,
		Predicted: &predicted,
	}
}

func nodesFromRows(rows []NodeRow) ([]domain.Node, error) {
	out := make([]domain.Node, 0, len(rows))
	for _, r := range rows {
		n, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func edgesFromRows(rows []EdgeRow) []domain.Edge {
	out := make([]domain.Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
