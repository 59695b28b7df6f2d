package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/platform/apierr"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

const (
	searchLimit     = 10
	minQueryRunes   = 2
	minWordRunes    = 3
	loosePrefixRune = 3
)

type SkillService interface {
	// Search matches skill names case-insensitively. With no direct hit it
	// retries with the query's individual words, then with its first three
	// characters.
	Search(ctx context.Context, query string) ([]domain.NodeView, error)
	List(ctx context.Context) ([]domain.NodeView, error)
	ExistingPrerequisites(ctx context.Context, skillIDs []string) ([]domain.Prerequisite, error)
}

type skillService struct {
	log     *logger.Logger
	catalog SkillCatalog
}

func NewSkillService(baseLog *logger.Logger, catalog SkillCatalog) SkillService {
	return &skillService{
		log:     baseLog.With("service", "SkillService"),
		catalog: catalog,
	}
}

func (s *skillService) Search(ctx context.Context, query string) ([]domain.NodeView, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < minQueryRunes {
		return []domain.NodeView{}, nil
	}

	attempts := [][]string{{q}}
	if utf8.RuneCountInString(q) >= minWordRunes {
		var words []string
		for _, w := range strings.Fields(q) {
			if utf8.RuneCountInString(w) >= minWordRunes {
				words = append(words, w)
			}
		}
		if len(words) > 0 {
			attempts = append(attempts, words)
		}
		attempts = append(attempts, []string{string([]rune(q)[:loosePrefixRune])})
	}

	for i, terms := range attempts {
		nodes, err := s.catalog.MatchSkills(ctx, terms, searchLimit)
		if err != nil {
			s.log.Error("skill search failed", "query", q, "error", err)
			return nil, unavailable(err)
		}
		if len(nodes) > 0 {
			s.log.Debug("skill search", "query", q, "attempt", i, "results", len(nodes))
			return views(nodes), nil
		}
	}
	return []domain.NodeView{}, nil
}

func (s *skillService) List(ctx context.Context) ([]domain.NodeView, error) {
	nodes, err := s.catalog.ListSkills(ctx)
	if err != nil {
		s.log.Error("list skills failed", "error", err)
		return nil, unavailable(err)
	}
	return views(nodes), nil
}

func (s *skillService) ExistingPrerequisites(ctx context.Context, skillIDs []string) ([]domain.Prerequisite, error) {
	ids := dedupe(skillIDs)
	if len(ids) == 0 {
		return []domain.Prerequisite{}, nil
	}
	edges, err := s.catalog.EdgesAmong(ctx, ids)
	if err != nil {
		s.log.Error("existing prerequisites failed", "skills", len(ids), "error", err)
		return nil, unavailable(err)
	}
	out := make([]domain.Prerequisite, 0, len(edges))
	seen := make(map[[2]string]struct{}, len(edges))
	for _, e := range edges {
		key := [2]string{e.Source, e.Target}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.NewPrerequisite(e.Source, e.Target, e.Predicted, e.Score))
	}
	s.log.Debug("existing prerequisites", "skills", len(ids), "prerequisites", len(out))
	return out, nil
}

func views(nodes []domain.Node) []domain.NodeView {
	out := make([]domain.NodeView, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.View())
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func unavailable(err error) error {
	return apierr.Unavailable("graph_unavailable", fmt.Errorf("%w: %w", domain.ErrGraphUnavailable, err))
}
