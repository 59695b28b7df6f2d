package pathengine

import (
	"sort"

	"github.com/yungbote/learnpath-backend/internal/domain"
)

const (
	bridgeScore = 0.7
	chainScore  = 0.5
)

// chainTypeOrder is the learning order of skill groups in a type chain.
var chainTypeOrder = []domain.NodeType{
	domain.TypeConcept,
	domain.TypeHardSkill,
	domain.TypeTechnology,
	domain.TypeSoftSkill,
}

// BridgeConcepts pairs each non-Concept skill with a Concept skill from the
// same set, assigning concepts round-robin in input order. Each pairing yields
// the path [concept, skill]. Nothing is produced without at least one concept
// and one non-concept skill.
func BridgeConcepts(skills []domain.Node) (map[string][]string, []domain.Prerequisite) {
	var concepts, others []domain.Node
	for _, s := range skills {
		if s.Type() == domain.TypeConcept {
			concepts = append(concepts, s)
		} else {
			others = append(others, s)
		}
	}
	if len(concepts) == 0 || len(others) == 0 {
		return nil, nil
	}

	paths := make(map[string][]string, len(others))
	prereqs := make([]domain.Prerequisite, 0, len(others))
	for i, s := range others {
		c := concepts[i%len(concepts)]
		paths[s.ID] = []string{c.ID, s.ID}
		prereqs = append(prereqs, domain.NewPrerequisite(s.ID, c.ID, true, bridgeScore))
	}
	return paths, prereqs
}

// ChainByType groups skills by type, orders each group by name and links
// neighbours so each skill requires the one before it. Groups are then linked
// in Concept, HardSkill, Technology, SoftSkill order: the first skill of a
// group requires the last skill of the previous non-empty group.
func ChainByType(skills []domain.Node) []domain.Prerequisite {
	groups := make(map[domain.NodeType][]domain.Node)
	for _, s := range skills {
		t := s.Type()
		groups[t] = append(groups[t], s)
	}

	var prereqs []domain.Prerequisite
	var prevLast *domain.Node
	for _, t := range chainTypeOrder {
		group := groups[t]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Name != group[j].Name {
				return group[i].Name < group[j].Name
			}
			return group[i].ID < group[j].ID
		})
		for i := 1; i < len(group); i++ {
			prereqs = append(prereqs, domain.NewPrerequisite(group[i].ID, group[i-1].ID, true, chainScore))
		}
		if prevLast != nil {
			prereqs = append(prereqs, domain.NewPrerequisite(group[0].ID, prevLast.ID, true, chainScore))
		}
		last := group[len(group)-1]
		prevLast = &last
	}
	return prereqs
}
