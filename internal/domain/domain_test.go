package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveType_Precedence(t *testing.T) {
	cases := []struct {
		name   string
		labels []string
		want   NodeType
	}{
		{"hard skill beats technology", []string{"Technology", "HardSkill"}, TypeHardSkill},
		{"technology beats soft skill", []string{"SoftSkill", "Technology"}, TypeTechnology},
		{"soft skill beats concept", []string{"Concept", "SoftSkill"}, TypeSoftSkill},
		{"concept alone", []string{"Concept"}, TypeConcept},
		{"job defaults to hard skill", []string{"Job"}, TypeHardSkill},
		{"empty defaults to hard skill", nil, TypeHardSkill},
		{"unknown label", []string{"Description"}, TypeHardSkill},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EffectiveType(tc.labels))
		})
	}
}

func TestIsTargetType(t *testing.T) {
	assert.True(t, IsTargetType(TypeHardSkill))
	assert.True(t, IsTargetType(TypeTechnology))
	assert.True(t, IsTargetType(TypeSoftSkill))
	assert.False(t, IsTargetType(TypeConcept))
	assert.False(t, IsTargetType(TypeJob))
}

func TestNewSnapshot_DropsEmptyIDsAndSortsIDs(t *testing.T) {
	snap := NewSnapshot([]Node{{ID: "b"}, {ID: ""}, {ID: "a"}}, nil)
	assert.Len(t, snap.Nodes, 2)
	assert.Equal(t, []string{"a", "b"}, snap.NodeIDs())
}
