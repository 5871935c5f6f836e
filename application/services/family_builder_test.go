package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/domain/core/aggregates"
	"github.com/indiafamilytree/familytree/domain/core/entities"
	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

func newBuilderFixture(t *testing.T) (*TreeService, *FamilyBuilder, *entities.Person) {
	t.Helper()
	svc := NewTreeService(aggregates.NewTree(), zap.NewNop())
	builder := NewFamilyBuilder(svc, zap.NewNop())

	root, err := svc.InitializeRoot("Raman", "male")
	require.NoError(t, err)
	return svc, builder, root
}

func TestFamilyBuilder_CreateImmediateFamily(t *testing.T) {
	svc, builder, root := newBuilderFixture(t)

	family, err := builder.CreateImmediateFamily(root.ID(), "Selvi", []ChildInput{
		{Name: "A", Gender: "male"},
	})
	require.NoError(t, err)
	require.NotNil(t, family)

	overview := svc.Overview()
	assert.Len(t, overview.Persons, 3)
	require.Len(t, overview.Families, 1)

	assert.True(t, family.HusbandID().Equals(root.ID()))
	assert.False(t, family.WifeID().IsZero())
	assert.Len(t, family.Sons(), 1)

	// The child's arrival relabels both spousal edges to parental ones.
	var labels []valueobjects.EdgeLabel
	for _, e := range overview.Edges {
		if e.Target.Equals(family.ID()) {
			labels = append(labels, e.Label)
		}
	}
	assert.ElementsMatch(t, []valueobjects.EdgeLabel{valueobjects.EdgeFather, valueobjects.EdgeMother}, labels)
}

func TestFamilyBuilder_CreateImmediateFamily_SpouseOnly(t *testing.T) {
	svc, builder, root := newBuilderFixture(t)

	family, err := builder.CreateImmediateFamily(root.ID(), "Selvi", nil)
	require.NoError(t, err)
	require.NotNil(t, family)

	assert.False(t, family.HasChildren())

	// Without a child the spousal labels stay in place.
	var labels []valueobjects.EdgeLabel
	for _, e := range svc.Overview().Edges {
		if e.Target.Equals(family.ID()) {
			labels = append(labels, e.Label)
		}
	}
	assert.ElementsMatch(t, []valueobjects.EdgeLabel{valueobjects.EdgeHusband, valueobjects.EdgeWife}, labels)
}

func TestFamilyBuilder_CreateImmediateFamily_AnchorOnly(t *testing.T) {
	svc, builder, root := newBuilderFixture(t)

	family, err := builder.CreateImmediateFamily(root.ID(), "", nil)
	require.NoError(t, err)
	require.NotNil(t, family)

	// With no spouse and no children the anchor still lands in its
	// gender-matched parent slot of a fresh family.
	assert.True(t, family.HusbandID().Equals(root.ID()))
	assert.True(t, family.WifeID().IsZero())
	assert.False(t, family.HasChildren())

	overview := svc.Overview()
	require.Len(t, overview.Families, 1)
	assert.Len(t, overview.Persons, 1)

	var labels []valueobjects.EdgeLabel
	for _, e := range overview.Edges {
		if e.Target.Equals(family.ID()) {
			labels = append(labels, e.Label)
		}
	}
	assert.Equal(t, []valueobjects.EdgeLabel{valueobjects.EdgeHusband}, labels)
}

func TestFamilyBuilder_CreateImmediateFamily_AbsentAnchor(t *testing.T) {
	svc, builder, _ := newBuilderFixture(t)

	_, err := builder.CreateImmediateFamily(valueobjects.NewEntityID(), "Selvi", []ChildInput{
		{Name: "A", Gender: "male"},
	})
	assert.True(t, apperrors.IsReference(err))

	overview := svc.Overview()
	assert.Len(t, overview.Persons, 1)
	assert.Empty(t, overview.Families)
}

func TestFamilyBuilder_CreateImmediateFamily_BadChildSkipped(t *testing.T) {
	svc, builder, root := newBuilderFixture(t)

	family, err := builder.CreateImmediateFamily(root.ID(), "", []ChildInput{
		{Name: "A", Gender: "male"},
		{Name: "B", Gender: "not-a-gender"},
	})
	require.Error(t, err)
	require.NotNil(t, family)

	// The valid sibling still landed.
	assert.Len(t, family.Sons(), 1)
	assert.Len(t, svc.Overview().Persons, 2)
}

func TestFamilyBuilder_CreateAncestralFamily(t *testing.T) {
	svc, builder, root := newBuilderFixture(t)

	family, err := builder.CreateAncestralFamily(root.ID(), "John Smith", "Jane Doe")
	require.NoError(t, err)
	require.NotNil(t, family)

	assert.Equal(t, "John Smith\nJane Doe", family.Signature())
	assert.True(t, family.HasChild(root.ID()))

	// Parental labels from the start; no spousal phase for the
	// ancestors of an existing person.
	for _, e := range svc.Overview().Edges {
		if e.Target.Equals(family.ID()) {
			assert.Contains(t, []valueobjects.EdgeLabel{valueobjects.EdgeFather, valueobjects.EdgeMother}, e.Label)
		}
	}
}

func TestFamilyBuilder_CreateAncestralFamily_NoParents(t *testing.T) {
	svc, builder, root := newBuilderFixture(t)

	family, err := builder.CreateAncestralFamily(root.ID(), "", "")
	require.NoError(t, err)
	require.NotNil(t, family)

	assert.True(t, family.HasChild(root.ID()))
	assert.True(t, family.HusbandID().IsZero())
	assert.True(t, family.WifeID().IsZero())
	assert.Len(t, svc.Overview().Persons, 1)
}

func TestFamilyBuilder_CreateAncestralFamily_ReusesBirthFamily(t *testing.T) {
	svc, builder, root := newBuilderFixture(t)

	first, err := builder.CreateAncestralFamily(root.ID(), "John Smith", "")
	require.NoError(t, err)

	second, err := builder.CreateAncestralFamily(root.ID(), "", "Jane Doe")
	require.NoError(t, err)

	// The mother joins the family the father already anchors.
	assert.True(t, first.ID().Equals(second.ID()))
	assert.Len(t, svc.Overview().Families, 1)
	assert.Equal(t, "John Smith\nJane Doe", second.Signature())
}

func TestFamilyBuilder_CreateAncestralFamily_AbsentDescendant(t *testing.T) {
	svc, builder, _ := newBuilderFixture(t)

	_, err := builder.CreateAncestralFamily(valueobjects.NewEntityID(), "John", "Jane")
	assert.True(t, apperrors.IsReference(err))
	assert.Empty(t, svc.Overview().Families)
}
