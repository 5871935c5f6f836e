package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

func TestTree_InitializeRoot(t *testing.T) {
	tree := NewTree()

	root, err := tree.InitializeRoot(PersonDraft{Name: "Kannaiyan", Gender: "male"})
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.Equal(t, root, tree.Root())
	assert.Len(t, tree.Persons(), 1)
	assert.Len(t, tree.Nodes(), 1)
	assert.Empty(t, tree.Families())

	node := tree.Nodes()[0]
	assert.Equal(t, "Kannaiyan", node.Label)
	assert.Equal(t, valueobjects.GenderMale, node.Gender)
	assert.False(t, node.IsFamily)
}

func TestTree_InitializeRoot_Twice(t *testing.T) {
	tree := NewTree()

	_, err := tree.InitializeRoot(PersonDraft{Name: "Kannaiyan", Gender: "male"})
	require.NoError(t, err)

	_, err = tree.InitializeRoot(PersonDraft{Name: "Someone", Gender: "female"})
	assert.True(t, apperrors.IsConflict(err))
	assert.Len(t, tree.Persons(), 1)
}

func TestTree_AttachFather(t *testing.T) {
	tree := NewTree()
	root, err := tree.InitializeRoot(PersonDraft{Name: "Kannaiyan", Gender: "male"})
	require.NoError(t, err)

	father, err := tree.AttachPerson(
		PersonDraft{Name: "John Smith", Gender: "male"},
		valueobjects.RelationFather,
		LinkContext{PersonID: root.ID()},
	)
	require.NoError(t, err)

	families := tree.Families()
	require.Len(t, families, 1)
	family := families[0]

	assert.True(t, family.HusbandID().Equals(father.ID()))
	assert.True(t, family.WifeID().IsZero())
	assert.True(t, family.HasChild(root.ID()))

	assert.ElementsMatch(t, []Edge{
		{Source: father.ID(), Target: family.ID(), Label: valueobjects.EdgeFather},
		{Source: family.ID(), Target: root.ID(), Label: valueobjects.EdgeSon},
	}, dereferenceEdges(tree.Edges()))
}

func TestTree_AttachFatherAndMother_SharesFamily(t *testing.T) {
	tree := NewTree()
	root, err := tree.InitializeRoot(PersonDraft{Name: "Kannaiyan", Gender: "male"})
	require.NoError(t, err)

	link := LinkContext{PersonID: root.ID()}
	father, err := tree.AttachPerson(PersonDraft{Name: "John Smith", Gender: "male"}, valueobjects.RelationFather, link)
	require.NoError(t, err)
	mother, err := tree.AttachPerson(PersonDraft{Name: "Jane Doe", Gender: "female"}, valueobjects.RelationMother, link)
	require.NoError(t, err)

	families := tree.Families()
	require.Len(t, families, 1)
	family := families[0]

	assert.True(t, family.HusbandID().Equals(father.ID()))
	assert.True(t, family.WifeID().Equals(mother.ID()))
	assert.Equal(t, "John Smith\nJane Doe", family.Signature())

	labels := edgeLabelsTargeting(tree.Edges(), family.ID())
	assert.Contains(t, labels, valueobjects.EdgeFather)
	assert.Contains(t, labels, valueobjects.EdgeMother)

	var familyNode *Node
	for _, n := range tree.Nodes() {
		if n.ID.Equals(family.ID()) {
			familyNode = n
		}
	}
	require.NotNil(t, familyNode)
	assert.Equal(t, "John Smith\nJane Doe", familyNode.Label)
}

func TestTree_RelabelsSpouseEdgesOnFirstChild(t *testing.T) {
	tree := NewTree()
	root, err := tree.InitializeRoot(PersonDraft{Name: "Raman", Gender: "male"})
	require.NoError(t, err)

	link := LinkContext{PersonID: root.ID()}
	_, err = tree.AttachPerson(PersonDraft{Name: "Selvi", Gender: "female"}, valueobjects.RelationWife, link)
	require.NoError(t, err)

	family := tree.Families()[0]
	labels := edgeLabelsTargeting(tree.Edges(), family.ID())
	assert.ElementsMatch(t, []valueobjects.EdgeLabel{valueobjects.EdgeHusband, valueobjects.EdgeWife}, labels)

	_, err = tree.AttachPerson(PersonDraft{Name: "Kumar", Gender: "male"}, valueobjects.RelationSon, link)
	require.NoError(t, err)

	labels = edgeLabelsTargeting(tree.Edges(), family.ID())
	assert.ElementsMatch(t, []valueobjects.EdgeLabel{valueobjects.EdgeFather, valueobjects.EdgeMother}, labels)
	assert.NotContains(t, labels, valueobjects.EdgeHusband)
	assert.NotContains(t, labels, valueobjects.EdgeWife)
}

func TestTree_ChildAttachesToUniqueParentFamily(t *testing.T) {
	tree := NewTree()
	root, err := tree.InitializeRoot(PersonDraft{Name: "Raman", Gender: "male"})
	require.NoError(t, err)

	link := LinkContext{PersonID: root.ID()}
	son, err := tree.AttachPerson(PersonDraft{Name: "Kumar", Gender: "male"}, valueobjects.RelationSon, link)
	require.NoError(t, err)
	daughter, err := tree.AttachPerson(PersonDraft{Name: "Meena", Gender: "female"}, valueobjects.RelationDaughter, link)
	require.NoError(t, err)

	// Both children land in the single family that has root as a parent.
	require.Len(t, tree.Families(), 1)
	family := tree.Families()[0]
	assert.True(t, family.HasParent(root.ID()))
	assert.True(t, family.HasChild(son.ID()))
	assert.True(t, family.HasChild(daughter.ID()))
}

func TestTree_EdgeDeduplication(t *testing.T) {
	tree := NewTree()
	root, err := tree.InitializeRoot(PersonDraft{Name: "Raman", Gender: "male"})
	require.NoError(t, err)

	link := LinkContext{PersonID: root.ID()}
	son, err := tree.AttachPerson(PersonDraft{Name: "Kumar", Gender: "male"}, valueobjects.RelationSon, link)
	require.NoError(t, err)

	before := len(tree.Edges())
	family := tree.Families()[0]
	err = tree.AttachExistingPerson(son.ID(), valueobjects.RelationSon, LinkContext{FamilyID: family.ID()})
	require.NoError(t, err)
	assert.Len(t, tree.Edges(), before)

	require.NoError(t, tree.Validate())
}

func TestTree_AttachPerson_ValidationErrors(t *testing.T) {
	tree := NewTree()
	root, err := tree.InitializeRoot(PersonDraft{Name: "Raman", Gender: "male"})
	require.NoError(t, err)
	link := LinkContext{PersonID: root.ID()}

	_, err = tree.AttachPerson(PersonDraft{Name: "", Gender: "male"}, valueobjects.RelationSon, link)
	assert.True(t, apperrors.IsValidation(err))

	_, err = tree.AttachPerson(PersonDraft{Name: "X", Gender: "unknown"}, valueobjects.RelationSon, link)
	assert.True(t, apperrors.IsValidation(err))

	_, err = tree.AttachPerson(PersonDraft{Name: "X", Gender: "male"}, valueobjects.Relation("Cousin"), link)
	assert.True(t, apperrors.IsValidation(err))

	// No partial state leaked out of the failed attempts.
	assert.Len(t, tree.Persons(), 1)
	assert.Empty(t, tree.Families())
	assert.Empty(t, tree.Edges())
}

func TestTree_AttachPerson_DanglingLink(t *testing.T) {
	tree := NewTree()
	_, err := tree.InitializeRoot(PersonDraft{Name: "Raman", Gender: "male"})
	require.NoError(t, err)

	_, err = tree.AttachPerson(
		PersonDraft{Name: "Kumar", Gender: "male"},
		valueobjects.RelationSon,
		LinkContext{PersonID: valueobjects.NewEntityID()},
	)
	assert.True(t, apperrors.IsReference(err))
	assert.Len(t, tree.Persons(), 1)
	assert.Empty(t, tree.Families())
}

func TestTree_UpdatePerson_RefreshesLabels(t *testing.T) {
	tree := NewTree()
	root, err := tree.InitializeRoot(PersonDraft{Name: "Raman", Gender: "male"})
	require.NoError(t, err)

	_, err = tree.AttachPerson(PersonDraft{Name: "Kumar", Gender: "male"}, valueobjects.RelationSon, LinkContext{PersonID: root.ID()})
	require.NoError(t, err)

	require.NoError(t, tree.UpdatePerson(root.ID(), "Raman Pillai", valueobjects.GenderMale))

	family := tree.Families()[0]
	assert.Equal(t, "Raman Pillai", family.Signature())

	for _, n := range tree.Nodes() {
		if n.ID.Equals(root.ID()) {
			assert.Equal(t, "Raman Pillai", n.Label)
		}
	}
}

func TestTree_ImportPersons(t *testing.T) {
	tree := NewTree()

	err := tree.ImportPersons([]ImportEntry{
		{ID: "old-1", Name: "Raman", Gender: "male"},
		{ID: "old-2", Name: "Kumar", Gender: "male", Relation: "Son", LinkedPersonID: "old-1"},
		{ID: "old-3", Name: "Meena", Gender: "female", Relation: "Daughter", LinkedPersonID: "old-1"},
	})
	require.NoError(t, err)

	assert.Len(t, tree.Persons(), 3)
	require.Len(t, tree.Families(), 1)
	require.NotNil(t, tree.Root())
	assert.Equal(t, "Raman", tree.Root().Name())

	family := tree.Families()[0]
	assert.True(t, family.HasParent(tree.Root().ID()))
	assert.Len(t, family.Sons(), 1)
	assert.Len(t, family.Daughters(), 1)
}

func TestTree_ImportPersons_SkipsBrokenEntries(t *testing.T) {
	tree := NewTree()

	err := tree.ImportPersons([]ImportEntry{
		{ID: "old-1", Name: "Raman", Gender: "male"},
		{ID: "old-2", Name: "Ghost", Gender: "male", Relation: "Son", LinkedPersonID: "missing"},
		{ID: "old-3", Name: "Kumar", Gender: "male", Relation: "Son", LinkedPersonID: "old-1"},
	})
	require.Error(t, err)

	// The broken entry is dropped, its sibling still lands.
	assert.Len(t, tree.Persons(), 2)
	require.Len(t, tree.Families(), 1)
	assert.Len(t, tree.Families()[0].Sons(), 1)
}

func TestTree_ImportPersons_Empty(t *testing.T) {
	tree := NewTree()
	err := tree.ImportPersons(nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTree_ChangeHook(t *testing.T) {
	tree := NewTree()
	calls := 0
	tree.SetChangeHook(func() { calls++ })

	root, err := tree.InitializeRoot(PersonDraft{Name: "Raman", Gender: "male"})
	require.NoError(t, err)
	assert.Greater(t, calls, 0)

	before := calls
	_, err = tree.AttachPerson(PersonDraft{Name: "Kumar", Gender: "male"}, valueobjects.RelationSon, LinkContext{PersonID: root.ID()})
	require.NoError(t, err)
	assert.Greater(t, calls, before)
}

func dereferenceEdges(edges []*Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, *e)
	}
	return out
}

func edgeLabelsTargeting(edges []*Edge, target valueobjects.EntityID) []valueobjects.EdgeLabel {
	var labels []valueobjects.EdgeLabel
	for _, e := range edges {
		if e.Target.Equals(target) {
			labels = append(labels, e.Label)
		}
	}
	return labels
}
