package services

import (
	"errors"

	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/domain/core/aggregates"
	"github.com/indiafamilytree/familytree/domain/core/entities"
	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

// FamilyBuilder composes multi-step family constructions out of single
// relation attachments. Each step is one resolver call; the builder adds
// no graph invariants of its own. Every compound operation runs under
// the tree service's write lock, so its steps never interleave with
// other mutations.
type FamilyBuilder struct {
	svc    *TreeService
	logger *zap.Logger
}

// ChildInput describes one child to create inside a compound operation
type ChildInput struct {
	Name   string
	Gender string
}

// NewFamilyBuilder creates a new family builder
func NewFamilyBuilder(svc *TreeService, logger *zap.Logger) *FamilyBuilder {
	return &FamilyBuilder{
		svc:    svc,
		logger: logger,
	}
}

// CreateImmediateFamily builds the family the anchor person parents:
// an optional spouse of complementary gender plus any number of
// children, all attached through the anchor. The anchor always ends up
// in its gender-matched parent slot with a spousal edge, even when no
// spouse or child was requested; the relabeling rule upgrades the edge
// once a child arrives.
//
// A dangling anchor id fails before any mutation. Spouse and children
// are best effort: a failed step is logged and skipped, entities already
// created stay in place.
func (b *FamilyBuilder) CreateImmediateFamily(anchorID valueobjects.EntityID, spouseName string, children []ChildInput) (*entities.Family, error) {
	var family *entities.Family
	var opErr error
	b.svc.WithTree(func(tree *aggregates.Tree) error {
		family, opErr = b.createImmediate(tree, anchorID, spouseName, children)
		return opErr
	})
	return family, opErr
}

func (b *FamilyBuilder) createImmediate(tree *aggregates.Tree, anchorID valueobjects.EntityID, spouseName string, children []ChildInput) (*entities.Family, error) {
	anchor, ok := tree.Person(anchorID)
	if !ok {
		return nil, apperrors.NewReferenceError("anchorPersonId", anchorID.String())
	}

	link := aggregates.LinkContext{PersonID: anchorID}
	var errs []error

	if spouseName != "" {
		spouseGender := anchor.Gender().Opposite()
		draft := aggregates.PersonDraft{Name: spouseName, Gender: spouseGender.String()}
		if _, err := tree.AttachPerson(draft, valueobjects.SpousalRelationFor(spouseGender), link); err != nil {
			b.logger.Warn("Failed to attach spouse",
				zap.String("anchorId", anchorID.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	for _, child := range children {
		gender, err := valueobjects.ParseGender(child.Gender)
		if err != nil {
			errs = append(errs, apperrors.NewValidationError(child.Name+": "+err.Error()))
			continue
		}
		draft := aggregates.PersonDraft{Name: child.Name, Gender: child.Gender}
		if _, err := tree.AttachPerson(draft, valueobjects.ChildRelationFor(gender), link); err != nil {
			b.logger.Warn("Failed to attach child",
				zap.String("anchorId", anchorID.String()),
				zap.String("name", child.Name),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	family, ok := tree.FamilyWithParent(anchorID)
	if !ok {
		// Every optional step was absent or failed, so no attachment
		// pulled the anchor into a family yet; the family still gets
		// created with the anchor in its parent slot.
		family = tree.NewFamily()
		rel := valueobjects.SpousalRelationFor(anchor.Gender())
		if err := tree.AttachExistingPerson(anchorID, rel, aggregates.LinkContext{FamilyID: family.ID()}); err != nil {
			errs = append(errs, err)
		}
	}
	return family, errors.Join(errs...)
}

// CreateAncestralFamily builds the family the descendant was born into:
// optional father and mother plus the descendant as its sole initial
// child. Because the child is present from the first attachment, parent
// edges carry parental labels immediately. When the descendant already
// has a birth family the parents join it instead of a new one.
//
// A dangling descendant id fails before any mutation; optional parents
// are best effort.
func (b *FamilyBuilder) CreateAncestralFamily(descendantID valueobjects.EntityID, fatherName, motherName string) (*entities.Family, error) {
	var family *entities.Family
	var opErr error
	b.svc.WithTree(func(tree *aggregates.Tree) error {
		family, opErr = b.createAncestral(tree, descendantID, fatherName, motherName)
		return opErr
	})
	return family, opErr
}

func (b *FamilyBuilder) createAncestral(tree *aggregates.Tree, descendantID valueobjects.EntityID, fatherName, motherName string) (*entities.Family, error) {
	descendant, ok := tree.Person(descendantID)
	if !ok {
		return nil, apperrors.NewReferenceError("descendantPersonId", descendantID.String())
	}

	link := aggregates.LinkContext{PersonID: descendantID}
	var errs []error

	if fatherName != "" {
		draft := aggregates.PersonDraft{Name: fatherName, Gender: valueobjects.GenderMale.String()}
		if _, err := tree.AttachPerson(draft, valueobjects.RelationFather, link); err != nil {
			b.logger.Warn("Failed to attach father",
				zap.String("descendantId", descendantID.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if motherName != "" {
		draft := aggregates.PersonDraft{Name: motherName, Gender: valueobjects.GenderFemale.String()}
		if _, err := tree.AttachPerson(draft, valueobjects.RelationMother, link); err != nil {
			b.logger.Warn("Failed to attach mother",
				zap.String("descendantId", descendantID.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	family, ok := tree.FamilyWithChild(descendantID)
	if !ok {
		// No parent resolved; the birth family still gets created with
		// the descendant as its only child.
		family = tree.NewFamily()
		rel := valueobjects.ChildRelationFor(descendant.Gender())
		if err := tree.AttachExistingPerson(descendantID, rel, aggregates.LinkContext{FamilyID: family.ID()}); err != nil {
			errs = append(errs, err)
		}
	}
	return family, errors.Join(errs...)
}
