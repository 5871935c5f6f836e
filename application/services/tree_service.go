package services

import (
	"sync"

	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/domain/core/aggregates"
	"github.com/indiafamilytree/familytree/domain/core/entities"
	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
	domainservices "github.com/indiafamilytree/familytree/domain/services"
	"github.com/indiafamilytree/familytree/infrastructure/persistence/snapshot"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

// TreeService serializes access to the tree aggregate. The aggregate
// itself assumes a single writer; every caller goes through this service
// so mutations never interleave while reads stay concurrent.
type TreeService struct {
	mu     sync.RWMutex
	tree   *aggregates.Tree
	logger *zap.Logger
}

// TreeOverview is a consistent read of the whole graph
type TreeOverview struct {
	Root     *entities.Person
	Persons  []*entities.Person
	Families []*entities.Family
	Nodes    []*aggregates.Node
	Edges    []*aggregates.Edge
}

// NewTreeService creates a new tree service around an aggregate
func NewTreeService(tree *aggregates.Tree, logger *zap.Logger) *TreeService {
	return &TreeService{
		tree:   tree,
		logger: logger,
	}
}

// InitializeRoot creates the tree's root person
func (s *TreeService) InitializeRoot(name, gender string) (*entities.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	person, err := s.tree.InitializeRoot(aggregates.PersonDraft{Name: name, Gender: gender})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Initialized root person",
		zap.String("personId", person.ID().String()),
		zap.String("name", person.Name()),
	)
	return person, nil
}

// AttachPerson creates a person and attaches it under the given relation,
// anchored by the optional linked person/family ids.
func (s *TreeService) AttachPerson(name, gender, relation, linkedPersonID, linkedFamilyID string) (*entities.Person, error) {
	rel, err := valueobjects.ParseRelation(relation)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var link aggregates.LinkContext
	if linkedPersonID != "" {
		id, err := valueobjects.NewEntityIDFromString(linkedPersonID)
		if err != nil {
			return nil, apperrors.NewValidationError("linkedPersonId: " + err.Error())
		}
		link.PersonID = id
	}
	if linkedFamilyID != "" {
		id, err := valueobjects.NewEntityIDFromString(linkedFamilyID)
		if err != nil {
			return nil, apperrors.NewValidationError("linkedFamilyId: " + err.Error())
		}
		link.FamilyID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.AttachPerson(aggregates.PersonDraft{Name: name, Gender: gender}, rel, link)
}

// UpdatePerson changes a person's display fields
func (s *TreeService) UpdatePerson(personID, name, gender string) error {
	id, err := valueobjects.NewEntityIDFromString(personID)
	if err != nil {
		return apperrors.NewValidationError("personId: " + err.Error())
	}
	g, err := valueobjects.ParseGender(gender)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.UpdatePerson(id, name, g)
}

// ImportPersons rebuilds the tree from an exported person list
func (s *TreeService) ImportPersons(entries []aggregates.ImportEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ImportPersons(entries)
}

// Overview returns a consistent copy of the graph's collections
func (s *TreeService) Overview() TreeOverview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TreeOverview{
		Root:     s.tree.Root(),
		Persons:  s.tree.Persons(),
		Families: s.tree.Families(),
		Nodes:    s.tree.Nodes(),
		Edges:    s.tree.Edges(),
	}
}

// MaxGeneration computes the current generation depth
func (s *TreeService) MaxGeneration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domainservices.MaxGeneration(s.tree.Persons(), s.tree.Families())
}

// Snapshot projects the current state into its persisted form under the
// read lock, so an in-flight mutation never yields a torn document.
func (s *TreeService) Snapshot() *snapshot.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot.FromTree(s.tree)
}

// WithTree runs fn with exclusive access to the aggregate
func (s *TreeService) WithTree(fn func(tree *aggregates.Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tree)
}
