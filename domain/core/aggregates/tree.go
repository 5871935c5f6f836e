package aggregates

import (
	"errors"

	"github.com/indiafamilytree/familytree/domain/core/entities"
	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

// Node is the visual projection of a person or a family. There is exactly
// one node per entity; its label is recomputed whenever the underlying
// entity's display fields change.
type Node struct {
	ID       valueobjects.EntityID `json:"id"`
	Label    string                `json:"label"`
	Gender   valueobjects.Gender   `json:"gender,omitempty"`
	IsFamily bool                  `json:"isFamily,omitempty"`
}

// Edge is a directed, labeled relation between two node ids. No two
// edges share the same (source, target, label) triple.
type Edge struct {
	Source valueobjects.EntityID  `json:"source"`
	Target valueobjects.EntityID  `json:"target"`
	Label  valueobjects.EdgeLabel `json:"label"`
}

// PersonDraft is the caller-supplied data for a person to be created.
// Name and gender are both required.
type PersonDraft struct {
	Name   string
	Gender string
}

// LinkContext anchors an attach call to an existing person or family.
type LinkContext struct {
	PersonID valueobjects.EntityID
	FamilyID valueobjects.EntityID
}

// Tree is the aggregate root for a family tree. It owns the canonical
// person/family/node/edge collections and the root-person pointer, and
// is the only place graph mutation happens. Single writer; callers must
// not interleave mutations.
type Tree struct {
	persons     map[valueobjects.EntityID]*entities.Person
	personOrder []valueobjects.EntityID
	families    map[valueobjects.EntityID]*entities.Family
	familyOrder []valueobjects.EntityID
	nodes       map[valueobjects.EntityID]*Node
	nodeOrder   []valueobjects.EntityID
	edges       []*Edge
	root        *entities.Person
	onChange    func()
}

// NewTree creates an empty tree
func NewTree() *Tree {
	return &Tree{
		persons:  make(map[valueobjects.EntityID]*entities.Person),
		families: make(map[valueobjects.EntityID]*entities.Family),
		nodes:    make(map[valueobjects.EntityID]*Node),
	}
}

// SetChangeHook registers a callback invoked after every successful
// mutation. The sync engine uses it to mark the tree dirty; there is no
// reactive subscription mechanism beyond this single hook.
func (t *Tree) SetChangeHook(fn func()) {
	t.onChange = fn
}

func (t *Tree) markChanged() {
	if t.onChange != nil {
		t.onChange()
	}
}

// Root returns the root person, or nil before initialization
func (t *Tree) Root() *entities.Person {
	return t.root
}

// Person retrieves a person by id
func (t *Tree) Person(id valueobjects.EntityID) (*entities.Person, bool) {
	p, ok := t.persons[id]
	return p, ok
}

// Family retrieves a family by id
func (t *Tree) Family(id valueobjects.EntityID) (*entities.Family, bool) {
	f, ok := t.families[id]
	return f, ok
}

// Persons returns all persons in insertion order
func (t *Tree) Persons() []*entities.Person {
	persons := make([]*entities.Person, 0, len(t.personOrder))
	for _, id := range t.personOrder {
		persons = append(persons, t.persons[id])
	}
	return persons
}

// Families returns all families in insertion order
func (t *Tree) Families() []*entities.Family {
	families := make([]*entities.Family, 0, len(t.familyOrder))
	for _, id := range t.familyOrder {
		families = append(families, t.families[id])
	}
	return families
}

// Nodes returns all visual nodes in insertion order
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, 0, len(t.nodeOrder))
	for _, id := range t.nodeOrder {
		nodes = append(nodes, t.nodes[id])
	}
	return nodes
}

// Edges returns all edges in insertion order
func (t *Tree) Edges() []*Edge {
	edges := make([]*Edge, 0, len(t.edges))
	edges = append(edges, t.edges...)
	return edges
}

// FamilyWithParent returns the first family, in insertion order, where
// the person holds a parent slot.
func (t *Tree) FamilyWithParent(id valueobjects.EntityID) (*entities.Family, bool) {
	for _, famID := range t.familyOrder {
		if t.families[famID].HasParent(id) {
			return t.families[famID], true
		}
	}
	return nil, false
}

// FamilyWithChild returns the first family, in insertion order, where
// the person is recorded as a child.
func (t *Tree) FamilyWithChild(id valueobjects.EntityID) (*entities.Family, bool) {
	for _, famID := range t.familyOrder {
		if t.families[famID].HasChild(id) {
			return t.families[famID], true
		}
	}
	return nil, false
}

// Reset discards all state, returning the tree to its empty form
func (t *Tree) Reset() {
	t.persons = make(map[valueobjects.EntityID]*entities.Person)
	t.personOrder = nil
	t.families = make(map[valueobjects.EntityID]*entities.Family)
	t.familyOrder = nil
	t.nodes = make(map[valueobjects.EntityID]*Node)
	t.nodeOrder = nil
	t.edges = nil
	t.root = nil
	t.markChanged()
}

// InitializeRoot creates the distinguished first person of the tree.
// The root anchors generation-depth computation when no other ancestor
// can be derived.
func (t *Tree) InitializeRoot(draft PersonDraft) (*entities.Person, error) {
	if t.root != nil {
		return nil, apperrors.NewConflictError("root person already initialized")
	}

	person, err := t.createPerson(draft)
	if err != nil {
		return nil, err
	}

	t.root = person
	t.markChanged()
	return person, nil
}

// AttachPerson creates a person from the draft and attaches it to a
// family under the given relation. This is the invariant-preserving
// mutation primitive: it finds or creates the family, updates its
// fields, creates deduplicated edges, and relabels spousal edges to
// parental ones once the family has children.
//
// Validation failures abort before any mutation; a dangling link id
// aborts with a reference error, also before any mutation.
func (t *Tree) AttachPerson(draft PersonDraft, rel valueobjects.Relation, link LinkContext) (*entities.Person, error) {
	if rel.EdgeLabel() == "" {
		return nil, apperrors.NewValidationError("unknown relation " + rel.String())
	}
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	linked, family, err := t.resolveLinks(link)
	if err != nil {
		return nil, err
	}

	person, err := t.createPerson(draft)
	if err != nil {
		return nil, err
	}

	if err := t.attachToFamily(person, rel, linked, family); err != nil {
		return nil, err
	}
	return person, nil
}

// AttachExistingPerson attaches an already-created person to a family
// under the given relation, with the same semantics as AttachPerson.
func (t *Tree) AttachExistingPerson(personID valueobjects.EntityID, rel valueobjects.Relation, link LinkContext) error {
	if rel.EdgeLabel() == "" {
		return apperrors.NewValidationError("unknown relation " + rel.String())
	}

	person, ok := t.persons[personID]
	if !ok {
		return apperrors.NewReferenceError("personId", personID.String())
	}

	linked, family, err := t.resolveLinks(link)
	if err != nil {
		return err
	}

	return t.attachToFamily(person, rel, linked, family)
}

// UpdatePerson mutates a person's display fields and refreshes every
// label derived from them.
func (t *Tree) UpdatePerson(id valueobjects.EntityID, name string, gender valueobjects.Gender) error {
	person, ok := t.persons[id]
	if !ok {
		return apperrors.NewReferenceError("personId", id.String())
	}

	if err := person.Rename(name); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if err := person.SetGender(gender); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	if node, ok := t.nodes[id]; ok {
		node.Label = name
		node.Gender = gender
	}
	for _, famID := range t.familyOrder {
		fam := t.families[famID]
		if fam.HasParent(id) {
			t.refreshFamilyLabel(fam)
		}
	}
	t.markChanged()
	return nil
}

// ImportEntry is one row of an exported person list. The ids are the
// ids of the exporting tree; they are remapped on import.
type ImportEntry struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Relation       string `json:"relation,omitempty"`
	LinkedPersonID string `json:"linkedPersonId,omitempty"`
}

// ImportPersons discards current state and rebuilds the tree from an
// exported person list. The first entry becomes the root; later entries
// attach through their recorded relation and anchor. A failing entry is
// skipped so its siblings still import; the returned error aggregates
// the per-entry failures.
func (t *Tree) ImportPersons(entries []ImportEntry) error {
	if len(entries) == 0 {
		return apperrors.NewValidationError("import requires at least one person")
	}

	t.Reset()

	root, err := t.InitializeRoot(PersonDraft{Name: entries[0].Name, Gender: entries[0].Gender})
	if err != nil {
		return err
	}

	idMap := make(map[string]valueobjects.EntityID, len(entries))
	idMap[entries[0].ID] = root.ID()

	var errs []error
	for _, entry := range entries[1:] {
		rel, err := valueobjects.ParseRelation(entry.Relation)
		if err != nil {
			errs = append(errs, apperrors.NewValidationError(entry.Name+": "+err.Error()))
			continue
		}

		var link LinkContext
		if entry.LinkedPersonID != "" {
			mapped, ok := idMap[entry.LinkedPersonID]
			if !ok {
				errs = append(errs, apperrors.NewReferenceError("linkedPersonId", entry.LinkedPersonID))
				continue
			}
			link.PersonID = mapped
		}

		person, err := t.AttachPerson(PersonDraft{Name: entry.Name, Gender: entry.Gender}, rel, link)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		idMap[entry.ID] = person.ID()
	}
	return errors.Join(errs...)
}

// Restore replaces the tree's state with already-reconstructed entities,
// rebuilding the visual projection from them. Parents of childless
// families get spousal edges, parents of families with children get
// parental ones, so a restore round-trips the edge labels the mutations
// produced. When rootID does not resolve the first person becomes root.
func (t *Tree) Restore(persons []*entities.Person, families []*entities.Family, rootID valueobjects.EntityID) error {
	t.Reset()

	for _, person := range persons {
		if _, dup := t.persons[person.ID()]; dup {
			return apperrors.NewConflictError("duplicate person id " + person.ID().String())
		}
		t.persons[person.ID()] = person
		t.personOrder = append(t.personOrder, person.ID())
		t.addNode(&Node{ID: person.ID(), Label: person.Name(), Gender: person.Gender()})
	}

	if p, ok := t.persons[rootID]; ok {
		t.root = p
	} else if len(persons) > 0 {
		t.root = persons[0]
	}

	for _, family := range families {
		if _, dup := t.families[family.ID()]; dup {
			return apperrors.NewConflictError("duplicate family id " + family.ID().String())
		}
		t.families[family.ID()] = family
		t.familyOrder = append(t.familyOrder, family.ID())

		label := family.Signature()
		if label == "" {
			label = "Family"
		}
		t.addNode(&Node{ID: family.ID(), Label: label, IsFamily: true})

		parental := family.HasChildren()
		if !family.HusbandID().IsZero() {
			label := valueobjects.EdgeHusband
			if parental {
				label = valueobjects.EdgeFather
			}
			t.addEdge(family.HusbandID(), family.ID(), label)
		}
		if !family.WifeID().IsZero() {
			label := valueobjects.EdgeWife
			if parental {
				label = valueobjects.EdgeMother
			}
			t.addEdge(family.WifeID(), family.ID(), label)
		}
		for _, id := range family.Sons() {
			t.addEdge(family.ID(), id, valueobjects.EdgeSon)
		}
		for _, id := range family.Daughters() {
			t.addEdge(family.ID(), id, valueobjects.EdgeDaughter)
		}
	}

	t.markChanged()
	return nil
}

// NewFamily creates an empty family together with its visual node
func (t *Tree) NewFamily() *entities.Family {
	family := entities.NewFamily()
	t.families[family.ID()] = family
	t.familyOrder = append(t.familyOrder, family.ID())
	t.addNode(&Node{ID: family.ID(), Label: "Family", IsFamily: true})
	t.markChanged()
	return family
}

// Validate ensures tree-wide invariants: every edge endpoint resolves to
// a node, no duplicate edge triples, and every family is internally
// consistent.
func (t *Tree) Validate() error {
	seen := make(map[Edge]bool, len(t.edges))
	for _, e := range t.edges {
		if _, ok := t.nodes[e.Source]; !ok {
			return apperrors.NewInternalError("edge references missing source node " + e.Source.String())
		}
		if _, ok := t.nodes[e.Target]; !ok {
			return apperrors.NewInternalError("edge references missing target node " + e.Target.String())
		}
		if seen[*e] {
			return apperrors.NewInternalError("duplicate edge " + e.Source.String() + "->" + e.Target.String())
		}
		seen[*e] = true
	}

	for _, id := range t.familyOrder {
		if err := t.families[id].Validate(); err != nil {
			return apperrors.NewInternalError("family " + id.String() + ": " + err.Error())
		}
	}
	return nil
}

// Internal helpers

func validateDraft(draft PersonDraft) error {
	if draft.Name == "" {
		return apperrors.NewValidationError("person name is required")
	}
	if _, err := valueobjects.ParseGender(draft.Gender); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// resolveLinks resolves the optional anchors of a LinkContext, failing
// before any mutation when an id is dangling.
func (t *Tree) resolveLinks(link LinkContext) (*entities.Person, *entities.Family, error) {
	var linked *entities.Person
	var family *entities.Family

	if !link.PersonID.IsZero() {
		p, ok := t.persons[link.PersonID]
		if !ok {
			return nil, nil, apperrors.NewReferenceError("linkedPersonId", link.PersonID.String())
		}
		linked = p
	}
	if !link.FamilyID.IsZero() {
		f, ok := t.families[link.FamilyID]
		if !ok {
			return nil, nil, apperrors.NewReferenceError("linkedFamilyId", link.FamilyID.String())
		}
		family = f
	}
	return linked, family, nil
}

func (t *Tree) createPerson(draft PersonDraft) (*entities.Person, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	gender, _ := valueobjects.ParseGender(draft.Gender)

	person, err := entities.NewPerson(draft.Name, gender)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	t.persons[person.ID()] = person
	t.personOrder = append(t.personOrder, person.ID())
	t.addNode(&Node{ID: person.ID(), Label: person.Name(), Gender: person.Gender()})
	return person, nil
}

// attachToFamily applies the relation dispatch table: it resolves the
// target family (creating one when necessary), mutates the family
// fields, inserts the relation's edge, refreshes the family label and
// re-evaluates the spousal relabeling rule.
func (t *Tree) attachToFamily(person *entities.Person, rel valueobjects.Relation, linked *entities.Person, family *entities.Family) error {
	if family == nil {
		family = t.resolveFamily(rel, linked)
	}

	var err error
	switch rel {
	case valueobjects.RelationFather, valueobjects.RelationHusband:
		err = family.SetHusband(person.ID())
	case valueobjects.RelationMother, valueobjects.RelationWife:
		err = family.SetWife(person.ID())
	case valueobjects.RelationSon:
		err = family.AddSon(person.ID())
	case valueobjects.RelationDaughter:
		err = family.AddDaughter(person.ID())
	}
	if err != nil {
		return apperrors.NewConflictError(err.Error())
	}

	if rel.IsChild() {
		t.addEdge(family.ID(), person.ID(), rel.EdgeLabel())
	} else {
		t.addEdge(person.ID(), family.ID(), rel.EdgeLabel())
	}

	t.refreshFamilyLabel(family)
	t.relabelSpouseEdges(family)
	t.markChanged()
	return nil
}

// resolveFamily finds the family a relation should land in when no
// explicit family id was supplied, creating one when none exists yet.
//
//   - Son/Daughter: the family owning the linked person as a parent.
//   - Father/Mother: the family owning the linked person as a child;
//     when created, the linked person becomes its first child.
//   - Husband/Wife: the family where the linked spouse holds a parent
//     slot; when created, the linked spouse is wired in with a spousal
//     edge of their own.
func (t *Tree) resolveFamily(rel valueobjects.Relation, linked *entities.Person) *entities.Family {
	if linked != nil {
		for _, id := range t.familyOrder {
			family := t.families[id]
			switch {
			case rel.IsChild() && family.HasParent(linked.ID()):
				return family
			case (rel == valueobjects.RelationFather || rel == valueobjects.RelationMother) && family.HasChild(linked.ID()):
				return family
			case rel.IsSpousal() && family.HasParent(linked.ID()):
				return family
			}
		}
	}

	family := t.NewFamily()
	if linked == nil {
		return family
	}

	switch {
	case rel.IsChild():
		// The linked anchor is the new child's parent.
		t.placeParent(family, linked)
	case rel == valueobjects.RelationFather || rel == valueobjects.RelationMother:
		// The linked anchor is the new parent's child.
		if linked.Gender() == valueobjects.GenderMale {
			family.AddSon(linked.ID())
			t.addEdge(family.ID(), linked.ID(), valueobjects.EdgeSon)
		} else {
			family.AddDaughter(linked.ID())
			t.addEdge(family.ID(), linked.ID(), valueobjects.EdgeDaughter)
		}
	default:
		// Husband/Wife: the linked anchor is the spouse.
		t.placeParent(family, linked)
	}
	return family
}

// placeParent puts a person in the parent slot matching their gender and
// adds the spousal edge for it. The relabeling rule upgrades the label
// once the family has children.
func (t *Tree) placeParent(family *entities.Family, person *entities.Person) {
	if person.Gender() == valueobjects.GenderMale {
		family.SetHusband(person.ID())
		t.addEdge(person.ID(), family.ID(), valueobjects.EdgeHusband)
	} else {
		family.SetWife(person.ID())
		t.addEdge(person.ID(), family.ID(), valueobjects.EdgeWife)
	}
}

// addNode inserts a node, replacing any stale projection for the id
func (t *Tree) addNode(node *Node) {
	if _, exists := t.nodes[node.ID]; !exists {
		t.nodeOrder = append(t.nodeOrder, node.ID)
	}
	t.nodes[node.ID] = node
}

// addEdge inserts an edge unless the same (source, target, label) triple
// already exists.
func (t *Tree) addEdge(source, target valueobjects.EntityID, label valueobjects.EdgeLabel) {
	for _, e := range t.edges {
		if e.Source.Equals(source) && e.Target.Equals(target) && e.Label == label {
			return
		}
	}
	t.edges = append(t.edges, &Edge{Source: source, Target: target, Label: label})
}

// relabelSpouseEdges rewrites Husband/Wife edges into Father/Mother
// edges once the family has at least one child. Idempotent; called after
// every mutation that can add a child.
func (t *Tree) relabelSpouseEdges(family *entities.Family) {
	if !family.HasChildren() {
		return
	}

	for _, e := range t.edges {
		if !e.Target.Equals(family.ID()) {
			continue
		}
		switch {
		case e.Label == valueobjects.EdgeHusband && e.Source.Equals(family.HusbandID()),
			e.Label == valueobjects.EdgeWife && e.Source.Equals(family.WifeID()):
			e.Label = e.Label.ParentLabel()
		}
	}
}

// refreshFamilyLabel recomputes the family signature from its parents'
// names: husband first, wife on a new line when both are present. A
// family with no named parents keeps the generic "Family" label.
func (t *Tree) refreshFamilyLabel(family *entities.Family) {
	var husbandName, wifeName string
	if p, ok := t.persons[family.HusbandID()]; ok {
		husbandName = p.Name()
	}
	if p, ok := t.persons[family.WifeID()]; ok {
		wifeName = p.Name()
	}

	signature := husbandName
	if wifeName != "" {
		if signature != "" {
			signature += "\n" + wifeName
		} else {
			signature = wifeName
		}
	}
	family.SetSignature(signature)

	label := signature
	if label == "" {
		label = "Family"
	}
	if node, ok := t.nodes[family.ID()]; ok {
		node.Label = label
	}
}
