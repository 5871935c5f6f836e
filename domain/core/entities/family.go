package entities

import (
	"errors"

	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
)

// Relationship is the role a member plays inside a family record
type Relationship string

const (
	RelationshipParent Relationship = "parent"
	RelationshipChild  Relationship = "child"
)

// Member is one entry of a family's canonical persisted membership list
type Member struct {
	PersonID     valueobjects.EntityID `json:"personId"`
	Relationship Relationship          `json:"relationship"`
}

// Family groups at most two parents with any number of children. The
// husband/wife/sons/daughters fields are the working representation; the
// members list is the canonical persisted form and is rebuilt whenever
// any of them changes.
type Family struct {
	id        valueobjects.EntityID
	husbandID valueobjects.EntityID
	wifeID    valueobjects.EntityID
	sons      []valueobjects.EntityID
	daughters []valueobjects.EntityID
	members   []Member
	signature string
}

// NewFamily creates a new empty family with a fresh id
func NewFamily() *Family {
	return &Family{
		id: valueobjects.NewEntityID(),
	}
}

// ReconstructFamily recreates a family from stored data
func ReconstructFamily(id valueobjects.EntityID, signature string) (*Family, error) {
	if id.IsZero() {
		return nil, errors.New("family id required for reconstruction")
	}
	return &Family{
		id:        id,
		signature: signature,
	}, nil
}

// ID returns the family's unique identifier
func (f *Family) ID() valueobjects.EntityID {
	return f.id
}

// HusbandID returns the husband's person id; zero when absent
func (f *Family) HusbandID() valueobjects.EntityID {
	return f.husbandID
}

// WifeID returns the wife's person id; zero when absent
func (f *Family) WifeID() valueobjects.EntityID {
	return f.wifeID
}

// Sons returns the ordered son id list
func (f *Family) Sons() []valueobjects.EntityID {
	sons := make([]valueobjects.EntityID, len(f.sons))
	copy(sons, f.sons)
	return sons
}

// Daughters returns the ordered daughter id list
func (f *Family) Daughters() []valueobjects.EntityID {
	daughters := make([]valueobjects.EntityID, len(f.daughters))
	copy(daughters, f.daughters)
	return daughters
}

// Members returns the canonical membership list
func (f *Family) Members() []Member {
	members := make([]Member, len(f.members))
	copy(members, f.members)
	return members
}

// Signature returns the family's display label
func (f *Family) Signature() string {
	return f.signature
}

// SetSignature updates the family's display label
func (f *Family) SetSignature(signature string) {
	f.signature = signature
}

// HasChildren reports whether the family has at least one child
func (f *Family) HasChildren() bool {
	return len(f.sons) > 0 || len(f.daughters) > 0
}

// HasParent reports whether the given person occupies a parent slot
func (f *Family) HasParent(id valueobjects.EntityID) bool {
	return (!f.husbandID.IsZero() && f.husbandID.Equals(id)) ||
		(!f.wifeID.IsZero() && f.wifeID.Equals(id))
}

// HasChild reports whether the given person is a son or daughter
func (f *Family) HasChild(id valueobjects.EntityID) bool {
	for _, s := range f.sons {
		if s.Equals(id) {
			return true
		}
	}
	for _, d := range f.daughters {
		if d.Equals(id) {
			return true
		}
	}
	return false
}

// SetHusband places a person in the husband slot
func (f *Family) SetHusband(id valueobjects.EntityID) error {
	if f.HasChild(id) {
		return errors.New("person is already a child of this family")
	}
	f.husbandID = id
	f.rebuildMembers()
	return nil
}

// SetWife places a person in the wife slot
func (f *Family) SetWife(id valueobjects.EntityID) error {
	if f.HasChild(id) {
		return errors.New("person is already a child of this family")
	}
	f.wifeID = id
	f.rebuildMembers()
	return nil
}

// AddSon appends a person to the ordered son list
func (f *Family) AddSon(id valueobjects.EntityID) error {
	if f.HasParent(id) {
		return errors.New("person is already a parent of this family")
	}
	if f.HasChild(id) {
		return nil
	}
	f.sons = append(f.sons, id)
	f.rebuildMembers()
	return nil
}

// AddDaughter appends a person to the ordered daughter list
func (f *Family) AddDaughter(id valueobjects.EntityID) error {
	if f.HasParent(id) {
		return errors.New("person is already a parent of this family")
	}
	if f.HasChild(id) {
		return nil
	}
	f.daughters = append(f.daughters, id)
	f.rebuildMembers()
	return nil
}

// RestoreMember reapplies one stored membership entry during snapshot
// load. The gender decides which working field the entry lands in.
func (f *Family) RestoreMember(m Member, gender valueobjects.Gender) error {
	switch m.Relationship {
	case RelationshipParent:
		if gender == valueobjects.GenderMale {
			return f.SetHusband(m.PersonID)
		}
		return f.SetWife(m.PersonID)
	case RelationshipChild:
		if gender == valueobjects.GenderMale {
			return f.AddSon(m.PersonID)
		}
		return f.AddDaughter(m.PersonID)
	default:
		return errors.New("unknown member relationship")
	}
}

// rebuildMembers keeps the canonical members list in agreement with the
// husband/wife/sons/daughters fields. Parents first, then children in
// insertion order.
func (f *Family) rebuildMembers() {
	members := make([]Member, 0, 2+len(f.sons)+len(f.daughters))
	if !f.husbandID.IsZero() {
		members = append(members, Member{PersonID: f.husbandID, Relationship: RelationshipParent})
	}
	if !f.wifeID.IsZero() {
		members = append(members, Member{PersonID: f.wifeID, Relationship: RelationshipParent})
	}
	for _, s := range f.sons {
		members = append(members, Member{PersonID: s, Relationship: RelationshipChild})
	}
	for _, d := range f.daughters {
		members = append(members, Member{PersonID: d, Relationship: RelationshipChild})
	}
	f.members = members
}

// Validate ensures family invariants: parent slots disjoint from the
// child lists and members in agreement with the working fields.
func (f *Family) Validate() error {
	if f.HasParent(f.husbandID) && f.HasChild(f.husbandID) {
		return errors.New("husband is also recorded as a child")
	}
	if f.HasParent(f.wifeID) && f.HasChild(f.wifeID) {
		return errors.New("wife is also recorded as a child")
	}

	parents := 0
	children := 0
	for _, m := range f.members {
		switch m.Relationship {
		case RelationshipParent:
			if !f.HasParent(m.PersonID) {
				return errors.New("members list records a parent missing from parent slots")
			}
			parents++
		case RelationshipChild:
			if !f.HasChild(m.PersonID) {
				return errors.New("members list records a child missing from child lists")
			}
			children++
		}
	}

	want := len(f.sons) + len(f.daughters)
	if children != want {
		return errors.New("child member count mismatch")
	}
	if parents > 2 {
		return errors.New("family cannot have more than two parents")
	}
	return nil
}
