package valueobjects

import "fmt"

// Relation is the closed set of roles a person can be attached to a
// family with. Dispatch on a Relation is always an exhaustive switch;
// there is no fallback branch for unrecognized values.
type Relation string

const (
	RelationFather   Relation = "Father"
	RelationMother   Relation = "Mother"
	RelationHusband  Relation = "Husband"
	RelationWife     Relation = "Wife"
	RelationSon      Relation = "Son"
	RelationDaughter Relation = "Daughter"
)

// ParseRelation converts a raw string into a Relation
func ParseRelation(s string) (Relation, error) {
	switch r := Relation(s); r {
	case RelationFather, RelationMother, RelationHusband, RelationWife,
		RelationSon, RelationDaughter:
		return r, nil
	default:
		return "", fmt.Errorf("invalid relation %q", s)
	}
}

// String returns the string representation
func (r Relation) String() string {
	return string(r)
}

// IsChild reports whether the relation attaches the person as a child
func (r Relation) IsChild() bool {
	return r == RelationSon || r == RelationDaughter
}

// IsSpousal reports whether the relation carries a spousal edge label
// until the family gains a child.
func (r Relation) IsSpousal() bool {
	return r == RelationHusband || r == RelationWife
}

// EdgeLabel returns the label carried by the edge created for this
// relation. The direction of that edge is person-to-family for parental
// relations and family-to-person for child relations.
func (r Relation) EdgeLabel() EdgeLabel {
	switch r {
	case RelationFather:
		return EdgeFather
	case RelationMother:
		return EdgeMother
	case RelationHusband:
		return EdgeHusband
	case RelationWife:
		return EdgeWife
	case RelationSon:
		return EdgeSon
	case RelationDaughter:
		return EdgeDaughter
	default:
		return ""
	}
}

// ChildRelationFor returns the child relation matching a gender
func ChildRelationFor(g Gender) Relation {
	if g == GenderMale {
		return RelationSon
	}
	return RelationDaughter
}

// SpousalRelationFor returns the spousal relation matching a gender
func SpousalRelationFor(g Gender) Relation {
	if g == GenderMale {
		return RelationHusband
	}
	return RelationWife
}
