package valueobjects

// EdgeLabel is the label carried by a directed edge between two nodes of
// the visual graph.
type EdgeLabel string

const (
	EdgeHusband  EdgeLabel = "Husband"
	EdgeWife     EdgeLabel = "Wife"
	EdgeFather   EdgeLabel = "Father"
	EdgeMother   EdgeLabel = "Mother"
	EdgeSon      EdgeLabel = "Son"
	EdgeDaughter EdgeLabel = "Daughter"
)

// String returns the string representation
func (l EdgeLabel) String() string {
	return string(l)
}

// ParentLabel returns the parental counterpart of a spousal label.
// Husband becomes Father and Wife becomes Mother; any other label is
// returned unchanged.
func (l EdgeLabel) ParentLabel() EdgeLabel {
	switch l {
	case EdgeHusband:
		return EdgeFather
	case EdgeWife:
		return EdgeMother
	default:
		return l
	}
}
