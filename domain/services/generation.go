package services

import (
	"github.com/indiafamilytree/familytree/domain/core/entities"
	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
)

// MaxGeneration computes the depth of the deepest generation reachable
// from the tree's ancestors. Ancestors are the persons that appear as a
// child in no family; when every person is somebody's child the first
// inserted person serves as the default ancestor. Depth assignment is a
// breadth-first walk over parent-to-child links, so a person reachable
// through several lines keeps the shallowest depth.
//
// The result is always at least 1, even for an empty tree.
func MaxGeneration(persons []*entities.Person, families []*entities.Family) int {
	if len(persons) == 0 {
		return 1
	}

	childSet := make(map[valueobjects.EntityID]bool)
	for _, family := range families {
		for _, id := range family.Sons() {
			childSet[id] = true
		}
		for _, id := range family.Daughters() {
			childSet[id] = true
		}
	}

	var ancestors []valueobjects.EntityID
	for _, p := range persons {
		if !childSet[p.ID()] {
			ancestors = append(ancestors, p.ID())
		}
	}
	if len(ancestors) == 0 {
		ancestors = append(ancestors, persons[0].ID())
	}

	// parent id -> ids of their children, across every family
	children := make(map[valueobjects.EntityID][]valueobjects.EntityID)
	for _, family := range families {
		var parents []valueobjects.EntityID
		if !family.HusbandID().IsZero() {
			parents = append(parents, family.HusbandID())
		}
		if !family.WifeID().IsZero() {
			parents = append(parents, family.WifeID())
		}
		kids := append(family.Sons(), family.Daughters()...)
		for _, parent := range parents {
			children[parent] = append(children[parent], kids...)
		}
	}

	depth := make(map[valueobjects.EntityID]int, len(persons))
	queue := make([]valueobjects.EntityID, 0, len(ancestors))
	for _, id := range ancestors {
		depth[id] = 1
		queue = append(queue, id)
	}

	max := 1
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range children[current] {
			if _, seen := depth[child]; seen {
				continue
			}
			depth[child] = depth[current] + 1
			if depth[child] > max {
				max = depth[child]
			}
			queue = append(queue, child)
		}
	}
	return max
}
