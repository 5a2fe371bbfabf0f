package btree

import (
	"grovedb/pkg/dberr"
	"grovedb/pkg/logging"
)

// split splits the overfull node at childPage, which is a child of
// parentPage, in two (spec §4.2.7):
//
//  1. A new sibling page ("the lower half") is allocated with the same
//     node type as the child.
//  2. Cells below the median index m = ncells/2 move into the new sibling.
//  3. The child is reinitialized in place and rewritten with the cells
//     above the median, becoming "the upper half".
//  4. A routing cell for the new sibling is inserted into the parent at
//     parentNcell, pointing at the sibling and carrying the median's key.
//
// Returns the new sibling's page number and the median's sort key, so a
// caller mid-insert can decide which half the pending cell belongs in.
//
// The child's median disposition is an explicit design decision: the
// upper half always keeps cells [m+1, ncells), uniformly across all four
// node types, so the median row is never resident on both sides of a
// split. See DESIGN.md for the full rationale.
func (bt *Bt) split(parentPage, childPage uint32, parentNcell uint16) (uint32, uint32, error) {
	child, err := bt.getNodeByPage(childPage)
	if err != nil {
		return 0, 0, err
	}

	childType := child.Type
	m := child.NCells / 2
	isTableLeaf := childType == TypeTableLeaf

	median, err := child.GetCell(m)
	if err != nil {
		bt.freeMemNode(child)
		return 0, 0, err
	}
	medianSortKey := median.SortKey()

	siblingPage, err := bt.newNode(childType)
	if err != nil {
		bt.freeMemNode(child)
		return 0, 0, err
	}
	sibling, err := bt.getNodeByPage(siblingPage)
	if err != nil {
		bt.freeMemNode(child)
		return 0, 0, err
	}

	lowerBound := m
	if isTableLeaf {
		lowerBound = m + 1
	}
	for i := uint16(0); i < lowerBound; i++ {
		c, err := child.GetCell(i)
		if err != nil {
			bt.freeMemNode(child)
			bt.freeMemNode(sibling)
			return 0, 0, err
		}
		if err := sibling.InsertCell(i, c); err != nil {
			bt.freeMemNode(child)
			bt.freeMemNode(sibling)
			return 0, 0, err
		}
	}
	if childType.IsInternal() {
		sibling.RightPage = median.ChildPage
	}

	remaining := make([]Cell, 0, child.NCells-(m+1))
	for i := m + 1; i < child.NCells; i++ {
		c, err := child.GetCell(i)
		if err != nil {
			bt.freeMemNode(child)
			bt.freeMemNode(sibling)
			return 0, 0, err
		}
		remaining = append(remaining, c)
	}
	childRight := child.RightPage

	if err := bt.writeNode(sibling); err != nil {
		bt.freeMemNode(child)
		bt.freeMemNode(sibling)
		return 0, 0, err
	}
	if err := bt.freeMemNode(sibling); err != nil {
		bt.freeMemNode(child)
		return 0, 0, err
	}
	if err := bt.freeMemNode(child); err != nil {
		return 0, 0, err
	}

	if err := bt.initEmptyNode(childPage, childType); err != nil {
		return 0, 0, err
	}
	upper, err := bt.getNodeByPage(childPage)
	if err != nil {
		return 0, 0, err
	}
	upper.RightPage = childRight
	for i, c := range remaining {
		if err := upper.InsertCell(uint16(i), c); err != nil {
			bt.freeMemNode(upper)
			return 0, 0, err
		}
	}
	if err := bt.writeNode(upper); err != nil {
		bt.freeMemNode(upper)
		return 0, 0, err
	}
	if err := bt.freeMemNode(upper); err != nil {
		return 0, 0, err
	}

	parent, err := bt.getNodeByPage(parentPage)
	if err != nil {
		return 0, 0, err
	}

	var promoted Cell
	if parent.Type.IsTable() {
		promoted = NewTableInternalCell(siblingPage, median.Key)
	} else {
		promoted = NewIndexInternalCell(siblingPage, median.KeyIdx, median.KeyPk)
	}

	if !parent.HasRoomFor(promoted) {
		bt.freeMemNode(parent)
		return 0, 0, dberr.New(dberr.ENOMEM, "btree", "split", "parent has no room for promoted routing cell")
	}
	if err := parent.InsertCell(parentNcell, promoted); err != nil {
		bt.freeMemNode(parent)
		return 0, 0, err
	}
	if err := bt.writeNode(parent); err != nil {
		bt.freeMemNode(parent)
		return 0, 0, err
	}
	if err := bt.freeMemNode(parent); err != nil {
		return 0, 0, err
	}

	logging.WithNode(parentPage, byte(parent.Type)).Info("node split",
		"child", childPage, "sibling", siblingPage, "median_ncell", m)

	return siblingPage, medianSortKey, nil
}
