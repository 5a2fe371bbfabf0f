package btree

import (
	"grovedb/pkg/dberr"
	"grovedb/pkg/logging"
)

// Insert adds cell to the B-tree rooted at nroot, descending to the
// appropriate leaf and splitting nodes as needed on the way back up
// (spec §4.2.6). nroot's page number never changes, even when the tree
// grows a new level: a full root is handled by copying its content into
// a fresh child page and turning the root itself into an empty internal
// node before delegating to the ordinary split path (spec §4.2.6 step g,
// "root-preserving split").
//
// Returns EDUPLICATE if a cell with the same sort key (table key, or the
// (keyIdx, keyPk) pair for index cells — see DESIGN.md for why the pair)
// already exists.
func (bt *Bt) Insert(nroot uint32, cell Cell) error {
	return bt.insertAt(0, nroot, 0, cell)
}

// insertAt inserts cell into the subtree rooted at npage. parentPage is 0
// when npage is the tree root; any other value is the page number of
// npage's parent, with parentNcell the index at which a routing cell for
// npage was found during descent (needed if npage must split).
func (bt *Bt) insertAt(parentPage, npage uint32, parentNcell uint16, cell Cell) error {
	n, err := bt.getNodeByPage(npage)
	if err != nil {
		return err
	}

	if n.Type.IsLeaf() {
		pos, dup, err := findInsertPos(n, cell)
		if err != nil {
			bt.freeMemNode(n)
			return err
		}
		if dup {
			bt.freeMemNode(n)
			return dberr.New(dberr.EDUPLICATE, "btree", "Insert", "cell with this key already exists")
		}
		if n.HasRoomFor(cell) {
			if err := n.InsertCell(pos, cell); err != nil {
				bt.freeMemNode(n)
				return err
			}
			if err := bt.writeNode(n); err != nil {
				bt.freeMemNode(n)
				return err
			}
			return bt.freeMemNode(n)
		}
		if err := bt.freeMemNode(n); err != nil {
			return err
		}
		return bt.splitAndInsertLeaf(parentPage, npage, parentNcell, cell)
	}

	pos, childPage, err := findDescentTarget(n, cell)
	if err != nil {
		bt.freeMemNode(n)
		return err
	}
	if err := bt.freeMemNode(n); err != nil {
		return err
	}

	if err := bt.insertAt(npage, childPage, pos, cell); err != nil {
		return err
	}

	// The recursive call may have promoted a routing cell into npage (if
	// childPage split). Keep the invariant that every internal node has
	// slack for at least one more routing cell of its own kind, splitting
	// npage now if that no longer holds.
	n2, err := bt.getNodeByPage(npage)
	if err != nil {
		return err
	}
	routingSize := (Cell{Type: n2.Type}).Size() + 2
	if n2.FreeSpace() >= routingSize {
		return bt.freeMemNode(n2)
	}
	if err := bt.freeMemNode(n2); err != nil {
		return err
	}
	_, _, err = bt.splitNode(parentPage, npage, parentNcell)
	return err
}

// splitNode splits npage, which overflowed on its own (not because of a
// cell insertion at npage's own level), delegating to the ordinary split
// or the root-preserving split as appropriate.
func (bt *Bt) splitNode(parentPage, npage uint32, parentNcell uint16) (lowerPage, upperPage uint32, err error) {
	if parentPage == 0 {
		return bt.rootPreservingSplit(npage)
	}
	sibling, _, err := bt.split(parentPage, npage, parentNcell)
	if err != nil {
		return 0, 0, err
	}
	return sibling, npage, nil
}

// splitAndInsertLeaf splits the overfull leaf at npage, then inserts cell
// into whichever resulting half its sort key belongs to.
func (bt *Bt) splitAndInsertLeaf(parentPage, npage uint32, parentNcell uint16, cell Cell) error {
	lowerPage, upperPage, medianKey, err := bt.splitForInsert(parentPage, npage, parentNcell)
	if err != nil {
		return err
	}

	target := upperPage
	if cell.SortKey() <= medianKey {
		target = lowerPage
	}

	n, err := bt.getNodeByPage(target)
	if err != nil {
		return err
	}
	pos, dup, err := findInsertPos(n, cell)
	if err != nil {
		bt.freeMemNode(n)
		return err
	}
	if dup {
		bt.freeMemNode(n)
		return dberr.New(dberr.EDUPLICATE, "btree", "Insert", "cell with this key already exists")
	}
	if !n.HasRoomFor(cell) {
		bt.freeMemNode(n)
		return dberr.New(dberr.ENOMEM, "btree", "Insert", "cell does not fit even in a freshly split leaf")
	}
	if err := n.InsertCell(pos, cell); err != nil {
		bt.freeMemNode(n)
		return err
	}
	if err := bt.writeNode(n); err != nil {
		bt.freeMemNode(n)
		return err
	}
	return bt.freeMemNode(n)
}

// splitForInsert splits npage (ordinary or root-preserving, depending on
// whether it has a parent) and returns the resulting lower/upper half
// page numbers plus the separating sort key.
func (bt *Bt) splitForInsert(parentPage, npage uint32, parentNcell uint16) (lowerPage, upperPage, medianKey uint32, err error) {
	if parentPage != 0 {
		sibling, median, err := bt.split(parentPage, npage, parentNcell)
		if err != nil {
			return 0, 0, 0, err
		}
		return sibling, npage, median, nil
	}

	lowerPage, upperPage, err = bt.rootPreservingSplit(npage)
	if err != nil {
		return 0, 0, 0, err
	}
	upper, err := bt.getNodeByPage(upperPage)
	if err != nil {
		return 0, 0, 0, err
	}
	root, err := bt.getNodeByPage(npage)
	if err != nil {
		bt.freeMemNode(upper)
		return 0, 0, 0, err
	}
	medianCell, err := root.GetCell(0)
	if err != nil {
		bt.freeMemNode(upper)
		bt.freeMemNode(root)
		return 0, 0, 0, err
	}
	bt.freeMemNode(upper)
	bt.freeMemNode(root)
	return lowerPage, upperPage, medianCell.SortKey(), nil
}

// rootPreservingSplit handles a full root node: root's entire content is
// copied verbatim into a fresh page (the "old content" page), root is
// reinitialized in place as an empty internal node of the matching family
// with the old-content page as its right pointer, and the old-content
// page is then split like any other overfull node with root as its
// parent. Returns the new sibling (lower half) and the old-content page
// (upper half); root itself is left as a two-child internal node.
func (bt *Bt) rootPreservingSplit(rootPage uint32) (lowerPage, upperPage uint32, err error) {
	root, err := bt.getNodeByPage(rootPage)
	if err != nil {
		return 0, 0, err
	}
	rootType := root.Type
	rootRight := root.RightPage

	cells := make([]Cell, root.NCells)
	for i := uint16(0); i < root.NCells; i++ {
		c, err := root.GetCell(i)
		if err != nil {
			bt.freeMemNode(root)
			return 0, 0, err
		}
		cells[i] = c
	}
	if err := bt.freeMemNode(root); err != nil {
		return 0, 0, err
	}

	oldContentPage, err := bt.newNode(rootType)
	if err != nil {
		return 0, 0, err
	}
	oldContent, err := bt.getNodeByPage(oldContentPage)
	if err != nil {
		return 0, 0, err
	}
	oldContent.RightPage = rootRight
	for i, c := range cells {
		if err := oldContent.InsertCell(uint16(i), c); err != nil {
			bt.freeMemNode(oldContent)
			return 0, 0, err
		}
	}
	if err := bt.writeNode(oldContent); err != nil {
		bt.freeMemNode(oldContent)
		return 0, 0, err
	}
	if err := bt.freeMemNode(oldContent); err != nil {
		return 0, 0, err
	}

	if err := bt.initEmptyNode(rootPage, parentTypeFor(rootType)); err != nil {
		return 0, 0, err
	}
	newRoot, err := bt.getNodeByPage(rootPage)
	if err != nil {
		return 0, 0, err
	}
	newRoot.RightPage = oldContentPage
	if err := bt.writeNode(newRoot); err != nil {
		bt.freeMemNode(newRoot)
		return 0, 0, err
	}
	if err := bt.freeMemNode(newRoot); err != nil {
		return 0, 0, err
	}

	logging.WithNode(rootPage, byte(parentTypeFor(rootType))).Info("root split", "old_content", oldContentPage)

	siblingPage, _, err := bt.split(rootPage, oldContentPage, 0)
	if err != nil {
		return 0, 0, err
	}
	return siblingPage, oldContentPage, nil
}

// findInsertPos scans n's cells in ascending sort-key order and returns
// the offset-array index cell should be inserted at, plus whether an
// existing cell with the same key already occupies that logical slot.
//
// Index-tree duplicate detection is defined over the pair (keyIdx,
// keyPk), not keyIdx alone: two rows may legitimately share an indexed
// value, so only an exact (keyIdx, keyPk) match is a genuine duplicate.
func findInsertPos(n *Node, cell Cell) (uint16, bool, error) {
	for i := uint16(0); i < n.NCells; i++ {
		c, err := n.GetCell(i)
		if err != nil {
			return 0, false, err
		}
		if n.Type.IsIndex() {
			if cell.KeyIdx < c.KeyIdx {
				return i, false, nil
			}
			if cell.KeyIdx == c.KeyIdx {
				if cell.KeyPk == c.KeyPk {
					return i, true, nil
				}
				if cell.KeyPk < c.KeyPk {
					return i, false, nil
				}
			}
			continue
		}
		if cell.Key == c.Key {
			return i, true, nil
		}
		if cell.Key < c.Key {
			return i, false, nil
		}
	}
	return n.NCells, false, nil
}

// findDescentTarget picks the child of internal node n that key must
// route through, using the same tie-break as find: a child whose routing
// key is >= cell's sort key is descended into, otherwise the rightmost
// pointer is used (spec §4.2.4/§4.2.6 consistency).
func findDescentTarget(n *Node, cell Cell) (uint16, uint32, error) {
	sk := cell.SortKey()
	for i := uint16(0); i < n.NCells; i++ {
		c, err := n.GetCell(i)
		if err != nil {
			return 0, 0, err
		}
		if sk <= c.SortKey() {
			return i, c.ChildPage, nil
		}
	}
	return n.NCells, n.RightPage, nil
}
