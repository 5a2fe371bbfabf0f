package btree

import "grovedb/pkg/dberr"

// Cursor tracks a position within a B-tree across a sequence of steps
// (spec §4.3's "a cursor carries: B-tree root page, a current-node view,
// a current-cell index"). To honor the release-on-every-exit-path
// discipline (spec §5), Cursor never holds a Node or MemPage between
// calls: it keeps only the page numbers and cell indices along the path
// from root to its current leaf, re-reading nodes as needed.
type Cursor struct {
	bt    *Bt
	root  uint32
	stack []frame
	valid bool
}

// frame records that, while descending page's subtree, pos identified
// which child was taken: pos < node's NCells means the child at cell pos,
// pos == NCells means the node's RightPage. On a leaf frame, pos is the
// current cell index directly.
type frame struct {
	page uint32
	pos  uint16
}

// OpenCursor creates a cursor over the tree rooted at root. The cursor
// starts unpositioned; call First, Last, or a Seek variant before reading.
func (bt *Bt) OpenCursor(root uint32) *Cursor {
	return &Cursor{bt: bt, root: root}
}

// Valid reports whether the cursor currently identifies a cell.
func (c *Cursor) Valid() bool { return c.valid }

// First positions the cursor at the smallest key in the tree.
func (c *Cursor) First() error {
	c.stack = c.stack[:0]
	return c.descendLeftmost(c.root)
}

// Last positions the cursor at the largest key in the tree.
func (c *Cursor) Last() error {
	c.stack = c.stack[:0]
	return c.descendRightmost(c.root)
}

func (c *Cursor) descendLeftmost(page uint32) error {
	for {
		n, err := c.bt.getNodeByPage(page)
		if err != nil {
			return err
		}
		if n.Type.IsLeaf() {
			c.stack = append(c.stack, frame{page: page, pos: 0})
			c.valid = n.NCells > 0
			return c.bt.freeMemNode(n)
		}
		if n.NCells == 0 {
			right := n.RightPage
			c.stack = append(c.stack, frame{page: page, pos: 0})
			if err := c.bt.freeMemNode(n); err != nil {
				return err
			}
			page = right
			continue
		}
		cell, err := n.GetCell(0)
		if err != nil {
			c.bt.freeMemNode(n)
			return err
		}
		c.stack = append(c.stack, frame{page: page, pos: 0})
		child := cell.ChildPage
		if err := c.bt.freeMemNode(n); err != nil {
			return err
		}
		page = child
	}
}

func (c *Cursor) descendRightmost(page uint32) error {
	for {
		n, err := c.bt.getNodeByPage(page)
		if err != nil {
			return err
		}
		if n.Type.IsLeaf() {
			pos := uint16(0)
			if n.NCells > 0 {
				pos = n.NCells - 1
			}
			c.stack = append(c.stack, frame{page: page, pos: pos})
			c.valid = n.NCells > 0
			return c.bt.freeMemNode(n)
		}
		right := n.RightPage
		c.stack = append(c.stack, frame{page: page, pos: n.NCells})
		if err := c.bt.freeMemNode(n); err != nil {
			return err
		}
		page = right
	}
}

// Next advances the cursor to the next key in ascending order. After
// stepping past the last key, Valid reports false.
func (c *Cursor) Next() error {
	if len(c.stack) == 0 {
		c.valid = false
		return nil
	}
	top := &c.stack[len(c.stack)-1]
	leaf, err := c.bt.getNodeByPage(top.page)
	if err != nil {
		return err
	}
	ncells := leaf.NCells
	if err := c.bt.freeMemNode(leaf); err != nil {
		return err
	}
	if top.pos+1 < ncells {
		top.pos++
		c.valid = true
		return nil
	}

	c.stack = c.stack[:len(c.stack)-1]
	for len(c.stack) > 0 {
		parent := &c.stack[len(c.stack)-1]
		n, err := c.bt.getNodeByPage(parent.page)
		if err != nil {
			return err
		}
		nc := n.NCells
		if parent.pos < nc {
			parent.pos++
			var childPage uint32
			if parent.pos < nc {
				cell, err := n.GetCell(parent.pos)
				if err != nil {
					c.bt.freeMemNode(n)
					return err
				}
				childPage = cell.ChildPage
			} else {
				childPage = n.RightPage
			}
			if err := c.bt.freeMemNode(n); err != nil {
				return err
			}
			if err := c.descendLeftmost(childPage); err != nil {
				return err
			}
			c.valid = true
			return nil
		}
		if err := c.bt.freeMemNode(n); err != nil {
			return err
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	c.valid = false
	return nil
}

// Prev retreats the cursor to the previous key in ascending order.
func (c *Cursor) Prev() error {
	if len(c.stack) == 0 {
		c.valid = false
		return nil
	}
	top := &c.stack[len(c.stack)-1]
	if top.pos > 0 {
		top.pos--
		c.valid = true
		return nil
	}

	c.stack = c.stack[:len(c.stack)-1]
	for len(c.stack) > 0 {
		parent := &c.stack[len(c.stack)-1]
		if parent.pos > 0 {
			parent.pos--
			n, err := c.bt.getNodeByPage(parent.page)
			if err != nil {
				return err
			}
			cell, err := n.GetCell(parent.pos)
			if err != nil {
				c.bt.freeMemNode(n)
				return err
			}
			if err := c.bt.freeMemNode(n); err != nil {
				return err
			}
			if err := c.descendRightmost(cell.ChildPage); err != nil {
				return err
			}
			c.valid = true
			return nil
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	c.valid = false
	return nil
}

// seekAscending positions the cursor at the first cell with sort key >=
// key, descending with the same key <= cell tie-break find uses. Returns
// whether the landing cell is an exact match.
func (c *Cursor) seekAscending(key uint32) (bool, error) {
	c.stack = c.stack[:0]
	page := c.root
	for {
		n, err := c.bt.getNodeByPage(page)
		if err != nil {
			return false, err
		}
		pos := uint16(0)
		matched := false
		var childPage uint32
		for pos < n.NCells {
			cell, err := n.GetCell(pos)
			if err != nil {
				c.bt.freeMemNode(n)
				return false, err
			}
			sk := cell.SortKey()
			if key <= sk {
				if key == sk {
					matched = true
				}
				childPage = cell.ChildPage
				break
			}
			pos++
		}
		if n.Type.IsLeaf() {
			c.stack = append(c.stack, frame{page: page, pos: pos})
			c.valid = pos < n.NCells
			if err := c.bt.freeMemNode(n); err != nil {
				return false, err
			}
			return matched && c.valid, nil
		}
		c.stack = append(c.stack, frame{page: page, pos: pos})
		if pos == n.NCells {
			childPage = n.RightPage
		}
		if err := c.bt.freeMemNode(n); err != nil {
			return false, err
		}
		page = childPage
	}
}

// SeekGe positions the cursor at the smallest key >= key. Returns whether
// the key matched exactly.
func (c *Cursor) SeekGe(key uint32) (bool, error) {
	return c.seekAscending(key)
}

// SeekGt positions the cursor at the smallest key > key.
func (c *Cursor) SeekGt(key uint32) error {
	matched, err := c.seekAscending(key)
	if err != nil {
		return err
	}
	if matched {
		return c.Next()
	}
	return nil
}

// SeekLe positions the cursor at the largest key <= key.
func (c *Cursor) SeekLe(key uint32) error {
	matched, err := c.seekAscending(key)
	if err != nil {
		return err
	}
	if matched {
		return nil
	}
	if !c.valid {
		return c.Last()
	}
	return c.Prev()
}

// SeekLt positions the cursor at the largest key < key.
func (c *Cursor) SeekLt(key uint32) error {
	_, err := c.seekAscending(key)
	if err != nil {
		return err
	}
	if !c.valid {
		return c.Last()
	}
	return c.Prev()
}

// Cell returns the cell at the cursor's current position.
func (c *Cursor) Cell() (Cell, error) {
	if !c.valid || len(c.stack) == 0 {
		return Cell{}, dberr.New(dberr.ENOTFOUND, "btree", "Cursor.Cell", "cursor is not positioned on a cell")
	}
	top := c.stack[len(c.stack)-1]
	n, err := c.bt.getNodeByPage(top.page)
	if err != nil {
		return Cell{}, err
	}
	cell, err := n.GetCell(top.pos)
	if err != nil {
		c.bt.freeMemNode(n)
		return Cell{}, err
	}
	if err := c.bt.freeMemNode(n); err != nil {
		return Cell{}, err
	}
	return cell, nil
}
