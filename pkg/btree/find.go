package btree

import "grovedb/pkg/dberr"

// Find looks up key in the table B-tree rooted at nroot and returns the
// payload bytes stored under it (spec §4.2.4). Index trees are not
// searched through this entry point. Returns ENOTFOUND if no table-leaf
// cell carries key.
func (bt *Bt) Find(nroot uint32, key uint32) ([]byte, error) {
	return bt.find(nroot, key)
}

func (bt *Bt) find(npage uint32, key uint32) ([]byte, error) {
	n, err := bt.getNodeByPage(npage)
	if err != nil {
		return nil, err
	}

	for i := uint16(0); i < n.NCells; i++ {
		cell, err := n.GetCell(i)
		if err != nil {
			bt.freeMemNode(n)
			return nil, err
		}

		if n.Type == TypeTableLeaf && cell.Key == key {
			payload := make([]byte, len(cell.Payload))
			copy(payload, cell.Payload)
			if err := bt.freeMemNode(n); err != nil {
				return nil, err
			}
			return payload, nil
		}

		if key <= cell.Key {
			if n.Type == TypeTableLeaf {
				if err := bt.freeMemNode(n); err != nil {
					return nil, err
				}
				return nil, dberr.New(dberr.ENOTFOUND, "btree", "Find", "key not present")
			}
			child := cell.ChildPage
			if err := bt.freeMemNode(n); err != nil {
				return nil, err
			}
			return bt.find(child, key)
		}
	}

	if n.Type.IsInternal() {
		right := n.RightPage
		if err := bt.freeMemNode(n); err != nil {
			return nil, err
		}
		return bt.find(right, key)
	}

	if err := bt.freeMemNode(n); err != nil {
		return nil, err
	}
	return nil, dberr.New(dberr.ENOTFOUND, "btree", "Find", "key not present")
}
