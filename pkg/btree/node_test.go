package btree

import "testing"

func TestNodeInsertAndGetCellTableLeaf(t *testing.T) {
	bt := newTestBt(t)

	n, err := bt.getNodeByPage(1)
	if err != nil {
		t.Fatalf("getNodeByPage: %v", err)
	}
	defer bt.freeMemNode(n)

	if n.Type != TypeTableLeaf {
		t.Fatalf("fresh page 1 type = %v, want table-leaf", n.Type)
	}
	if n.NCells != 0 {
		t.Fatalf("fresh page 1 NCells = %d, want 0", n.NCells)
	}

	c1 := NewTableLeafCell(5, []byte("hello"))
	if !n.HasRoomFor(c1) {
		t.Fatalf("HasRoomFor(c1) = false on an empty page")
	}
	if err := n.InsertCell(0, c1); err != nil {
		t.Fatalf("InsertCell: %v", err)
	}

	got, err := n.GetCell(0)
	if err != nil {
		t.Fatalf("GetCell(0): %v", err)
	}
	if got.Key != 5 || string(got.Payload) != "hello" {
		t.Fatalf("GetCell(0) = %+v, want key=5 payload=hello", got)
	}
	if n.NCells != 1 {
		t.Fatalf("NCells = %d, want 1", n.NCells)
	}
}

func TestNodeGetCellOutOfRange(t *testing.T) {
	bt := newTestBt(t)
	n, err := bt.getNodeByPage(1)
	if err != nil {
		t.Fatalf("getNodeByPage: %v", err)
	}
	defer bt.freeMemNode(n)

	if _, err := n.GetCell(0); err == nil {
		t.Fatalf("GetCell(0) on empty node succeeded, want an error")
	}
}

func TestNodeTypePredicates(t *testing.T) {
	cases := []struct {
		t                              NodeType
		internal, leaf, table, isIndex bool
	}{
		{TypeTableInternal, true, false, true, false},
		{TypeTableLeaf, false, true, true, false},
		{TypeIndexInternal, true, false, false, true},
		{TypeIndexLeaf, false, true, false, true},
	}
	for _, c := range cases {
		if got := c.t.IsInternal(); got != c.internal {
			t.Errorf("%v.IsInternal() = %v, want %v", c.t, got, c.internal)
		}
		if got := c.t.IsLeaf(); got != c.leaf {
			t.Errorf("%v.IsLeaf() = %v, want %v", c.t, got, c.leaf)
		}
		if got := c.t.IsTable(); got != c.table {
			t.Errorf("%v.IsTable() = %v, want %v", c.t, got, c.table)
		}
		if got := c.t.IsIndex(); got != c.isIndex {
			t.Errorf("%v.IsIndex() = %v, want %v", c.t, got, c.isIndex)
		}
	}
}

func TestCellSortKey(t *testing.T) {
	tableCell := NewTableLeafCell(9, nil)
	if tableCell.SortKey() != 9 {
		t.Fatalf("table cell SortKey = %d, want 9", tableCell.SortKey())
	}
	idxCell := NewIndexLeafCell(3, 4)
	if idxCell.SortKey() != 3 {
		t.Fatalf("index cell SortKey = %d, want 3", idxCell.SortKey())
	}
}
