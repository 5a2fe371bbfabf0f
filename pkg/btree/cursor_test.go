package btree

import "testing"

func buildTestTable(t *testing.T, n int) *Bt {
	t.Helper()
	bt := newTestBt(t)
	for i := 0; i < n; i++ {
		key := uint32(i)
		if err := bt.Insert(testTableRoot, NewTableLeafCell(key, payloadFor(key))); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}
	return bt
}

func TestCursorForwardIterationIsSorted(t *testing.T) {
	const n = 300
	bt := buildTestTable(t, n)

	c := bt.OpenCursor(testTableRoot)
	if err := c.First(); err != nil {
		t.Fatalf("First: %v", err)
	}

	var got []uint32
	for c.Valid() {
		cell, err := c.Cell()
		if err != nil {
			t.Fatalf("Cell: %v", err)
		}
		got = append(got, cell.Key)
		if err := c.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	if len(got) != n {
		t.Fatalf("iterated %d keys, want %d", len(got), n)
	}
	for i, k := range got {
		if k != uint32(i) {
			t.Fatalf("got[%d] = %d, want %d", i, k, i)
		}
	}
}

func TestCursorBackwardIterationIsSorted(t *testing.T) {
	const n = 300
	bt := buildTestTable(t, n)

	c := bt.OpenCursor(testTableRoot)
	if err := c.Last(); err != nil {
		t.Fatalf("Last: %v", err)
	}

	var got []uint32
	for c.Valid() {
		cell, err := c.Cell()
		if err != nil {
			t.Fatalf("Cell: %v", err)
		}
		got = append(got, cell.Key)
		if err := c.Prev(); err != nil {
			t.Fatalf("Prev: %v", err)
		}
	}

	if len(got) != n {
		t.Fatalf("iterated %d keys, want %d", len(got), n)
	}
	for i, k := range got {
		if k != uint32(n-1-i) {
			t.Fatalf("got[%d] = %d, want %d", i, k, n-1-i)
		}
	}
}

func TestCursorSeekVariants(t *testing.T) {
	bt := newTestBt(t)
	for _, key := range []uint32{10, 20, 30, 40, 50} {
		if err := bt.Insert(testTableRoot, NewTableLeafCell(key, payloadFor(key))); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}

	c := bt.OpenCursor(testTableRoot)
	matched, err := c.SeekGe(25)
	if err != nil {
		t.Fatalf("SeekGe(25): %v", err)
	}
	if matched {
		t.Fatalf("SeekGe(25) matched exactly, want no exact match")
	}
	cell, err := c.Cell()
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if cell.Key != 30 {
		t.Fatalf("SeekGe(25) landed on %d, want 30", cell.Key)
	}

	c2 := bt.OpenCursor(testTableRoot)
	if err := c2.SeekLt(30); err != nil {
		t.Fatalf("SeekLt(30): %v", err)
	}
	cell2, err := c2.Cell()
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if cell2.Key != 20 {
		t.Fatalf("SeekLt(30) landed on %d, want 20", cell2.Key)
	}

	c3 := bt.OpenCursor(testTableRoot)
	if err := c3.SeekLe(30); err != nil {
		t.Fatalf("SeekLe(30): %v", err)
	}
	cell3, err := c3.Cell()
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if cell3.Key != 30 {
		t.Fatalf("SeekLe(30) landed on %d, want 30", cell3.Key)
	}

	c4 := bt.OpenCursor(testTableRoot)
	if err := c4.SeekGt(30); err != nil {
		t.Fatalf("SeekGt(30): %v", err)
	}
	cell4, err := c4.Cell()
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if cell4.Key != 40 {
		t.Fatalf("SeekGt(30) landed on %d, want 40", cell4.Key)
	}
}

func TestWalkVisitsEveryPageOnceInDepthOrder(t *testing.T) {
	const n = 500
	bt := buildTestTable(t, n)

	seen := map[uint32]bool{}
	var maxDepth int
	prevDepth := -1
	err := bt.Walk(testTableRoot, func(depth int, info PageInfo) error {
		if seen[info.PageNo] {
			t.Fatalf("page %d visited twice", info.PageNo)
		}
		if depth > prevDepth+1 {
			t.Fatalf("page %d visited at depth %d right after depth %d; not depth-first order", info.PageNo, depth, prevDepth)
		}
		prevDepth = depth
		seen[info.PageNo] = true
		if depth > maxDepth {
			maxDepth = depth
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if maxDepth == 0 {
		t.Fatalf("Walk never descended past the root; tree should have grown for n=%d", n)
	}
}
