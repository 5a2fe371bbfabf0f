package btree

import (
	"encoding/binary"
	"testing"

	"grovedb/pkg/dberr"
)

const testTableRoot = 1

func payloadFor(key uint32) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf, key)
	binary.BigEndian.PutUint32(buf[4:], key*7+1)
	return buf
}

func TestInsertFindRoundTrip(t *testing.T) {
	bt := newTestBt(t)

	const n = 200
	for i := n - 1; i >= 0; i-- {
		key := uint32(i)
		if err := bt.Insert(testTableRoot, NewTableLeafCell(key, payloadFor(key))); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}

	for i := 0; i < n; i++ {
		key := uint32(i)
		payload, err := bt.Find(testTableRoot, key)
		if err != nil {
			t.Fatalf("Find(%d): %v", key, err)
		}
		want := payloadFor(key)
		if string(payload) != string(want) {
			t.Fatalf("Find(%d) payload = %x, want %x", key, payload, want)
		}
	}
}

func TestInsertRejectsDuplicateKey(t *testing.T) {
	bt := newTestBt(t)

	if err := bt.Insert(testTableRoot, NewTableLeafCell(1, payloadFor(1))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err := bt.Insert(testTableRoot, NewTableLeafCell(1, payloadFor(1)))
	if !dberr.Is(err, dberr.EDUPLICATE) {
		t.Fatalf("second Insert(1) err = %v, want EDUPLICATE", err)
	}
}

func TestFindMissingKeyIsNotFound(t *testing.T) {
	bt := newTestBt(t)

	if err := bt.Insert(testTableRoot, NewTableLeafCell(5, payloadFor(5))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	_, err := bt.Find(testTableRoot, 999)
	if !dberr.Is(err, dberr.ENOTFOUND) {
		t.Fatalf("Find(999) err = %v, want ENOTFOUND", err)
	}
}

func TestInsertGrowsTreeBeyondRoot(t *testing.T) {
	bt := newTestBt(t)

	const n = 500
	for i := 0; i < n; i++ {
		key := uint32(i)
		if err := bt.Insert(testTableRoot, NewTableLeafCell(key, payloadFor(key))); err != nil {
			t.Fatalf("Insert(%d): %v", key, err)
		}
	}

	info, err := bt.DescribePage(testTableRoot)
	if err != nil {
		t.Fatalf("DescribePage: %v", err)
	}
	if !info.Type.IsInternal() {
		t.Fatalf("root type = %v, want an internal type after %d inserts", info.Type, n)
	}

	for i := 0; i < n; i++ {
		key := uint32(i)
		if _, err := bt.Find(testTableRoot, key); err != nil {
			t.Fatalf("Find(%d) after growth: %v", key, err)
		}
	}
}

func TestIndexInsertDuplicateRequiresSamePrimaryKey(t *testing.T) {
	bt := newTestBt(t)

	indexRoot, err := bt.CreateTree(true)
	if err != nil {
		t.Fatalf("CreateTree(index): %v", err)
	}

	if err := bt.Insert(indexRoot, NewIndexLeafCell(10, 1)); err != nil {
		t.Fatalf("Insert idx(10,1): %v", err)
	}
	if err := bt.Insert(indexRoot, NewIndexLeafCell(10, 2)); err != nil {
		t.Fatalf("Insert idx(10,2), shared keyIdx distinct keyPk: %v", err)
	}
	err = bt.Insert(indexRoot, NewIndexLeafCell(10, 1))
	if !dberr.Is(err, dberr.EDUPLICATE) {
		t.Fatalf("re-insert idx(10,1) err = %v, want EDUPLICATE", err)
	}
}
