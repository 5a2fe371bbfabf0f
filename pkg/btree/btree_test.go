package btree

import (
	"path/filepath"
	"testing"
)

func newTestBt(t *testing.T) *Bt {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.db")
	bt, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { bt.Close() })
	return bt
}
