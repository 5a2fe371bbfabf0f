package pager

import (
	"path/filepath"
	"testing"

	"grovedb/pkg/dberr"
)

func newTestPager(t *testing.T) *Pager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.db")
	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpenEmptyFileHasNoPages(t *testing.T) {
	p := newTestPager(t)
	if got := p.PageCount(); got != 0 {
		t.Fatalf("PageCount = %d, want 0", got)
	}
	if got := p.PageSize(); got != DefaultPageSize {
		t.Fatalf("PageSize = %d, want %d", got, DefaultPageSize)
	}
}

func TestAllocatePageGrowsFileAndZeroFills(t *testing.T) {
	p := newTestPager(t)

	n1, err := p.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if n1 != 1 {
		t.Fatalf("first allocated page = %d, want 1", n1)
	}

	mp, err := p.ReadPage(n1)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i, b := range mp.Data {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0 in freshly allocated page", i, b)
		}
	}
	if err := p.ReleaseMemPage(mp); err != nil {
		t.Fatalf("ReleaseMemPage: %v", err)
	}

	n2, err := p.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if n2 != 2 {
		t.Fatalf("second allocated page = %d, want 2", n2)
	}
	if got := p.PageCount(); got != 2 {
		t.Fatalf("PageCount = %d, want 2", got)
	}
}

func TestReadPageOutOfRange(t *testing.T) {
	p := newTestPager(t)
	if _, err := p.AllocatePage(); err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}

	for _, pn := range []uint32{0, 2, 99} {
		_, err := p.ReadPage(pn)
		if !dberr.Is(err, dberr.EPAGENO) {
			t.Fatalf("ReadPage(%d) err = %v, want EPAGENO", pn, err)
		}
	}
}

func TestWritePageRoundTrip(t *testing.T) {
	p := newTestPager(t)
	pn, err := p.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}

	mp, err := p.ReadPage(pn)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	copy(mp.Data, []byte("hello page"))
	if err := p.WritePage(mp); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if err := p.ReleaseMemPage(mp); err != nil {
		t.Fatalf("ReleaseMemPage: %v", err)
	}

	mp2, err := p.ReadPage(pn)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	defer p.ReleaseMemPage(mp2)
	if string(mp2.Data[:10]) != "hello page" {
		t.Fatalf("read back %q, want %q", mp2.Data[:10], "hello page")
	}
}

func TestSetPageSizeRejectsInvalid(t *testing.T) {
	p := newTestPager(t)
	if err := p.SetPageSize(1000); !dberr.Is(err, dberr.EMISUSE) {
		t.Fatalf("SetPageSize(1000) err = %v, want EMISUSE", err)
	}
	if err := p.SetPageSize(4096); err != nil {
		t.Fatalf("SetPageSize(4096): %v", err)
	}
}

func TestPreloadReadsAllPages(t *testing.T) {
	p := newTestPager(t)
	var pages []uint32
	for i := 0; i < 8; i++ {
		pn, err := p.AllocatePage()
		if err != nil {
			t.Fatalf("AllocatePage: %v", err)
		}
		pages = append(pages, pn)
	}
	if err := p.Preload(pages); err != nil {
		t.Fatalf("Preload: %v", err)
	}
}
