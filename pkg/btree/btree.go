// Package btree implements the on-disk B-tree engine: node/cell encoding,
// lookup, insertion, node creation, and node splitting, layered directly on
// top of pkg/pager. A single Bt value represents one open database file; it
// may host any number of table and index B-trees, each identified only by
// its root page number (spec §4.2 treats "the B-tree engine" as stateless
// beyond the root page numbers callers supply).
package btree

import (
	"grovedb/pkg/config"
	"grovedb/pkg/pager"
)

// Bt is an open chidb-format database file.
type Bt struct {
	pager *Pager
}

// Pager is an alias for pager.Pager (the whole type, not a narrowed
// interface), so callers can pass a *pager.Pager directly.
type Pager = pager.Pager

// Open opens (creating if necessary) the chidb-format file at path, using
// config.Default() for any tunable a fresh file needs (spec §4.2.1 step
// 2). Equivalent to OpenWithConfig(path, config.Default()).
func Open(path string) (*Bt, error) {
	return OpenWithConfig(path, config.Default())
}

// OpenWithConfig opens (creating if necessary) the chidb-format file at
// path.
//
// If the file is empty, a fresh database is initialized: cfg's page size,
// page cache size, and user cookie are written into the file header, and
// page 1 is created as an empty table-leaf (spec §4.2.1 step 2). Otherwise
// the 100-byte file header is read and validated (spec §6);
// ECORRUPTHEADER propagates on any literal mismatch, and the header's own
// page size is adopted before any further page access — cfg has no effect
// on an existing file; it only seeds a database that doesn't exist yet.
func OpenWithConfig(path string, cfg config.Config) (*Bt, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pg, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	bt := &Bt{pager: pg}

	if pg.PageCount() == 0 {
		if err := pg.SetPageSize(cfg.PageSize); err != nil {
			pg.Close()
			return nil, err
		}
		if _, err := pg.AllocatePage(); err != nil {
			pg.Close()
			return nil, err
		}
		hdr := Header{
			PageSize:      cfg.PageSize,
			PageCacheSize: cfg.PageCacheSize,
			UserCookie:    cfg.UserCookie,
		}
		if err := bt.initEmptyNodeWithHeader(1, TypeTableLeaf, hdr); err != nil {
			pg.Close()
			return nil, err
		}
		return bt, nil
	}

	var raw [pager.HeaderSize]byte
	if err := pg.ReadHeader(&raw); err != nil {
		pg.Close()
		return nil, err
	}
	hdr, err := DecodeHeader(raw)
	if err != nil {
		pg.Close()
		return nil, err
	}
	if err := pg.SetPageSize(hdr.PageSize); err != nil {
		pg.Close()
		return nil, err
	}

	return bt, nil
}

// Close releases the pager and any engine state. The B-tree engine holds no
// state of its own beyond the pager, so this simply forwards.
func (bt *Bt) Close() error {
	return bt.pager.Close()
}

// PageSize returns the file's configured page size.
func (bt *Bt) PageSize() uint16 { return bt.pager.PageSize() }

// CreateTree allocates a fresh, empty B-tree (a single leaf page) and
// returns its root page number. isIndex selects the index-leaf variant;
// otherwise a table-leaf is created. Used by the DBM's CreateTable and
// CreateIndex opcodes (spec §4.3).
func (bt *Bt) CreateTree(isIndex bool) (uint32, error) {
	return bt.newNode(leafTypeFor(isIndex))
}

// PageInfo is a read-only snapshot of one node's header fields, used by
// inspection tools that have no business borrowing the underlying MemPage.
type PageInfo struct {
	PageNo    uint32
	Type      NodeType
	NCells    uint16
	FreeSpace uint16
	RightPage uint32
}

// DescribePage reads npage and returns its header fields without exposing
// the underlying Node or MemPage.
func (bt *Bt) DescribePage(npage uint32) (PageInfo, error) {
	n, err := bt.getNodeByPage(npage)
	if err != nil {
		return PageInfo{}, err
	}
	defer bt.freeMemNode(n)

	return PageInfo{
		PageNo:    npage,
		Type:      n.Type,
		NCells:    n.NCells,
		FreeSpace: n.FreeSpace(),
		RightPage: n.RightPage,
	}, nil
}

// Walk visits every page reachable from root depth-first, calling visit
// once per page with its 0-based depth from root. It never holds more than
// one page open at a time beyond what the recursion stack implies.
func (bt *Bt) Walk(root uint32, visit func(depth int, info PageInfo) error) error {
	return bt.walk(root, 0, visit)
}

func (bt *Bt) walk(npage uint32, depth int, visit func(depth int, info PageInfo) error) error {
	n, err := bt.getNodeByPage(npage)
	if err != nil {
		return err
	}

	info := PageInfo{PageNo: npage, Type: n.Type, NCells: n.NCells, FreeSpace: n.FreeSpace(), RightPage: n.RightPage}
	children := make([]uint32, 0, n.NCells+1)
	if n.Type.IsInternal() {
		for i := uint16(0); i < n.NCells; i++ {
			cell, err := n.GetCell(i)
			if err != nil {
				bt.freeMemNode(n)
				return err
			}
			children = append(children, cell.ChildPage)
		}
		children = append(children, n.RightPage)
	}
	if err := bt.freeMemNode(n); err != nil {
		return err
	}

	if err := visit(depth, info); err != nil {
		return err
	}
	for _, child := range children {
		if err := bt.walk(child, depth+1, visit); err != nil {
			return err
		}
	}
	return nil
}

// CollectPages returns every page number reachable from root, in the same
// depth-first order Walk visits them. Callers that plan to visit a whole
// subtree (an inspector's Walk command, a full-table scan) can pass the
// result to Preload first to warm the OS page cache with one fan-out; the
// real traversal still reads each page itself.
func (bt *Bt) CollectPages(root uint32) ([]uint32, error) {
	var pages []uint32
	err := bt.Walk(root, func(depth int, info PageInfo) error {
		pages = append(pages, info.PageNo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// Preload warms the OS page cache for pages (the pager keeps no cache of
// its own), fanning the reads out
// concurrently (spec §11's Preload note). It returns the first error
// encountered; callers should treat a Preload failure as advisory and
// still be able to fall back to reading pages one at a time.
func (bt *Bt) Preload(pages []uint32) error {
	return bt.pager.Preload(pages)
}

// newNode allocates a fresh page and initializes it as an empty node of the
// given type, returning the new page number.
func (bt *Bt) newNode(t NodeType) (uint32, error) {
	npage, err := bt.pager.AllocatePage()
	if err != nil {
		return 0, err
	}
	if err := bt.initEmptyNode(npage, t); err != nil {
		return 0, err
	}
	return npage, nil
}

// initEmptyNode writes a fresh, empty node header of type t into page
// npage. If npage is page 1, the 100-byte file header is written first,
// carrying only the page size (spec §4.2.1/§4.2.2); use
// initEmptyNodeWithHeader to seed the other header fields from a
// config.Config on first creation.
func (bt *Bt) initEmptyNode(npage uint32, t NodeType) error {
	return bt.initEmptyNodeWithHeader(npage, t, Header{PageSize: bt.pager.PageSize()})
}

// initEmptyNodeWithHeader is initEmptyNode, but the page-1 file header is
// hdr instead of a page-size-only default. hdr is ignored for npage != 1.
func (bt *Bt) initEmptyNodeWithHeader(npage uint32, t NodeType, hdr Header) error {
	mp, err := bt.pager.ReadPage(npage)
	if err != nil {
		return err
	}
	defer bt.pager.ReleaseMemPage(mp)

	headerStart := uint16(0)
	if npage == 1 {
		raw := hdr.Encode()
		copy(mp.Data[:pager.HeaderSize], raw[:])
		headerStart = pager.HeaderSize
	}

	n := &Node{
		mp:          mp,
		headerStart: headerStart,
		Type:        t,
		FreeOffset:  headerStart + headerSize(t),
		NCells:      0,
		CellsOffset: bt.pager.PageSize(),
	}
	n.writeHeader()

	return bt.pager.WritePage(mp)
}

// getNodeByPage reads npage and parses it as a Node. The returned Node
// borrows mp's buffer; callers must call freeMemNode on every exit path.
func (bt *Bt) getNodeByPage(npage uint32) (*Node, error) {
	mp, err := bt.pager.ReadPage(npage)
	if err != nil {
		return nil, err
	}

	headerStart := uint16(0)
	if npage == 1 {
		headerStart = pager.HeaderSize
	}

	n, err := parseNode(mp, headerStart)
	if err != nil {
		bt.pager.ReleaseMemPage(mp)
		return nil, err
	}
	return n, nil
}

// freeMemNode releases the page backing n. It must be called exactly once
// on every Node returned by getNodeByPage or newNode+getNodeByPage, on
// every code path (spec §5's release-discipline invariant).
func (bt *Bt) freeMemNode(n *Node) error {
	if n == nil {
		return nil
	}
	return bt.pager.ReleaseMemPage(n.mp)
}

// writeNode serializes n's header back into its page buffer (cells and the
// offset array are already resident from prior mutation) and persists the
// page.
func (bt *Bt) writeNode(n *Node) error {
	n.writeHeader()
	return bt.pager.WritePage(n.mp)
}
