package btree

import (
	"fmt"

	"grovedb/pkg/dberr"
	"grovedb/pkg/pager"
	"grovedb/pkg/varint"
)

// NodeType identifies one of the four on-disk B-tree node variants
// (spec §3). Table cells and index cells are laid out entirely
// differently, but every node variant shares the same header shape.
type NodeType byte

const (
	TypeTableInternal NodeType = 0x05
	TypeTableLeaf     NodeType = 0x0D
	TypeIndexInternal NodeType = 0x02
	TypeIndexLeaf     NodeType = 0x0A
)

func (t NodeType) IsInternal() bool { return t == TypeTableInternal || t == TypeIndexInternal }
func (t NodeType) IsLeaf() bool     { return !t.IsInternal() }
func (t NodeType) IsTable() bool    { return t == TypeTableInternal || t == TypeTableLeaf }
func (t NodeType) IsIndex() bool    { return !t.IsTable() }

func (t NodeType) String() string {
	switch t {
	case TypeTableInternal:
		return "table-internal"
	case TypeTableLeaf:
		return "table-leaf"
	case TypeIndexInternal:
		return "index-internal"
	case TypeIndexLeaf:
		return "index-leaf"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(t))
	}
}

// headerSize returns the byte size of a node header, excluding any offset
// applied for page 1.
func headerSize(t NodeType) uint16 {
	if t.IsInternal() {
		return 12
	}
	return 8
}

// indexRecordLiteral is the fixed 4-byte prefix chidb index cells carry
// (spec §3): a chidb "record" header describing a 2-column
// (keyIdx, keyPk) tuple. It is opaque to this engine beyond being copied
// verbatim.
var indexRecordLiteral = [4]byte{0x0B, 0x03, 0x04, 0x04}

// Cell sizes for the fixed-shape variants (spec §4.2.3). Table-leaf cells
// are variable-size (8 + payload length).
const (
	cellSizeTableInternal = 8
	cellSizeIndexInternal = 16
	cellSizeIndexLeaf     = 12
)

// Cell is a sum type over the four on-disk cell shapes, tagged by Type.
// Only the fields relevant to Type are meaningful.
type Cell struct {
	Type NodeType

	Key       uint32 // table-internal, table-leaf
	ChildPage uint32 // table-internal, index-internal
	DataSize  uint32 // table-leaf
	Payload   []byte // table-leaf

	KeyIdx uint32 // index-internal, index-leaf
	KeyPk  uint32 // index-internal, index-leaf
}

// SortKey returns the value the cell offset array is ordered by (spec §3
// invariant 3): the table key for table cells, keyIdx for index cells.
func (c Cell) SortKey() uint32 {
	if c.Type.IsIndex() {
		return c.KeyIdx
	}
	return c.Key
}

// Size returns the cell's on-disk byte size.
func (c Cell) Size() uint16 {
	switch c.Type {
	case TypeTableInternal:
		return cellSizeTableInternal
	case TypeTableLeaf:
		return 8 + uint16(c.DataSize)
	case TypeIndexInternal:
		return cellSizeIndexInternal
	case TypeIndexLeaf:
		return cellSizeIndexLeaf
	default:
		return 0
	}
}

// Node is a transient parse over a page buffer on loan from the Pager. It
// borrows mp's bytes: mutations must be written back with the Bt's
// writeNode before the Node's page is released (spec §9 "Node views and
// page ownership").
type Node struct {
	mp          *pager.MemPage
	headerStart uint16 // 100 on page 1, 0 otherwise

	Type        NodeType
	FreeOffset  uint16
	NCells      uint16
	CellsOffset uint16
	RightPage   uint32 // internal nodes only
}

// parseNode interprets mp's buffer as a node, reading the header at
// headerStart.
func parseNode(mp *pager.MemPage, headerStart uint16) (*Node, error) {
	data := mp.Data
	if int(headerStart)+8 > len(data) {
		return nil, dberr.New(dberr.ECORRUPTHEADER, "btree", "parseNode", "page too small for node header")
	}

	nodeType := NodeType(data[headerStart])
	n := &Node{
		mp:          mp,
		headerStart: headerStart,
		Type:        nodeType,
		FreeOffset:  varint.Uint16(data[headerStart+1 : headerStart+3]),
		NCells:      varint.Uint16(data[headerStart+3 : headerStart+5]),
		CellsOffset: varint.Uint16(data[headerStart+5 : headerStart+7]),
	}
	if nodeType.IsInternal() {
		if int(headerStart)+12 > len(data) {
			return nil, dberr.New(dberr.ECORRUPTHEADER, "btree", "parseNode", "page too small for internal node header")
		}
		n.RightPage = varint.Uint32(data[headerStart+8 : headerStart+12])
	}
	return n, nil
}

// cellArrayStart is the offset of the first entry of the cell offset array.
func (n *Node) cellArrayStart() uint16 {
	return n.headerStart + headerSize(n.Type)
}

func (n *Node) offsetEntry(i uint16) uint16 {
	pos := n.cellArrayStart() + 2*i
	return varint.Uint16(n.mp.Data[pos : pos+2])
}

func (n *Node) setOffsetEntry(i uint16, v uint16) {
	pos := n.cellArrayStart() + 2*i
	varint.PutUint16(n.mp.Data[pos:pos+2], v)
}

// FreeSpace is the number of unused bytes between the cell offset array and
// the lowest occupied cell (spec §4.2.5).
func (n *Node) FreeSpace() uint16 {
	return n.CellsOffset - n.FreeOffset
}

// HasRoomFor reports whether c plus its new offset-array entry fits in the
// node's current free region.
func (n *Node) HasRoomFor(c Cell) bool {
	required := c.Size() + 2
	return n.FreeSpace() >= required
}

// GetCell returns the ncell-th cell in offset-array order.
func (n *Node) GetCell(ncell uint16) (Cell, error) {
	if ncell >= n.NCells {
		return Cell{}, dberr.New(dberr.ECELLNO, "btree", "GetCell",
			fmt.Sprintf("cell %d out of range [0,%d)", ncell, n.NCells))
	}
	offset := n.offsetEntry(ncell)
	return n.decodeCellAt(offset)
}

func (n *Node) decodeCellAt(offset uint16) (Cell, error) {
	data := n.mp.Data
	switch n.Type {
	case TypeTableInternal:
		if int(offset)+8 > len(data) {
			return Cell{}, dberr.New(dberr.ECORRUPTHEADER, "btree", "decodeCellAt", "table-internal cell overruns page")
		}
		return Cell{
			Type:      n.Type,
			ChildPage: varint.Uint32(data[offset : offset+4]),
			Key:       varint.Get(data[offset+4 : offset+8]),
		}, nil

	case TypeTableLeaf:
		if int(offset)+8 > len(data) {
			return Cell{}, dberr.New(dberr.ECORRUPTHEADER, "btree", "decodeCellAt", "table-leaf cell header overruns page")
		}
		dataSize := varint.Get(data[offset : offset+4])
		key := varint.Get(data[offset+4 : offset+8])
		payloadStart := offset + 8
		payloadEnd := int(payloadStart) + int(dataSize)
		if payloadEnd > len(data) {
			return Cell{}, dberr.New(dberr.ECORRUPTHEADER, "btree", "decodeCellAt", "table-leaf payload overruns page")
		}
		payload := make([]byte, dataSize)
		copy(payload, data[payloadStart:payloadEnd])
		return Cell{Type: n.Type, Key: key, DataSize: dataSize, Payload: payload}, nil

	case TypeIndexInternal:
		if int(offset)+16 > len(data) {
			return Cell{}, dberr.New(dberr.ECORRUPTHEADER, "btree", "decodeCellAt", "index-internal cell overruns page")
		}
		return Cell{
			Type:      n.Type,
			ChildPage: varint.Uint32(data[offset : offset+4]),
			KeyIdx:    varint.Uint32(data[offset+8 : offset+12]),
			KeyPk:     varint.Uint32(data[offset+12 : offset+16]),
		}, nil

	case TypeIndexLeaf:
		if int(offset)+12 > len(data) {
			return Cell{}, dberr.New(dberr.ECORRUPTHEADER, "btree", "decodeCellAt", "index-leaf cell overruns page")
		}
		return Cell{
			Type:   n.Type,
			KeyIdx: varint.Uint32(data[offset+4 : offset+8]),
			KeyPk:  varint.Uint32(data[offset+8 : offset+12]),
		}, nil

	default:
		return Cell{}, dberr.New(dberr.ECORRUPTHEADER, "btree", "decodeCellAt", fmt.Sprintf("unknown node type %v", n.Type))
	}
}

func (n *Node) encodeCellAt(offset uint16, c Cell) {
	data := n.mp.Data
	switch c.Type {
	case TypeTableInternal:
		varint.PutUint32(data[offset:offset+4], c.ChildPage)
		varint.Put(data[offset+4:offset+8], c.Key)

	case TypeTableLeaf:
		varint.Put(data[offset:offset+4], c.DataSize)
		varint.Put(data[offset+4:offset+8], c.Key)
		copy(data[offset+8:offset+8+uint16(c.DataSize)], c.Payload)

	case TypeIndexInternal:
		varint.PutUint32(data[offset:offset+4], c.ChildPage)
		copy(data[offset+4:offset+8], indexRecordLiteral[:])
		varint.PutUint32(data[offset+8:offset+12], c.KeyIdx)
		varint.PutUint32(data[offset+12:offset+16], c.KeyPk)

	case TypeIndexLeaf:
		copy(data[offset:offset+4], indexRecordLiteral[:])
		varint.PutUint32(data[offset+4:offset+8], c.KeyIdx)
		varint.PutUint32(data[offset+8:offset+12], c.KeyPk)
	}
}

// InsertCell inserts c at logical position ncell, shifting later offset
// entries right by one slot (spec §4.2.3). The caller must have already
// verified HasRoomFor(c).
func (n *Node) InsertCell(ncell uint16, c Cell) error {
	if ncell > n.NCells {
		return dberr.New(dberr.ECELLNO, "btree", "InsertCell",
			fmt.Sprintf("insert position %d out of range [0,%d]", ncell, n.NCells))
	}
	if !n.HasRoomFor(c) {
		return dberr.New(dberr.ENOMEM, "btree", "InsertCell", "node has no room for cell")
	}

	size := c.Size()
	newOffset := n.CellsOffset - size
	n.encodeCellAt(newOffset, c)
	n.CellsOffset = newOffset

	for i := n.NCells; i > ncell; i-- {
		n.setOffsetEntry(i, n.offsetEntry(i-1))
	}
	n.setOffsetEntry(ncell, newOffset)

	n.NCells++
	n.FreeOffset += 2
	return nil
}

// writeHeader serializes the node's header fields back into its page
// buffer. Cells and the offset array are already resident in the buffer
// from prior InsertCell/decode calls.
func (n *Node) writeHeader() {
	data := n.mp.Data
	data[n.headerStart] = byte(n.Type)
	varint.PutUint16(data[n.headerStart+1:n.headerStart+3], n.FreeOffset)
	varint.PutUint16(data[n.headerStart+3:n.headerStart+5], n.NCells)
	varint.PutUint16(data[n.headerStart+5:n.headerStart+7], n.CellsOffset)
	data[n.headerStart+7] = 0
	if n.Type.IsInternal() {
		varint.PutUint32(data[n.headerStart+8:n.headerStart+12], n.RightPage)
	}
}

// PageNo returns the page number backing this node.
func (n *Node) PageNo() uint32 { return n.mp.PageNo }
