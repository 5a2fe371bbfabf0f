package btree

// NewTableLeafCell builds a table-leaf cell carrying a row's key and
// payload bytes (spec §3).
func NewTableLeafCell(key uint32, payload []byte) Cell {
	return Cell{Type: TypeTableLeaf, Key: key, DataSize: uint32(len(payload)), Payload: payload}
}

// NewTableInternalCell builds a table-internal routing cell.
func NewTableInternalCell(childPage, key uint32) Cell {
	return Cell{Type: TypeTableInternal, ChildPage: childPage, Key: key}
}

// NewIndexLeafCell builds an index-leaf cell mapping an indexed value
// (keyIdx) to the primary key of the row it references (keyPk).
func NewIndexLeafCell(keyIdx, keyPk uint32) Cell {
	return Cell{Type: TypeIndexLeaf, KeyIdx: keyIdx, KeyPk: keyPk}
}

// NewIndexInternalCell builds an index-internal routing cell.
func NewIndexInternalCell(childPage, keyIdx, keyPk uint32) Cell {
	return Cell{Type: TypeIndexInternal, ChildPage: childPage, KeyIdx: keyIdx, KeyPk: keyPk}
}

// parentTypeFor returns the internal node type that routes to children of
// childType: table families route through table-internal nodes, index
// families through index-internal nodes.
func parentTypeFor(childType NodeType) NodeType {
	if childType.IsTable() {
		return TypeTableInternal
	}
	return TypeIndexInternal
}

// leafTypeFor returns the leaf node type for a tree family.
func leafTypeFor(isIndex bool) NodeType {
	if isIndex {
		return TypeIndexLeaf
	}
	return TypeTableLeaf
}
