package dbm

import (
	"grovedb/pkg/btree"
	"grovedb/pkg/dberr"
	"grovedb/pkg/logging"
	"grovedb/pkg/record"
)

type handler func(m *Machine, ins Instruction) (status, error)

// dispatch is the static opcode table (spec §9 design note): a closed
// enumeration is looked up by index rather than through a map.
var dispatch = [opcodeCount]handler{
	OpNoop:        opNoop,
	OpOpenRead:    opOpenRead,
	OpOpenWrite:   opOpenWrite,
	OpClose:       opClose,
	OpRewind:      opRewind,
	OpNext:        opNext,
	OpPrev:        opPrev,
	OpSeek:        opSeek,
	OpSeekGt:      opSeekGt,
	OpSeekGe:      opSeekGe,
	OpColumn:      opColumn,
	OpKey:         opKey,
	OpInteger:     opInteger,
	OpString:      opString,
	OpNull:        opNull,
	OpResultRow:   opResultRow,
	OpMakeRecord:  opMakeRecord,
	OpInsert:      opInsert,
	OpEq:          opCompare,
	OpNe:          opCompare,
	OpLt:          opCompare,
	OpLe:          opCompare,
	OpGt:          opCompare,
	OpGe:          opCompare,
	OpIdxGt:       opIdxSeek,
	OpIdxGe:       opIdxSeek,
	OpIdxLt:       opIdxSeek,
	OpIdxLe:       opIdxSeek,
	OpIdxKey:      opIdxKey,
	OpIdxInsert:   opIdxInsert,
	OpCreateTable: opCreateTable,
	OpCreateIndex: opCreateIndex,
	OpCopy:        opCopy,
	OpSCopy:       opSCopy,
	OpHalt:        opHalt,
}

func opNoop(m *Machine, ins Instruction) (status, error) { return statusOK, nil }

func (m *Machine) cursor(id int32) (*cursorEntry, error) {
	c, ok := m.cursors[id]
	if !ok {
		return nil, dberr.New(dberr.EMISUSE, "dbm", "cursor", "no cursor open at this id")
	}
	return c, nil
}

func opOpenRead(m *Machine, ins Instruction) (status, error)  { return openCursor(m, ins, false) }
func opOpenWrite(m *Machine, ins Instruction) (status, error) { return openCursor(m, ins, true) }

func openCursor(m *Machine, ins Instruction, write bool) (status, error) {
	rootReg := m.regs[ins.P2]
	if rootReg.Kind != RegInt {
		return statusErr, dberr.New(dberr.EMISUSE, "dbm", "OpenRead/OpenWrite", "root register is not an integer")
	}
	root := uint32(rootReg.Int)
	m.cursors[ins.P1] = &cursorEntry{
		cur:   m.bt.OpenCursor(root),
		root:  root,
		ncols: int(ins.P3),
		write: write,
	}
	logging.WithCursor(int(ins.P1)).Debug("cursor opened", "root", root, "write", write)
	return statusOK, nil
}

func opClose(m *Machine, ins Instruction) (status, error) {
	delete(m.cursors, ins.P1)
	return statusOK, nil
}

func opRewind(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	if err := c.cur.First(); err != nil {
		return statusErr, err
	}
	if !c.cur.Valid() {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func opNext(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	if err := c.cur.Next(); err != nil {
		return statusErr, err
	}
	logging.WithCursor(int(ins.P1)).Debug("cursor stepped", "op", "next", "valid", c.cur.Valid())
	if c.cur.Valid() {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func opPrev(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	if err := c.cur.Prev(); err != nil {
		return statusErr, err
	}
	logging.WithCursor(int(ins.P1)).Debug("cursor stepped", "op", "prev", "valid", c.cur.Valid())
	if c.cur.Valid() {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func (m *Machine) intReg(id int32) (uint32, error) {
	r := m.regs[id]
	if r.Kind != RegInt {
		return 0, dberr.New(dberr.EMISUSE, "dbm", "intReg", "register does not hold an integer")
	}
	return uint32(r.Int), nil
}

func opSeek(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	key, err := m.intReg(ins.P3)
	if err != nil {
		return statusErr, err
	}
	matched, err := c.cur.SeekGe(key)
	if err != nil {
		return statusErr, err
	}
	if !matched {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func opSeekGt(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	key, err := m.intReg(ins.P3)
	if err != nil {
		return statusErr, err
	}
	if err := c.cur.SeekGt(key); err != nil {
		return statusErr, err
	}
	if !c.cur.Valid() {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func opSeekGe(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	key, err := m.intReg(ins.P3)
	if err != nil {
		return statusErr, err
	}
	if _, err := c.cur.SeekGe(key); err != nil {
		return statusErr, err
	}
	if !c.cur.Valid() {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func opColumn(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	cell, err := c.cur.Cell()
	if err != nil {
		return statusErr, err
	}
	values, err := record.Decode(cell.Payload)
	if err != nil {
		return statusErr, err
	}
	if int(ins.P2) < 0 || int(ins.P2) >= len(values) {
		return statusErr, dberr.New(dberr.EMISUSE, "dbm", "Column", "column index out of range")
	}
	m.regs[ins.P3] = regFromValue(values[ins.P2])
	return statusOK, nil
}

func opKey(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	cell, err := c.cur.Cell()
	if err != nil {
		return statusErr, err
	}
	m.regs[ins.P2] = Reg{Kind: RegInt, Int: int32(cell.Key)}
	return statusOK, nil
}

func opInteger(m *Machine, ins Instruction) (status, error) {
	m.regs[ins.P2] = Reg{Kind: RegInt, Int: ins.P1}
	return statusOK, nil
}

func opString(m *Machine, ins Instruction) (status, error) {
	s, _ := ins.P4.(string)
	m.regs[ins.P2] = Reg{Kind: RegText, Text: []byte(s)}
	return statusOK, nil
}

func opNull(m *Machine, ins Instruction) (status, error) {
	m.regs[ins.P2] = Reg{Kind: RegNull}
	return statusOK, nil
}

func opResultRow(m *Machine, ins Instruction) (status, error) {
	n := int(ins.P2)
	row := make([]Reg, n)
	for i := 0; i < n; i++ {
		row[i] = m.regs[ins.P1+int32(i)]
	}
	m.row = row
	return statusRow, nil
}

func opMakeRecord(m *Machine, ins Instruction) (status, error) {
	n := int(ins.P2)
	values := make([]record.Value, n)
	for i := 0; i < n; i++ {
		values[i] = m.regs[ins.P1+int32(i)].asColumnValue()
	}
	buf, err := record.Encode(values)
	if err != nil {
		return statusErr, err
	}
	m.regs[ins.P3] = Reg{Kind: RegRecord, Text: buf}
	return statusOK, nil
}

func opInsert(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	rec := m.regs[ins.P2]
	key, err := m.intReg(ins.P3)
	if err != nil {
		return statusErr, err
	}
	cell := btree.NewTableLeafCell(key, rec.Text)
	if err := m.bt.Insert(c.root, cell); err != nil {
		return statusErr, err
	}
	return statusOK, nil
}

func opCompare(m *Machine, ins Instruction) (status, error) {
	a := m.regs[ins.P1]
	b := m.regs[ins.P3]
	cmp, err := compare(a, b)
	if err != nil {
		return statusErr, err
	}
	var take bool
	switch ins.Opcode {
	case OpEq:
		take = cmp == 0
	case OpNe:
		take = cmp != 0
	case OpLt:
		take = cmp < 0
	case OpLe:
		take = cmp <= 0
	case OpGt:
		take = cmp > 0
	case OpGe:
		take = cmp >= 0
	}
	if take {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func opIdxSeek(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	key, err := m.intReg(ins.P3)
	if err != nil {
		return statusErr, err
	}
	switch ins.Opcode {
	case OpIdxGt:
		err = c.cur.SeekGt(key)
	case OpIdxGe:
		_, err = c.cur.SeekGe(key)
	case OpIdxLt:
		err = c.cur.SeekLt(key)
	case OpIdxLe:
		err = c.cur.SeekLe(key)
	}
	if err != nil {
		return statusErr, err
	}
	if !c.cur.Valid() {
		m.pc = int(ins.P2)
		return statusJump, nil
	}
	return statusOK, nil
}

func opIdxKey(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	cell, err := c.cur.Cell()
	if err != nil {
		return statusErr, err
	}
	m.regs[ins.P2] = Reg{Kind: RegInt, Int: int32(cell.KeyPk)}
	return statusOK, nil
}

func opIdxInsert(m *Machine, ins Instruction) (status, error) {
	c, err := m.cursor(ins.P1)
	if err != nil {
		return statusErr, err
	}
	keyIdx, err := m.intReg(ins.P2)
	if err != nil {
		return statusErr, err
	}
	keyPk, err := m.intReg(ins.P3)
	if err != nil {
		return statusErr, err
	}
	cell := btree.NewIndexLeafCell(keyIdx, keyPk)
	if err := m.bt.Insert(c.root, cell); err != nil {
		return statusErr, err
	}
	return statusOK, nil
}

func opCreateTable(m *Machine, ins Instruction) (status, error) { return createTree(m, ins, false) }
func opCreateIndex(m *Machine, ins Instruction) (status, error) { return createTree(m, ins, true) }

func createTree(m *Machine, ins Instruction, isIndex bool) (status, error) {
	root, err := m.bt.CreateTree(isIndex)
	if err != nil {
		return statusErr, err
	}
	m.regs[ins.P1] = Reg{Kind: RegInt, Int: int32(root)}
	return statusOK, nil
}

func opCopy(m *Machine, ins Instruction) (status, error) {
	src := m.regs[ins.P1]
	dst := src
	if src.Text != nil {
		dst.Text = append([]byte(nil), src.Text...)
	}
	m.regs[ins.P2] = dst
	return statusOK, nil
}

func opSCopy(m *Machine, ins Instruction) (status, error) {
	m.regs[ins.P2] = m.regs[ins.P1]
	return statusOK, nil
}

func opHalt(m *Machine, ins Instruction) (status, error) {
	if ins.P1 != 0 {
		return statusErr, dberr.New(dberr.EMISUSE, "dbm", "Halt", "program halted with a non-zero status")
	}
	return statusDone, nil
}
