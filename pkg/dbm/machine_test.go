package dbm

import (
	"path/filepath"
	"testing"

	"grovedb/pkg/btree"
	"grovedb/pkg/record"
)

func newTestBt(t *testing.T) *btree.Bt {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.db")
	bt, err := btree.Open(path)
	if err != nil {
		t.Fatalf("btree.Open: %v", err)
	}
	t.Cleanup(func() { bt.Close() })
	return bt
}

// TestMachineRunScansTable exercises the canonical select-all program: for
// each row in a two-column table, read its second column and yield it.
func TestMachineRunScansTable(t *testing.T) {
	bt := newTestBt(t)
	const root = 1

	rows := []struct {
		key  uint32
		text string
	}{
		{10, "a"},
		{20, "b"},
	}
	for _, r := range rows {
		buf, err := record.Encode([]record.Value{record.Int32(int32(r.key)), record.TextString(r.text)})
		if err != nil {
			t.Fatalf("record.Encode: %v", err)
		}
		if err := bt.Insert(root, btree.NewTableLeafCell(r.key, buf)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	prog := NewProgram([]Instruction{
		// 0: regs[0] = root
		{Opcode: OpInteger, P1: root, P2: 0},
		// 1: cursor 0 = OpenRead over regs[0], 2 columns
		{Opcode: OpOpenRead, P1: 0, P2: 0, P3: 2},
		// 2: Rewind cursor 0; jump to 6 (Halt) if empty
		{Opcode: OpRewind, P1: 0, P2: 6},
		// 3: regs[1] = cursor 0's column 1 (the text column)
		{Opcode: OpColumn, P1: 0, P2: 1, P3: 1},
		// 4: yield regs[1..1]
		{Opcode: OpResultRow, P1: 1, P2: 1},
		// 5: advance cursor 0; jump to 3 if another row exists
		{Opcode: OpNext, P1: 0, P2: 3},
		// 6: Halt
		{Opcode: OpHalt, P1: 0},
	})

	m := New(bt, prog)
	result, err := m.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result) != len(rows) {
		t.Fatalf("Run returned %d rows, want %d", len(result), len(rows))
	}
	for i, r := range rows {
		if len(result[i]) != 1 {
			t.Fatalf("row %d has %d registers, want 1", i, len(result[i]))
		}
		got := result[i][0]
		if got.Kind != RegText || string(got.Text) != r.text {
			t.Fatalf("row %d = %+v, want text %q", i, got, r.text)
		}
	}
}

func TestMachineHaltWithNonZeroStatusIsError(t *testing.T) {
	bt := newTestBt(t)
	prog := NewProgram([]Instruction{
		{Opcode: OpHalt, P1: 1},
	})
	m := New(bt, prog)
	if _, err := m.Run(); err == nil {
		t.Fatalf("Run with Halt(1) succeeded, want an error")
	}
}

func TestMachineCreateTableThenInsertAndScan(t *testing.T) {
	bt := newTestBt(t)

	prog := NewProgram([]Instruction{
		// 0: regs[0] = new table's root page
		{Opcode: OpCreateTable, P1: 0},
		// 1: regs[1] = 42 (the row's key, and also its first column)
		{Opcode: OpInteger, P1: 42, P2: 1},
		// 2: regs[2] = "hi" (second column)
		{Opcode: OpString, P2: 2, P4: "hi"},
		// 3: regs[3] = encoded record of (regs[1], regs[2])
		{Opcode: OpMakeRecord, P1: 1, P2: 2, P3: 3},
		// 4: cursor 0 = OpenWrite over regs[0], 1 declared column
		{Opcode: OpOpenWrite, P1: 0, P2: 0, P3: 1},
		// 5: insert regs[3] under key regs[1]
		{Opcode: OpInsert, P1: 0, P2: 3, P3: 1},
		// 6: close cursor 0
		{Opcode: OpClose, P1: 0},
		// 7: cursor 1 = OpenRead over regs[0] (same root), 1 column
		{Opcode: OpOpenRead, P1: 1, P2: 0, P3: 1},
		// 8: Rewind cursor 1; jump to 12 (Halt) if empty
		{Opcode: OpRewind, P1: 1, P2: 12},
		// 9: regs[4] = cursor 1's column 1 (the text column)
		{Opcode: OpColumn, P1: 1, P2: 1, P3: 4},
		// 10: yield regs[4..4]
		{Opcode: OpResultRow, P1: 4, P2: 1},
		// 11: advance cursor 1; jump to 9 if another row exists
		{Opcode: OpNext, P1: 1, P2: 9},
		// 12: Halt
		{Opcode: OpHalt, P1: 0},
	})

	m := New(bt, prog)
	result, err := m.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Run returned %d rows, want 1", len(result))
	}
	if got := result[0][0]; got.Kind != RegText || string(got.Text) != "hi" {
		t.Fatalf("result row = %+v, want text %q", got, "hi")
	}
}
