package dbm

import (
	"grovedb/pkg/btree"
	"grovedb/pkg/dberr"
	"grovedb/pkg/logging"
)

// status is a handler's outcome. jump is an internal refinement of the
// spec's four statuses (ROW, DONE, OK, ERR): it marks that the handler
// already wrote pc directly (spec §4.3: "handlers that branch write pc
// directly"), so the driver must not also advance it.
type status int

const (
	statusOK status = iota
	statusRow
	statusDone
	statusErr
	statusJump
)

type cursorEntry struct {
	cur     *btree.Cursor
	root    uint32
	ncols   int
	isIndex bool
	write   bool
}

// Machine executes one Program against a B-tree engine.
type Machine struct {
	bt      *btree.Bt
	prog    Program
	pc      int
	regs    map[int32]Reg
	cursors map[int32]*cursorEntry
	row     []Reg
}

// New creates a machine bound to bt, ready to Run prog.
func New(bt *btree.Bt, prog Program) *Machine {
	return &Machine{
		bt:      bt,
		prog:    prog,
		regs:    make(map[int32]Reg),
		cursors: make(map[int32]*cursorEntry),
	}
}

// Run executes the program from pc 0 until a Halt, returning every row
// yielded by ResultRow along the way (spec §4.3, §8 scenario 6). Running
// past the last instruction without a Halt returns EMISUSE together with
// the rows yielded so far.
func (m *Machine) Run() ([][]Reg, error) {
	log := logging.WithProgram(m.prog.ID.String())
	log.Debug("dbm run start", "instructions", len(m.prog.Instructions))

	var rows [][]Reg
	for {
		if m.pc < 0 || m.pc >= len(m.prog.Instructions) {
			return rows, dberr.New(dberr.EMISUSE, "dbm", "Run", "program counter out of range")
		}
		ins := m.prog.Instructions[m.pc]
		if int(ins.Opcode) < 0 || int(ins.Opcode) >= int(opcodeCount) {
			return rows, dberr.New(dberr.EMISUSE, "dbm", "Run", "unknown opcode")
		}

		st, err := dispatch[ins.Opcode](m, ins)
		if err != nil {
			logging.LogError(log, "dbm run failed", err)
			return rows, err
		}

		switch st {
		case statusOK:
			m.pc++
		case statusJump:
			// handler already set m.pc
		case statusRow:
			rows = append(rows, append([]Reg(nil), m.row...))
			m.pc++
		case statusDone:
			log.Debug("dbm run halted", "rows", len(rows))
			return rows, nil
		case statusErr:
			return rows, dberr.New(dberr.EMISUSE, "dbm", "Run", "program halted with an error status")
		}
	}
}
