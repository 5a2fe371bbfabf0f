// Package dbm implements the Database Machine: a stack-less,
// register-based virtual machine that executes compiled query plans
// against the B-tree engine (spec §4.3). Only the dispatch architecture
// and opcode contracts are implemented here; producing programs (parsing
// and code generation) is out of scope.
package dbm

import "github.com/google/uuid"

// Opcode identifies one DBM instruction. The set is closed, so dispatch
// uses a static array indexed by Opcode rather than a map (spec §9
// design note).
type Opcode int

const (
	OpNoop Opcode = iota
	OpOpenRead
	OpOpenWrite
	OpClose
	OpRewind
	OpNext
	OpPrev
	OpSeek
	OpSeekGt
	OpSeekGe
	OpColumn
	OpKey
	OpInteger
	OpString
	OpNull
	OpResultRow
	OpMakeRecord
	OpInsert
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIdxGt
	OpIdxGe
	OpIdxLt
	OpIdxLe
	OpIdxKey
	OpIdxInsert
	OpCreateTable
	OpCreateIndex
	OpCopy
	OpSCopy
	OpHalt

	opcodeCount
)

// Instruction is one entry of a compiled program (spec §4.3): p1..p3 are
// signed 32-bit operands, and p4 carries an opcode-dependent constant
// (a string for String, unused otherwise; MakeRecord takes its column
// count from p2).
type Instruction struct {
	Opcode Opcode
	P1     int32
	P2     int32
	P3     int32
	P4     any
}

// Program is a finite, immutable instruction sequence identified for
// logging and tracing purposes.
type Program struct {
	ID           uuid.UUID
	Instructions []Instruction
}

// NewProgram wraps instructions in a Program with a fresh identifier.
func NewProgram(instructions []Instruction) Program {
	return Program{ID: uuid.New(), Instructions: instructions}
}
