package logging

import "log/slog"

// WithPage returns a logger scoped to a single page number, used by the
// pager for allocation/eviction diagnostics.
func WithPage(pageNo uint32) *slog.Logger {
	return Get().With("page", pageNo)
}

// WithNode returns a logger scoped to a B-tree node, identified by its
// backing page number and node type byte.
func WithNode(pageNo uint32, nodeType byte) *slog.Logger {
	return Get().With("page", pageNo, "node_type", nodeType)
}

// WithCursor returns a logger scoped to a DBM cursor.
func WithCursor(cursorID int) *slog.Logger {
	return Get().With("cursor", cursorID)
}

// WithProgram returns a logger scoped to a single DBM program run,
// identified by the program's UUID (see dbm.Program.ID).
func WithProgram(programID string) *slog.Logger {
	return Get().With("program", programID)
}

// WithComponent returns a logger scoped to a named subsystem.
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}
