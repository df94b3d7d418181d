// Package state persists the run checkpoint.
//
// The in-memory run state is authoritative; the checkpoint only lets a
// restarted server notice that a run was interrupted so an administrator can
// reset it explicitly. The FileRepository stores it as protobuf JSON.
package state
