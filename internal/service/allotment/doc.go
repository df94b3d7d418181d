// Package allotment implements the turn-based allotment orchestrator.
//
// A Service owns the single run state of the process: the priority queue of
// eligible groups, the group whose turn it is, its deadline and the one armed
// turn clock. Every operation that ends a turn or reshapes the run (start,
// selection commit, timeout, cancel, reset) is serialized by one mutex, so a
// selection and a deadline expiry racing for the same turn can never both
// take effect. Status queries read a separate lock and never wait on storage.
package allotment
