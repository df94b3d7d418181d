// Package allotment contains core domain types for room allotment.
//
// It defines Student, Group and Room records as the Directory stores them,
// the Actor that issues administrative commands, the events published to
// subscribers, and the sentinel errors every layer reports.
package allotment
