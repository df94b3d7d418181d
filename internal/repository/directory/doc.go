// Package directory implements the durable store of students, groups and rooms.
//
// The SQLiteDirectory keeps every multi-record change (committing a room,
// skipping a group, reverting all allotments) inside one SQL transaction so a
// failure part-way can never leave a room unavailable without the group that
// holds it, or the other way round.
package directory
