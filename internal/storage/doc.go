// Package storage owns the durable set of subscriber ids (the directory).
//
// The sqlite driver is the production backend; the memory driver backs tests.
// Both tolerate concurrent Register/ListAll callers: inserts are atomic at
// single-id granularity and ListAll reads a point-in-time snapshot.
package storage
