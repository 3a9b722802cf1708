// Package persistence provides the durable key-value store used to keep settings and the pending job
// id between restarts. It defines the KV interface and implementations for SQLite (WAL mode),
// in-memory maps, and a degrading wrapper keeping values in memory when the backing store fails.
//
// Every call is synchronous and fallible. Callers must tolerate StorageError and continue.
package persistence
