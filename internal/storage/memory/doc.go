// Package memory provides an in-process backing store.
//
// Records live in a fixed set of shards selected by MurmurHash3 of the key,
// each guarded by its own RWMutex. Nothing survives process exit.
package memory
