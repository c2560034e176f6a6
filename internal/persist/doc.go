// Package persist attaches a save/restore lifecycle to an observable state
// store.
//
// A Coordinator holds the global defaults. Attach resolves the effective
// options for one store, checks that the store can produce and consume a
// Snapshot, restores the persisted record, and subscribes to change
// notifications so each change writes a fresh snapshot, optionally
// coalesced by a Debouncer. Closing the returned Attachment unsubscribes and
// drops any pending save; hosts call it from their own disposal path.
//
// Lifecycle of one attachment:
//
//	Created -> Validating -> Restoring -> Restored | RestoreSkipped | RestoreFailed
//	        -> Subscribed -> Disposed
//
// Data flow:
//
//	Store.SerializeState -> Serializer.Serialize -> KV.Set(key)
//	KV.Get(key) -> Serializer.Deserialize -> Store.RestoreState
package persist
