package persist

// Snapshot is the plain record persisted for one store.
type Snapshot = map[string]any

// Listener is called after each store mutation. A non-nil error is returned
// to whoever caused the mutation.
type Listener func() error

// Store is the host state container. Subscribe returns the function that
// removes the listener.
type Store interface {
	ID() string
	Subscribe(l Listener) (unsubscribe func())
}

// StateSerializer produces the current snapshot.
type StateSerializer interface {
	SerializeState() (Snapshot, error)
}

// StateRestorer applies a snapshot.
type StateRestorer interface {
	RestoreState(s Snapshot) error
}

// PersistableStore is a Store with both capabilities checked at compile time.
type PersistableStore interface {
	Store
	StateSerializer
	StateRestorer
}

// HookContext is passed to lifecycle hooks.
type HookContext struct {
	StoreID string
	Store   Store
	Config  EffectiveConfig
}
