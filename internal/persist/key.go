package persist

// KeyPrefix namespaces the default backing-store keys.
const KeyPrefix = "pinia-"

// KeyFunc derives the backing-store key for a store ID. It must be
// deterministic and injective so independent stores never share a key.
type KeyFunc func(storeID string) string

// DefaultKey returns KeyPrefix + storeID.
func DefaultKey(storeID string) string {
	return KeyPrefix + storeID
}

// PrefixKey returns a KeyFunc that prepends prefix.
func PrefixKey(prefix string) KeyFunc {
	return func(storeID string) string {
		return prefix + storeID
	}
}
