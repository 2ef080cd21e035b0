package storage

// KeyPrefixList is the prefix for persisted list blobs
const KeyPrefixList = "spark:list:"

// ListKey returns the storage key for a named list ("history", "saved").
func ListKey(name string) string {
	return KeyPrefixList + name
}
