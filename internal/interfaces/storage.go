package interfaces

// StorageManager provides access to the storage backends
type StorageManager interface {
	// KeyValueStorage returns the key/value storage interface
	KeyValueStorage() KeyValueStorage

	// Close closes the underlying database connection
	Close() error
}
