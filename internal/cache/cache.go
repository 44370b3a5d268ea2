// Package cache provides an in-process LRU cache.
//
// The lookup loader keeps one entry per lookup file; entries never expire
// because lookup tables are static configuration for the life of a process.
package cache

// Cache is the read/write surface shared by cache implementations.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)
