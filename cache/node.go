package cache

// node is an intrusive doubly linked list element owned by a Cache.
type node[K comparable, V any] struct {
	key K
	val V

	// Intrusive list links: head is MRU, tail is LRU.
	prev *node[K, V]
	next *node[K, V]

	// Clock reading (UnixNano) at the last insert or touch.
	ts int64
}
