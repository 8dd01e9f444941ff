package btree

// Handle identifies a node inside a NodeStore. A nil Handle means "no node".
// MemoryStore handles are node pointers, PagedStore handles are NodeIDs.
type Handle interface{}

// Meta is the mutable root state of a tree, owned by its store.
type Meta struct {
	Root      Handle
	FirstLeaf Handle
	Seq       uint64 // last entry sequence number handed out
	Degree    int    // zero until a tree has been created in the store
}

// NodeStore is the storage abstraction the tree engine works through. The
// engine never assumes a node is resident: every access is a Load, every
// mutation is followed by a Save.
type NodeStore[K, V any] interface {
	// Load resolves a handle. Unresolvable or undecodable handles fail with
	// ErrStorageCorruption.
	Load(h Handle) (*Node[K, V], error)

	// Alloc gives a new node its handle without persisting it, so that
	// other nodes can link to it before it is saved.
	Alloc(n *Node[K, V]) (Handle, error)

	// Save persists the node, allocating a handle first if it has none.
	Save(n *Node[K, V]) (Handle, error)

	// Delete drops the persisted representation of a node.
	Delete(h Handle) error

	Meta() (Meta, error)

	// SetMeta persists the root state. The tree calls it once at the end of
	// every mutating operation.
	SetMeta(m Meta) error

	// Clear drops every node and resets the root state.
	Clear() error

	Close() error
}

// EntryChecker is implemented by stores that cannot hold every key or
// value. The tree consults it before changing anything.
type EntryChecker[K, V any] interface {
	CheckEntry(k K, v V) error
}
