package btree

import (
	"encoding/json"

	"go-btreedb/pkg/cache"
	"go-btreedb/pkg/pager"
	"go-btreedb/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NodeID is the handle of a node persisted by PagedStore. Ids are handed out
// by a monotonic counter and never reused, not even after Clear.
type NodeID uint64

// PagedOptions tunes a PagedStore.
type PagedOptions struct {
	// CacheSize is the number of bytes of encoded node records kept in
	// memory. Zero disables the cache.
	CacheSize int64
}

var DefaultPagedOptions = PagedOptions{
	CacheSize: 0,
}

type pagedMeta struct {
	RootHandle      *uint64 `json:"root_handle"`
	NextID          uint64  `json:"next_id"`
	FirstLeafHandle *uint64 `json:"first_leaf_handle"`
	Seq             uint64  `json:"seq"`
	Degree          int     `json:"degree,omitempty"`
}

// PagedStore keeps one JSON record per node in a directory, plus a metadata
// record describing the root. Every Save writes the full node record; the
// metadata is written by SetMeta and Clear, and by Close when ids were
// allocated since.
type PagedStore[K, V any] struct {
	metaName  string
	meta      pagedMeta
	metaDirty bool
	pager     *pager.Pager
	cache     *cache.Cache
	log       *logrus.Entry
}

// OpenPagedStore opens or creates a store in dir. metaName is the name of
// the metadata record inside dir. opts may be nil.
func OpenPagedStore[K, V any](dir, metaName string, opts *PagedOptions) (*PagedStore[K, V], error) {
	if opts == nil {
		opts = &DefaultPagedOptions
	}

	p, err := pager.Open(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pager")
	}

	s := &PagedStore[K, V]{
		metaName: metaName,
		pager:    p,
		log:      logger.For("pagedstore").WithField("dir", dir),
	}

	if opts.CacheSize > 0 {
		if s.cache, err = cache.New(opts.CacheSize); err != nil {
			return nil, errors.Wrap(err, "failed to create node cache")
		}
	}

	if err := s.init(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *PagedStore[K, V]) init() error {
	d, err := s.pager.ReadRecord(s.metaName)
	if errors.Is(err, pager.ErrPageNotFound) {
		s.meta = pagedMeta{}
		s.log.Debug("creating metadata")
		return s.writeMeta()
	} else if err != nil {
		return errors.Wrap(err, "failed to read metadata")
	}

	if err := json.Unmarshal(d, &s.meta); err != nil {
		return errors.Wrapf(ErrStorageCorruption, "failed to decode metadata: %v", err)
	}

	s.log.WithFields(logrus.Fields{
		"root":    s.meta.RootHandle,
		"next_id": s.meta.NextID,
	}).Debug("reopened store")
	return nil
}

func (s *PagedStore[K, V]) Load(h Handle) (*Node[K, V], error) {
	id, ok := h.(NodeID)
	if !ok {
		return nil, errors.Wrapf(ErrStorageCorruption, "unresolvable handle %v (%T)", h, h)
	}

	d, err := s.read(uint64(id))
	if errors.Is(err, pager.ErrPageNotFound) {
		return nil, errors.Wrapf(ErrStorageCorruption, "node %d is missing", id)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load node %d", id)
	}

	n, err := decodeNode[K, V](d)
	if err != nil {
		return nil, errors.Wrapf(ErrStorageCorruption, "node %d: %v", id, err)
	}
	n.handle = id

	return n, nil
}

func (s *PagedStore[K, V]) read(id uint64) ([]byte, error) {
	if s.cache != nil {
		if d, ok := s.cache.Get(id); ok {
			return d, nil
		}
	}

	d, err := s.pager.ReadPage(id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(id, d)
	}
	return d, nil
}

// Alloc hands out the next node id. The counter reaches the metadata record
// with the next SetMeta.
func (s *PagedStore[K, V]) Alloc(n *Node[K, V]) (Handle, error) {
	n.handle = NodeID(s.meta.NextID)
	s.meta.NextID++
	s.metaDirty = true
	return n.handle, nil
}

func (s *PagedStore[K, V]) Save(n *Node[K, V]) (Handle, error) {
	if n.handle == nil {
		if _, err := s.Alloc(n); err != nil {
			return nil, err
		}
	}

	id, err := nodeID(n.handle)
	if err != nil {
		return nil, err
	}

	d, err := encodeNode(n)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode node %d", id)
	}

	if err := s.pager.WritePage(id, d); err != nil {
		return nil, errors.Wrapf(err, "failed to save node %d", id)
	}

	if s.cache != nil {
		s.cache.Set(id, d)
	}

	return n.handle, nil
}

func (s *PagedStore[K, V]) Delete(h Handle) error {
	id, err := nodeID(h)
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Del(id)
	}

	if err := s.pager.FreePage(id); err != nil {
		return errors.Wrapf(err, "failed to delete node %d", id)
	}
	return nil
}

func (s *PagedStore[K, V]) Meta() (Meta, error) {
	m := Meta{Seq: s.meta.Seq, Degree: s.meta.Degree}
	if s.meta.RootHandle != nil {
		m.Root = NodeID(*s.meta.RootHandle)
	}
	if s.meta.FirstLeafHandle != nil {
		m.FirstLeaf = NodeID(*s.meta.FirstLeafHandle)
	}
	return m, nil
}

func (s *PagedStore[K, V]) SetMeta(m Meta) error {
	root, err := optionalID(m.Root)
	if err != nil {
		return errors.Wrap(err, "invalid root handle")
	}

	first, err := optionalID(m.FirstLeaf)
	if err != nil {
		return errors.Wrap(err, "invalid first leaf handle")
	}

	s.meta.RootHandle = root
	s.meta.FirstLeafHandle = first
	s.meta.Seq = m.Seq
	s.meta.Degree = m.Degree
	return s.writeMeta()
}

// Clear removes every node record and resets the root state. The id
// counter keeps counting.
func (s *PagedStore[K, V]) Clear() error {
	if s.cache != nil {
		s.cache.Clear()
	}

	if err := s.pager.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear nodes")
	}

	s.meta.RootHandle = nil
	s.meta.FirstLeafHandle = nil
	s.meta.Seq = 0
	s.meta.Degree = 0
	if err := s.writeMeta(); err != nil {
		return err
	}

	s.log.WithField("next_id", s.meta.NextID).Info("cleared store")
	return nil
}

// NodeCount returns the number of node records currently on disk.
func (s *PagedStore[K, V]) NodeCount() (int, error) {
	ids, err := s.pager.Pages()
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CacheStats returns hit and miss counters of the node cache, zero when
// the cache is disabled.
func (s *PagedStore[K, V]) CacheStats() (hits, misses uint64) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.Stats()
}

// CheckEntry rejects keys and values that would not decode back to
// themselves.
func (s *PagedStore[K, V]) CheckEntry(k K, v V) error {
	if err := checkEncodable(k); err != nil {
		return errors.Wrap(err, "invalid key")
	}
	if err := checkEncodable(v); err != nil {
		return errors.Wrap(err, "invalid value")
	}
	return nil
}

func (s *PagedStore[K, V]) Close() error {
	if s.cache != nil {
		s.cache.Close()
		s.cache = nil
	}

	if s.metaDirty {
		if err := s.writeMeta(); err != nil && !errors.Is(err, pager.ErrClosed) {
			return err
		}
	}
	return s.pager.Close()
}

func (s *PagedStore[K, V]) writeMeta() error {
	d, err := json.Marshal(s.meta)
	if err != nil {
		return errors.Wrap(err, "failed to encode metadata")
	}

	if err := s.pager.WriteRecord(s.metaName, d); err != nil {
		return errors.Wrap(err, "failed to write metadata")
	}
	s.metaDirty = false
	return nil
}

func optionalID(h Handle) (*uint64, error) {
	if h == nil {
		return nil, nil
	}

	id, err := nodeID(h)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
