// Package pipeline funnels items from any number of producers into a single
// consumer, so that a store which allows only one writer can be fed
// concurrently.
package pipeline

import (
	"sync"
	"sync/atomic"

	"go-btreedb/pkg/btree"
	"go-btreedb/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("pipeline is closed")

// Sink applies one item. It is only ever called from the consumer
// goroutine.
type Sink[T any] func(item T) error

// Writer queues submitted items in a bounded channel and applies them with
// one consumer goroutine in submission order. Failed items are logged and
// counted, never retried.
type Writer[T any] struct {
	ch     chan T
	sink   Sink[T]
	done   chan struct{}
	mu     *sync.RWMutex
	closed bool

	applied atomic.Uint64
	failed  atomic.Uint64

	log *logrus.Entry
}

// New starts the consumer. size is the number of items that can be queued
// before Submit blocks.
func New[T any](size int, sink Sink[T]) *Writer[T] {
	w := &Writer[T]{
		ch:   make(chan T, size),
		sink: sink,
		done: make(chan struct{}),
		mu:   &sync.RWMutex{},
		log:  logger.For("pipeline"),
	}

	go w.consume()
	return w
}

func (w *Writer[T]) consume() {
	defer close(w.done)

	for itm := range w.ch {
		if err := w.sink(itm); err != nil {
			w.failed.Add(1)
			w.log.WithError(err).Error("failed to apply item")
			continue
		}
		w.applied.Add(1)
	}
}

// Submit queues an item, blocking while the queue is full.
func (w *Writer[T]) Submit(itm T) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return ErrClosed
	}

	w.ch <- itm
	return nil
}

// Close stops accepting items and waits until every queued item has been
// applied. Calling Close again is a no-op.
func (w *Writer[T]) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()

	<-w.done

	w.log.WithFields(logrus.Fields{
		"applied": w.applied.Load(),
		"failed":  w.failed.Load(),
	}).Debug("pipeline drained")
}

// Applied returns the number of items the sink accepted.
func (w *Writer[T]) Applied() uint64 { return w.applied.Load() }

// Failed returns the number of items the sink rejected.
func (w *Writer[T]) Failed() uint64 { return w.failed.Load() }

// TreeSink inserts every item into tree.
func TreeSink[K, V any](tree *btree.Tree[K, V]) Sink[btree.Item[K, V]] {
	return func(itm btree.Item[K, V]) error {
		return tree.Insert(itm.Key, itm.Value)
	}
}
