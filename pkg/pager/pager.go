// Package pager stores fixed records in a directory: one file per page id
// plus any number of named records (e.g. metadata). Every read and write
// goes to the file system; there is no caching at this level.
package pager

import (
	"os"
	"path"
	"sort"
	"strconv"
	"sync"

	"go-btreedb/util/helpers"

	"github.com/pkg/errors"
)

const pageExt = ".node"

var (
	// ErrPageNotFound is returned when a page or record has no file.
	ErrPageNotFound = errors.New("page not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("pager is closed")
)

// Open opens the pager rooted at dir, creating the directory if needed.
func Open(dir string) (*Pager, error) {
	if err := helpers.CreateDir(dir); err != nil {
		return nil, errors.Wrapf(err, "failed to create pager dir '%s'", dir)
	}

	return &Pager{
		dir: dir,
		mu:  &sync.RWMutex{},
	}, nil
}

// Pager maps page ids to files in a single directory.
type Pager struct {
	dir    string
	mu     *sync.RWMutex
	closed bool
}

// ReadPage returns the full content of the page.
func (p *Pager) ReadPage(id uint64) ([]byte, error) {
	return p.read(pageName(id))
}

// WritePage replaces the full content of the page.
func (p *Pager) WritePage(id uint64, d []byte) error {
	return p.write(pageName(id), d)
}

// FreePage removes the page file. Freeing a missing page is not an error.
func (p *Pager) FreePage(id uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	err := os.Remove(p.path(pageName(id)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to free page %d", id)
	}
	return nil
}

// ReadRecord returns the content of a named record.
func (p *Pager) ReadRecord(name string) ([]byte, error) {
	return p.read(name)
}

// WriteRecord replaces the content of a named record.
func (p *Pager) WriteRecord(name string, d []byte) error {
	return p.write(name, d)
}

// Pages lists the ids of all pages currently on disk in ascending order.
func (p *Pager) Pages() ([]uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}
	return p.pages()
}

// Clear removes every page. Named records are kept.
func (p *Pager) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	ids, err := p.pages()
	if err != nil {
		return err
	}

	for _, id := range ids {
		err := os.Remove(p.path(pageName(id)))
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove page %d", id)
		}
	}
	return nil
}

func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

func (p *Pager) read(name string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	d, err := os.ReadFile(p.path(name))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrPageNotFound, "'%s'", name)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read '%s'", name)
	}
	return d, nil
}

func (p *Pager) write(name string, d []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	if err := os.WriteFile(p.path(name), d, 0644); err != nil {
		return errors.Wrapf(err, "failed to write '%s'", name)
	}
	return nil
}

func (p *Pager) pages() ([]uint64, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list pager dir '%s'", p.dir)
	}

	ids := []uint64{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		trimmed := helpers.TrimSuffix(name, pageExt)
		if trimmed == name {
			continue
		}

		id, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (p *Pager) path(name string) string {
	return path.Join(p.dir, name)
}

func pageName(id uint64) string {
	return strconv.FormatUint(id, 10) + pageExt
}
