package repository

import (
	"path/filepath"
	"testing"

	"go-btreedb/config"

	"github.com/stretchr/testify/require"
)

type note struct {
	NoteID uint64 `json:"id"`
	Text   string `json:"text"`
	Done   bool   `json:"done"`
}

func (n *note) ID() uint64      { return n.NoteID }
func (n *note) SetID(id uint64) { n.NoteID = id }

func newNote() *note { return &note{} }

func testConfig(t *testing.T) *config.StoreConfig {
	cfg := config.NewStoreConfig()
	cfg.Dir = filepath.Join(t.TempDir(), "notes")
	cfg.Degree = 2
	return cfg
}

func TestRepositoryCRUD(t *testing.T) {
	repo, err := NewMemory(3, newNote)
	require.NoError(t, err)
	defer repo.Close()

	id, err := repo.Add(&note{Text: "buy milk"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	n, found, err := repo.GetByID(id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, &note{NoteID: 1, Text: "buy milk"}, n)

	n.Done = true
	updated, err := repo.Update(n)
	require.NoError(t, err)
	require.True(t, updated)

	n, _, err = repo.GetByID(id)
	require.NoError(t, err)
	require.True(t, n.Done)

	updated, err = repo.Update(&note{NoteID: 42})
	require.NoError(t, err)
	require.False(t, updated)

	deleted, err := repo.Delete(id)
	require.NoError(t, err)
	require.True(t, deleted)

	_, found, err = repo.GetByID(id)
	require.NoError(t, err)
	require.False(t, found)

	deleted, err = repo.Delete(id)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestRepositoryIDsIncrease(t *testing.T) {
	repo, err := NewMemory(2, newNote)
	require.NoError(t, err)
	defer repo.Close()

	var last uint64
	for i := 0; i < 50; i++ {
		id, err := repo.Add(&note{Text: "n"})
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}

	_, err = repo.Delete(last)
	require.NoError(t, err)

	id, err := repo.Add(&note{})
	require.NoError(t, err)
	require.Equal(t, last+1, id)

	count, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 50, count)
}

func TestRepositoryFilter(t *testing.T) {
	repo, err := NewMemory(2, newNote)
	require.NoError(t, err)
	defer repo.Close()

	for i := 0; i < 20; i++ {
		_, err := repo.Add(&note{Done: i%4 == 0})
		require.NoError(t, err)
	}

	done, err := repo.Filter(func(n *note) bool { return n.Done })
	require.NoError(t, err)
	require.Len(t, done, 5)
	for i, n := range done {
		require.Equal(t, uint64(4*i+1), n.ID())
	}

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 20)
}

func TestRepositoryReopen(t *testing.T) {
	cfg := testConfig(t)

	repo, err := Open(cfg, newNote)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		_, err := repo.Add(&note{Text: "persisted"})
		require.NoError(t, err)
	}
	require.NoError(t, repo.Close())

	repo, err = Open(cfg, newNote)
	require.NoError(t, err)
	defer repo.Close()

	count, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 30, count)

	id, err := repo.Add(&note{Text: "after reopen"})
	require.NoError(t, err)
	require.Equal(t, uint64(31), id)

	n, found, err := repo.GetByID(17)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "persisted", n.Text)
}

func TestRepositoryDeleteAll(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheSize = 1 << 16

	repo, err := Open(cfg, newNote)
	require.NoError(t, err)
	defer repo.Close()

	for i := 0; i < 10; i++ {
		_, err := repo.Add(&note{})
		require.NoError(t, err)
	}

	require.NoError(t, repo.DeleteAll())

	count, err := repo.Count()
	require.NoError(t, err)
	require.Zero(t, count)

	id, err := repo.Add(&note{})
	require.NoError(t, err)
	require.Equal(t, uint64(11), id)
}

func TestRepositoryInvalidDegree(t *testing.T) {
	_, err := NewMemory(1, newNote)
	require.Error(t, err)

	cfg := testConfig(t)
	cfg.Degree = 0
	_, err = Open(cfg, newNote)
	require.Error(t, err)
}
