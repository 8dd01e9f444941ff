package config

import "path/filepath"

// StoreConfig describes where a paged tree keeps its node records and how
// it is shaped.
type StoreConfig struct {
	// Dir is the directory holding one record file per node.
	Dir string `json:"dir"`

	// MetaFile is the name of the metadata record inside Dir.
	MetaFile string `json:"meta_file"`

	// Degree is the minimum degree t of the tree.
	Degree int `json:"degree"`

	// CacheSize bounds the write-through record cache in bytes.
	// Zero disables the cache.
	CacheSize int64 `json:"cache_size"`
}

func NewStoreConfig() *StoreConfig {
	return &StoreConfig{
		Dir:       "./btree_data",
		MetaFile:  "metadata.json",
		Degree:    5,
		CacheSize: 0,
	}
}

// For returns a copy of c that keeps its records in the named
// subdirectory of Dir, so that several trees can share one base config.
func (c *StoreConfig) For(name string) *StoreConfig {
	sub := *c
	sub.Dir = filepath.Join(c.Dir, name)
	return &sub
}
