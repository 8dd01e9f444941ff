// Package records defines the domain records kept in repositories and the
// queries that relate them.
package records

import (
	"time"

	"go-btreedb/config"
	"go-btreedb/pkg/repository"
)

// Entity carries the fields every record has.
type Entity struct {
	RecordID    uint64 `json:"id"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

func (e *Entity) ID() uint64      { return e.RecordID }
func (e *Entity) SetID(id uint64) { e.RecordID = id }

type Asset struct {
	Entity
	Code  string `json:"code"`
	IsMsi bool   `json:"isMsi"`
}

type AssetTask struct {
	Entity
	AssetID uint64 `json:"assetId"`
	Done    bool   `json:"done"`
}

type ToDoItem struct {
	Entity
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type Meter struct {
	Entity
	Code     string  `json:"code"`
	IsPaused bool    `json:"isPaused"`
	Adr      float64 `json:"adr"`
}

type MeterReading struct {
	Entity
	MeterID   uint64    `json:"meterId"`
	Reading   float64   `json:"reading"`
	ReadingOn time.Time `json:"readingOn"`
}

type (
	Assets        = repository.Repository[*Asset]
	AssetTasks    = repository.Repository[*AssetTask]
	ToDoItems     = repository.Repository[*ToDoItem]
	Meters        = repository.Repository[*Meter]
	MeterReadings = repository.Repository[*MeterReading]
)

// The Open functions keep each record type in its own subdirectory of
// cfg.Dir, so one config serves all of them.

func OpenAssets(cfg *config.StoreConfig) (*Assets, error) {
	return repository.Open(cfg.For("assets"), func() *Asset { return &Asset{} })
}

func OpenAssetTasks(cfg *config.StoreConfig) (*AssetTasks, error) {
	return repository.Open(cfg.For("asset_tasks"), func() *AssetTask { return &AssetTask{} })
}

func OpenToDoItems(cfg *config.StoreConfig) (*ToDoItems, error) {
	return repository.Open(cfg.For("todo_items"), func() *ToDoItem { return &ToDoItem{} })
}

func OpenMeters(cfg *config.StoreConfig) (*Meters, error) {
	return repository.Open(cfg.For("meters"), func() *Meter { return &Meter{} })
}

func OpenMeterReadings(cfg *config.StoreConfig) (*MeterReadings, error) {
	return repository.Open(cfg.For("meter_readings"), func() *MeterReading { return &MeterReading{} })
}
