package records

import (
	"path/filepath"
	"testing"
	"time"

	"go-btreedb/config"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.StoreConfig {
	cfg := config.NewStoreConfig()
	cfg.Dir = t.TempDir()
	cfg.Degree = 3
	return cfg
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func TestTasksForAsset(t *testing.T) {
	cfg := testConfig(t)

	assets, err := OpenAssets(cfg)
	require.NoError(t, err)
	defer assets.Close()

	tasks, err := OpenAssetTasks(cfg)
	require.NoError(t, err)
	defer tasks.Close()

	pump, err := assets.Add(&Asset{Code: "P-01", Entity: Entity{Description: "pump"}})
	require.NoError(t, err)
	fan, err := assets.Add(&Asset{Code: "F-01", IsMsi: true})
	require.NoError(t, err)

	want := []uint64{}
	for i := 0; i < 12; i++ {
		owner := pump
		if i%3 == 0 {
			owner = fan
		}

		id, err := tasks.Add(&AssetTask{AssetID: owner})
		require.NoError(t, err)
		if owner == fan {
			want = append(want, id)
		}
	}

	ids, err := TaskIDsForAsset(tasks, fan)
	require.NoError(t, err)
	require.Equal(t, want, ids)

	result, err := TasksForAsset(tasks, pump)
	require.NoError(t, err)
	require.Len(t, result, 8)
	for _, task := range result {
		require.Equal(t, pump, task.AssetID)
	}

	a, found, err := assets.GetByID(pump)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "pump", a.Description)
	require.Equal(t, "P-01", a.Code)
}

func TestReadingsForMeter(t *testing.T) {
	readings, err := OpenMeterReadings(testConfig(t))
	require.NoError(t, err)
	defer readings.Close()

	for i := 1; i <= 10; i++ {
		_, err := readings.Add(&MeterReading{MeterID: uint64(i % 2), Reading: float64(i * 10), ReadingOn: day(i)})
		require.NoError(t, err)
	}

	result, err := ReadingsForMeter(readings, 1)
	require.NoError(t, err)
	require.Len(t, result, 5)
	require.True(t, result[0].ReadingOn.Equal(day(1)))

	// readings 1, 3, 5, 7, 9 rise by 20 every 2 days: four rates of 10
	adr, err := MeterAverageDailyRate(readings, 1)
	require.NoError(t, err)
	require.InDelta(t, 40.0/5, adr, 1e-9)

	adr, err = MeterAverageDailyRate(readings, 7)
	require.NoError(t, err)
	require.Zero(t, adr)
}

func TestMeterAdr(t *testing.T) {
	cfg := testConfig(t)

	meters, err := OpenMeters(cfg)
	require.NoError(t, err)
	defer meters.Close()

	readings, err := OpenMeterReadings(cfg)
	require.NoError(t, err)
	defer readings.Close()

	id, err := meters.Add(&Meter{Code: "M-7"})
	require.NoError(t, err)

	for i, v := range []float64{100, 104, 112} {
		_, err := readings.Add(&MeterReading{MeterID: id, Reading: v, ReadingOn: day(1 + 2*i)})
		require.NoError(t, err)
	}

	m, _, err := meters.GetByID(id)
	require.NoError(t, err)
	m.Adr, err = MeterAverageDailyRate(readings, id)
	require.NoError(t, err)

	updated, err := meters.Update(m)
	require.NoError(t, err)
	require.True(t, updated)

	m, _, err = meters.GetByID(id)
	require.NoError(t, err)
	require.InDelta(t, (0+2+4)/3.0, m.Adr, 1e-9)
}

func TestAverageDailyRate(t *testing.T) {
	require.Zero(t, AverageDailyRate(nil))
	require.Zero(t, AverageDailyRate([]*MeterReading{{Reading: 5, ReadingOn: day(1)}}))

	readings := []*MeterReading{
		{Reading: 130, ReadingOn: day(4)},
		{Reading: 100, ReadingOn: day(1)},
		{Reading: 110, ReadingOn: day(2)},
		{Reading: 115, ReadingOn: day(2).Add(time.Hour)},
	}

	// sorted: 100@1, 110@2, 115@2 (same day, 0), 130@4 (15 over 2 days)
	require.InDelta(t, (0+10+0+7.5)/4, AverageDailyRate(readings), 1e-9)
	require.Equal(t, 130.0, readings[0].Reading)
}

func TestToDoItems(t *testing.T) {
	cfg := testConfig(t)

	items, err := OpenToDoItems(cfg)
	require.NoError(t, err)

	id, err := items.Add(&ToDoItem{Title: "water plants"})
	require.NoError(t, err)

	item, _, err := items.GetByID(id)
	require.NoError(t, err)
	item.Done = true
	item.Version++

	updated, err := items.Update(item)
	require.NoError(t, err)
	require.True(t, updated)
	require.NoError(t, items.Close())

	items, err = OpenToDoItems(cfg)
	require.NoError(t, err)
	defer items.Close()

	item, found, err := items.GetByID(id)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, item.Done)
	require.Equal(t, 1, item.Version)
	require.Equal(t, "water plants", item.Title)
}

func TestSharedConfig(t *testing.T) {
	cfg := testConfig(t)

	assets, err := OpenAssets(cfg)
	require.NoError(t, err)
	defer assets.Close()

	meters, err := OpenMeters(cfg)
	require.NoError(t, err)
	defer meters.Close()

	items, err := OpenToDoItems(cfg)
	require.NoError(t, err)
	defer items.Close()

	for i := 0; i < 3; i++ {
		_, err := assets.Add(&Asset{Code: "A"})
		require.NoError(t, err)
	}

	id, err := meters.Add(&Meter{Code: "M-1"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	id, err = items.Add(&ToDoItem{Title: "check meter"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	count, err := assets.Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)

	count, err = meters.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.DirExists(t, filepath.Join(cfg.Dir, "assets"))
	require.DirExists(t, filepath.Join(cfg.Dir, "meters"))
	require.DirExists(t, filepath.Join(cfg.Dir, "todo_items"))
}
