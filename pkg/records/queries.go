package records

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// TasksForAsset returns the tasks of an asset in id order.
func TasksForAsset(tasks *AssetTasks, assetID uint64) ([]*AssetTask, error) {
	result, err := tasks.Filter(func(t *AssetTask) bool { return t.AssetID == assetID })
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get tasks for asset %d", assetID)
	}
	return result, nil
}

func TaskIDsForAsset(tasks *AssetTasks, assetID uint64) ([]uint64, error) {
	result, err := TasksForAsset(tasks, assetID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, len(result))
	for i, t := range result {
		ids[i] = t.ID()
	}
	return ids, nil
}

// ReadingsForMeter returns the readings of a meter in id order.
func ReadingsForMeter(readings *MeterReadings, meterID uint64) ([]*MeterReading, error) {
	result, err := readings.Filter(func(r *MeterReading) bool { return r.MeterID == meterID })
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get readings for meter %d", meterID)
	}
	return result, nil
}

// MeterAverageDailyRate computes AverageDailyRate over all readings of a
// meter.
func MeterAverageDailyRate(readings *MeterReadings, meterID uint64) (float64, error) {
	result, err := ReadingsForMeter(readings, meterID)
	if err != nil {
		return 0, err
	}
	return AverageDailyRate(result), nil
}

// AverageDailyRate orders readings by date and averages the consumption
// per day between consecutive readings. The first reading and readings
// taken on the same calendar day as their predecessor contribute a rate of
// zero. The input slice is not modified.
func AverageDailyRate(readings []*MeterReading) float64 {
	if len(readings) == 0 {
		return 0
	}

	sorted := make([]*MeterReading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReadingOn.Before(sorted[j].ReadingOn)
	})

	total := 0.0
	for i := 1; i < len(sorted); i++ {
		days := dayNumber(sorted[i].ReadingOn) - dayNumber(sorted[i-1].ReadingOn)
		if days == 0 {
			continue
		}
		total += (sorted[i].Reading - sorted[i-1].Reading) / float64(days)
	}

	return total / float64(len(sorted))
}

func dayNumber(t time.Time) int64 {
	return t.UTC().Unix() / int64(24*time.Hour/time.Second)
}
