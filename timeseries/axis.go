package timeseries

import (
	"fmt"
	"time"

	"github.com/eoanalytics/tpstack/utils"
)

// meanBandDateFormat matches the band naming of the intermediate time series
// product, yyyyMMdd.HHmmss.SSS.
const meanBandDateFormat = "20060102.150405.000"

// Axis is the dense, inclusive day range of the time series. It is immutable
// after construction; every day in [StartMJD, EndMJD] owns one slot whether
// or not any product was acquired on it.
type Axis struct {
	StartMJD int64
	EndMJD   int64
	Length   int
}

// BuildAxis derives the axis bounds from explicit dates where given, falling
// back to the day extrema of the grouping. An axis shorter than two days is a
// configuration error.
func BuildAxis(groups *DailyGroups, startDate, endDate *time.Time) (*Axis, error) {
	startMJD := groups.First()
	endMJD := groups.Last()
	if startDate != nil {
		startMJD = ModifiedJulianDay(*startDate)
	}
	if endDate != nil {
		endMJD = ModifiedJulianDay(*endDate)
	}
	if endMJD < startMJD {
		return nil, utils.NewConfigurationError("time series end day %d before start day %d", endMJD, startMJD)
	}
	length := int(endMJD - startMJD + 1)
	if length < 2 {
		return nil, utils.NewConfigurationError("time series spans a single day, need at least two")
	}
	return &Axis{StartMJD: startMJD, EndMJD: endMJD, Length: length}, nil
}

// Offset is the 0-based slot of the given day on the axis.
func (a *Axis) Offset(mjd int64) int {
	return int(mjd - a.StartMJD)
}

// Contains reports whether the day falls inside the axis range.
func (a *Axis) Contains(mjd int64) bool {
	return mjd >= a.StartMJD && mjd <= a.EndMJD
}

// MeanBandName is the daily mean band name for the given day,
// <prefix>_<yyyyMMdd.HHmmss.SSS>.
func MeanBandName(prefix string, mjd int64) string {
	return fmt.Sprintf("%s_%s", prefix, MJDToTime(mjd).Format(meanBandDateFormat))
}

// MeanBandNames lists one band name per axis slot, indexed by day offset.
func (a *Axis) MeanBandNames(prefix string) []string {
	names := make([]string, a.Length)
	for i := 0; i < a.Length; i++ {
		names[i] = MeanBandName(prefix, a.StartMJD+int64(i))
	}
	return names
}
