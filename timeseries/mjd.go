// Package timeseries builds the daily time axis of the percentile
// computation: it keys every acquisition by its Modified Julian Day,
// groups same-day products and lays out the dense day axis the gap
// filler operates on.
package timeseries

import "time"

// mjdUnixEpoch is the Modified Julian Day of 1970-01-01.
const mjdUnixEpoch = 40587

const secondsPerDay = 86400

// ModifiedJulianDay converts a UTC timestamp to its integer Modified Julian
// Day, the canonical coordinate of the time axis.
func ModifiedJulianDay(t time.Time) int64 {
	sec := t.Unix()
	day := sec / secondsPerDay
	if sec%secondsPerDay < 0 {
		day--
	}
	return day + mjdUnixEpoch
}

// MJDToTime returns the UTC midnight of the given Modified Julian Day.
func MJDToTime(mjd int64) time.Time {
	return time.Unix((mjd-mjdUnixEpoch)*secondsPerDay, 0).UTC()
}
