package timeseries

import (
	"sort"
	"time"

	"github.com/eoanalytics/tpstack/utils"
)

// DailyGroups is the ordered mapping from Modified Julian Day to the
// products acquired on that day. Arrival order within a day is preserved.
type DailyGroups struct {
	days   []int64
	groups map[int64][]*utils.Product
}

// GroupDaily partitions products by acquisition day. Fewer than two distinct
// days cannot define an interpolated series and is a configuration error.
func GroupDaily(products []*utils.Product) (*DailyGroups, error) {
	groups := make(map[int64][]*utils.Product)
	for _, p := range products {
		mjd := ModifiedJulianDay(p.TimeStamp)
		groups[mjd] = append(groups[mjd], p)
	}
	if len(groups) < 2 {
		return nil, utils.NewConfigurationError(
			"interpolated daily percentile calculation needs valid input products on at least two days, got %d", len(groups))
	}
	days := make([]int64, 0, len(groups))
	for mjd := range groups {
		days = append(days, mjd)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return &DailyGroups{days: days, groups: groups}, nil
}

// FilterPeriod drops products acquired outside [start, end]. Nil bounds are
// open ended.
func FilterPeriod(products []*utils.Product, start, end *time.Time) []*utils.Product {
	if start == nil && end == nil {
		return products
	}
	startDay := int64(-1 << 62)
	endDay := int64(1<<62 - 1)
	if start != nil {
		startDay = ModifiedJulianDay(*start)
	}
	if end != nil {
		endDay = ModifiedJulianDay(*end)
	}
	kept := make([]*utils.Product, 0, len(products))
	for _, p := range products {
		mjd := ModifiedJulianDay(p.TimeStamp)
		if mjd < startDay || mjd > endDay {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// Days returns the distinct acquisition days in ascending order.
func (g *DailyGroups) Days() []int64 {
	return g.days
}

// Products returns the products acquired on the given day, in arrival order.
func (g *DailyGroups) Products(mjd int64) []*utils.Product {
	return g.groups[mjd]
}

// Len is the number of distinct acquisition days.
func (g *DailyGroups) Len() int {
	return len(g.days)
}

// First and Last return the day extrema of the grouping.
func (g *DailyGroups) First() int64 {
	return g.days[0]
}

func (g *DailyGroups) Last() int64 {
	return g.days[len(g.days)-1]
}
