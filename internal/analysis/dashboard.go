// Package analysis computes the dashboard aggregations over classified
// maintenance records. Every function ignores invalid records.
package analysis

import (
	"cmp"
	"slices"
	"strings"

	"github.com/david/maintenance-analyzer/internal/models"
)

// LegacyUnclassifiedLabel counts described records that carry no fault tags,
// which only happens for records assembled before tagging existed.
const LegacyUnclassifiedLabel = "其他/未分類 (舊)"

// Aggregation represents a single facet count.
type Aggregation struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// MaterialTotal is the summed quantity of one material.
type MaterialTotal struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// AreaFaults breaks one hotspot area down by fault type.
type AreaFaults struct {
	Area         string        `json:"area"`
	TotalRepairs int           `json:"total_repairs"`
	FaultTypes   []Aggregation `json:"fault_types"`
}

// TrendPoint is the number of repairs in one period.
type TrendPoint struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// WorkTypeTrendPoint is the number of repairs per work type in one month.
type WorkTypeTrendPoint struct {
	Month  string         `json:"month"`
	Counts map[string]int `json:"counts"`
}

// Summary bundles every dashboard view for one filtered record set.
type Summary struct {
	TotalRecords    int                  `json:"total_records"`
	Venues          []Aggregation        `json:"venues"`
	AreaHotspots    []Aggregation        `json:"area_hotspots"`
	FaultTypes      []Aggregation        `json:"fault_types"`
	TopAreaFaults   []AreaFaults         `json:"top_area_faults"`
	Trend           []TrendPoint         `json:"trend"`
	TrendByWorkType []WorkTypeTrendPoint `json:"trend_by_work_type"`
	Materials       []MaterialTotal      `json:"materials"`
}

// Top hotspot areas broken down in the summary, and fault types kept per area.
const (
	DefaultTopAreas      = 3
	DefaultFaultsPerArea = 5
)

// BuildSummary computes the dashboard for the filtered records. The work type
// trend always covers every record in all, independent of the filter.
func BuildSummary(filtered, all []models.MaintenanceRecord, year, month string) Summary {
	valid := Valid(filtered)
	return Summary{
		TotalRecords:    len(valid),
		Venues:          VenueCounts(valid),
		AreaHotspots:    AreaHotspots(valid),
		FaultTypes:      FaultTypeCounts(valid),
		TopAreaFaults:   TopAreaFaults(valid, DefaultTopAreas, DefaultFaultsPerArea),
		Trend:           MaintenanceTrend(valid, year, month),
		TrendByWorkType: TrendByWorkType(all),
		Materials:       MaterialUsage(valid),
	}
}

// Valid returns the records that passed validation.
func Valid(records []models.MaintenanceRecord) []models.MaintenanceRecord {
	out := make([]models.MaintenanceRecord, 0, len(records))
	for _, r := range records {
		if r.IsValid {
			out = append(out, r)
		}
	}
	return out
}

// counter tallies keys and remembers first-seen order for stable ties.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

func (c *counter) byCountDesc() []Aggregation {
	out := make([]Aggregation, len(c.order))
	for i, k := range c.order {
		out[i] = Aggregation{Value: k, Count: c.counts[k]}
	}
	slices.SortStableFunc(out, func(a, b Aggregation) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

func (c *counter) byKeyAsc() []TrendPoint {
	out := make([]TrendPoint, len(c.order))
	for i, k := range c.order {
		out[i] = TrendPoint{Period: k, Count: c.counts[k]}
	}
	slices.SortFunc(out, func(a, b TrendPoint) int { return strings.Compare(a.Period, b.Period) })
	return out
}

// VenueCounts counts records per venue, most frequent first.
func VenueCounts(records []models.MaintenanceRecord) []Aggregation {
	c := newCounter()
	for _, r := range records {
		if r.IsValid {
			c.add(r.Venue, 1)
		}
	}
	return c.byCountDesc()
}

// HotspotKey names an area within its venue, e.g. "南館 - 東北側".
func HotspotKey(venue, area string) string {
	return venue + " - " + area
}

// AreaHotspots counts records per venue and area, most frequent first.
func AreaHotspots(records []models.MaintenanceRecord) []Aggregation {
	c := newCounter()
	for _, r := range records {
		if r.IsValid {
			c.add(HotspotKey(r.Venue, r.Area), 1)
		}
	}
	return c.byCountDesc()
}

// FaultTypeCounts counts records per fault tag, most frequent first.
func FaultTypeCounts(records []models.MaintenanceRecord) []Aggregation {
	c := newCounter()
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		switch {
		case len(r.FaultTags) > 0:
			for _, tag := range r.FaultTags {
				c.add(tag, 1)
			}
		case r.FaultDescription != "":
			c.add(LegacyUnclassifiedLabel, 1)
		}
	}
	return c.byCountDesc()
}

// TopAreaFaults breaks the n busiest areas down into their perArea most
// frequent fault types.
func TopAreaFaults(records []models.MaintenanceRecord, n, perArea int) []AreaFaults {
	hotspots := AreaHotspots(records)
	if len(hotspots) > n {
		hotspots = hotspots[:n]
	}

	out := make([]AreaFaults, 0, len(hotspots))
	for _, h := range hotspots {
		var inArea []models.MaintenanceRecord
		for _, r := range records {
			if r.IsValid && HotspotKey(r.Venue, r.Area) == h.Value {
				inArea = append(inArea, r)
			}
		}
		faults := FaultTypeCounts(inArea)
		if len(faults) > perArea {
			faults = faults[:perArea]
		}
		out = append(out, AreaFaults{Area: h.Value, TotalRepairs: h.Count, FaultTypes: faults})
	}
	return out
}

// MaintenanceTrend counts repairs over time. With only a year selected the
// periods are months ("03月"), with year and month they are days ("05日"),
// otherwise "YYYY/MM".
func MaintenanceTrend(records []models.MaintenanceRecord, year, month string) []TrendPoint {
	c := newCounter()
	for _, r := range records {
		if !r.IsValid || len(r.RequestDate) < 10 {
			continue
		}
		var key string
		switch {
		case year != "" && month == "":
			key = r.RequestDate[5:7] + "月"
		case year != "" && month != "":
			key = r.RequestDate[8:10] + "日"
		default:
			key = r.RequestDate[:7]
		}
		c.add(key, 1)
	}
	return c.byKeyAsc()
}

// TrendByWorkType counts repairs per month of year and work type.
func TrendByWorkType(records []models.MaintenanceRecord) []WorkTypeTrendPoint {
	byMonth := map[string]map[string]int{}
	for _, r := range records {
		if !r.IsValid || len(r.RequestDate) < 7 {
			continue
		}
		key := r.RequestDate[5:7] + "月"
		counts, ok := byMonth[key]
		if !ok {
			counts = make(map[string]int, len(models.WorkTypes))
			for _, wt := range models.WorkTypes {
				counts[wt] = 0
			}
			byMonth[key] = counts
		}
		wt := r.WorkTypeClassification
		if _, known := counts[wt]; !known {
			wt = models.WorkTypeOther
		}
		counts[wt]++
	}

	out := make([]WorkTypeTrendPoint, 0, len(byMonth))
	for month, counts := range byMonth {
		out = append(out, WorkTypeTrendPoint{Month: month, Counts: counts})
	}
	slices.SortFunc(out, func(a, b WorkTypeTrendPoint) int { return strings.Compare(a.Month, b.Month) })
	return out
}

// MaterialUsage sums material quantities, largest first.
func MaterialUsage(records []models.MaintenanceRecord) []MaterialTotal {
	var order []string
	totals := map[string]float64{}
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		for _, m := range r.MaterialsUsed {
			if _, ok := totals[m.Name]; !ok {
				order = append(order, m.Name)
			}
			totals[m.Name] += m.Quantity
		}
	}

	out := make([]MaterialTotal, len(order))
	for i, name := range order {
		out[i] = MaterialTotal{Name: name, Quantity: totals[name]}
	}
	slices.SortStableFunc(out, func(a, b MaterialTotal) int { return cmp.Compare(b.Quantity, a.Quantity) })
	return out
}
