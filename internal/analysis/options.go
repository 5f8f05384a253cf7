package analysis

import (
	"slices"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/models"
)

func sortLocale(values []string) []string {
	c := collate.New(language.TraditionalChinese)
	c.SortStrings(values)
	return values
}

func distinct(records []models.MaintenanceRecord, key func(models.MaintenanceRecord) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		if !r.IsValid {
			continue
		}
		v := key(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// AreaOptions lists the selectable areas for a venue filter. Known venues
// offer their fixed areas plus any extra areas and the unidentifiable tag
// when the data contains them.
func AreaOptions(records []models.MaintenanceRecord, venue string) []string {
	inVenue := func(r models.MaintenanceRecord) bool { return r.IsValid && r.Venue == venue }

	var options []string
	switch venue {
	case models.VenueNorth, models.VenueSouth:
		options = slices.Clone(ingest.AreasForVenue(venue))
		for _, r := range records {
			if !inVenue(r) || r.Area == "" || slices.Contains(options, r.Area) {
				continue
			}
			if venue == models.VenueNorth && r.Area != models.UnidentifiableAreaTag {
				continue
			}
			options = append(options, r.Area)
		}
	case models.VenueUnknown:
		options = distinct(records, func(r models.MaintenanceRecord) string {
			if r.Venue != models.VenueUnknown {
				return ""
			}
			return r.Area
		})
		if len(options) == 0 {
			options = []string{models.UnidentifiableAreaTag}
		}
	default:
		options = distinct(records, func(r models.MaintenanceRecord) string { return r.Area })
	}
	return sortLocale(options)
}

// YearOptions lists the years present in the data, newest first.
func YearOptions(records []models.MaintenanceRecord) []string {
	years := distinct(records, func(r models.MaintenanceRecord) string {
		if len(r.RequestDate) < 4 {
			return ""
		}
		return r.RequestDate[:4]
	})
	slices.Sort(years)
	slices.Reverse(years)
	return years
}

// MonthOptions lists the months ("1".."12") present in the data, limited to
// year when set. With no records and no year every month is offered.
func MonthOptions(records []models.MaintenanceRecord, year string) []string {
	valid := Valid(records)
	if year == "" && len(valid) == 0 {
		out := make([]string, 12)
		for i := range out {
			out[i] = strconv.Itoa(i + 1)
		}
		return out
	}

	months := map[int]struct{}{}
	for _, r := range valid {
		if len(r.RequestDate) < 7 {
			continue
		}
		if year != "" && r.RequestDate[:4] != year {
			continue
		}
		if m, err := strconv.Atoi(r.RequestDate[5:7]); err == nil {
			months[m] = struct{}{}
		}
	}

	nums := make([]int, 0, len(months))
	for m := range months {
		nums = append(nums, m)
	}
	slices.Sort(nums)

	out := make([]string, len(nums))
	for i, m := range nums {
		out[i] = strconv.Itoa(m)
	}
	return out
}

// VenueOptions lists the venues present in the data.
func VenueOptions(records []models.MaintenanceRecord) []string {
	return sortLocale(distinct(records, func(r models.MaintenanceRecord) string { return r.Venue }))
}

// WorkTypeOptions lists the work types present in the data.
func WorkTypeOptions(records []models.MaintenanceRecord) []string {
	return sortLocale(distinct(records, func(r models.MaintenanceRecord) string { return r.WorkTypeClassification }))
}
