package ingest

import (
	"strings"

	"github.com/david/maintenance-analyzer/internal/models"
)

// areaKeyword maps a keyword found in a fault description to an area tag.
type areaKeyword struct {
	Keyword string
	Area    string
}

// NorthAreas lists the zone codes of the north building in display order.
var NorthAreas = []string{"A區", "B區", "C區", "D區", "E區", "F區", "G區", "I區", "P區", "戶外"}

// SouthAreas lists the directional areas of the south building in display order.
var SouthAreas = []string{"北側", "南側", "東側", "西側", "中庭", "戶外"}

var northAreaKeywords = []areaKeyword{
	{"A區", "A區"},
	{"B區", "B區"},
	{"C區", "C區"},
	{"D區", "D區"},
	{"E區", "E區"},
	{"F區", "F區"},
	{"G區", "G區"},
	{"I區", "I區"},
	{"P區", "P區"},
	{"戶外", "戶外"},
}

// Compound directions precede the simple ones they contain.
var southAreaKeywords = []areaKeyword{
	{"中庭", "中庭"},
	{"東南側", "東南側"},
	{"東南", "東南側"},
	{"西南側", "西南側"},
	{"西南", "西南側"},
	{"東北側", "東北側"},
	{"東北", "東北側"},
	{"西北側", "西北側"},
	{"西北", "西北側"},
	{"東側", "東側"},
	{"西側", "西側"},
	{"南側", "南側"},
	{"北側", "北側"},
	{"戶外", "戶外"},
}

var workTypeByAttribute = map[string]string{
	models.WorkTypeWater:      models.WorkTypeWater,
	models.WorkTypeElectrical: models.WorkTypeElectrical,
	models.WorkTypeFire:       models.WorkTypeFire,
	models.WorkTypeBuilding:   models.WorkTypeBuilding,
}

// ClassifyVenue returns the building a fault description refers to.
func ClassifyVenue(description string) string {
	switch {
	case strings.Contains(description, models.VenueNorth):
		return models.VenueNorth
	case strings.Contains(description, models.VenueSouth):
		return models.VenueSouth
	default:
		return models.VenueUnknown
	}
}

// ClassifyArea returns the area tag for a description within the given venue.
// The first keyword found wins; no match yields models.UnidentifiableAreaTag.
func ClassifyArea(venue, description string) string {
	var table []areaKeyword
	switch venue {
	case models.VenueNorth:
		table = northAreaKeywords
	case models.VenueSouth:
		table = southAreaKeywords
	default:
		return models.UnidentifiableAreaTag
	}

	lower := strings.ToLower(description)
	for _, kw := range table {
		if strings.Contains(lower, strings.ToLower(kw.Keyword)) {
			return kw.Area
		}
	}
	return models.UnidentifiableAreaTag
}

// ClassifyWorkType maps a work attribute onto a base classification.
func ClassifyWorkType(workAttribute string) string {
	if wt, ok := workTypeByAttribute[strings.TrimSpace(workAttribute)]; ok {
		return wt
	}
	return models.WorkTypeOther
}

// AreasForVenue returns the selectable areas of a venue, or nil for an unknown venue.
func AreasForVenue(venue string) []string {
	switch venue {
	case models.VenueNorth:
		return NorthAreas
	case models.VenueSouth:
		return SouthAreas
	}
	return nil
}
