package usecases

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

func exact(key, value string) domain.TagRule {
	return domain.TagRule{Key: key, Matcher: domain.Exact(value)}
}

func anyValue(key string) domain.TagRule {
	return domain.TagRule{Key: key, Matcher: domain.Wildcard{}}
}

func category(name, label string, rules ...domain.TagRule) domain.POICategory {
	strs := make([]string, len(rules))
	for i, r := range rules {
		strs[i] = r.String()
	}
	return domain.POICategory{Name: name, Label: label, Rules: rules, RuleStrings: strs}
}

var categoryCatalog = []domain.POICategory{
	category("bikeShops", "Bike shops",
		exact("shop", "bicycle"),
		exact("craft", "bicycle"),
	),
	category("repairStations", "Repair stations",
		exact("amenity", "bicycle_repair_station"),
		exact("amenity", "compressed_air"),
	),
	category("waterSources", "Drinking water",
		exact("amenity", "drinking_water"),
		exact("amenity", "water_point"),
		exact("man_made", "water_tap"),
		exact("natural", "spring"),
	),
	category("foodStops", "Food",
		exact("amenity", "cafe"),
		exact("amenity", "restaurant"),
		exact("amenity", "fast_food"),
		exact("shop", "bakery"),
		exact("shop", "supermarket"),
		exact("shop", "convenience"),
	),
	category("lodging", "Lodging",
		exact("tourism", "hotel"),
		exact("tourism", "hostel"),
		exact("tourism", "guest_house"),
		exact("tourism", "camp_site"),
		exact("tourism", "alpine_hut"),
	),
	category("parking", "Parking",
		exact("amenity", "bicycle_parking"),
		exact("amenity", "motorcycle_parking"),
	),
	category("fuelStations", "Fuel and charging",
		exact("amenity", "fuel"),
		exact("amenity", "charging_station"),
	),
	category("toilets", "Toilets",
		exact("amenity", "toilets"),
	),
	category("viewpoints", "Viewpoints",
		exact("tourism", "viewpoint"),
	),
	category("attractions", "Attractions",
		exact("tourism", "attraction"),
		exact("tourism", "museum"),
		anyValue("historic"),
	),
	category("medical", "Medical",
		exact("amenity", "hospital"),
		exact("amenity", "clinic"),
		exact("amenity", "doctors"),
		exact("amenity", "pharmacy"),
	),
}

// Categories returns the POI category catalogue in display order.
func Categories() []domain.POICategory {
	out := make([]domain.POICategory, len(categoryCatalog))
	copy(out, categoryCatalog)
	return out
}

// LookupCategory finds a category by name.
func LookupCategory(name string) (domain.POICategory, bool) {
	for _, c := range categoryCatalog {
		if c.Name == name {
			return c, true
		}
	}
	return domain.POICategory{}, false
}

// ResolveCategories maps names onto catalogue entries, dropping duplicates.
// An empty list selects every category.
func ResolveCategories(names []string) ([]domain.POICategory, error) {
	if len(names) == 0 {
		return Categories(), nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]domain.POICategory, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		c, ok := LookupCategory(n)
		if !ok {
			return nil, domain.InvalidInputf("unknown POI category %q", n)
		}
		seen[n] = true
		out = append(out, c)
	}
	return out, nil
}

// UnionRules concatenates the rules of every category.
func UnionRules(cats []domain.POICategory) []domain.TagRule {
	var rules []domain.TagRule
	for _, c := range cats {
		rules = append(rules, c.Rules...)
	}
	return rules
}

type detailExtractor func(tags domain.Tags, d map[string]any)

var detailExtractors = map[string]detailExtractor{
	"bikeShops": func(t domain.Tags, d map[string]any) {
		flag(t, d, "service:bicycle:repair", "repair")
		flag(t, d, "service:bicycle:rental", "rental")
		flag(t, d, "service:bicycle:retail", "retail")
		flag(t, d, "service:bicycle:second_hand", "second_hand")
		flag(t, d, "service:bicycle:pump", "pump")
		text(t, d, "phone", "phone")
		text(t, d, "website", "website")
	},
	"repairStations": func(t domain.Tags, d map[string]any) {
		flag(t, d, "service:bicycle:pump", "pump")
		flag(t, d, "service:bicycle:tools", "tools")
		flag(t, d, "service:bicycle:chain_tool", "chain_tool")
		flag(t, d, "covered", "covered")
		text(t, d, "valves", "valves")
	},
	"waterSources": func(t domain.Tags, d map[string]any) {
		d["potable"] = t["amenity"] == "drinking_water" || isYes(t["drinking_water"])
		flag(t, d, "seasonal", "seasonal")
		flag(t, d, "fee", "fee")
		flag(t, d, "bottle", "bottle")
	},
	"foodStops": func(t domain.Tags, d map[string]any) {
		text(t, d, "cuisine", "cuisine")
		diet(t, d, "vegetarian")
		diet(t, d, "vegan")
		diet(t, d, "gluten_free")
		flag(t, d, "takeaway", "takeaway")
		flag(t, d, "outdoor_seating", "outdoor_seating")
	},
	"lodging": func(t domain.Tags, d map[string]any) {
		number(t, d, "stars", "stars")
		number(t, d, "rooms", "rooms")
		number(t, d, "beds", "beds")
		number(t, d, "capacity", "capacity")
		flag(t, d, "bicycle", "bicycle_friendly")
		text(t, d, "internet_access", "internet_access")
		text(t, d, "phone", "phone")
	},
	"parking": func(t domain.Tags, d map[string]any) {
		number(t, d, "capacity", "capacity")
		flag(t, d, "covered", "covered")
		flag(t, d, "fee", "fee")
		text(t, d, "bicycle_parking", "type")
		text(t, d, "access", "access")
	},
	"fuelStations": func(t domain.Tags, d map[string]any) {
		var fuels []string
		for k, v := range t {
			if strings.HasPrefix(k, "fuel:") && isYes(v) {
				fuels = append(fuels, strings.TrimPrefix(k, "fuel:"))
			}
		}
		if len(fuels) > 0 {
			sort.Strings(fuels)
			d["fuel_types"] = fuels
		}
		number(t, d, "capacity", "charging_points")
		flag(t, d, "shop", "shop")
	},
	"toilets": func(t domain.Tags, d map[string]any) {
		flag(t, d, "fee", "fee")
		flag(t, d, "wheelchair", "wheelchair")
		flag(t, d, "changing_table", "changing_table")
		text(t, d, "access", "access")
	},
	"viewpoints": func(t domain.Tags, d map[string]any) {
		number(t, d, "ele", "elevation_m")
		text(t, d, "direction", "direction")
	},
	"attractions": func(t domain.Tags, d map[string]any) {
		text(t, d, "historic", "historic")
		text(t, d, "wikipedia", "wikipedia")
		flag(t, d, "fee", "fee")
	},
	"medical": func(t domain.Tags, d map[string]any) {
		flag(t, d, "emergency", "emergency")
		text(t, d, "phone", "phone")
	},
}

// ExtractDetails pulls the category-specific fields out of a tag dictionary.
func ExtractDetails(categoryName string, tags domain.Tags) map[string]any {
	d := make(map[string]any)
	text(tags, d, "opening_hours", "opening_hours")
	if fn, ok := detailExtractors[categoryName]; ok {
		fn(tags, d)
	}
	if len(d) == 0 {
		return nil
	}
	return d
}

func isYes(v string) bool {
	return v == "yes" || v == "true" || v == "1"
}

func flag(t domain.Tags, d map[string]any, key, field string) {
	if v, ok := t[key]; ok {
		d[field] = isYes(v)
	}
}

func text(t domain.Tags, d map[string]any, key, field string) {
	if v := t[key]; v != "" {
		d[field] = v
	}
}

func number(t domain.Tags, d map[string]any, key, field string) {
	if v := t[key]; v != "" {
		if n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "S")), 64); err == nil {
			d[field] = n
		}
	}
}

// diet maps diet:<kind>=yes|only onto a boolean field.
func diet(t domain.Tags, d map[string]any, kind string) {
	if v, ok := t["diet:"+kind]; ok {
		d[kind] = v == "yes" || v == "only"
	}
}
