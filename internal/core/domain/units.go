package domain

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

var activityUnits = map[ActivityType][]string{
	ActivityTransportation: {"miles", "km", "gallons", "liters"},
	ActivityEnergy:         {"kWh", "therms", "gallons", "liters"},
	ActivityFood:           {"lbs", "kg", "servings", "meals"},
	ActivityConsumption:    {"items", "lbs", "kg", "$"},
	ActivityWaste:          {"lbs", "kg", "bags", "items"},
}

// ActivityTypeInfo describes a category and the units suggested for it.
type ActivityTypeInfo struct {
	Value ActivityType `json:"value"`
	Label string       `json:"label"`
	Units []string     `json:"units"`
}

func UnitsFor(t ActivityType) []string {
	units := activityUnits[t]
	out := make([]string, len(units))
	copy(out, units)
	return out
}

func Catalogue() []ActivityTypeInfo {
	infos := make([]ActivityTypeInfo, 0, len(ActivityTypes))
	for _, t := range ActivityTypes {
		label := string(t)
		infos = append(infos, ActivityTypeInfo{
			Value: t,
			Label: strings.ToUpper(label[:1]) + label[1:],
			Units: UnitsFor(t),
		})
	}
	return infos
}

// NormalizeUnit maps user input onto the catalogue spelling for the type.
// Units outside the catalogue are kept as typed.
func NormalizeUnit(t ActivityType, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	units := activityUnits[t]
	for _, u := range units {
		if strings.EqualFold(u, raw) {
			return u
		}
	}

	matches := fuzzy.Find(strings.ToLower(raw), lowerAll(units))
	if len(matches) > 0 {
		return units[matches[0].Index]
	}

	return raw
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
