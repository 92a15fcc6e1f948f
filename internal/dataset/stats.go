package dataset

import (
	"sort"

	"github.com/lotscope/lotscope/pkg/types"
)

// maxUniqueCities caps the cities list in stats output; past that the
// list stops being useful in a tool response.
const maxUniqueCities = 30

// FieldStats holds min/max/avg for one numeric field. Zero values are
// treated as missing data and excluded, since county servers report 0
// for absent lot sizes, prices, and years.
type FieldStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// Stats summarizes a record set.
type Stats struct {
	Count        int                   `json:"count"`
	Fields       map[string]FieldStats `json:"fields,omitempty"`
	Cities       []string              `json:"cities,omitempty"`
	CitiesTotal  int                   `json:"cities_total,omitempty"`
	LandUseCodes []string              `json:"land_use_codes,omitempty"`
}

// Compute builds summary statistics for a record set.
func Compute(records []types.PropertyRecord) Stats {
	stats := Stats{
		Count:  len(records),
		Fields: make(map[string]FieldStats),
	}
	if len(records) == 0 {
		return stats
	}

	numericFields := map[string]func(r *types.PropertyRecord) float64{
		"lot_size_sqft":   func(r *types.PropertyRecord) float64 { return r.LotSizeSqft },
		"assessed_value":  func(r *types.PropertyRecord) float64 { return r.AssessedValue },
		"last_sale_price": func(r *types.PropertyRecord) float64 { return r.LastSalePrice },
		"year_built":      func(r *types.PropertyRecord) float64 { return float64(r.YearBuilt) },
	}

	cities := make(map[string]bool)
	codes := make(map[string]bool)

	for name, get := range numericFields {
		var fs FieldStats
		var sum float64
		for i := range records {
			v := get(&records[i])
			if v == 0 {
				continue
			}
			if fs.Count == 0 || v < fs.Min {
				fs.Min = v
			}
			if fs.Count == 0 || v > fs.Max {
				fs.Max = v
			}
			sum += v
			fs.Count++
		}
		if fs.Count > 0 {
			fs.Avg = sum / float64(fs.Count)
			stats.Fields[name] = fs
		}
	}

	for i := range records {
		if records[i].City != "" {
			cities[records[i].City] = true
		}
		if records[i].LandUseCode != "" {
			codes[records[i].LandUseCode] = true
		}
	}

	stats.CitiesTotal = len(cities)
	stats.Cities = sortedKeys(cities)
	if len(stats.Cities) > maxUniqueCities {
		stats.Cities = stats.Cities[:maxUniqueCities]
	}
	stats.LandUseCodes = sortedKeys(codes)

	return stats
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
