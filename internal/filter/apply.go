package filter

import (
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/lotscope/lotscope/pkg/types"
)

// fieldValue resolves a filter field name against a record. ok is false for
// unknown fields and for lat/lng when the record has no coordinates.
func fieldValue(rec *types.PropertyRecord, field string) (str string, num float64, isNumeric, ok bool) {
	switch strings.ToLower(field) {
	case "folio":
		return rec.Folio, 0, false, true
	case "address":
		return rec.Address, 0, false, true
	case "city":
		return rec.City, 0, false, true
	case "county":
		return string(rec.County), 0, false, true
	case "owner":
		return rec.Owner, 0, false, true
	case "land_use_code":
		return rec.LandUseCode, 0, false, true
	case "zoning_code":
		return rec.ZoningCode, 0, false, true
	case "zoning_description":
		return rec.ZoningDescription, 0, false, true
	case "lot_dimensions":
		return rec.LotDimensions, 0, false, true
	case "last_sale_date":
		return rec.LastSaleDate, 0, false, true
	case "lot_size_sqft":
		return "", rec.LotSizeSqft, true, true
	case "year_built":
		return "", float64(rec.YearBuilt), true, true
	case "assessed_value":
		return "", rec.AssessedValue, true, true
	case "last_sale_price":
		return "", rec.LastSalePrice, true, true
	case "lat":
		if rec.Lat == nil {
			return "", 0, true, false
		}
		return "", *rec.Lat, true, true
	case "lng":
		if rec.Lng == nil {
			return "", 0, true, false
		}
		return "", *rec.Lng, true, true
	default:
		return "", 0, false, false
	}
}

// matches evaluates one clause against a record. Type-mismatched
// comparisons never match for ordering operators; equality across types is
// false (so != is true), mirroring the permissive evaluation contract.
func matches(rec *types.PropertyRecord, c Clause) bool {
	str, num, isNumeric, ok := fieldValue(rec, c.Field)
	if !ok {
		return false
	}

	if c.Op == OpContains {
		haystack := strings.ToLower(str)
		if isNumeric {
			haystack = strings.ToLower(formatNum(num))
		}
		return strings.Contains(haystack, strings.ToLower(c.Value.Str))
	}

	if isNumeric && c.Value.IsNumeric {
		return compareNumeric(num, c.Op, c.Value.Num)
	}
	if !isNumeric && !c.Value.IsNumeric {
		return compareString(strings.ToLower(str), c.Op, strings.ToLower(c.Value.Str))
	}

	// Mixed types: only inequality holds.
	return c.Op == OpNe
}

func compareNumeric(a float64, op Op, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGe:
		return a >= b
	case OpLe:
		return a <= b
	default:
		return false
	}
}

func compareString(a string, op Op, b string) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGe:
		return a >= b
	case OpLe:
		return a <= b
	default:
		return false
	}
}

// Apply filters records by an expression. An empty or unparseable
// expression returns the input unchanged; a record missing any referenced
// field is excluded.
func Apply(records []types.PropertyRecord, expression string) []types.PropertyRecord {
	if strings.TrimSpace(expression) == "" || len(records) == 0 {
		return records
	}

	clauses, err := Parse(expression)
	if err != nil {
		log.Printf("unparseable filter expression %q: %v", expression, err)
		return records
	}
	if len(clauses) == 0 {
		return records
	}

	result := make([]types.PropertyRecord, 0, len(records))
	for i := range records {
		keep := true
		for _, c := range clauses {
			if !matches(&records[i], c) {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, records[i])
		}
	}
	return result
}

// Sort orders records in place by a field name. Unknown fields are a no-op;
// order "desc" reverses the ascending default. Records missing the field
// (nil lat/lng) sort first in ascending order.
func Sort(records []types.PropertyRecord, field, order string) {
	if field == "" {
		return
	}
	if _, _, _, ok := fieldValue(&types.PropertyRecord{Lat: new(float64), Lng: new(float64)}, field); !ok {
		return
	}
	desc := strings.EqualFold(order, "desc")

	sort.SliceStable(records, func(i, j int) bool {
		less := recordLess(&records[i], &records[j], field)
		if desc {
			return recordLess(&records[j], &records[i], field)
		}
		return less
	})
}

func recordLess(a, b *types.PropertyRecord, field string) bool {
	sa, na, numA, okA := fieldValue(a, field)
	sb, nb, _, okB := fieldValue(b, field)
	if !okA || !okB {
		return !okA && okB
	}
	if numA {
		return na < nb
	}
	return strings.ToLower(sa) < strings.ToLower(sb)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
