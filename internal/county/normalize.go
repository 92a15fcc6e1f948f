package county

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lotscope/lotscope/pkg/types"
)

// Normalize converts one county's raw ArcGIS attributes into the shared
// record shape. Every field gets a deterministic default (numeric 0, string
// "") so consumers never branch on missing keys; lat/lng stay nil when the
// feature carried no geometry.
func Normalize(attrs map[string]any, geom *Geometry, fm FieldMap) types.PropertyRecord {
	var address string
	if fm.County == types.CountyBroward {
		// Broward splits the street address into four components.
		parts := []string{
			attrString(attrs, "SITUS_STREET_NUMBER"),
			attrString(attrs, "SITUS_STREET_DIRECTION"),
			attrString(attrs, "SITUS_STREET_NAME"),
			attrString(attrs, "SITUS_STREET_TYPE"),
		}
		var kept []string
		for _, p := range parts {
			if p != "" {
				kept = append(kept, p)
			}
		}
		address = strings.Join(kept, " ")
	} else {
		address = attrString(attrs, fm.Address)
	}

	var lotSqft float64
	if fm.LotSize != "" {
		lotSqft = safeFloat(attrs[fm.LotSize])
		if fm.LotSizeUnit == LotSizeAcres && lotSqft > 0 {
			lotSqft *= SqftPerAcre
		}
	}

	city := attrString(attrs, fm.City)
	if fm.County == types.CountyBroward {
		city = BrowardCityName(city)
	}

	var lat, lng *float64
	if geom != nil {
		y, x := geom.Y, geom.X
		lat, lng = &y, &x
	}

	return types.PropertyRecord{
		Folio:         attrString(attrs, fm.Folio),
		Address:       address,
		City:          city,
		County:        fm.County,
		Owner:         attrString(attrs, fm.OwnerName),
		LandUseCode:   attrString(attrs, fm.LandUseCode),
		LotSizeSqft:   math.Round(lotSqft*10) / 10,
		YearBuilt:     safeInt(attrs[fm.YearBuilt]),
		AssessedValue: safeFloatField(attrs, fm.AssessedValue),
		LastSalePrice: safeFloatField(attrs, fm.SalePrice),
		LastSaleDate:  normalizeSaleDate(attrs[fm.SaleDate], fm.SaleDateFormat),
		Lat:           lat,
		Lng:           lng,
	}
}

// normalizeSaleDate converts a raw county sale-date value to an ISO-8601
// date string, or "" when absent. Unparseable values pass through as-is
// rather than erroring.
func normalizeSaleDate(raw any, format SaleDateFormat) string {
	if raw == nil || format == SaleDateNone {
		return ""
	}
	switch format {
	case SaleDateEpochMs:
		ms := safeFloat(raw)
		if ms <= 0 {
			return ""
		}
		return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02")
	case SaleDateYYYYMMDD:
		s := strings.TrimSpace(attrToString(raw))
		if s == "" {
			return ""
		}
		if dt, err := time.Parse("20060102", s); err == nil {
			return dt.Format("2006-01-02")
		}
		return s
	default:
		return attrToString(raw)
	}
}

func attrString(attrs map[string]any, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(attrToString(attrs[key]))
}

func attrToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func safeFloatField(attrs map[string]any, key string) float64 {
	if key == "" {
		return 0
	}
	return safeFloat(attrs[key])
}

// safeFloat converts a value to float64, tolerating currency symbols and
// thousands separators in string values.
func safeFloat(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		s := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(val))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func safeInt(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

var ordinalSuffixPattern = regexp.MustCompile(`(\d+)(ST|ND|RD|TH)\b`)

// NormalizeAddress prepares an address for WHERE-clause matching: keeps only
// the street portion before the first comma, uppercases, drops ordinal
// suffixes ("209TH" to "209") and periods.
func NormalizeAddress(address string) string {
	street, _, _ := strings.Cut(address, ",")
	street = strings.ToUpper(strings.TrimSpace(street))
	street = ordinalSuffixPattern.ReplaceAllString(street, "$1")
	return strings.ReplaceAll(street, ".", "")
}

var lotDimensionsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[Xx]\s*(\d+(?:\.\d+)?)`)

// ParseLotDimensions extracts lot dimensions from a legal description:
// "LOT SIZE 75.000 X 100" yields "75 x 100".
func ParseLotDimensions(legal string) string {
	m := lotDimensionsPattern.FindStringSubmatch(legal)
	if m == nil {
		return ""
	}
	return trimDecimalZeros(m[1]) + " x " + trimDecimalZeros(m[2])
}

func trimDecimalZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
