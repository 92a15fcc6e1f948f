package county

import (
	"sort"
	"strings"

	"github.com/lotscope/lotscope/pkg/types"
)

// SaleDateFormat describes how a county encodes sale dates.
type SaleDateFormat string

const (
	// SaleDateYYYYMMDD is an 8-digit date string, e.g. "20060101".
	SaleDateYYYYMMDD SaleDateFormat = "string_yyyymmdd"
	// SaleDateEpochMs is Unix epoch milliseconds.
	SaleDateEpochMs SaleDateFormat = "epoch_ms"
	// SaleDateNone means the county schema has no sale-date field.
	SaleDateNone SaleDateFormat = "none"
)

// LotSizeUnit describes the unit of a county's lot-size field.
type LotSizeUnit string

const (
	LotSizeSqft  LotSizeUnit = "sqft"
	LotSizeAcres LotSizeUnit = "acres"
	LotSizeNone  LotSizeUnit = "none"
)

// FieldMap maps abstract property fields to one county's ArcGIS attribute
// names. An empty field name means the county has no such attribute and any
// filter against it is silently skipped.
type FieldMap struct {
	County         types.County
	LandUseCode    string
	OwnerName      string
	SaleDate       string
	SaleDateFormat SaleDateFormat
	SalePrice      string
	LotSize        string
	LotSizeUnit    LotSizeUnit
	Address        string
	City           string
	AssessedValue  string
	YearBuilt      string
	Folio          string
	OutFields      string

	// Some MapServer layers reject resultRecordCount unless the request
	// also carries orderByFields.
	NeedsOrderBy bool
	OrderByField string
}

var miamiDadeFields = FieldMap{
	County:         types.CountyMiamiDade,
	LandUseCode:    "DOR_CODE_CUR",
	OwnerName:      "TRUE_OWNER1",
	SaleDate:       "DOS_1",
	SaleDateFormat: SaleDateYYYYMMDD,
	SalePrice:      "PRICE_1",
	LotSize:        "LOT_SIZE",
	LotSizeUnit:    LotSizeSqft,
	Address:        "TRUE_SITE_ADDR",
	City:           "TRUE_SITE_CITY",
	AssessedValue:  "ASSESSED_VAL_CUR",
	YearBuilt:      "YEAR_BUILT",
	Folio:          "FOLIO",
	OutFields: "FOLIO,TRUE_SITE_ADDR,TRUE_SITE_CITY,TRUE_OWNER1," +
		"DOR_CODE_CUR,DOR_DESC,LOT_SIZE,YEAR_BUILT," +
		"ASSESSED_VAL_CUR,PRICE_1,DOS_1",
}

var browardFields = FieldMap{
	County:         types.CountyBroward,
	LandUseCode:    "USE_CODE",
	OwnerName:      "NAME_LINE_1",
	SaleDate:       "",
	SaleDateFormat: SaleDateNone,
	SalePrice:      "",
	LotSize:        "",
	LotSizeUnit:    LotSizeNone,
	Address:        "SITUS_STREET_NUMBER", // composite, reassembled by Normalize
	City:           "SITUS_CITY",
	AssessedValue:  "JUST_BUILDING_VALUE",
	YearBuilt:      "BLDG_YEAR_BUILT",
	Folio:          "FOLIO_NUMBER",
	OutFields: "FOLIO_NUMBER,SITUS_STREET_NUMBER,SITUS_STREET_DIRECTION," +
		"SITUS_STREET_NAME,SITUS_STREET_TYPE,SITUS_CITY," +
		"NAME_LINE_1,USE_CODE,BLDG_YEAR_BUILT,JUST_BUILDING_VALUE",
	NeedsOrderBy: true,
	OrderByField: "FOLIO_NUMBER",
}

var palmBeachFields = FieldMap{
	County:         types.CountyPalmBeach,
	LandUseCode:    "PROPERTY_USE",
	OwnerName:      "OWNER_NAME1",
	SaleDate:       "SALE_DATE",
	SaleDateFormat: SaleDateEpochMs,
	SalePrice:      "PRICE",
	LotSize:        "ACRES",
	LotSizeUnit:    LotSizeAcres,
	Address:        "SITE_ADDR_STR",
	City:           "MUNICIPALITY",
	AssessedValue:  "ASSESSED_VAL",
	YearBuilt:      "YRBLT",
	Folio:          "PARCEL_NUMBER",
	OutFields: "PARCEL_NUMBER,SITE_ADDR_STR,MUNICIPALITY,OWNER_NAME1," +
		"PROPERTY_USE,YRBLT,ACRES,ASSESSED_VAL,PRICE,SALE_DATE",
}

// FieldMapFor resolves a county name to its field map. Matching is
// case-insensitive and tolerates "Miami Dade" for "Miami-Dade".
func FieldMapFor(county string) (FieldMap, error) {
	switch normalizeCountyKey(county) {
	case "miami dade":
		return miamiDadeFields, nil
	case "broward":
		return browardFields, nil
	case "palm beach":
		return palmBeachFields, nil
	default:
		return FieldMap{}, &types.UnsupportedCountyError{County: county}
	}
}

func normalizeCountyKey(county string) string {
	key := strings.ToLower(strings.TrimSpace(county))
	key = strings.ReplaceAll(key, "-", " ")
	return strings.Join(strings.Fields(key), " ")
}

// Florida DOR land-use codes per county. Miami-Dade uses 4-digit codes;
// Broward and Palm Beach use 2-digit codes.
var landUseCodes = map[types.County]map[types.LandUseCategory][]string{
	types.CountyMiamiDade: {
		types.LandUseVacantResidential: {"0000"},
		types.LandUseVacantCommercial:  {"0100"},
		types.LandUseSingleFamily:      {"0101", "0102"},
		types.LandUseMultifamily:       {"0104", "0800", "0801", "0802", "0803", "0804"},
		types.LandUseCommercial:        {"1100", "1200", "1300", "1400", "1500", "1600", "1700"},
		types.LandUseIndustrial:        {"4100", "4200", "4800", "4900"},
		types.LandUseAgricultural:      {"5000", "5100", "5400", "5500", "5600", "5700", "5800", "5900", "6000"},
	},
	types.CountyBroward: {
		types.LandUseVacantResidential: {"00"},
		types.LandUseVacantCommercial:  {"10"},
		types.LandUseSingleFamily:      {"01"},
		types.LandUseMultifamily:       {"03", "04", "08"},
		types.LandUseCommercial:        {"11", "12", "13", "14", "15", "16", "17"},
		types.LandUseIndustrial:        {"41", "42", "48", "49"},
		types.LandUseAgricultural:      {"50", "51", "54", "55", "56", "57", "58", "59", "60"},
	},
	types.CountyPalmBeach: {
		types.LandUseVacantResidential: {"00"},
		types.LandUseVacantCommercial:  {"10"},
		types.LandUseSingleFamily:      {"01", "02"},
		types.LandUseMultifamily:       {"03", "04", "08"},
		types.LandUseCommercial:        {"11", "12", "13", "14", "15", "16", "17"},
		types.LandUseIndustrial:        {"41", "42", "48", "49"},
		types.LandUseAgricultural:      {"50", "51", "54", "55", "56", "57", "58", "59", "60"},
	},
}

// Broward stores 2-letter city codes in SITUS_CITY instead of full names.
var browardCityCodes = map[string]string{
	"coconut creek":         "CK",
	"cooper city":           "CY",
	"coral springs":         "CS",
	"dania beach":           "DN",
	"dania":                 "DN",
	"davie":                 "DV",
	"deerfield beach":       "DB",
	"fort lauderdale":       "FL",
	"hallandale beach":      "HA",
	"hallandale":            "HA",
	"hillsboro beach":       "HB",
	"hollywood":             "HW",
	"lauderdale lakes":      "LP",
	"lauderdale-by-the-sea": "LS",
	"lauderhill":            "LL",
	"lazy lake":             "LZ",
	"lighthouse point":      "LH",
	"margate":               "MG",
	"miramar":               "MM",
	"north lauderdale":      "NL",
	"oakland park":          "OP",
	"parkland":              "PK",
	"pembroke park":         "PI",
	"pembroke pines":        "PB",
	"plantation":            "PL",
	"pompano beach":         "PA",
	"sea ranch lakes":       "SL",
	"southwest ranches":     "SW",
	"sunrise":               "SU",
	"tamarac":               "TM",
	"west park":             "WP",
	"weston":                "WM",
	"wilton manors":         "WS",
}

// browardCityNames is the reverse mapping, code to display name. Codes with
// two spellings ("Dania"/"Dania Beach") resolve to the alphabetically first
// name so the mapping is deterministic.
var browardCityNames = func() map[string]string {
	names := make([]string, 0, len(browardCityCodes))
	for name := range browardCityCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	m := make(map[string]string, len(names))
	for _, name := range names {
		code := browardCityCodes[name]
		if _, ok := m[code]; !ok {
			m[code] = titleCase(name)
		}
	}
	return m
}()

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		parts := strings.Split(w, "-")
		for j, p := range parts {
			if p == "" {
				continue
			}
			parts[j] = strings.ToUpper(p[:1]) + p[1:]
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

// BrowardCityCode returns the 2-letter SITUS_CITY code for a city name, or
// "" when the name is unknown.
func BrowardCityCode(city string) string {
	return browardCityCodes[strings.ToLower(strings.TrimSpace(city))]
}

// BrowardCityName reverse-maps a 2-letter code to a display name. Unknown
// codes are returned unchanged.
func BrowardCityName(code string) string {
	if name, ok := browardCityNames[code]; ok {
		return name
	}
	return code
}
