package types

// County identifies a supported South Florida county.
type County string

const (
	CountyMiamiDade County = "Miami-Dade"
	CountyBroward   County = "Broward"
	CountyPalmBeach County = "Palm Beach"
)

// LandUseCategory is a normalized land-use bucket that maps to county-specific
// DOR code sets.
type LandUseCategory string

const (
	LandUseVacantResidential LandUseCategory = "vacant_residential"
	LandUseVacantCommercial  LandUseCategory = "vacant_commercial"
	LandUseSingleFamily      LandUseCategory = "single_family"
	LandUseMultifamily       LandUseCategory = "multifamily"
	LandUseCommercial        LandUseCategory = "commercial"
	LandUseIndustrial        LandUseCategory = "industrial"
	LandUseAgricultural      LandUseCategory = "agricultural"
)

// PropertySearchParams describes a bulk property search. Zero values mean
// "not specified"; optional numeric bounds are pointers so that zero is a
// legal bound.
type PropertySearchParams struct {
	County          County
	LandUseCategory LandUseCategory
	City            string

	// MaxSaleDate is an ISO-8601 date (YYYY-MM-DD). Properties whose last
	// sale is on or before this date match. Ignored for counties whose
	// upstream schema has no sale-date field.
	MaxSaleDate string

	MinLotSizeSqft   *float64
	MaxLotSizeSqft   *float64
	MinSalePrice     *float64
	MaxSalePrice     *float64
	MinAssessedValue *float64
	MaxAssessedValue *float64
	YearBuiltBefore  *int
	YearBuiltAfter   *int

	// OwnerNameContains matches owner names by case-insensitive substring.
	OwnerNameContains string

	// MaxResults caps the total records fetched across pages. Defaults to
	// 500, hard-capped at 2000.
	MaxResults int
}

// PropertyRecord is a property normalized to a single schema regardless of
// which county produced it. Numeric fields default to 0 and strings to ""
// when the upstream record lacks them; Lat/Lng are nil when no geometry was
// returned.
type PropertyRecord struct {
	Folio         string   `json:"folio"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	County        County   `json:"county"`
	Owner         string   `json:"owner"`
	LandUseCode   string   `json:"land_use_code"`
	LotSizeSqft   float64  `json:"lot_size_sqft"`
	YearBuilt     int      `json:"year_built"`
	AssessedValue float64  `json:"assessed_value"`
	LastSalePrice float64  `json:"last_sale_price"`
	LastSaleDate  string   `json:"last_sale_date"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`

	// Populated by single-property lookups, empty in bulk results.
	ZoningCode        string `json:"zoning_code,omitempty"`
	ZoningDescription string `json:"zoning_description,omitempty"`
	LotDimensions     string `json:"lot_dimensions,omitempty"`
}
