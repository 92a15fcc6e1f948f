package types

// NumericZoningParams holds the numeric zoning parameters extracted from an
// ordinance for one zone. A field that is zero or negative is treated as
// absent; every field is optional.
type NumericZoningParams struct {
	MaxDensityUnitsPerAcre float64 `json:"max_density_units_per_acre,omitempty"`
	MinLotAreaPerUnitSqft  float64 `json:"min_lot_area_per_unit_sqft,omitempty"`
	FloorAreaRatio         float64 `json:"floor_area_ratio,omitempty"`
	MaxLotCoveragePct      float64 `json:"max_lot_coverage_pct,omitempty"`
	MaxHeightFt            float64 `json:"max_height_ft,omitempty"`
	MaxStories             int     `json:"max_stories,omitempty"`
	SetbackFrontFt         float64 `json:"setback_front_ft,omitempty"`
	SetbackSideFt          float64 `json:"setback_side_ft,omitempty"`
	SetbackRearFt          float64 `json:"setback_rear_ft,omitempty"`
	MinUnitSizeSqft        float64 `json:"min_unit_size_sqft,omitempty"`
	MinLotWidthFt          float64 `json:"min_lot_width_ft,omitempty"`
	ParkingSpacesPerUnit   float64 `json:"parking_spaces_per_unit,omitempty"`
}

// Constraint names used in density analyses.
const (
	ConstraintDensity           = "density"
	ConstraintMinLotArea        = "min_lot_area"
	ConstraintFloorAreaRatio    = "floor_area_ratio"
	ConstraintBuildableEnvelope = "buildable_envelope"
)

// Sentinel governing-constraint values for analyses that could not compute
// any constraint.
const (
	GoverningNoLotData        = "no_lot_data"
	GoverningInsufficientData = "insufficient_data"
)

// Confidence grades a density analysis by how many independent constraints
// agreed on it.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConstraintResult is the outcome of evaluating a single zoning constraint.
type ConstraintResult struct {
	Name        string  `json:"name"`
	MaxUnits    int     `json:"max_units"`
	RawValue    float64 `json:"raw_value"`
	Formula     string  `json:"formula"`
	IsGoverning bool    `json:"is_governing"`
}

// DensityAnalysis is the full output of the density calculator for one lot.
type DensityAnalysis struct {
	MaxUnits            int                `json:"max_units"`
	GoverningConstraint string             `json:"governing_constraint"`
	Constraints         []ConstraintResult `json:"constraints"`
	LotSizeSqft         float64            `json:"lot_size_sqft"`
	BuildableAreaSqft   *float64           `json:"buildable_area_sqft,omitempty"`
	LotWidthFt          *float64           `json:"lot_width_ft,omitempty"`
	LotDepthFt          *float64           `json:"lot_depth_ft,omitempty"`
	Confidence          Confidence         `json:"confidence"`
	Notes               []string           `json:"notes,omitempty"`
}
