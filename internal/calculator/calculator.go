// Package calculator computes the maximum allowable dwelling units for a lot
// from numeric zoning parameters. Pure functions, no I/O.
//
// Four constraints are evaluated independently when their inputs are
// present: density (units/acre), minimum lot area per unit, floor area
// ratio, and the buildable envelope after setbacks. The governing constraint
// is whichever yields the fewest units. Any constraint that applies at all
// allows at least one unit.
package calculator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/lotscope/lotscope/pkg/types"
)

// SqftPerAcre is the conversion factor between acres and square feet.
const SqftPerAcre = 43560.0

var dimensionsPattern = regexp.MustCompile(`(?i)([\d.]+)\s*x\s*([\d.]+)`)

// ParseLotDimensions parses a dimensions string like "75 x 100" into width
// and depth in feet. ok is false when the string has no such pair.
func ParseLotDimensions(dims string) (width, depth float64, ok bool) {
	m := dimensionsPattern.FindStringSubmatch(dims)
	if m == nil {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(m[1], 64)
	d, errD := strconv.ParseFloat(m[2], 64)
	if errW != nil || errD != nil {
		return 0, 0, false
	}
	return w, d, true
}

// CalculateMaxUnits evaluates every applicable constraint for the lot and
// returns the analysis with the governing (minimum) constraint marked.
// Pass lotWidthFt/lotDepthFt as 0 when unknown; the buildable-envelope
// constraint is then skipped.
//
// A non-positive lot size yields the no_lot_data sentinel; zero evaluable
// constraints yields insufficient_data. Both sentinels carry max_units 0
// and explanatory notes instead of an error.
func CalculateMaxUnits(lotSizeSqft float64, params types.NumericZoningParams, lotWidthFt, lotDepthFt float64) types.DensityAnalysis {
	if lotSizeSqft <= 0 {
		return types.DensityAnalysis{
			MaxUnits:            0,
			GoverningConstraint: types.GoverningNoLotData,
			LotSizeSqft:         lotSizeSqft,
			Notes:               []string{"Lot size is zero or negative; cannot calculate."},
		}
	}

	var constraints []types.ConstraintResult
	var notes []string

	if params.MaxDensityUnitsPerAcre > 0 {
		lotAcres := lotSizeSqft / SqftPerAcre
		raw := params.MaxDensityUnitsPerAcre * lotAcres
		constraints = append(constraints, types.ConstraintResult{
			Name:     types.ConstraintDensity,
			MaxUnits: unitsFloor(raw),
			RawValue: raw,
			Formula: fmt.Sprintf("%g units/acre x %.4f acres = %.2f",
				params.MaxDensityUnitsPerAcre, lotAcres, raw),
		})
	}

	if params.MinLotAreaPerUnitSqft > 0 {
		raw := lotSizeSqft / params.MinLotAreaPerUnitSqft
		constraints = append(constraints, types.ConstraintResult{
			Name:     types.ConstraintMinLotArea,
			MaxUnits: unitsFloor(raw),
			RawValue: raw,
			Formula: fmt.Sprintf("%s sqft / %s sqft/unit = %.2f",
				commas(lotSizeSqft), commas(params.MinLotAreaPerUnitSqft), raw),
		})
	}

	if params.FloorAreaRatio > 0 && params.MinUnitSizeSqft > 0 {
		maxBuildingSqft := params.FloorAreaRatio * lotSizeSqft
		raw := maxBuildingSqft / params.MinUnitSizeSqft
		constraints = append(constraints, types.ConstraintResult{
			Name:     types.ConstraintFloorAreaRatio,
			MaxUnits: unitsFloor(raw),
			RawValue: raw,
			Formula: fmt.Sprintf("FAR %g x %s sqft = %s sqft / %s sqft/unit = %.2f",
				params.FloorAreaRatio, commas(lotSizeSqft), commas(maxBuildingSqft),
				commas(params.MinUnitSizeSqft), raw),
		})
	}

	buildableSqft := buildableArea(lotWidthFt, lotDepthFt, params, &notes)
	if buildableSqft != nil && *buildableSqft > 0 && params.MinUnitSizeSqft > 0 {
		stories := params.MaxStories
		if stories <= 0 {
			stories = 1
		}
		totalFloorArea := *buildableSqft * float64(stories)
		raw := totalFloorArea / params.MinUnitSizeSqft
		constraints = append(constraints, types.ConstraintResult{
			Name:     types.ConstraintBuildableEnvelope,
			MaxUnits: unitsFloor(raw),
			RawValue: raw,
			Formula: fmt.Sprintf("(%s sqft buildable x %d stories) / %s sqft/unit = %.2f",
				commas(*buildableSqft), stories, commas(params.MinUnitSizeSqft), raw),
		})
	}

	analysis := types.DensityAnalysis{
		LotSizeSqft:       lotSizeSqft,
		BuildableAreaSqft: buildableSqft,
		LotWidthFt:        optionalDim(lotWidthFt),
		LotDepthFt:        optionalDim(lotDepthFt),
		Notes:             notes,
	}

	if len(constraints) == 0 {
		analysis.GoverningConstraint = types.GoverningInsufficientData
		analysis.Confidence = types.ConfidenceLow
		analysis.Notes = append(analysis.Notes, "No numeric zoning parameters available for calculation.")
		return analysis
	}

	// First minimum wins on ties, in evaluation order.
	governing := 0
	for i := 1; i < len(constraints); i++ {
		if constraints[i].MaxUnits < constraints[governing].MaxUnits {
			governing = i
		}
	}
	constraints[governing].IsGoverning = true

	switch {
	case len(constraints) >= 3:
		analysis.Confidence = types.ConfidenceHigh
	case len(constraints) == 2:
		analysis.Confidence = types.ConfidenceMedium
	default:
		analysis.Confidence = types.ConfidenceLow
	}

	analysis.MaxUnits = constraints[governing].MaxUnits
	analysis.GoverningConstraint = constraints[governing].Name
	analysis.Constraints = constraints
	return analysis
}

// buildableArea returns the lot area remaining after setbacks, nil when
// dimensions are unknown. Setbacks that consume the whole lot yield 0 with
// an explanatory note; the side setback applies to both sides.
func buildableArea(lotWidthFt, lotDepthFt float64, params types.NumericZoningParams, notes *[]string) *float64 {
	if lotWidthFt <= 0 || lotDepthFt <= 0 {
		return nil
	}

	front := math.Max(params.SetbackFrontFt, 0)
	rear := math.Max(params.SetbackRearFt, 0)
	side := math.Max(params.SetbackSideFt, 0)

	buildableWidth := lotWidthFt - 2*side
	buildableDepth := lotDepthFt - front - rear

	if buildableWidth <= 0 || buildableDepth <= 0 {
		*notes = append(*notes, fmt.Sprintf(
			"Setbacks (%g' front, %g' rear, %g' each side) exceed lot dimensions (%g' x %g').",
			front, rear, side, lotWidthFt, lotDepthFt))
		zero := 0.0
		return &zero
	}

	area := buildableWidth * buildableDepth
	return &area
}

// unitsFloor floors the raw unit count but never below one: a constraint
// that applies at all allows at least a single unit.
func unitsFloor(raw float64) int {
	n := int(math.Floor(raw))
	if n < 1 {
		return 1
	}
	return n
}

func commas(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func optionalDim(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
