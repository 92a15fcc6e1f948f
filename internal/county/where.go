package county

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lotscope/lotscope/pkg/types"
)

// SqftPerAcre converts between the two lot-size units the counties use.
const SqftPerAcre = 43560.0

// BuildWhereClause translates structured search parameters into a
// county-specific ArcGIS WHERE clause. Pure function: no I/O.
//
// Conditions are AND-joined; zero conditions yields the tautology "1=1" so
// the upstream query is always syntactically valid. A filter whose county
// field does not exist is silently skipped. An unknown county or an
// unparseable max-sale-date is an error.
func BuildWhereClause(params types.PropertySearchParams) (string, FieldMap, error) {
	fm, err := FieldMapFor(string(params.County))
	if err != nil {
		return "", FieldMap{}, err
	}

	var conditions []string

	if params.LandUseCategory != "" {
		codes := landUseCodes[fm.County][params.LandUseCategory]
		if len(codes) == 1 {
			conditions = append(conditions, fmt.Sprintf("%s='%s'", fm.LandUseCode, codes[0]))
		} else if len(codes) > 1 {
			quoted := make([]string, len(codes))
			for i, c := range codes {
				quoted[i] = "'" + c + "'"
			}
			conditions = append(conditions, fmt.Sprintf("%s IN (%s)", fm.LandUseCode, strings.Join(quoted, ",")))
		}
	}

	if params.City != "" {
		if fm.County == types.CountyBroward {
			if code := BrowardCityCode(params.City); code != "" {
				conditions = append(conditions, fmt.Sprintf("%s='%s'", fm.City, code))
			} else {
				// Caller may already have the 2-letter code.
				conditions = append(conditions, fmt.Sprintf("%s='%s'", fm.City, strings.ToUpper(strings.TrimSpace(params.City))))
			}
		} else {
			conditions = append(conditions, fmt.Sprintf("%s='%s'", fm.City, strings.ToUpper(strings.TrimSpace(params.City))))
		}
	}

	if params.MaxSaleDate != "" && fm.SaleDate != "" {
		dt, err := time.Parse("2006-01-02", params.MaxSaleDate)
		if err != nil {
			return "", FieldMap{}, fmt.Errorf("invalid max_sale_date %q: %w", params.MaxSaleDate, err)
		}
		switch fm.SaleDateFormat {
		case SaleDateYYYYMMDD:
			conditions = append(conditions, fmt.Sprintf("%s<'%s'", fm.SaleDate, dt.Format("20060102")))
		case SaleDateEpochMs:
			conditions = append(conditions, fmt.Sprintf("%s<%d", fm.SaleDate, dt.UTC().UnixMilli()))
		}
	}

	if params.MinLotSizeSqft != nil && fm.LotSize != "" {
		conditions = append(conditions, lotSizeCondition(fm, ">=", *params.MinLotSizeSqft))
	}
	if params.MaxLotSizeSqft != nil && fm.LotSize != "" {
		conditions = append(conditions, lotSizeCondition(fm, "<=", *params.MaxLotSizeSqft))
	}

	if params.MinSalePrice != nil && fm.SalePrice != "" {
		conditions = append(conditions, fm.SalePrice+">="+formatNumber(*params.MinSalePrice))
	}
	if params.MaxSalePrice != nil && fm.SalePrice != "" {
		conditions = append(conditions, fm.SalePrice+"<="+formatNumber(*params.MaxSalePrice))
	}

	if params.MinAssessedValue != nil && fm.AssessedValue != "" {
		conditions = append(conditions, fm.AssessedValue+">="+formatNumber(*params.MinAssessedValue))
	}
	if params.MaxAssessedValue != nil && fm.AssessedValue != "" {
		conditions = append(conditions, fm.AssessedValue+"<="+formatNumber(*params.MaxAssessedValue))
	}

	if params.YearBuiltBefore != nil && fm.YearBuilt != "" {
		conditions = append(conditions, fmt.Sprintf("%s<%d", fm.YearBuilt, *params.YearBuiltBefore))
	}
	if params.YearBuiltAfter != nil && fm.YearBuilt != "" {
		conditions = append(conditions, fmt.Sprintf("%s>%d", fm.YearBuilt, *params.YearBuiltAfter))
	}

	if params.OwnerNameContains != "" && fm.OwnerName != "" {
		name := strings.ToUpper(strings.TrimSpace(params.OwnerNameContains))
		conditions = append(conditions, fmt.Sprintf("%s LIKE '%%%s%%'", fm.OwnerName, name))
	}

	if len(conditions) == 0 {
		return "1=1", fm, nil
	}
	return strings.Join(conditions, " AND "), fm, nil
}

// lotSizeCondition emits a lot-size comparison, converting the caller's
// square-foot bound to acres at fixed 4-decimal precision for the acre
// county.
func lotSizeCondition(fm FieldMap, op string, sqft float64) string {
	if fm.LotSizeUnit == LotSizeAcres {
		return fmt.Sprintf("%s%s%.4f", fm.LotSize, op, sqft/SqftPerAcre)
	}
	return fm.LotSize + op + formatNumber(sqft)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
