package county

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotscope/lotscope/pkg/types"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestFieldMapFor(t *testing.T) {
	tests := []struct {
		name    string
		county  string
		want    types.County
		wantErr bool
	}{
		{"exact", "Miami-Dade", types.CountyMiamiDade, false},
		{"no hyphen", "miami dade", types.CountyMiamiDade, false},
		{"lowercase", "broward", types.CountyBroward, false},
		{"padded", "  Palm Beach  ", types.CountyPalmBeach, false},
		{"unsupported", "Orange", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, err := FieldMapFor(tt.county)
			if tt.wantErr {
				require.Error(t, err)
				var ucErr *types.UnsupportedCountyError
				require.ErrorAs(t, err, &ucErr)
				assert.Contains(t, ucErr.Error(), "Miami-Dade, Broward, Palm Beach")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, fm.County)
		})
	}
}

func TestBuildWhereClauseEmpty(t *testing.T) {
	where, fm, err := BuildWhereClause(types.PropertySearchParams{County: types.CountyMiamiDade})
	require.NoError(t, err)
	assert.Equal(t, "1=1", where)
	assert.Equal(t, types.CountyMiamiDade, fm.County)
}

func TestBuildWhereClauseLandUse(t *testing.T) {
	where, _, err := BuildWhereClause(types.PropertySearchParams{
		County:          types.CountyMiamiDade,
		LandUseCategory: types.LandUseVacantResidential,
	})
	require.NoError(t, err)
	assert.Equal(t, "DOR_CODE_CUR='0000'", where)

	where, _, err = BuildWhereClause(types.PropertySearchParams{
		County:          types.CountyMiamiDade,
		LandUseCategory: types.LandUseSingleFamily,
	})
	require.NoError(t, err)
	assert.Equal(t, "DOR_CODE_CUR IN ('0101','0102')", where)
}

func TestBuildWhereClauseBrowardCityCode(t *testing.T) {
	where, _, err := BuildWhereClause(types.PropertySearchParams{
		County: types.CountyBroward,
		City:   "Miramar",
	})
	require.NoError(t, err)
	assert.Equal(t, "SITUS_CITY='MM'", where)

	// Callers may pass the 2-letter code directly.
	where, _, err = BuildWhereClause(types.PropertySearchParams{
		County: types.CountyBroward,
		City:   "mm",
	})
	require.NoError(t, err)
	assert.Equal(t, "SITUS_CITY='MM'", where)
}

func TestBuildWhereClauseSaleDate(t *testing.T) {
	// Miami-Dade stores dates as 8-digit strings.
	where, _, err := BuildWhereClause(types.PropertySearchParams{
		County:      types.CountyMiamiDade,
		MaxSaleDate: "2006-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "DOS_1<'20060101'", where)

	// Palm Beach stores dates as epoch milliseconds.
	where, _, err = BuildWhereClause(types.PropertySearchParams{
		County:      types.CountyPalmBeach,
		MaxSaleDate: "2006-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "SALE_DATE<1136073600000", where)

	// Broward has no sale-date field; the filter is dropped silently.
	where, _, err = BuildWhereClause(types.PropertySearchParams{
		County:      types.CountyBroward,
		MaxSaleDate: "2006-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "1=1", where)
}

func TestBuildWhereClauseInvalidSaleDate(t *testing.T) {
	_, _, err := BuildWhereClause(types.PropertySearchParams{
		County:      types.CountyMiamiDade,
		MaxSaleDate: "01/01/2006",
	})
	require.Error(t, err)
}

func TestBuildWhereClauseLotSizeAcresConversion(t *testing.T) {
	where, _, err := BuildWhereClause(types.PropertySearchParams{
		County:         types.CountyPalmBeach,
		MinLotSizeSqft: floatPtr(21780),
	})
	require.NoError(t, err)
	assert.Equal(t, "ACRES>=0.5000", where)

	// Sqft county passes the bound through unchanged.
	where, _, err = BuildWhereClause(types.PropertySearchParams{
		County:         types.CountyMiamiDade,
		MinLotSizeSqft: floatPtr(10000),
	})
	require.NoError(t, err)
	assert.Equal(t, "LOT_SIZE>=10000", where)

	// Broward has no lot-size field.
	where, _, err = BuildWhereClause(types.PropertySearchParams{
		County:         types.CountyBroward,
		MinLotSizeSqft: floatPtr(10000),
	})
	require.NoError(t, err)
	assert.Equal(t, "1=1", where)
}

func TestBuildWhereClauseOwnerName(t *testing.T) {
	where, _, err := BuildWhereClause(types.PropertySearchParams{
		County:            types.CountyMiamiDade,
		OwnerNameContains: "smith",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRUE_OWNER1 LIKE '%SMITH%'", where)
}

func TestBuildWhereClauseCombined(t *testing.T) {
	where, _, err := BuildWhereClause(types.PropertySearchParams{
		County:           types.CountyMiamiDade,
		LandUseCategory:  types.LandUseVacantResidential,
		City:             "Miami",
		MaxSaleDate:      "2006-01-01",
		MinLotSizeSqft:   floatPtr(5000),
		MaxAssessedValue: floatPtr(500000),
		YearBuiltBefore:  intPtr(1990),
	})
	require.NoError(t, err)

	parts := strings.Split(where, " AND ")
	assert.Equal(t, []string{
		"DOR_CODE_CUR='0000'",
		"TRUE_SITE_CITY='MIAMI'",
		"DOS_1<'20060101'",
		"LOT_SIZE>=5000",
		"ASSESSED_VAL_CUR<=500000",
		"YEAR_BUILT<1990",
	}, parts)
}
