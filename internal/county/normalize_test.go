package county

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotscope/lotscope/pkg/types"
)

func TestNormalizeMiamiDade(t *testing.T) {
	attrs := map[string]any{
		"FOLIO":            "0131230123450",
		"TRUE_SITE_ADDR":   "171 NE 209 TER",
		"TRUE_SITE_CITY":   "MIAMI",
		"TRUE_OWNER1":      "JANE DOE",
		"DOR_CODE_CUR":     "0101",
		"LOT_SIZE":         7512.34,
		"YEAR_BUILT":       float64(1978),
		"ASSESSED_VAL_CUR": float64(250000),
		"PRICE_1":          float64(310000),
		"DOS_1":            "20060101",
	}
	rec := Normalize(attrs, &Geometry{X: -80.2, Y: 25.96}, miamiDadeFields)

	assert.Equal(t, "0131230123450", rec.Folio)
	assert.Equal(t, "171 NE 209 TER", rec.Address)
	assert.Equal(t, types.CountyMiamiDade, rec.County)
	assert.Equal(t, 7512.3, rec.LotSizeSqft)
	assert.Equal(t, 1978, rec.YearBuilt)
	assert.Equal(t, "2006-01-01", rec.LastSaleDate)
	require.NotNil(t, rec.Lat)
	require.NotNil(t, rec.Lng)
	assert.InDelta(t, 25.96, *rec.Lat, 1e-9)
	assert.InDelta(t, -80.2, *rec.Lng, 1e-9)
}

func TestNormalizeBrowardCompositeAddress(t *testing.T) {
	attrs := map[string]any{
		"FOLIO_NUMBER":           "514228010010",
		"SITUS_STREET_NUMBER":    "2301",
		"SITUS_STREET_DIRECTION": "NW",
		"SITUS_STREET_NAME":      "107TH",
		"SITUS_STREET_TYPE":      "AVE",
		"SITUS_CITY":             "MM",
		"NAME_LINE_1":            "ACME HOLDINGS LLC",
		"USE_CODE":               "01",
		"BLDG_YEAR_BUILT":        float64(1995),
		"JUST_BUILDING_VALUE":    "$185,000",
	}
	rec := Normalize(attrs, nil, browardFields)

	assert.Equal(t, "2301 NW 107TH AVE", rec.Address)
	assert.Equal(t, "Miramar", rec.City)
	assert.Equal(t, 185000.0, rec.AssessedValue)
	assert.Equal(t, 0.0, rec.LotSizeSqft)
	assert.Equal(t, "", rec.LastSaleDate)
	assert.Nil(t, rec.Lat)
	assert.Nil(t, rec.Lng)
}

func TestNormalizePalmBeachAcresAndEpoch(t *testing.T) {
	attrs := map[string]any{
		"PARCEL_NUMBER": "00424712340000010",
		"SITE_ADDR_STR": "100 WORTH AVE",
		"MUNICIPALITY":  "PALM BEACH",
		"OWNER_NAME1":   "TRUST 100",
		"PROPERTY_USE":  "01",
		"YRBLT":         "1960",
		"ACRES":         0.5,
		"ASSESSED_VAL":  float64(1200000),
		"PRICE":         float64(2500000),
		"SALE_DATE":     float64(1136073600000),
	}
	rec := Normalize(attrs, nil, palmBeachFields)

	assert.InEpsilon(t, 21780.0, rec.LotSizeSqft, 0.01)
	assert.Equal(t, 1960, rec.YearBuilt)
	assert.Equal(t, "2006-01-01", rec.LastSaleDate)
}

func TestNormalizeDefaults(t *testing.T) {
	rec := Normalize(map[string]any{}, nil, miamiDadeFields)

	assert.Equal(t, "", rec.Folio)
	assert.Equal(t, "", rec.Address)
	assert.Equal(t, "", rec.Owner)
	assert.Equal(t, 0.0, rec.LotSizeSqft)
	assert.Equal(t, 0, rec.YearBuilt)
	assert.Equal(t, 0.0, rec.AssessedValue)
	assert.Equal(t, 0.0, rec.LastSalePrice)
	assert.Equal(t, "", rec.LastSaleDate)
	assert.Nil(t, rec.Lat)
	assert.Nil(t, rec.Lng)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"171 NE 209th Ter, Miami, FL 33179", "171 NE 209 TER"},
		{"1 SW 1st St.", "1 SW 1 ST"},
		{"500 Main Street", "500 MAIN STREET"},
		{"22nd Ave", "22 AVE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAddress(tt.in), tt.in)
	}
}

func TestParseLotDimensions(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"LOT SIZE 75.000 X 100", "75 x 100"},
		{"LOT SIZE 75.500 X 110.250", "75.5 x 110.25"},
		{"BLK 3 PB 40-12", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLotDimensions(tt.in), tt.in)
	}
}

func TestSafeFloat(t *testing.T) {
	assert.Equal(t, 185000.0, safeFloat("$185,000"))
	assert.Equal(t, 0.0, safeFloat("N/A"))
	assert.Equal(t, 0.0, safeFloat(nil))
	assert.Equal(t, 12.5, safeFloat(12.5))
}

func TestBrowardCityNames(t *testing.T) {
	assert.Equal(t, "MM", BrowardCityCode("Miramar"))
	assert.Equal(t, "Miramar", BrowardCityName("MM"))
	assert.Equal(t, "Lauderdale-By-The-Sea", BrowardCityName("LS"))
	assert.Equal(t, "XX", BrowardCityName("XX"))
}
