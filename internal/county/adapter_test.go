package county

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotscope/lotscope/pkg/types"
)

func featurePage(n int, startFolio int) map[string]any {
	features := make([]map[string]any, n)
	for i := range features {
		features[i] = map[string]any{
			"attributes": map[string]any{
				"FOLIO":          fmt.Sprintf("%013d", startFolio+i),
				"TRUE_SITE_ADDR": "100 TEST ST",
				"TRUE_SITE_CITY": "MIAMI",
				"LOT_SIZE":       5000.0,
			},
		}
	}
	return map[string]any{"features": features}
}

func TestBulkSearchPagination(t *testing.T) {
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("resultOffset"))
		count, _ := strconv.Atoi(r.URL.Query().Get("resultRecordCount"))
		offsets = append(offsets, offset)
		n := count
		if offset >= 1500 {
			n = 0 // exhausted
		} else if offset+count > 1500 {
			n = 1500 - offset
		}
		_ = json.NewEncoder(w).Encode(featurePage(n, offset))
	}))
	defer srv.Close()

	adapter := NewAdapter(NewClient(), Endpoints{MiamiDadeProperty: srv.URL})
	records, err := adapter.BulkSearch(context.Background(), types.PropertySearchParams{
		County:     types.CountyMiamiDade,
		MaxResults: 2500, // above the hard cap
	})
	require.NoError(t, err)
	// 1500 matching rows, capped pages of 1000 then 500.
	assert.Len(t, records, 1500)
	assert.Equal(t, []int{0, 1000}, offsets)
}

func TestBulkSearchPartialResultsOnFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(featurePage(1000, 0))
	}))
	defer srv.Close()

	adapter := NewAdapter(NewClient(), Endpoints{MiamiDadeProperty: srv.URL})
	records, err := adapter.BulkSearch(context.Background(), types.PropertySearchParams{
		County:     types.CountyMiamiDade,
		MaxResults: 2000,
	})
	require.NoError(t, err)
	assert.Len(t, records, 1000)
}

func TestBulkSearchBrowardOrderBy(t *testing.T) {
	var sawOrderBy string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawOrderBy = r.URL.Query().Get("orderByFields")
		_ = json.NewEncoder(w).Encode(map[string]any{"features": []any{}})
	}))
	defer srv.Close()

	adapter := NewAdapter(NewClient(), Endpoints{BrowardProperty: srv.URL})
	_, err := adapter.BulkSearch(context.Background(), types.PropertySearchParams{County: types.CountyBroward})
	require.NoError(t, err)
	assert.Equal(t, "FOLIO_NUMBER", sawOrderBy)
}

func TestBulkSearchUnsupportedCounty(t *testing.T) {
	adapter := NewAdapter(NewClient(), Endpoints{})
	_, err := adapter.BulkSearch(context.Background(), types.PropertySearchParams{County: "Orange"})
	var ucErr *types.UnsupportedCountyError
	require.ErrorAs(t, err, &ucErr)
}

func TestClientSurfacesArcGISError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "Unable to complete operation."},
		})
	}))
	defer srv.Close()

	_, err := NewClient().Query(context.Background(), srv.URL, attributeParams("1=1", "*"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestLookupMiamiDadeWithZoningFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/property", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"features": []map[string]any{{
				"attributes": map[string]any{
					"FOLIO":          "0131230123450",
					"TRUE_SITE_ADDR": "171 NE 209 TER",
					"TRUE_SITE_CITY": "MIAMI",
					"LOT_SIZE":       7500.0,
					"LEGAL":          "LOT SIZE 75.000 X 100",
				},
				"geometry": map[string]any{"x": -80.2, "y": 25.96},
			}},
		})
	})
	mux.HandleFunc("/municipal", func(w http.ResponseWriter, r *http.Request) {
		// Municipal layer reports NONE for unincorporated areas.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"features": []map[string]any{{"attributes": map[string]any{"ZONE": "NONE"}}},
		})
	})
	mux.HandleFunc("/unincorporated", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"features": []map[string]any{{
				"attributes": map[string]any{"ZONE": " RU-1 ", "ZONE_DESC": "SINGLE FAMILY RESIDENTIAL"},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewAdapter(NewClient(), Endpoints{
		MiamiDadeProperty:             srv.URL + "/property",
		MiamiDadeMunicipalZoning:      srv.URL + "/municipal",
		MiamiDadeUnincorporatedZoning: srv.URL + "/unincorporated",
	})

	rec, err := adapter.Lookup(context.Background(), "171 NE 209th Ter, Miami, FL 33179", "miami-dade", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "RU-1", rec.ZoningCode)
	assert.Equal(t, "SINGLE FAMILY RESIDENTIAL", rec.ZoningDescription)
	assert.Equal(t, "75 x 100", rec.LotDimensions)
	require.NotNil(t, rec.Lat)
	assert.InDelta(t, 25.96, *rec.Lat, 1e-9)
}

func TestLookupBrowardParcelArea(t *testing.T) {
	var propertyWhere string
	mux := http.NewServeMux()
	mux.HandleFunc("/property", func(w http.ResponseWriter, r *http.Request) {
		propertyWhere = r.URL.Query().Get("where")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"features": []map[string]any{{
				"attributes": map[string]any{
					"FOLIO_NUMBER":           "514228010010",
					"SITUS_STREET_NUMBER":    "2301",
					"SITUS_STREET_DIRECTION": "NW",
					"SITUS_STREET_NAME":      "107TH",
					"SITUS_STREET_TYPE":      "AVE",
					"SITUS_CITY":             "MM",
				},
			}},
		})
	})
	mux.HandleFunc("/parcels", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"features": []map[string]any{{
				"attributes": map[string]any{"Shape__Area": 8432.7},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewAdapter(NewClient(), Endpoints{
		BrowardProperty: srv.URL + "/property",
		BrowardParcels:  srv.URL + "/parcels",
	})

	rec, err := adapter.Lookup(context.Background(), "2301 NW 107th Ave, Miramar, FL", "Broward", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "SITUS_STREET_NUMBER='2301' AND SITUS_STREET_NAME LIKE '%107%'", propertyWhere)
	assert.Equal(t, "2301 NW 107TH AVE", rec.Address)
	assert.Equal(t, "Miramar", rec.City)
	assert.Equal(t, 8432.7, rec.LotSizeSqft)
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"features": []any{}})
	}))
	defer srv.Close()

	adapter := NewAdapter(NewClient(), Endpoints{PalmBeachProperty: srv.URL})
	_, err := adapter.Lookup(context.Background(), "1 Nowhere Rd", "Palm Beach", 0, 0)
	require.ErrorIs(t, err, ErrNotFound)
}
