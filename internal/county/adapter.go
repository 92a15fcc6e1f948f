package county

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/lotscope/lotscope/pkg/types"
)

// ErrNotFound is returned by Lookup when no property matches the address.
var ErrNotFound = errors.New("property not found")

// Pagination limits for bulk searches.
const (
	defaultMaxResults = 500
	hardMaxResults    = 2000
	pageSize          = 1000 // typical ArcGIS server maximum per request
)

// Endpoints holds the ArcGIS query URLs for every county layer the adapter
// talks to. Overridable so tests can point at a local server.
type Endpoints struct {
	MiamiDadeProperty             string
	MiamiDadeMunicipalZoning      string
	MiamiDadeUnincorporatedZoning string
	BrowardProperty               string
	BrowardParcels                string
	BrowardZoning                 string
	PalmBeachProperty             string
	PalmBeachZoning               string
}

// DefaultEndpoints returns the public county Property Appraiser services.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		MiamiDadeProperty:             "https://services.arcgis.com/8Pc9XBTAsYuxx9Ny/ArcGIS/rest/services/PaGISView_gdb/FeatureServer/0/query",
		MiamiDadeMunicipalZoning:      "https://gisweb.miamidade.gov/arcgis/rest/services/LandManagement/MD_Zoning/MapServer/2/query",
		MiamiDadeUnincorporatedZoning: "https://gisweb.miamidade.gov/arcgis/rest/services/LandManagement/MD_Zoning/MapServer/1/query",
		BrowardProperty:               "https://gisweb-adapters.bcpa.net/arcgis/rest/services/BCPA_EXTERNAL_JAN26/MapServer/36/query",
		BrowardParcels:                "https://gisweb-adapters.bcpa.net/arcgis/rest/services/BCPA_EXTERNAL_JAN26/MapServer/16/query",
		BrowardZoning:                 "https://gisweb-adapters.bcpa.net/arcgis/rest/services/BCPA_EXTERNAL_JAN26/MapServer/9/query",
		PalmBeachProperty:             "https://services1.arcgis.com/ZWOoUZbtaYePLlPw/arcgis/rest/services/Parcels_and_Property_Details_WebMercator/FeatureServer/0/query",
		PalmBeachZoning:               "https://maps.co.palm-beach.fl.us/arcgis/rest/services/OpenData/Planning_Open_Data/MapServer/9/query",
	}
}

// Out-field lists for single-property lookups; wider than the bulk lists.
const (
	miamiDadeLookupFields = "FOLIO,TRUE_SITE_ADDR,TRUE_SITE_CITY,TRUE_OWNER1," +
		"DOR_CODE_CUR,DOR_DESC,LOT_SIZE,YEAR_BUILT," +
		"ASSESSED_VAL_CUR,PRICE_1,DOS_1,LEGAL"
	browardLookupFields = "FOLIO_NUMBER,SITUS_STREET_NUMBER,SITUS_STREET_DIRECTION," +
		"SITUS_STREET_NAME,SITUS_STREET_TYPE,SITUS_CITY," +
		"NAME_LINE_1,USE_CODE,BLDG_YEAR_BUILT,JUST_BUILDING_VALUE"
	palmBeachLookupFields = "PARCEL_NUMBER,SITE_ADDR_STR,MUNICIPALITY,OWNER_NAME1," +
		"PROPERTY_USE,YRBLT,ACRES,ASSESSED_VAL,PRICE,SALE_DATE,LEGAL1"
)

// Adapter executes property searches and lookups against the county ArcGIS
// services.
type Adapter struct {
	client    *Client
	endpoints Endpoints
}

// NewAdapter wires a client to a set of endpoints. A nil client gets the
// default one.
func NewAdapter(client *Client, endpoints Endpoints) *Adapter {
	if client == nil {
		client = NewClient()
	}
	return &Adapter{client: client, endpoints: endpoints}
}

func (a *Adapter) propertyURL(c types.County) string {
	switch c {
	case types.CountyMiamiDade:
		return a.endpoints.MiamiDadeProperty
	case types.CountyBroward:
		return a.endpoints.BrowardProperty
	default:
		return a.endpoints.PalmBeachProperty
	}
}

// BulkSearch runs a paginated property search and returns normalized
// records. Pagination is sequential via resultOffset/resultRecordCount; a
// mid-stream upstream failure truncates the result set rather than erroring,
// so callers always get whatever pages succeeded.
func (a *Adapter) BulkSearch(ctx context.Context, params types.PropertySearchParams) ([]types.PropertyRecord, error) {
	where, fm, err := BuildWhereClause(params)
	if err != nil {
		return nil, err
	}

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > hardMaxResults {
		maxResults = hardMaxResults
	}

	endpoint := a.propertyURL(fm.County)
	records := make([]types.PropertyRecord, 0, maxResults)
	offset := 0

	for len(records) < maxResults {
		batch := pageSize
		if remaining := maxResults - len(records); remaining < batch {
			batch = remaining
		}

		qp := attributeParams(where, fm.OutFields)
		qp.Set("resultOffset", strconv.Itoa(offset))
		qp.Set("resultRecordCount", strconv.Itoa(batch))
		if fm.NeedsOrderBy && fm.OrderByField != "" {
			qp.Set("orderByFields", fm.OrderByField)
		}

		features, err := a.client.Query(ctx, endpoint, qp)
		if err != nil {
			log.Printf("bulk query failed at offset %d, returning partial results: %v", offset, err)
			break
		}
		if len(features) == 0 {
			break
		}

		for _, feat := range features {
			if len(records) >= maxResults {
				break
			}
			records = append(records, Normalize(feat.Attributes, feat.Geometry, fm))
		}
		if len(features) < batch {
			break
		}
		offset += len(features)
	}

	log.Printf("bulk search: county=%s where=%s results=%d", fm.County, truncate(where, 100), len(records))
	return records, nil
}

// Lookup finds a single property by address, enriched with a spatial zoning
// query when coordinates are available. Pass lat/lng as 0 when unknown; the
// feature's own geometry is used instead.
func (a *Adapter) Lookup(ctx context.Context, address, countyName string, lat, lng float64) (*types.PropertyRecord, error) {
	fm, err := FieldMapFor(countyName)
	if err != nil {
		return nil, err
	}
	switch fm.County {
	case types.CountyMiamiDade:
		return a.lookupMiamiDade(ctx, address, lat, lng)
	case types.CountyBroward:
		return a.lookupBroward(ctx, address, lat, lng)
	default:
		return a.lookupPalmBeach(ctx, address, lat, lng)
	}
}

func (a *Adapter) lookupMiamiDade(ctx context.Context, address string, lat, lng float64) (*types.PropertyRecord, error) {
	street := NormalizeAddress(address)

	features, err := a.client.Query(ctx, a.endpoints.MiamiDadeProperty,
		attributeParams(fmt.Sprintf("TRUE_SITE_ADDR LIKE '%%%s%%'", street), miamiDadeLookupFields))
	if err != nil {
		return nil, fmt.Errorf("miami-dade lookup: %w", err)
	}
	if len(features) == 0 {
		// Retry with just the house number and first street token.
		if tokens := strings.Fields(street); len(tokens) >= 2 {
			short := tokens[0] + " " + tokens[1]
			features, err = a.client.Query(ctx, a.endpoints.MiamiDadeProperty,
				attributeParams(fmt.Sprintf("TRUE_SITE_ADDR LIKE '%%%s%%'", short), miamiDadeLookupFields))
			if err != nil {
				return nil, fmt.Errorf("miami-dade lookup: %w", err)
			}
		}
	}
	if len(features) == 0 {
		return nil, ErrNotFound
	}

	feat := features[0]
	rec := Normalize(feat.Attributes, feat.Geometry, miamiDadeFields)
	rec.LotDimensions = ParseLotDimensions(attrString(feat.Attributes, "LEGAL"))

	featLat, featLng := coalesceCoords(lat, lng, feat.Geometry)
	if featLat != 0 && featLng != 0 {
		rec.Lat, rec.Lng = &featLat, &featLng
		zone, desc := a.spatialZoning(ctx, a.endpoints.MiamiDadeMunicipalZoning, featLat, featLng)
		// The municipal layer reports ZONE=NONE for unincorporated areas.
		if zone == "" || strings.EqualFold(zone, "NONE") {
			zone, desc = a.spatialZoning(ctx, a.endpoints.MiamiDadeUnincorporatedZoning, featLat, featLng)
		}
		rec.ZoningCode, rec.ZoningDescription = zone, desc
	}
	return &rec, nil
}

var streetTypePattern = regexp.MustCompile(`\b(BLVD|AVE|ST|DR|CT|LN|PL|RD|TER|WAY|CIR)\b`)

var directionals = map[string]bool{
	"N": true, "S": true, "E": true, "W": true,
	"NE": true, "NW": true, "SE": true, "SW": true,
}

func (a *Adapter) lookupBroward(ctx context.Context, address string, lat, lng float64) (*types.PropertyRecord, error) {
	street := NormalizeAddress(address)
	tokens := strings.Fields(street)
	if len(tokens) < 2 {
		return nil, ErrNotFound
	}

	// Broward stores number, direction, name, and type in separate columns,
	// so the WHERE clause matches number exactly and name by substring.
	streetNum := tokens[0]
	remaining := tokens[1:]
	if directionals[remaining[0]] {
		remaining = remaining[1:]
	}
	streetName := streetTypePattern.ReplaceAllString(strings.Join(remaining, " "), "")
	streetName = strings.Join(strings.Fields(streetName), " ")

	where := fmt.Sprintf("SITUS_STREET_NUMBER='%s' AND SITUS_STREET_NAME LIKE '%%%s%%'", streetNum, streetName)
	features, err := a.client.Query(ctx, a.endpoints.BrowardProperty, attributeParams(where, browardLookupFields))
	if err != nil {
		return nil, fmt.Errorf("broward lookup: %w", err)
	}
	if len(features) == 0 {
		return nil, ErrNotFound
	}

	feat := features[0]
	rec := Normalize(feat.Attributes, feat.Geometry, browardFields)

	featLat, featLng := coalesceCoords(lat, lng, feat.Geometry)
	if featLat != 0 && featLng != 0 {
		rec.Lat, rec.Lng = &featLat, &featLng
		rec.ZoningCode, rec.ZoningDescription = a.spatialZoning(ctx, a.endpoints.BrowardZoning, featLat, featLng)
	}

	// The property table has no lot size; the parcels layer carries polygon
	// area in sqft (EPSG 2236).
	if rec.Folio != "" {
		qp := attributeParams(fmt.Sprintf("FOLIO='%s'", rec.Folio), "*")
		qp.Set("resultRecordCount", "1")
		if parcels, err := a.client.Query(ctx, a.endpoints.BrowardParcels, qp); err == nil && len(parcels) > 0 {
			rec.LotSizeSqft = parcelArea(parcels[0].Attributes)
		}
	}
	return &rec, nil
}

// parcelArea probes the shape-area attribute under the names different
// server versions use.
func parcelArea(attrs map[string]any) float64 {
	for _, key := range []string{"SHAPE.STArea()", "Shape.STArea()", "Shape__Area", "SHAPE_Area"} {
		if v := safeFloat(attrs[key]); v > 0 {
			return v
		}
	}
	return 0
}

func (a *Adapter) lookupPalmBeach(ctx context.Context, address string, lat, lng float64) (*types.PropertyRecord, error) {
	street := NormalizeAddress(address)

	features, err := a.client.Query(ctx, a.endpoints.PalmBeachProperty,
		attributeParams(fmt.Sprintf("SITE_ADDR_STR LIKE '%%%s%%'", street), palmBeachLookupFields))
	if err != nil {
		return nil, fmt.Errorf("palm beach lookup: %w", err)
	}
	if len(features) == 0 {
		return nil, ErrNotFound
	}

	feat := features[0]
	rec := Normalize(feat.Attributes, feat.Geometry, palmBeachFields)
	rec.LotDimensions = ParseLotDimensions(attrString(feat.Attributes, "LEGAL1"))

	featLat, featLng := coalesceCoords(lat, lng, feat.Geometry)
	if featLat != 0 && featLng != 0 {
		rec.Lat, rec.Lng = &featLat, &featLng
		rec.ZoningCode, rec.ZoningDescription = a.spatialZoning(ctx, a.endpoints.PalmBeachZoning, featLat, featLng)
	}
	return &rec, nil
}

// Candidate attribute names for zoning code and description; layers differ
// and some return " " for empty values.
var (
	zoneCodeKeys = []string{"ZONE", "ZONING", "ZONE_", "ZONE_NAME", "FCODE"}
	zoneDescKeys = []string{"ZONE_DESC", "ZONING_DESC", "SHORT_DESC", "DESCRIPTION", "FNAME"}
)

// spatialZoning runs a point-in-polygon query against a zoning layer.
// Failures degrade to empty strings; zoning enrichment is best-effort.
func (a *Adapter) spatialZoning(ctx context.Context, endpoint string, lat, lng float64) (code, desc string) {
	features, err := a.client.Query(ctx, endpoint, spatialPointParams(lat, lng))
	if err != nil {
		log.Printf("zoning spatial query failed: %v", err)
		return "", ""
	}
	if len(features) == 0 {
		return "", ""
	}

	attrs := features[0].Attributes
	for _, key := range zoneCodeKeys {
		if v := attrString(attrs, key); v != "" {
			code = v
			break
		}
	}
	for _, key := range zoneDescKeys {
		if v := attrString(attrs, key); v != "" {
			desc = v
			break
		}
	}
	return code, desc
}

func coalesceCoords(lat, lng float64, geom *Geometry) (float64, float64) {
	if lat != 0 && lng != 0 {
		return lat, lng
	}
	if geom != nil {
		return geom.Y, geom.X
	}
	return 0, 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
