package county

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Feature is one row returned by an ArcGIS query endpoint.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *Geometry      `json:"geometry,omitempty"`
}

// Geometry is a point geometry in the layer's spatial reference.
type Geometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Client is a thin HTTP client for ArcGIS REST query endpoints. The county
// endpoints are public and unauthenticated.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a client with a 20-second request timeout.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 20 * time.Second}}
}

// NewClientWithHTTP allows tests to supply their own http.Client.
func NewClientWithHTTP(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// Query executes a GET against an ArcGIS query endpoint and returns the
// features. ArcGIS reports errors inside a 200 response body; those are
// surfaced as Go errors.
func (c *Client) Query(ctx context.Context, endpoint string, params url.Values) ([]Feature, error) {
	if params.Get("f") == "" {
		params.Set("f", "json")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build arcgis request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arcgis request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arcgis request: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Features []Feature `json:"features"`
		Error    *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode arcgis response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("arcgis error %d: %s", payload.Error.Code, payload.Error.Message)
	}
	return payload.Features, nil
}

// attributeParams builds the common parameter set for attribute queries.
func attributeParams(where, outFields string) url.Values {
	if outFields == "" {
		outFields = "*"
	}
	return url.Values{
		"where":          {where},
		"outFields":      {outFields},
		"f":              {"json"},
		"returnGeometry": {"true"},
	}
}

// spatialPointParams builds the parameter set for a point-in-polygon query
// against a zoning layer.
func spatialPointParams(lat, lng float64) url.Values {
	return url.Values{
		"geometry":       {fmt.Sprintf("%v,%v", lng, lat)},
		"geometryType":   {"esriGeometryPoint"},
		"inSR":           {"4326"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"outFields":      {"*"},
		"f":              {"json"},
		"returnGeometry": {"false"},
	}
}
