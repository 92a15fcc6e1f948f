package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lotscope/lotscope/internal/calculator"
	"github.com/lotscope/lotscope/internal/county"
	"github.com/lotscope/lotscope/internal/dataset"
	"github.com/lotscope/lotscope/internal/filter"
	"github.com/lotscope/lotscope/internal/searcher"
	"github.com/lotscope/lotscope/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodePropertyNotFound = -32001 // No parcel matched the address
	ErrorCodeDatasetNotFound  = -32002 // Dataset ID unknown or expired
	ErrorCodeEmptyQuery       = -32004 // Query parameter is empty
)

// sampleSize is how many records dataset-producing tools echo back.
const sampleSize = 5

// handleSearchOrdinances handles the search_ordinances tool invocation
func (s *Server) handleSearchOrdinances(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	searchMode := getStringDefault(args, "search_mode", "hybrid")
	if searchMode != "hybrid" && searchMode != "keyword" {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   searchMode,
			"allowed": []string{"hybrid", "keyword"},
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Municipality: getStringDefault(args, "municipality", ""),
		Query:        query,
		Limit:        limit,
		Mode:         types.SearchMode(searchMode),
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"mode":          resp.Mode,
		"total_results": resp.TotalResults,
		"results":       resp.Results,
		"duration_ms":   resp.Duration.Milliseconds(),
	})), nil
}

// handleLookupProperty handles the lookup_property tool invocation
func (s *Server) handleLookupProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	address, ok := args["address"].(string)
	if !ok || address == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "address parameter is required", map[string]interface{}{
			"param":  "address",
			"reason": "missing or empty",
		})
	}

	countyName, ok := args["county"].(string)
	if !ok || countyName == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "county parameter is required", map[string]interface{}{
			"param":  "county",
			"reason": "missing or empty",
		})
	}

	lat := getFloatDefault(args, "lat", 0)
	lng := getFloatDefault(args, "lng", 0)

	record, err := s.adapter.Lookup(ctx, address, countyName, lat, lng)
	if err != nil {
		var unsupported *types.UnsupportedCountyError
		switch {
		case errors.As(err, &unsupported):
			return nil, newMCPError(ErrorCodeInvalidParams, unsupported.Error(), map[string]interface{}{
				"param":     "county",
				"supported": types.SupportedCounties,
			})
		case errors.Is(err, county.ErrNotFound):
			return nil, newMCPError(ErrorCodePropertyNotFound, "no parcel matched the address", map[string]interface{}{
				"address": address,
				"county":  countyName,
			})
		default:
			return nil, newMCPError(ErrorCodeInternalError, "lookup failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"property": record,
	})), nil
}

// handleSearchProperties handles the search_properties tool invocation
func (s *Server) handleSearchProperties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	countyName, ok := args["county"].(string)
	if !ok || countyName == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "county parameter is required", map[string]interface{}{
			"param":  "county",
			"reason": "missing or empty",
		})
	}

	params := types.PropertySearchParams{
		County:            types.County(countyName),
		LandUseCategory:   types.LandUseCategory(getStringDefault(args, "land_use_category", "")),
		City:              getStringDefault(args, "city", ""),
		MaxSaleDate:       getStringDefault(args, "max_sale_date", ""),
		MinLotSizeSqft:    getFloatPtr(args, "min_lot_size_sqft"),
		MaxLotSizeSqft:    getFloatPtr(args, "max_lot_size_sqft"),
		MinSalePrice:      getFloatPtr(args, "min_sale_price"),
		MaxSalePrice:      getFloatPtr(args, "max_sale_price"),
		MinAssessedValue:  getFloatPtr(args, "min_assessed_value"),
		MaxAssessedValue:  getFloatPtr(args, "max_assessed_value"),
		YearBuiltBefore:   getIntPtr(args, "year_built_before"),
		YearBuiltAfter:    getIntPtr(args, "year_built_after"),
		OwnerNameContains: getStringDefault(args, "owner_name_contains", ""),
		MaxResults:        getIntDefault(args, "max_results", 0),
	}

	records, err := s.adapter.BulkSearch(ctx, params)
	if err != nil {
		var unsupported *types.UnsupportedCountyError
		if errors.As(err, &unsupported) {
			return nil, newMCPError(ErrorCodeInvalidParams, unsupported.Error(), map[string]interface{}{
				"param":     "county",
				"supported": types.SupportedCounties,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "property search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	ds := s.datasets.Create(records, params, describeSearch(params))

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"dataset_id":  ds.ID,
		"description": ds.Description,
		"count":       len(ds.Records),
		"stats":       dataset.Compute(ds.Records),
		"sample":      sample(ds.Records),
	})), nil
}

// handleFilterDataset handles the filter_dataset tool invocation
func (s *Server) handleFilterDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	datasetID, ok := args["dataset_id"].(string)
	if !ok || datasetID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "dataset_id parameter is required", map[string]interface{}{
			"param":  "dataset_id",
			"reason": "missing or empty",
		})
	}

	expression := getStringDefault(args, "expression", "")
	sortBy := getStringDefault(args, "sort_by", "")
	sortOrder := getStringDefault(args, "sort_order", "asc")
	limit := getIntDefault(args, "limit", 0)

	ds, err := s.datasets.Update(datasetID, func(d *dataset.Dataset) error {
		if expression != "" {
			d.Records = filter.Apply(d.Records, expression)
		}
		if sortBy != "" {
			filter.Sort(d.Records, sortBy, sortOrder)
		}
		if limit > 0 && limit < len(d.Records) {
			d.Records = d.Records[:limit]
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			return nil, newMCPError(ErrorCodeDatasetNotFound, "dataset not found or expired", map[string]interface{}{
				"dataset_id": datasetID,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "filter failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"dataset_id": ds.ID,
		"count":      len(ds.Records),
		"stats":      dataset.Compute(ds.Records),
		"sample":     sample(ds.Records),
	})), nil
}

// handleCalculateDensity handles the calculate_density tool invocation
func (s *Server) handleCalculateDensity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	lotSize, ok := args["lot_size_sqft"].(float64)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "lot_size_sqft parameter is required", map[string]interface{}{
			"param":  "lot_size_sqft",
			"reason": "missing or not a number",
		})
	}

	var params types.NumericZoningParams
	if raw, ok := args["zoning_params"].(map[string]interface{}); ok {
		encoded, err := json.Marshal(raw)
		if err == nil {
			err = json.Unmarshal(encoded, &params)
		}
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid zoning_params", map[string]interface{}{
				"param": "zoning_params",
				"error": err.Error(),
			})
		}
	}

	width := getFloatDefault(args, "lot_width_ft", 0)
	depth := getFloatDefault(args, "lot_depth_ft", 0)
	if width <= 0 || depth <= 0 {
		if dims := getStringDefault(args, "lot_dimensions", ""); dims != "" {
			if w, d, ok := calculator.ParseLotDimensions(dims); ok {
				width, depth = w, d
			}
		}
	}

	analysis := calculator.CalculateMaxUnits(lotSize, params, width, depth)
	return mcp.NewToolResultText(formatJSON(analysis)), nil
}

// handleDatasetStats handles the dataset_stats tool invocation
func (s *Server) handleDatasetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	datasetID, ok := args["dataset_id"].(string)
	if !ok || datasetID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "dataset_id parameter is required", map[string]interface{}{
			"param":  "dataset_id",
			"reason": "missing or empty",
		})
	}

	ds, err := s.datasets.Get(datasetID)
	if err != nil {
		return nil, newMCPError(ErrorCodeDatasetNotFound, "dataset not found or expired", map[string]interface{}{
			"dataset_id": datasetID,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"dataset_id":  ds.ID,
		"description": ds.Description,
		"fetched_at":  ds.FetchedAt.Format("2006-01-02T15:04:05Z07:00"),
		"stats":       dataset.Compute(ds.Records),
	})), nil
}

// handleStoreStatus handles the store_status tool invocation
func (s *Server) handleStoreStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get store status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"chunks_count":     status.ChunksCount,
		"embeddings_count": status.EmbeddingsCount,
		"municipalities":   status.Municipalities,
		"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_index_built":      status.Health.FTSIndexBuilt,
			"vector_extension":     status.Health.VectorExtension,
		},
	})), nil
}

// Helper functions

// describeSearch builds a short human description of a search for the
// dataset listing.
func describeSearch(params types.PropertySearchParams) string {
	desc := string(params.County) + " county properties"
	if params.LandUseCategory != "" {
		desc = string(params.County) + " " + string(params.LandUseCategory) + " properties"
	}
	if params.City != "" {
		desc += " in " + params.City
	}
	return desc
}

// sample returns the first few records for tool output.
func sample(records []types.PropertyRecord) []types.PropertyRecord {
	if len(records) <= sampleSize {
		return records
	}
	return records[:sampleSize]
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getFloatPtr extracts an optional float parameter
func getFloatPtr(args map[string]interface{}, key string) *float64 {
	if val, ok := args[key].(float64); ok {
		return &val
	}
	return nil
}

// getIntPtr extracts an optional integer parameter
func getIntPtr(args map[string]interface{}, key string) *int {
	if val, ok := args[key].(float64); ok {
		n := int(val)
		return &n
	}
	return nil
}
