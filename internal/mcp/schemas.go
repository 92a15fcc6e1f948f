package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchOrdinancesTool returns the tool definition for search_ordinances
func searchOrdinancesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_ordinances",
		Description: "Search municipal zoning ordinance text with hybrid semantic + keyword retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query: natural language, keywords, or a zone code like RS-8",
				},
				"municipality": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to this municipality (substring match, e.g. 'Hollywood')",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of chunks to return (1-50)",
					"default":     10,
					"minimum":     1,
					"maximum":     50,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "hybrid (vector + keyword fused with RRF) or keyword (BM25 only)",
					"enum":        []string{"hybrid", "keyword"},
					"default":     "hybrid",
				},
			},
			Required: []string{"query"},
		},
	}
}

// lookupPropertyTool returns the tool definition for lookup_property
func lookupPropertyTool() mcp.Tool {
	return mcp.Tool{
		Name:        "lookup_property",
		Description: "Look up a single property by street address in Miami-Dade, Broward, or Palm Beach county, including its zoning designation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"address": map[string]interface{}{
					"type":        "string",
					"description": "Street address, e.g. '2301 NW 107TH AVE'",
				},
				"county": map[string]interface{}{
					"type":        "string",
					"description": "County name",
					"enum":        []string{"Miami-Dade", "Broward", "Palm Beach"},
				},
				"lat": map[string]interface{}{
					"type":        "number",
					"description": "Latitude, if already geocoded (improves zoning lookup)",
				},
				"lng": map[string]interface{}{
					"type":        "number",
					"description": "Longitude, if already geocoded",
				},
			},
			Required: []string{"address", "county"},
		},
	}
}

// searchPropertiesTool returns the tool definition for search_properties
func searchPropertiesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_properties",
		Description: "Search county property databases for parcels matching criteria. Results are stored as a dataset for follow-up filtering and statistics.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"county": map[string]interface{}{
					"type":        "string",
					"description": "County to search",
					"enum":        []string{"Miami-Dade", "Broward", "Palm Beach"},
				},
				"land_use_category": map[string]interface{}{
					"type":        "string",
					"description": "Land-use bucket to filter by",
					"enum": []string{
						"vacant_residential", "vacant_commercial", "single_family",
						"multifamily", "commercial", "industrial", "agricultural",
					},
				},
				"city": map[string]interface{}{
					"type":        "string",
					"description": "Municipality name (Broward names are translated to the county's 2-letter codes)",
				},
				"max_sale_date": map[string]interface{}{
					"type":        "string",
					"description": "ISO date (YYYY-MM-DD); matches properties last sold on or before this date (long-term owners)",
				},
				"min_lot_size_sqft": map[string]interface{}{
					"type": "number",
				},
				"max_lot_size_sqft": map[string]interface{}{
					"type": "number",
				},
				"min_sale_price": map[string]interface{}{
					"type":        "number",
					"description": "Minimum last deed transfer price",
				},
				"max_sale_price": map[string]interface{}{
					"type": "number",
				},
				"min_assessed_value": map[string]interface{}{
					"type": "number",
				},
				"max_assessed_value": map[string]interface{}{
					"type": "number",
				},
				"year_built_before": map[string]interface{}{
					"type":        "integer",
					"description": "Built before this year (0 means vacant land)",
				},
				"year_built_after": map[string]interface{}{
					"type": "integer",
				},
				"owner_name_contains": map[string]interface{}{
					"type":        "string",
					"description": "Owner name contains this text (case-insensitive)",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Result cap (default 500, hard cap 2000)",
					"default":     500,
					"maximum":     2000,
				},
			},
			Required: []string{"county"},
		},
	}
}

// filterDatasetTool returns the tool definition for filter_dataset
func filterDatasetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "filter_dataset",
		Description: "Filter, sort, or trim a stored property dataset. Filter expressions look like \"lot_size_sqft > 10000 and city == 'Hollywood'\"; an unparseable expression leaves the dataset unchanged.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset_id": map[string]interface{}{
					"type":        "string",
					"description": "Dataset ID returned by search_properties",
				},
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "Clauses joined by 'and'; operators ==, !=, >, <, >=, <=, contains",
				},
				"sort_by": map[string]interface{}{
					"type":        "string",
					"description": "Record field to sort by, e.g. lot_size_sqft",
				},
				"sort_order": map[string]interface{}{
					"type":    "string",
					"enum":    []string{"asc", "desc"},
					"default": "asc",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Keep only the first N records after filtering and sorting",
				},
			},
			Required: []string{"dataset_id"},
		},
	}
}

// calculateDensityTool returns the tool definition for calculate_density
func calculateDensityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "calculate_density",
		Description: "Compute the maximum allowed dwelling units for a lot from numeric zoning parameters, reporting the governing constraint and a confidence grade",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"lot_size_sqft": map[string]interface{}{
					"type":        "number",
					"description": "Lot area in square feet",
				},
				"zoning_params": map[string]interface{}{
					"type":        "object",
					"description": "Numeric zoning parameters; omit or zero any that are unknown",
					"properties": map[string]interface{}{
						"max_density_units_per_acre": map[string]interface{}{"type": "number"},
						"min_lot_area_per_unit_sqft": map[string]interface{}{"type": "number"},
						"floor_area_ratio":           map[string]interface{}{"type": "number"},
						"max_lot_coverage_pct":       map[string]interface{}{"type": "number"},
						"max_height_ft":              map[string]interface{}{"type": "number"},
						"max_stories":                map[string]interface{}{"type": "integer"},
						"setback_front_ft":           map[string]interface{}{"type": "number"},
						"setback_side_ft":            map[string]interface{}{"type": "number"},
						"setback_rear_ft":            map[string]interface{}{"type": "number"},
						"min_unit_size_sqft":         map[string]interface{}{"type": "number"},
						"min_lot_width_ft":           map[string]interface{}{"type": "number"},
						"parking_spaces_per_unit":    map[string]interface{}{"type": "number"},
					},
				},
				"lot_width_ft": map[string]interface{}{
					"type":        "number",
					"description": "Lot width in feet, if known",
				},
				"lot_depth_ft": map[string]interface{}{
					"type":        "number",
					"description": "Lot depth in feet, if known",
				},
				"lot_dimensions": map[string]interface{}{
					"type":        "string",
					"description": "Alternative to width/depth: a dimensions string like '75 x 100'",
				},
			},
			Required: []string{"lot_size_sqft"},
		},
	}
}

// datasetStatsTool returns the tool definition for dataset_stats
func datasetStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "dataset_stats",
		Description: "Summary statistics for a stored property dataset: record count, numeric field ranges, cities, land-use codes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset_id": map[string]interface{}{
					"type":        "string",
					"description": "Dataset ID returned by search_properties",
				},
			},
			Required: []string{"dataset_id"},
		},
	}
}

// storeStatusTool returns the tool definition for store_status
func storeStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "store_status",
		Description: "Report ordinance store contents and health: chunk and embedding counts, indexed municipalities, index size",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
