// Package types defines the shared domain types for lotscope: normalized
// property records, search parameters, ordinance search results, and the
// zoning parameters and outputs of the density calculator.
//
// The package has no dependencies so it can be imported from any layer
// without cycles.
package types
