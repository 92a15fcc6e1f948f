// Package county adapts the three South Florida Property Appraiser ArcGIS
// services (Miami-Dade, Broward, Palm Beach) to a single search and lookup
// API. Each county speaks a different dialect: different attribute names,
// lot-size units, sale-date encodings, and pagination rules. The field maps
// here capture those dialects so everything downstream sees one record shape.
package county
