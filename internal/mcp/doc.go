// Package mcp exposes the parcel analysis operations as Model Context
// Protocol tools over stdio: ordinance search, property lookup and bulk
// search, dataset filtering and statistics, and density calculation.
// Bulk search results are parked in a session dataset store so
// follow-up tools can refine them without re-querying county servers.
package mcp
