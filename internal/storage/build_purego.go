//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// Compiled without CGO or with the purego tag:
//
//	CGO_ENABLED=0 go build -tags "purego" ./...
//
// No C compiler needed. Vector search falls back to a Go cosine scan,
// which is fine at municipal-ordinance corpus sizes.

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver to open.
	DriverName = "sqlite"

	// VectorExtensionAvailable reports whether sqlite-vec is compiled in.
	VectorExtensionAvailable = false

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
