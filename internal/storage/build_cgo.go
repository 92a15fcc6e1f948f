//go:build sqlite_vec
// +build sqlite_vec

package storage

// Compiled with CGO and the sqlite_vec tag:
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec,fts5" ./...
//
// The sqlite-vec extension executes vector similarity in C; SearchVector
// uses the vec0 virtual table instead of the Go cosine scan.

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver to open.
	DriverName = "sqlite3"

	// VectorExtensionAvailable reports whether sqlite-vec is compiled in.
	VectorExtensionAvailable = true

	// BuildMode describes the current build configuration.
	BuildMode = "cgo"
)
