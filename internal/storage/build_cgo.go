//go:build cgo && !purego
// +build cgo,!purego

package storage

// This file is compiled for CGO builds and selects the C SQLite driver.
//
// Build command:
//   CGO_ENABLED=1 go build ./...
//
// The CGO driver offers noticeably faster blob reads on large corpora and is
// the recommended configuration for on-device deployments that ship a C
// toolchain.
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
