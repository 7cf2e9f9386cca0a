// Package migrations holds the schema for each supported store dialect.
package migrations

import "embed"

// FS contains one directory of golang-migrate files per driver name.
//
//go:embed mysql/*.sql sqlite/*.sql
var FS embed.FS
