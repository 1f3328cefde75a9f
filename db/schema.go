// Package db embeds the PostgreSQL schema of the projection
package db

import _ "embed"

// InitSQL creates every projection table if it does not exist yet
//
//go:embed init_pg_db.sql
var InitSQL string
