// Package db embeds the database schema used by the PostgreSQL catalog store.
package db

import _ "embed"

// Schema holds the DDL for the catalog mirror tables.
//
//go:embed migrations/001_schema.sql
var Schema string
