// Package db provides embedded database schema and seed fixtures.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the embedded product catalog fixture, used by the
// in-memory storage mode and by cmd/seed-db as its default input.
//
//go:embed seed/products.json
var SeedProducts []byte
