// Package db provides the embedded store schema and seed data locations.
package db

import _ "embed"

// Schema contains the DDL statements for catalog, coupon, order, role and
// settings tables. Statements are idempotent so it can run on every start.
//
//go:embed migrations/001_schema.sql
var Schema string
