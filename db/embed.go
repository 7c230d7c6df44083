// Package db expone el esquema SQL embebido en el binario.
package db

import _ "embed"

// Schema DDL idempotente (CREATE ... IF NOT EXISTS) aplicado al arrancar.
//
//go:embed migrations/001_schema.sql
var Schema string
