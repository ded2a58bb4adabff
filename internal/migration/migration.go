// Package migration embeds the PostgreSQL schema migrations.
package migration

import "embed"

// FS holds the numbered *.sql migrations applied in lexical order
//
//go:embed *.sql
var FS embed.FS
