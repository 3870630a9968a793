// Package migrations embeds the review service schema migrations.
package migrations

import "embed"

//go:embed *.up.sql
var Files embed.FS
