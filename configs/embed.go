package configs

import "embed"

// FS holds the files written into a fresh runtime directory by `mareen init`.
//
//go:embed soul.md
var FS embed.FS
