package appfs

import "embed"

// FS holds the SQL migrations plus the email and page templates shipped with the binaries.
// Layout templates start with "_", hence the all: prefix.
//
//go:embed migrations all:templates
var FS embed.FS
