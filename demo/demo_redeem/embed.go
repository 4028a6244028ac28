package demo_redeem

import (
	"embed"
)

// FS provides the embedded default redeem codes.
//
//go:embed *.json
var FS embed.FS
