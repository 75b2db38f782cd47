package core

import (
	_ "embed"
	"strings"
)

//go:embed version
var libraryVersion string

// LibraryVersion returns the library version as embedded at build time.
func LibraryVersion() string {
	return strings.TrimSpace(libraryVersion)
}
