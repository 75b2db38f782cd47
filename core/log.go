package core

import (
	"log"
	"os"
	"strings"
)

// Log verbosity is controlled by the BOOTMARK_LOG environment variable:
// unset disables logging, "info" enables progress messages and "debug"
// additionally traces resolution and scan decisions.
var logLevel string

func init() {
	logLevel = strings.ToLower(os.Getenv("BOOTMARK_LOG"))
}

func logInfof(format string, args ...any) {
	if logLevel == "" {
		return
	}
	log.Printf("INFO: "+format, args...)
}

func logDebugf(format string, args ...any) {
	if logLevel != "debug" {
		return
	}
	log.Printf("DEBUG: "+format, args...)
}
