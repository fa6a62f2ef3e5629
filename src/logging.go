package bitsentry

import (
	"os"

	"github.com/charmbracelet/log"
)

// ambient_log carries progress and diagnostics.  Results never travel
// through it; the detector returns structured values.
var ambient_log = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Prefix:          "bitsentry",
})

// SetLogger lets the embedding program substitute its own logger;
// a nil logger is ignored.
func SetLogger(logger *log.Logger) {
	if logger != nil {
		ambient_log = logger
	}
}

// Logger exposes the package logger so cmd wrappers can tune levels.
func Logger() *log.Logger {
	return ambient_log
}
