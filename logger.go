package minihttp

import (
	"log"
	"os"
)

// Logger is used for logging formatted messages about connection and
// listener faults. It has the same shape as the standard library's
// log.Logger so that value can be passed directly.
type Logger interface {
	// Printf must have the same semantics as log.Printf.
	Printf(format string, args ...interface{})
}

// defaultLogger returns a Logger backed by the standard library's log
// package, writing to stderr with no extra prefix — the event loop adds
// its own context to every message it logs.
func defaultLogger() Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}
