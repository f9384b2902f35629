// Package monitoring holds the process-wide diagnostic logger shared by the
// filter, the pipeline and the result store.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a printf-style function that forwards to the current Logf
// with prefix prepended to the format. The package logger is looked up on
// every call, so a later SetLogger also redirects prefixed output.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf("["+prefix+"] "+format, v...)
	}
}
