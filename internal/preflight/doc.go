// Package preflight checks that the environment can run a search before one
// is started. It backs `argus doctor`.
//
// The checks cover:
//   - the search root exists and is a readable directory
//   - the index location is writable and its disk has free space
//   - the open file limit is high enough for the worker pool
//   - which OCR backends (libtesseract, tesseract CLI) can be loaded
//   - the history database opens
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Target{Root: "."})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
