// Package watcher reports file system changes under a search root.
//
// Events from fsnotify are filtered, coalesced per path by a Debouncer and
// delivered as batches, so a burst of saves from an editor or a git checkout
// triggers a single re-run of the search.
//
// Usage:
//
//	w, err := watcher.New(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	go func() { _ = w.Run(ctx, root) }()
//
//	for batch := range w.Events() {
//	    // re-run the search
//	}
package watcher
