// Package download provides the orchestration logic for fetching
// street-level imagery around a named street.
//
// # Manager
//
// The Manager coordinates the entire run:
//
//  1. Geocode the street query and pick a road candidate
//  2. Pad the candidate's bounding box by the search radius
//  3. Fetch image metadata inside the box, page by page
//  4. Download images concurrently
//  5. Optionally drop images that are not wide enough to be panoramas
//  6. Record every kept image in attribution.csv
//
// # Basic Usage
//
//	manager, err := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	if err != nil {
//	    log.Fatal(err) // mapillary.ErrMissingToken without a token
//	}
//
//	if err := manager.Initialize(ctx, "Main Street"); err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := manager.StartDownloads(ctx)
//
// # Concurrency
//
// StartDownloads runs records on a pool of settings.Threads workers. Each
// worker takes one record through download, filter and ledger append before
// picking up the next. The ledger and the kept/dropped counters are the only
// shared state. Ledger rows appear in completion order.
//
// The progress callback and the WithAdvance callback are invoked from
// worker goroutines and must be safe for concurrent use.
//
// # Retry Logic
//
// Metadata pages and image downloads are retried after a fixed cooldown on
// transient failures. A metadata page that keeps failing aborts Initialize;
// an image that keeps failing is dropped and the run continues.
package download
